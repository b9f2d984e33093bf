// Command airaccount-ta brings up the wallet trusted application outside
// real TEE hardware: it provisions or loads the sealed factory seed, builds
// the derivation engine and wallet registry, runs the security self-test,
// and then serves until terminated.
//
// Subcommands:
//
//	init     generate a factory seed, seal and store it, optionally
//	         printing Shamir escrow shares
//	recover  reconstruct the factory seed from escrow shares and store it
//	run      load the seed and run the application
package main
