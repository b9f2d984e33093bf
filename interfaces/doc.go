// Package interfaces defines the boundary contract between the AirAccount
// trusted application and its untrusted caller, along with the shared types
// every other package builds on.
//
// The package is deliberately dependency-free so that the protocol contract
// can be imported from both sides of the trust boundary without pulling in
// any implementation detail.
//
// # Protocol Contract
//
// Every command crossing the boundary is identified by a small integer id
// and carries up to four typed parameter slots. The number and type of the
// slots for a given id is fixed and recorded once, in CommandTable. The
// validator, the dispatcher and the caller-side stubs all read that table;
// there are no duplicated shape literals that could drift apart:
//
//	spec, ok := interfaces.CommandTable[interfaces.CmdSignTransaction]
//	// spec.Shape is the canonical parameter shape for the command
//
// # Error Taxonomy
//
// Errors crossing the boundary are resolved to one of four kinds before
// marshalling: validation, resource, security, or internal. The caller only
// ever sees the kind (as a Status code) and a safe message; internal state
// never leaks through an error payload.
//
// # Handles
//
// Wallets and keys are referenced through opaque 32-bit handles. A wallet
// handle encodes an arena slot and a generation counter, so a handle held
// across the wallet's removal is rejected rather than silently aliasing a
// newer wallet in the reused slot.
package interfaces
