// Package kms implements the hybrid entropy key derivation engine at the
// heart of the trusted application.
//
// The engine holds the device factory seed in protected memory and derives
// all wallet key material from it. Derivation is two-level:
//
//  1. DeriveMasterKey combines the factory seed with caller-supplied,
//     non-secret entropy (for example material derived from a client-held
//     credential) through HKDF-SHA256 under a fixed domain-separation
//     label. Given the same seed and entropy the result is identical across
//     restarts.
//  2. DeriveAccountKey expands a master key and a 32-bit account index into
//     a secp256k1 private key, one level per logical wallet index.
//
// Key material is referenced through opaque KeyID handles and stored only in
// zeroizing secure buffers. The factory seed and raw private keys never
// leave the package in cleartext: Sign produces a signature, Address
// produces a public address, and nothing else reads the bytes.
//
// Derivation and signing never fail open. An unusable derived scalar or a
// signing failure surfaces as a security error and an audit event; there is
// no fallback key, ever.
//
// # Seed Escrow
//
// SplitFactorySeed and RecoverFactorySeed wrap Shamir's Secret Sharing for
// manufacturing-time escrow of the factory seed. The split shares leave the
// device through provisioning tooling; the reconstructed seed exists only in
// memory.
package kms
