// Package registry implements the bounded wallet arena. Wallets live in a
// fixed pool of slots; callers hold generation-tagged handles that go stale
// the moment a slot is recycled, so a removed wallet can never be reached
// through an old handle.
//
// The registry owns the wallet lifecycle and its per-wallet counters. Key
// material itself stays inside the kms engine; the registry only maps
// handles to key ids and enforces the pool bound.
package registry
