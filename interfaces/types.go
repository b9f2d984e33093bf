package interfaces

import "fmt"

// WalletHandle is an opaque reference to a live wallet inside the trusted
// application. The low 16 bits index an arena slot, the high 16 bits carry
// the slot's generation at allocation time. A slot freed by RemoveWallet is
// immediately reusable, but reuse bumps the generation, so a stale handle
// can never alias the slot's next occupant.
type WalletHandle uint32

// NewWalletHandle packs a slot index and generation into a handle.
func NewWalletHandle(slot, generation uint16) WalletHandle {
	return WalletHandle(uint32(generation)<<16 | uint32(slot))
}

// Slot returns the arena slot index the handle refers to.
func (h WalletHandle) Slot() uint16 {
	return uint16(h & 0xffff)
}

// Generation returns the slot generation the handle was issued under.
func (h WalletHandle) Generation() uint16 {
	return uint16(h >> 16)
}

// String formats the handle for logs. The raw value is opaque to the caller.
func (h WalletHandle) String() string {
	return fmt.Sprintf("wallet_%d", uint32(h))
}

// KeyID is an opaque reference to key material held inside the derivation
// engine. It never encodes anything about the key bytes themselves.
type KeyID uint32

// WalletMetadata is the public view of a wallet returned by GetWalletInfo
// and ListWallets. It carries identifiers and counters only; key material is
// not representable here by construction.
type WalletMetadata struct {
	Handle      WalletHandle
	CreatedAt   int64
	Derivations uint32
	MaxIndex    uint32
}

// HandleChecker reports whether a wallet handle refers to a live wallet.
// The input validator uses it to reject stale or fabricated handles before
// any component runs.
type HandleChecker interface {
	IsLive(WalletHandle) bool
}
