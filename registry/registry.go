package registry

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/AAStarCommunity/AirAccount-sub001/audit"
	"github.com/AAStarCommunity/AirAccount-sub001/interfaces"
)

// DefaultMaxWallets is the pool size used when no explicit capacity is
// configured.
const DefaultMaxWallets = 32

// maxPoolSize is the hard ceiling on pool capacity; slot numbers must fit
// in the 16-bit handle field.
const maxPoolSize = 1 << 16

// KeyEngine is the derivation surface the registry needs from the kms.
type KeyEngine interface {
	DeriveMasterKey(userEntropy []byte) (interfaces.KeyID, error)
	DeriveAccountKey(master interfaces.KeyID, index uint32) (interfaces.KeyID, error)
	Sign(id interfaces.KeyID, digest []byte) ([]byte, error)
	Address(id interfaces.KeyID) (common.Address, error)
	DestroyKey(id interfaces.KeyID)
}

// slot is one arena cell. The generation survives the wallet: it is bumped
// on release so stale handles to recycled slots fail the liveness check.
type slot struct {
	occupied    bool
	generation  uint16
	masterKey   interfaces.KeyID
	createdAt   int64
	createSeq   uint64
	derivations uint32
	maxIndex    uint32
}

// WalletRegistry is the bounded wallet pool. All operations are serialized
// internally.
type WalletRegistry struct {
	mu      sync.Mutex
	slots   []slot
	engine  KeyEngine
	nextSeq uint64

	auditLog *audit.Log
	log      *slog.Logger
	now      func() int64
}

// NewWalletRegistry creates a registry with the given pool capacity. A
// capacity of 0 selects DefaultMaxWallets.
func NewWalletRegistry(capacity int, engine KeyEngine, auditLog *audit.Log, logger *slog.Logger) (*WalletRegistry, error) {
	if capacity == 0 {
		capacity = DefaultMaxWallets
	}
	if capacity < 0 || capacity > maxPoolSize {
		return nil, fmt.Errorf("wallet pool capacity must be between 1 and %d", maxPoolSize)
	}
	if engine == nil {
		return nil, fmt.Errorf("key engine is required")
	}
	if auditLog == nil {
		return nil, fmt.Errorf("audit log is required")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	slots := make([]slot, capacity)
	for i := range slots {
		// Generation starts at 1 so the zero handle is never live.
		slots[i].generation = 1
	}

	return &WalletRegistry{
		slots:    slots,
		engine:   engine,
		auditLog: auditLog,
		log:      logger,
		now:      func() int64 { return time.Now().Unix() },
	}, nil
}

// Create provisions a new wallet from caller-supplied entropy and returns
// its handle. The lowest free slot is used. Returns
// interfaces.ErrWalletPoolExhausted when every slot is occupied.
func (r *WalletRegistry) Create(userEntropy []byte) (interfaces.WalletHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	free := -1
	for i := range r.slots {
		if !r.slots[i].occupied {
			free = i
			break
		}
	}
	if free == -1 {
		return 0, interfaces.ErrWalletPoolExhausted
	}

	master, err := r.engine.DeriveMasterKey(userEntropy)
	if err != nil {
		return 0, err
	}

	s := &r.slots[free]
	s.occupied = true
	s.masterKey = master
	s.createdAt = r.now()
	s.derivations = 0
	s.maxIndex = 0
	r.nextSeq++
	s.createSeq = r.nextSeq

	handle := interfaces.NewWalletHandle(uint16(free), s.generation)

	r.auditLog.Record(audit.Event{
		Kind:      audit.WalletCreated,
		Component: "registry",
		Wallet:    handle,
	})
	r.log.Info("wallet created", slog.String("wallet", handle.String()))

	return handle, nil
}

// Remove releases the wallet, destroying its master key and bumping the
// slot generation so the handle (and any copy of it) goes stale.
func (r *WalletRegistry) Remove(h interfaces.WalletHandle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.liveSlotLocked(h)
	if err != nil {
		return err
	}

	r.engine.DestroyKey(s.masterKey)
	s.occupied = false
	s.generation++
	s.masterKey = 0
	s.createdAt = 0
	s.createSeq = 0
	s.derivations = 0
	s.maxIndex = 0

	r.auditLog.Record(audit.Event{
		Kind:      audit.WalletRemoved,
		Component: "registry",
		Wallet:    h,
	})
	r.log.Info("wallet removed", slog.String("wallet", h.String()))
	return nil
}

// DeriveAddress derives the account address at the given index. Derivation
// is a pure function of the wallet's master key and the index, so repeating
// an index returns the same address. The wallet's high-water index ratchets
// up, never down, and every call counts toward the derivation total.
func (r *WalletRegistry) DeriveAddress(h interfaces.WalletHandle, index uint32) (common.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.liveSlotLocked(h)
	if err != nil {
		return common.Address{}, err
	}

	addr, err := r.addressAtLocked(s, index)
	if err != nil {
		return common.Address{}, err
	}

	s.derivations++
	if index > s.maxIndex {
		s.maxIndex = index
	}

	r.auditLog.Record(audit.Event{
		Kind:      audit.AddressDerivation,
		Component: "registry",
		Wallet:    h,
		Index:     index,
	})

	return addr, nil
}

// Sign signs a 32-byte digest with the wallet's account key at its current
// high-water index.
func (r *WalletRegistry) Sign(h interfaces.WalletHandle, digest []byte) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.liveSlotLocked(h)
	if err != nil {
		return nil, err
	}

	account, err := r.engine.DeriveAccountKey(s.masterKey, s.maxIndex)
	if err != nil {
		return nil, err
	}
	defer r.engine.DestroyKey(account)

	sig, err := r.engine.Sign(account, digest)
	if err != nil {
		return nil, err
	}

	r.auditLog.Record(audit.Event{
		Kind:      audit.TransactionSigned,
		Component: "registry",
		Wallet:    h,
		Index:     s.maxIndex,
	})

	return sig, nil
}

// Metadata returns the wallet's bookkeeping snapshot.
func (r *WalletRegistry) Metadata(h interfaces.WalletHandle) (interfaces.WalletMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.liveSlotLocked(h)
	if err != nil {
		return interfaces.WalletMetadata{}, err
	}

	return interfaces.WalletMetadata{
		Handle:      h,
		CreatedAt:   s.createdAt,
		Derivations: s.derivations,
		MaxIndex:    s.maxIndex,
	}, nil
}

// List returns metadata for every live wallet in creation order.
func (r *WalletRegistry) List() []interfaces.WalletMetadata {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]interfaces.WalletMetadata, 0, len(r.slots))
	for i := range r.slots {
		s := &r.slots[i]
		if !s.occupied {
			continue
		}
		out = append(out, interfaces.WalletMetadata{
			Handle:      interfaces.NewWalletHandle(uint16(i), s.generation),
			CreatedAt:   s.createdAt,
			Derivations: s.derivations,
			MaxIndex:    s.maxIndex,
		})
	}

	// Slot order is allocation order only until a slot is recycled;
	// creation sequence is the stable ordering.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && r.seqOf(out[j-1].Handle) > r.seqOf(out[j].Handle); j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// IsLive reports whether the handle refers to an occupied slot with a
// matching generation.
func (r *WalletRegistry) IsLive(h interfaces.WalletHandle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.liveSlotLocked(h)
	return err == nil
}

// Count returns the number of live wallets.
func (r *WalletRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for i := range r.slots {
		if r.slots[i].occupied {
			n++
		}
	}
	return n
}

// Capacity returns the pool size.
func (r *WalletRegistry) Capacity() int {
	return len(r.slots)
}

// Destroy removes every live wallet. Used on teardown.
func (r *WalletRegistry) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.slots {
		s := &r.slots[i]
		if !s.occupied {
			continue
		}
		h := interfaces.NewWalletHandle(uint16(i), s.generation)
		r.engine.DestroyKey(s.masterKey)
		s.occupied = false
		s.generation++
		s.masterKey = 0
		s.createdAt = 0
		s.createSeq = 0
		s.derivations = 0
		s.maxIndex = 0

		r.auditLog.Record(audit.Event{
			Kind:      audit.WalletRemoved,
			Component: "registry",
			Wallet:    h,
		})
	}
	r.log.Info("wallet pool destroyed")
}

func (r *WalletRegistry) liveSlotLocked(h interfaces.WalletHandle) (*slot, error) {
	idx := int(h.Slot())
	if idx >= len(r.slots) {
		return nil, interfaces.ErrWalletNotFound
	}
	s := &r.slots[idx]
	if !s.occupied || s.generation != h.Generation() {
		return nil, interfaces.ErrWalletNotFound
	}
	return s, nil
}

func (r *WalletRegistry) addressAtLocked(s *slot, index uint32) (common.Address, error) {
	account, err := r.engine.DeriveAccountKey(s.masterKey, index)
	if err != nil {
		return common.Address{}, err
	}
	defer r.engine.DestroyKey(account)
	return r.engine.Address(account)
}

func (r *WalletRegistry) seqOf(h interfaces.WalletHandle) uint64 {
	return r.slots[h.Slot()].createSeq
}
