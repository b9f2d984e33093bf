package kms

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/hkdf"

	"github.com/AAStarCommunity/AirAccount-sub001/audit"
	"github.com/AAStarCommunity/AirAccount-sub001/cryptoutils"
	"github.com/AAStarCommunity/AirAccount-sub001/interfaces"
)

// Domain-separation labels for the two derivation levels. These are part of
// the key hierarchy definition; changing them changes every derived key.
var (
	masterKeyLabel  = []byte("AirAccount-HybridEntropy-v1.0")
	accountKeyLabel = []byte("AirAccount-AccountKey-v1.0")
)

// MinFactorySeedLen is the minimum acceptable factory seed length.
const MinFactorySeedLen = 32

// KeySize is the length of all derived key material.
const KeySize = 32

// HybridKMS derives and holds wallet key material. All mutating access is
// serialized internally; callers hold KeyIDs, never bytes.
type HybridKMS struct {
	mu          sync.Mutex
	factorySeed *cryptoutils.SecureBuffer
	keys        map[interfaces.KeyID]*cryptoutils.SecureBuffer
	nextKey     interfaces.KeyID

	auditLog *audit.Log
	log      *slog.Logger

	attestationProvider AttestationProvider
}

// NewHybridKMS creates a derivation engine over the given factory seed. The
// seed is copied into protected memory; the caller should scrub its copy.
// The seed must be at least MinFactorySeedLen bytes.
func NewHybridKMS(factorySeed []byte, auditLog *audit.Log, logger *slog.Logger) (*HybridKMS, error) {
	if len(factorySeed) < MinFactorySeedLen {
		return nil, fmt.Errorf("%w: factory seed must be at least %d bytes", interfaces.ErrNotInitialized, MinFactorySeedLen)
	}
	if auditLog == nil {
		return nil, errors.New("audit log is required")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	seed, err := cryptoutils.SecureBufferFrom(factorySeed)
	if err != nil {
		return nil, err
	}

	return &HybridKMS{
		factorySeed:         seed,
		keys:                make(map[interfaces.KeyID]*cryptoutils.SecureBuffer),
		nextKey:             1,
		auditLog:            auditLog,
		log:                 logger,
		attestationProvider: &DummyAttestationProvider{},
	}, nil
}

// WithAttestationProvider sets the attestation provider used for security
// state evidence and returns the engine for chaining.
func (k *HybridKMS) WithAttestationProvider(provider AttestationProvider) *HybridKMS {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.attestationProvider = provider
	return k
}

// DeriveMasterKey combines the factory seed with caller-supplied entropy
// into a per-wallet master key. The entropy is supplemental context, never a
// secret of its own; its length must be within the protocol bounds. The
// result is deterministic in (seed, entropy), so a restarted engine with the
// same seed reproduces the same master key.
func (k *HybridKMS) DeriveMasterKey(userEntropy []byte) (interfaces.KeyID, error) {
	if len(userEntropy) < interfaces.MinUserEntropy || len(userEntropy) > interfaces.MaxUserEntropy {
		return 0, interfaces.ErrInvalidEntropyLength
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.factorySeed == nil || k.factorySeed.Destroyed() {
		return 0, interfaces.ErrNotInitialized
	}

	key, err := cryptoutils.NewSecureBuffer(KeySize)
	if err != nil {
		return 0, err
	}

	r := hkdf.New(sha256.New, k.factorySeed.Bytes(), masterKeyLabel, userEntropy)
	if _, err := io.ReadFull(r, key.Bytes()); err != nil {
		key.Destroy()
		k.auditDerivationFailure("master key expansion failed")
		return 0, fmt.Errorf("%w: hkdf expansion: %v", interfaces.ErrDerivationFailed, err)
	}

	return k.storeKeyLocked(key), nil
}

// DeriveAccountKey performs one level of hierarchical derivation from a
// master key to the account key at the given index. The derived scalar is
// checked for validity on the secp256k1 curve; an unusable scalar is a
// security error, never a silently substituted key.
func (k *HybridKMS) DeriveAccountKey(master interfaces.KeyID, index uint32) (interfaces.KeyID, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	masterKey, ok := k.keys[master]
	if !ok || masterKey.Destroyed() {
		return 0, fmt.Errorf("%w: unknown master key", interfaces.ErrDerivationFailed)
	}

	var info [4]byte
	binary.LittleEndian.PutUint32(info[:], index)

	key, err := cryptoutils.NewSecureBuffer(KeySize)
	if err != nil {
		return 0, err
	}

	r := hkdf.New(sha256.New, masterKey.Bytes(), accountKeyLabel, info[:])
	if _, err := io.ReadFull(r, key.Bytes()); err != nil {
		key.Destroy()
		k.auditDerivationFailure("account key expansion failed")
		return 0, fmt.Errorf("%w: hkdf expansion: %v", interfaces.ErrDerivationFailed, err)
	}

	// Reject scalars that are zero or not below the curve order. The
	// probability is negligible but the failure mode must be closed.
	if _, err := crypto.ToECDSA(key.Bytes()); err != nil {
		key.Destroy()
		k.auditDerivationFailure("derived scalar invalid on curve")
		return 0, fmt.Errorf("%w: %v", interfaces.ErrDerivationFailed, err)
	}

	return k.storeKeyLocked(key), nil
}

// Sign signs a 32-byte digest with the referenced key and returns the
// 65-byte [R || S || V] signature. The key material is used in place and
// never copied out of the engine.
func (k *HybridKMS) Sign(id interfaces.KeyID, digest []byte) ([]byte, error) {
	if len(digest) != interfaces.DigestSize {
		return nil, fmt.Errorf("%w: digest must be %d bytes", interfaces.ErrSigningFailed, interfaces.DigestSize)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	key, ok := k.keys[id]
	if !ok || key.Destroyed() {
		return nil, fmt.Errorf("%w: unknown key", interfaces.ErrSigningFailed)
	}

	priv, err := crypto.ToECDSA(key.Bytes())
	if err != nil {
		k.auditSigningFailure("key material unusable")
		return nil, fmt.Errorf("%w: %v", interfaces.ErrSigningFailed, err)
	}

	sig, err := crypto.Sign(digest, priv)
	if err != nil {
		k.auditSigningFailure("curve signing failed")
		return nil, fmt.Errorf("%w: %v", interfaces.ErrSigningFailed, err)
	}
	return sig, nil
}

// Address returns the Ethereum-style address of the referenced key's public
// key.
func (k *HybridKMS) Address(id interfaces.KeyID) (common.Address, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	key, ok := k.keys[id]
	if !ok || key.Destroyed() {
		return common.Address{}, fmt.Errorf("%w: unknown key", interfaces.ErrDerivationFailed)
	}

	priv, err := crypto.ToECDSA(key.Bytes())
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", interfaces.ErrDerivationFailed, err)
	}
	return crypto.PubkeyToAddress(priv.PublicKey), nil
}

// DestroyKey zeroizes and releases the referenced key. Destroying an
// unknown key is a no-op; destruction must be safe on every cleanup path.
func (k *HybridKMS) DestroyKey(id interfaces.KeyID) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if key, ok := k.keys[id]; ok {
		key.Destroy()
		delete(k.keys, id)
	}
}

// KeyCount returns the number of live keys. Used by the self-test and by
// leak checks in tests.
func (k *HybridKMS) KeyCount() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.keys)
}

// Initialized reports whether the factory seed is loaded and usable.
func (k *HybridKMS) Initialized() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.factorySeed != nil && !k.factorySeed.Destroyed()
}

// Attest produces attestation evidence binding the given report data to the
// platform, through the configured provider.
func (k *HybridKMS) Attest(reportData [64]byte) ([]byte, error) {
	k.mu.Lock()
	provider := k.attestationProvider
	k.mu.Unlock()
	return provider.Attest(reportData)
}

// Destroy zeroizes the factory seed and every live key. The engine is
// unusable afterwards.
func (k *HybridKMS) Destroy() {
	k.mu.Lock()
	defer k.mu.Unlock()

	for id, key := range k.keys {
		key.Destroy()
		delete(k.keys, id)
	}
	if k.factorySeed != nil {
		k.factorySeed.Destroy()
	}
}

func (k *HybridKMS) storeKeyLocked(key *cryptoutils.SecureBuffer) interfaces.KeyID {
	id := k.nextKey
	k.nextKey++
	k.keys[id] = key
	return id
}

func (k *HybridKMS) auditDerivationFailure(detail string) {
	k.auditLog.Record(audit.Event{
		Kind:      audit.SecurityViolation,
		Component: "kms",
		Detail:    detail,
	})
	k.log.Error("key derivation failed", slog.String("detail", detail))
}

func (k *HybridKMS) auditSigningFailure(detail string) {
	k.auditLog.Record(audit.Event{
		Kind:      audit.SecurityViolation,
		Component: "kms",
		Detail:    detail,
	})
	k.log.Error("signing failed", slog.String("detail", detail))
}
