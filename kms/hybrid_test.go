package kms

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"io"
	"log/slog"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AAStarCommunity/AirAccount-sub001/audit"
	"github.com/AAStarCommunity/AirAccount-sub001/interfaces"
)

func newTestKMS(t *testing.T, seed []byte) *HybridKMS {
	t.Helper()
	k, err := NewHybridKMS(seed, audit.NewLog(0, nil), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err, "Failed to create KMS")
	return k
}

func testSeed(t *testing.T) []byte {
	t.Helper()
	seed := make([]byte, 32)
	_, err := rand.Read(seed)
	require.NoError(t, err, "Failed to generate test seed")
	return seed
}

func TestHybridKMS_New(t *testing.T) {
	seed := testSeed(t)

	k, err := NewHybridKMS(seed, audit.NewLog(0, nil), nil)
	require.NoError(t, err, "NewHybridKMS should succeed with a 32-byte seed")
	assert.True(t, k.Initialized(), "KMS should be initialized")

	// Seed below the minimum is rejected
	_, err = NewHybridKMS(make([]byte, 16), audit.NewLog(0, nil), nil)
	assert.ErrorIs(t, err, interfaces.ErrNotInitialized, "Should fail with seed < 32 bytes")

	// Audit log is mandatory
	_, err = NewHybridKMS(seed, nil, nil)
	assert.Error(t, err, "Should fail without an audit log")
}

func TestHybridKMS_DeterministicAcrossRestart(t *testing.T) {
	seed := testSeed(t)
	entropy := []byte("user-provided-entropy-16")
	digest := sha256.Sum256([]byte("payload"))

	k1 := newTestKMS(t, seed)
	m1, err := k1.DeriveMasterKey(entropy)
	require.NoError(t, err, "Master derivation should succeed")
	a1, err := k1.DeriveAccountKey(m1, 3)
	require.NoError(t, err, "Account derivation should succeed")
	addr1, err := k1.Address(a1)
	require.NoError(t, err, "Address should succeed")
	sig1, err := k1.Sign(a1, digest[:])
	require.NoError(t, err, "Signing should succeed")
	k1.Destroy()

	// Fresh engine over the same seed reproduces the same key material
	k2 := newTestKMS(t, seed)
	m2, err := k2.DeriveMasterKey(entropy)
	require.NoError(t, err)
	a2, err := k2.DeriveAccountKey(m2, 3)
	require.NoError(t, err)
	addr2, err := k2.Address(a2)
	require.NoError(t, err)
	sig2, err := k2.Sign(a2, digest[:])
	require.NoError(t, err)

	assert.Equal(t, addr1, addr2, "Same seed and entropy must yield the same address")
	assert.Equal(t, sig1, sig2, "Same key and digest must yield the same signature")
}

func TestHybridKMS_DistinctInputsDistinctKeys(t *testing.T) {
	k := newTestKMS(t, testSeed(t))

	m1, err := k.DeriveMasterKey([]byte("first-user-entropy-value"))
	require.NoError(t, err)
	m2, err := k.DeriveMasterKey([]byte("other-user-entropy-value"))
	require.NoError(t, err)

	aFirst0, err := k.DeriveAccountKey(m1, 0)
	require.NoError(t, err)
	aFirst1, err := k.DeriveAccountKey(m1, 1)
	require.NoError(t, err)
	aOther0, err := k.DeriveAccountKey(m2, 0)
	require.NoError(t, err)

	addrFirst0, err := k.Address(aFirst0)
	require.NoError(t, err)
	addrFirst1, err := k.Address(aFirst1)
	require.NoError(t, err)
	addrOther0, err := k.Address(aOther0)
	require.NoError(t, err)

	assert.NotEqual(t, addrFirst0, addrFirst1, "Distinct indices must yield distinct addresses")
	assert.NotEqual(t, addrFirst0, addrOther0, "Distinct entropy must yield distinct addresses")
}

func TestHybridKMS_SignVerifiesAgainstAddress(t *testing.T) {
	k := newTestKMS(t, testSeed(t))

	m, err := k.DeriveMasterKey([]byte("entropy-for-verification"))
	require.NoError(t, err)
	a, err := k.DeriveAccountKey(m, 0)
	require.NoError(t, err)

	digest := sha256.Sum256([]byte("transaction digest"))
	sig, err := k.Sign(a, digest[:])
	require.NoError(t, err, "Signing should succeed")
	require.Equal(t, interfaces.SignatureSize, len(sig), "Signature must be 65 bytes")

	pub, err := crypto.SigToPub(digest[:], sig)
	require.NoError(t, err, "Signature should recover a public key")

	addr, err := k.Address(a)
	require.NoError(t, err)
	assert.Equal(t, addr, crypto.PubkeyToAddress(*pub), "Recovered key must match the derived address")

	assert.True(t, crypto.VerifySignature(crypto.FromECDSAPub(pub), digest[:], sig[:64]),
		"Signature must verify against the digest")
}

func TestHybridKMS_EntropyBounds(t *testing.T) {
	k := newTestKMS(t, testSeed(t))

	_, err := k.DeriveMasterKey(make([]byte, interfaces.MinUserEntropy-1))
	assert.ErrorIs(t, err, interfaces.ErrInvalidEntropyLength, "Short entropy must be rejected")

	_, err = k.DeriveMasterKey(make([]byte, interfaces.MaxUserEntropy+1))
	assert.ErrorIs(t, err, interfaces.ErrInvalidEntropyLength, "Oversized entropy must be rejected")

	_, err = k.DeriveMasterKey(make([]byte, interfaces.MinUserEntropy))
	assert.NoError(t, err, "Minimum-length entropy must be accepted")
}

func TestHybridKMS_DigestLength(t *testing.T) {
	k := newTestKMS(t, testSeed(t))

	m, err := k.DeriveMasterKey([]byte("entropy-for-digest-test"))
	require.NoError(t, err)
	a, err := k.DeriveAccountKey(m, 0)
	require.NoError(t, err)

	_, err = k.Sign(a, make([]byte, 31))
	assert.ErrorIs(t, err, interfaces.ErrSigningFailed, "Short digest must be rejected")

	_, err = k.Sign(a, make([]byte, 33))
	assert.ErrorIs(t, err, interfaces.ErrSigningFailed, "Long digest must be rejected")
}

func TestHybridKMS_DestroyKey(t *testing.T) {
	k := newTestKMS(t, testSeed(t))

	m, err := k.DeriveMasterKey([]byte("entropy-for-destroy-test"))
	require.NoError(t, err)
	require.Equal(t, 1, k.KeyCount(), "One key should be live")

	k.DestroyKey(m)
	assert.Equal(t, 0, k.KeyCount(), "Destroyed key should be released")

	_, err = k.DeriveAccountKey(m, 0)
	assert.ErrorIs(t, err, interfaces.ErrDerivationFailed, "Derivation from a destroyed key must fail")

	digest := sha256.Sum256([]byte("x"))
	_, err = k.Sign(m, digest[:])
	assert.ErrorIs(t, err, interfaces.ErrSigningFailed, "Signing with a destroyed key must fail")

	// Destroying again is a no-op
	k.DestroyKey(m)
}

func TestHybridKMS_DestroyAll(t *testing.T) {
	k := newTestKMS(t, testSeed(t))

	m, err := k.DeriveMasterKey([]byte("entropy-for-teardown-test"))
	require.NoError(t, err)
	_, err = k.DeriveAccountKey(m, 0)
	require.NoError(t, err)
	require.Equal(t, 2, k.KeyCount())

	k.Destroy()
	assert.Equal(t, 0, k.KeyCount(), "All keys should be released")
	assert.False(t, k.Initialized(), "Seed should be destroyed")

	_, err = k.DeriveMasterKey([]byte("entropy-after-teardown-xx"))
	assert.ErrorIs(t, err, interfaces.ErrNotInitialized, "Derivation after teardown must fail")
}

func TestHybridKMS_Attest(t *testing.T) {
	k := newTestKMS(t, testSeed(t))

	var report [64]byte
	copy(report[:], []byte("report data"))

	quote, err := k.Attest(report)
	require.NoError(t, err, "Dummy attestation should succeed")
	assert.True(t, bytes.Equal(report[:], quote), "Dummy provider echoes the report data")
}

func TestSplitAndRecoverFactorySeed(t *testing.T) {
	seed := testSeed(t)

	shares, err := SplitFactorySeed(seed, 5, 3)
	require.NoError(t, err, "Split should succeed with valid parameters")
	require.Equal(t, 5, len(shares), "Should generate 5 shares")

	recovered, err := RecoverFactorySeed(shares[:3])
	require.NoError(t, err, "Recovery from threshold shares should succeed")
	assert.Equal(t, seed, recovered, "Recovered seed must match the original")

	// Shares are wiped after a successful combine
	for i, share := range shares[:3] {
		assert.True(t, allZeroBytes(share), "Share %d should be wiped after recovery", i)
	}

	// Invalid split parameters
	_, err = SplitFactorySeed(seed, 3, 5)
	assert.Error(t, err, "Should fail when threshold > total shares")

	_, err = SplitFactorySeed(seed, 5, 1)
	assert.Error(t, err, "Should fail when threshold < 2")

	_, err = SplitFactorySeed(make([]byte, 16), 5, 3)
	assert.Error(t, err, "Should fail with seed < 32 bytes")

	_, err = RecoverFactorySeed(nil)
	assert.Error(t, err, "Should fail with no shares")
}

func allZeroBytes(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
