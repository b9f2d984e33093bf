package storage

import (
	"context"
	"crypto/rand"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AAStarCommunity/AirAccount-sub001/interfaces"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSealUnseal(t *testing.T) {
	seed := make([]byte, 32)
	_, err := rand.Read(seed)
	require.NoError(t, err, "Failed to generate test seed")

	blob := Seal(seed)
	require.Greater(t, len(blob), len(seed), "Sealed blob carries the frame")

	out, err := Unseal(blob)
	require.NoError(t, err, "Unseal should succeed on an intact blob")
	assert.Equal(t, seed, out, "Unsealed seed must match")

	// Flip one seed byte
	corrupt := append([]byte(nil), blob...)
	corrupt[len(corrupt)-1] ^= 0x01
	_, err = Unseal(corrupt)
	assert.ErrorIs(t, err, interfaces.ErrSeedCorrupted, "Corrupted payload must be rejected")

	// Flip one digest byte
	corrupt = append([]byte(nil), blob...)
	corrupt[len(sealMagic)] ^= 0x01
	_, err = Unseal(corrupt)
	assert.ErrorIs(t, err, interfaces.ErrSeedCorrupted, "Corrupted digest must be rejected")

	// Truncated blob
	_, err = Unseal(blob[:8])
	assert.ErrorIs(t, err, interfaces.ErrSeedCorrupted, "Truncated blob must be rejected")

	// Wrong magic
	corrupt = append([]byte(nil), blob...)
	corrupt[0] = 'X'
	_, err = Unseal(corrupt)
	assert.ErrorIs(t, err, interfaces.ErrSeedCorrupted, "Foreign blob must be rejected")
}

func TestFileSeedBackend_RoundTrip(t *testing.T) {
	backend, err := NewFileSeedBackend(t.TempDir(), testLogger())
	require.NoError(t, err, "Failed to create file backend")

	ctx := context.Background()
	assert.True(t, backend.Available(ctx), "Backend should be available")

	// Nothing provisioned yet
	_, err = backend.FetchSeed(ctx)
	assert.ErrorIs(t, err, interfaces.ErrSeedNotFound, "Empty backend has no seed")

	seed := make([]byte, 32)
	_, err = rand.Read(seed)
	require.NoError(t, err)

	sealed := Seal(seed)
	require.NoError(t, backend.StoreSeed(ctx, sealed), "Store should succeed")

	fetched, err := backend.FetchSeed(ctx)
	require.NoError(t, err, "Fetch should succeed after store")
	assert.Equal(t, sealed, fetched, "Fetched blob must match the stored one")

	out, err := Unseal(fetched)
	require.NoError(t, err, "Stored blob must unseal cleanly")
	assert.Equal(t, seed, out)
}

func TestSeedBackendFactory(t *testing.T) {
	factory := NewSeedBackendFactory(testLogger())

	dir := t.TempDir()
	backend, err := factory.SeedBackendFor(interfaces.SeedBackendLocation("file://" + dir))
	require.NoError(t, err, "file scheme should be supported")
	assert.Contains(t, backend.LocationURI(), "file://", "Backend reports its location")

	backend, err = factory.SeedBackendFor("vault://vault.example.com:8200/secret/airaccount?token=t&scheme=http")
	require.NoError(t, err, "vault scheme should be supported")
	assert.Contains(t, backend.LocationURI(), "vault://", "Backend reports its location")

	backend, err = factory.SeedBackendFor("s3://seeds-bucket/airaccount?region=eu-west-1")
	require.NoError(t, err, "s3 scheme should be supported")
	assert.Contains(t, backend.LocationURI(), "s3://seeds-bucket", "Backend reports its location")

	backend, err = factory.SeedBackendFor("ipfs://127.0.0.1:5001/?cid=QmTest")
	require.NoError(t, err, "ipfs scheme should be supported")
	assert.Contains(t, backend.LocationURI(), "cid=QmTest", "Backend carries the CID")

	_, err = factory.SeedBackendFor("gopher://unsupported")
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI, "Unsupported scheme rejected")

	_, err = factory.SeedBackendFor("vault://vault.example.com:8200/secretonly")
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI, "Vault URI without a data path rejected")
}
