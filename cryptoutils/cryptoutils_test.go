package cryptoutils

import (
	"bytes"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	"github.com/AAStarCommunity/AirAccount-sub001/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstantTimeEq(t *testing.T) {
	a := []byte{1, 2, 3, 4}
	b := []byte{1, 2, 3, 4}
	c := []byte{1, 2, 3, 5}

	assert.True(t, ConstantTimeEq(a, b), "equal buffers should compare equal")
	assert.False(t, ConstantTimeEq(a, c), "different buffers should compare unequal")
	assert.False(t, ConstantTimeEq(a, a[:3]), "different lengths should compare unequal")
	assert.True(t, ConstantTimeEq(nil, nil), "nil buffers should compare equal")

	// Random inputs: result must agree with bytes.Equal and inputs must
	// not be modified.
	for i := 0; i < 200; i++ {
		x := make([]byte, 64)
		y := make([]byte, 64)
		_, err := rand.Read(x)
		require.NoError(t, err)
		copy(y, x)
		if i%2 == 0 {
			y[i%64] ^= 0x80
		}
		xBefore := append([]byte(nil), x...)
		assert.Equal(t, bytes.Equal(x, y), ConstantTimeEq(x, y))
		assert.Equal(t, xBefore, x, "comparison must not modify inputs")
	}
}

func TestConstantTimeEq_TimingIndependence(t *testing.T) {
	if testing.Short() {
		t.Skip("timing measurement skipped in short mode")
	}

	const size = 4096
	const iters = 2000

	base := make([]byte, size)
	_, err := rand.Read(base)
	require.NoError(t, err)

	measure := func(diffAt int) time.Duration {
		other := append([]byte(nil), base...)
		other[diffAt] ^= 0xff
		start := time.Now()
		for i := 0; i < iters; i++ {
			ConstantTimeEq(base, other)
		}
		return time.Since(start)
	}

	// Warm up caches before measuring.
	measure(0)
	early := measure(0)
	late := measure(size - 1)

	ratio := float64(late) / float64(early)
	assert.InDelta(t, 1.0, ratio, 0.5,
		"execution time should not correlate with first differing byte position (early=%v late=%v)", early, late)
}

func TestConstantTimeSelect(t *testing.T) {
	a := []byte{0xAA, 0xBB}
	b := []byte{0x11, 0x22}

	assert.Equal(t, a, ConstantTimeSelect(true, a, b))
	assert.Equal(t, b, ConstantTimeSelect(false, a, b))
	assert.Panics(t, func() { ConstantTimeSelect(true, a, b[:1]) },
		"length mismatch is a programming error")

	assert.Equal(t, byte(0x7F), ConstantTimeByteSelect(true, 0x7F, 0x01))
	assert.Equal(t, byte(0x01), ConstantTimeByteSelect(false, 0x7F, 0x01))
}

func TestSecureBuffer_Zeroization(t *testing.T) {
	buf, err := NewSecureBuffer(32)
	require.NoError(t, err)

	data := buf.Bytes()
	copy(data, []byte("sensitive key material..........."))
	require.NotEqual(t, make([]byte, 32), data)

	// Keep a reference to the backing array to observe the wipe.
	backing := data
	buf.Destroy()

	assert.Equal(t, make([]byte, 32), backing, "backing memory must read all-zero after Destroy")
	assert.True(t, buf.Destroyed())
	assert.Nil(t, buf.Bytes(), "destroyed buffer must not expose memory")
	assert.Equal(t, 0, buf.Len())

	// Destroy is idempotent.
	buf.Destroy()
}

func TestSecureBuffer_Bounds(t *testing.T) {
	_, err := NewSecureBuffer(0)
	assert.ErrorIs(t, err, interfaces.ErrAllocationFailed)

	_, err = NewSecureBuffer(-1)
	assert.ErrorIs(t, err, interfaces.ErrAllocationFailed)

	_, err = NewSecureBuffer(MaxSecureAlloc + 1)
	assert.ErrorIs(t, err, interfaces.ErrAllocationFailed)

	buf, err := NewSecureBuffer(MaxSecureAlloc)
	require.NoError(t, err)
	buf.Destroy()
}

func TestSecureBufferFrom(t *testing.T) {
	src := []byte{1, 2, 3, 4}
	buf, err := SecureBufferFrom(src)
	require.NoError(t, err)
	defer buf.Destroy()

	assert.Equal(t, src, buf.Bytes())
	assert.True(t, buf.Equal(src))
	assert.False(t, buf.Equal([]byte{1, 2, 3, 5}))

	// The copy must be independent of the source.
	src[0] = 0xFF
	assert.Equal(t, byte(1), buf.Bytes()[0])
}

type failingSource struct{ err error }

func (f failingSource) Read(p []byte) (int, error) { return 0, f.err }

type zeroSource struct{}

func (zeroSource) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func TestRNG_FailsClosed(t *testing.T) {
	rng := NewRNGFromSource(failingSource{err: errors.New("device gone")})

	_, err := rng.Bytes(32)
	assert.ErrorIs(t, err, interfaces.ErrEntropyUnavailable,
		"source failure must surface as a security error, not a fallback")
	assert.False(t, rng.Healthy())

	// An all-zero block from the source is treated as a failed source.
	zeroRNG := NewRNGFromSource(zeroSource{})
	_, err = zeroRNG.Bytes(32)
	assert.ErrorIs(t, err, interfaces.ErrEntropyUnavailable)
}

func TestRNG_Bytes(t *testing.T) {
	rng := NewRNG()
	require.True(t, rng.Healthy())

	a, err := rng.Bytes(32)
	require.NoError(t, err)
	b, err := rng.Bytes(32)
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "consecutive reads should differ")

	_, err = rng.Bytes(0)
	assert.ErrorIs(t, err, interfaces.ErrAllocationFailed)

	sec, err := rng.SecureBytes(16)
	require.NoError(t, err)
	assert.Equal(t, 16, sec.Len())
	sec.Destroy()
}
