package cryptoutils

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/AAStarCommunity/AirAccount-sub001/interfaces"
)

// EntropySource abstracts the platform entropy device so tests can exercise
// failure paths. The default source is the operating environment's CSPRNG,
// which on a TEE platform is backed by the hardware TRNG.
type EntropySource interface {
	io.Reader
}

// RNG wraps an entropy source with fail-closed semantics: any error, short
// read, or degenerate output surfaces as ErrEntropyUnavailable. There is no
// fallback source by design; a caller that cannot get hardware entropy gets
// an error, never weaker randomness.
type RNG struct {
	source EntropySource
}

// NewRNG returns an RNG over the platform CSPRNG.
func NewRNG() *RNG {
	return &RNG{source: rand.Reader}
}

// NewRNGFromSource returns an RNG over a caller-provided source. Used by
// tests and by platforms that expose the TRNG through a custom device.
func NewRNGFromSource(source EntropySource) *RNG {
	return &RNG{source: source}
}

// Read fills p with entropy or returns ErrEntropyUnavailable.
func (r *RNG) Read(p []byte) error {
	if _, err := io.ReadFull(r.source, p); err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrEntropyUnavailable, err)
	}
	if len(p) >= 8 && allZero(p) {
		// A healthy source returning a zero block of this size is a
		// failed source, not bad luck.
		return fmt.Errorf("%w: source returned all-zero block", interfaces.ErrEntropyUnavailable)
	}
	return nil
}

// Bytes returns n fresh entropy bytes or ErrEntropyUnavailable.
func (r *RNG) Bytes(n int) ([]byte, error) {
	if n <= 0 || n > MaxSecureAlloc {
		return nil, interfaces.ErrAllocationFailed
	}
	buf := make([]byte, n)
	if err := r.Read(buf); err != nil {
		Zeroize(buf)
		return nil, err
	}
	return buf, nil
}

// SecureBytes returns n fresh entropy bytes in a secure buffer.
func (r *RNG) SecureBytes(n int) (*SecureBuffer, error) {
	buf, err := NewSecureBuffer(n)
	if err != nil {
		return nil, err
	}
	if err := r.Read(buf.Bytes()); err != nil {
		buf.Destroy()
		return nil, err
	}
	return buf, nil
}

// Healthy probes the source with a small read.
func (r *RNG) Healthy() bool {
	var probe [16]byte
	defer Zeroize(probe[:])
	return r.Read(probe[:]) == nil
}

func allZero(p []byte) bool {
	var acc byte
	for _, b := range p {
		acc |= b
	}
	return acc == 0
}
