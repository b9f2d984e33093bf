package storage

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/AAStarCommunity/AirAccount-sub001/interfaces"
)

// sealMagic identifies a sealed seed blob. The trailing byte is the frame
// version.
var sealMagic = []byte{'A', 'A', 'S', 'D', 0x01}

const sealDigestSize = sha256.Size

// Seal frames a factory seed for persistence: magic, version, SHA-256 over
// the seed, then the seed itself. On real hardware the blob additionally
// passes through the platform's secure storage; the frame makes corruption
// and truncation detectable regardless of where the blob lived.
func Seal(seed []byte) []byte {
	digest := sha256.Sum256(seed)

	blob := make([]byte, 0, len(sealMagic)+sealDigestSize+len(seed))
	blob = append(blob, sealMagic...)
	blob = append(blob, digest[:]...)
	blob = append(blob, seed...)
	return blob
}

// Unseal verifies a sealed blob and returns the seed. Any framing or
// integrity mismatch is ErrSeedCorrupted; a corrupted seed must never be
// used for derivation.
func Unseal(blob []byte) ([]byte, error) {
	if len(blob) < len(sealMagic)+sealDigestSize {
		return nil, fmt.Errorf("%w: blob too short", interfaces.ErrSeedCorrupted)
	}
	if !bytes.Equal(blob[:len(sealMagic)], sealMagic) {
		return nil, fmt.Errorf("%w: bad frame magic", interfaces.ErrSeedCorrupted)
	}

	stored := blob[len(sealMagic) : len(sealMagic)+sealDigestSize]
	seed := blob[len(sealMagic)+sealDigestSize:]

	digest := sha256.Sum256(seed)
	if !bytes.Equal(stored, digest[:]) {
		return nil, fmt.Errorf("%w: digest mismatch", interfaces.ErrSeedCorrupted)
	}

	out := make([]byte, len(seed))
	copy(out, seed)
	return out, nil
}
