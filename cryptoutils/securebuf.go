package cryptoutils

import (
	"runtime"
	"sync"

	"github.com/AAStarCommunity/AirAccount-sub001/interfaces"
)

// MaxSecureAlloc bounds a single secure allocation. The limit matches the
// boundary protocol's maximum buffer size so an untrusted caller cannot
// drive allocations past what any command could legitimately need.
const MaxSecureAlloc = interfaces.MaxBufferSize

// SecureBuffer is a byte buffer for key material and sensitive scratch data.
// Its backing memory is overwritten with zeros when the buffer is destroyed,
// and a finalizer covers buffers that escape their owner without an explicit
// Destroy.
type SecureBuffer struct {
	mu        sync.Mutex
	data      []byte
	destroyed bool
}

// NewSecureBuffer allocates a zeroed buffer of the given size.
// Returns ErrAllocationFailed for a non-positive or oversized request.
func NewSecureBuffer(size int) (*SecureBuffer, error) {
	if size <= 0 || size > MaxSecureAlloc {
		return nil, interfaces.ErrAllocationFailed
	}
	b := &SecureBuffer{data: make([]byte, size)}
	runtime.SetFinalizer(b, (*SecureBuffer).Destroy)
	return b, nil
}

// SecureBufferFrom copies src into a fresh secure buffer. The caller remains
// responsible for scrubbing src.
func SecureBufferFrom(src []byte) (*SecureBuffer, error) {
	b, err := NewSecureBuffer(len(src))
	if err != nil {
		return nil, err
	}
	copy(b.data, src)
	return b, nil
}

// Len returns the buffer length, or zero after destruction.
func (b *SecureBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return 0
	}
	return len(b.data)
}

// Bytes exposes the backing slice for in-place use. The slice must not be
// retained past the buffer's lifetime; callers that need a copy must scrub
// it themselves. Returns nil after destruction.
func (b *SecureBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return nil
	}
	return b.data
}

// Equal compares the buffer against other in constant time.
func (b *SecureBuffer) Equal(other []byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return false
	}
	return ConstantTimeEq(b.data, other)
}

// Destroy zeroizes the backing memory and marks the buffer unusable.
// Destroy is idempotent and safe to defer on every exit path.
func (b *SecureBuffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return
	}
	Zeroize(b.data)
	b.destroyed = true
	runtime.SetFinalizer(b, nil)
}

// Destroyed reports whether the buffer has been zeroized and released.
func (b *SecureBuffer) Destroyed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.destroyed
}

// Zeroize overwrites buf with zeros. The KeepAlive fence keeps the compiler
// from eliding the wipe of memory it considers dead.
func Zeroize(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
	runtime.KeepAlive(buf)
}
