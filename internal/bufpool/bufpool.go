// Package bufpool provides pooled scratch byte buffers for the
// allocation-free encode path, adapted from internal/pool's byte-buffer
// pool: one pool sized for entity scratch space (header + trailer +
// worst-case payload) and one sized for updated-model scratch space (one
// uint32 per sample, far smaller).
package bufpool

import "sync"

const (
	// EntityBufferDefaultSize is the default capacity of a pooled entity
	// scratch buffer — generous enough for a single-collection imagette
	// entity without growing.
	EntityBufferDefaultSize = 1024 * 16
	// EntityBufferMaxThreshold discards buffers grown past this size
	// instead of returning them to the pool, capping worst-case
	// memory retention.
	EntityBufferMaxThreshold = 1024 * 1024

	// ModelBufferDefaultSize is the default capacity of a pooled
	// updated-model scratch buffer.
	ModelBufferDefaultSize  = 1024
	ModelBufferMaxThreshold = 1024 * 64
)

// ByteBuffer is a reusable, growable byte slice wrapper.
type ByteBuffer struct {
	B []byte
}

// NewByteBuffer creates a ByteBuffer with the given starting capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{B: make([]byte, 0, defaultSize)}
}

// Bytes returns the underlying slice.
func (bb *ByteBuffer) Bytes() []byte { return bb.B }

// Reset empties the buffer while keeping its backing array.
func (bb *ByteBuffer) Reset() { bb.B = bb.B[:0] }

// Len returns the buffer's current length.
func (bb *ByteBuffer) Len() int { return len(bb.B) }

// Cap returns the buffer's current capacity.
func (bb *ByteBuffer) Cap() int { return cap(bb.B) }

// Grow ensures at least requiredBytes of additional capacity, growing by
// 25% of the current capacity (or the default size, whichever is
// larger) to balance memory use against reallocation cost.
func (bb *ByteBuffer) Grow(requiredBytes int) {
	available := cap(bb.B) - len(bb.B)
	if available >= requiredBytes {
		return
	}

	growBy := EntityBufferDefaultSize
	if cap(bb.B) > 4*EntityBufferDefaultSize {
		growBy = cap(bb.B) / 4
	}
	if growBy < requiredBytes {
		growBy = requiredBytes
	}

	newBuf := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// SetLength sets the buffer's visible length to n, growing the backing
// array first if n exceeds the current capacity.
func (bb *ByteBuffer) SetLength(n int) {
	if n > cap(bb.B) {
		bb.Grow(n - len(bb.B))
	}
	bb.B = bb.B[:n]
}

// Pool pools ByteBuffers of one size class via sync.Pool.
type Pool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewPool creates a Pool whose buffers start at defaultSize and are
// discarded, rather than retained, once grown past maxThreshold.
func NewPool(defaultSize, maxThreshold int) *Pool {
	return &Pool{
		pool: sync.Pool{
			New: func() any { return NewByteBuffer(defaultSize) },
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a ByteBuffer from the pool.
func (p *Pool) Get() *ByteBuffer {
	bb, _ := p.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns bb to the pool, discarding it instead if it grew past the
// pool's maxThreshold.
func (p *Pool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}
	if p.maxThreshold > 0 && cap(bb.B) > p.maxThreshold {
		return
	}
	bb.Reset()
	p.pool.Put(bb)
}

var (
	entityPool = NewPool(EntityBufferDefaultSize, EntityBufferMaxThreshold)
	modelPool  = NewPool(ModelBufferDefaultSize, ModelBufferMaxThreshold)
)

// GetEntityBuffer retrieves a scratch buffer from the default entity pool.
func GetEntityBuffer() *ByteBuffer { return entityPool.Get() }

// PutEntityBuffer returns bb to the default entity pool.
func PutEntityBuffer(bb *ByteBuffer) { entityPool.Put(bb) }

// GetModelBuffer retrieves a scratch buffer from the default
// updated-model pool.
func GetModelBuffer() *ByteBuffer { return modelPool.Get() }

// PutModelBuffer returns bb to the default updated-model pool.
func PutModelBuffer(bb *ByteBuffer) { modelPool.Put(bb) }
