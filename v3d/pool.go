package v3d

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// MemoryLimitExceededError is returned when a slice buffer would exceed the
// pool's memory limit.
type MemoryLimitExceededError struct {
	Requested int64
	Current   int64
	Limit     int64
}

func (e *MemoryLimitExceededError) Error() string {
	return fmt.Sprintf("v3d: memory limit exceeded (requested %d, in use %d, limit %d)",
		e.Requested, e.Current, e.Limit)
}

// BufferPool recycles slice buffers between LoadNextSlice calls.
// It supports a memory limit on the bytes handed out and not yet returned.
type BufferPool struct {
	pools       []*sync.Pool
	memoryUsed  int64 // atomic
	memoryLimit int64 // atomic, 0 = unlimited
	hitCount    int64 // atomic
	missCount   int64 // atomic
}

// bufferSizes are the pooled capacities. A 1024x1024 uint16 slice is 2 MB.
var bufferSizes = []int{
	64 << 10,
	256 << 10,
	1 << 20,
	4 << 20,
	16 << 20,
	64 << 20,
}

var defaultPool = NewBufferPool(0)

// NewBufferPool creates a pool. If limit is 0, no limit is enforced.
func NewBufferPool(limit int64) *BufferPool {
	p := &BufferPool{
		pools:       make([]*sync.Pool, len(bufferSizes)),
		memoryLimit: limit,
	}
	for i := range bufferSizes {
		p.pools[i] = &sync.Pool{}
	}
	return p
}

// SetMemoryLimit sets the limit and returns the previous one.
func (p *BufferPool) SetMemoryLimit(limit int64) int64 {
	return atomic.SwapInt64(&p.memoryLimit, limit)
}

// MemoryUsed returns the bytes currently handed out.
func (p *BufferPool) MemoryUsed() int64 {
	return atomic.LoadInt64(&p.memoryUsed)
}

// Stats returns the number of Get calls served from the pool and allocated fresh.
func (p *BufferPool) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&p.hitCount), atomic.LoadInt64(&p.missCount)
}

func poolIndex(size int) int {
	for i, s := range bufferSizes {
		if size <= s {
			return i
		}
	}
	return -1
}

// Get returns a buffer of exactly size bytes.
func (p *BufferPool) Get(size int) ([]byte, error) {
	idx := poolIndex(size)
	capacity := size
	if idx >= 0 {
		capacity = bufferSizes[idx]
	}

	if limit := atomic.LoadInt64(&p.memoryLimit); limit > 0 {
		current := atomic.LoadInt64(&p.memoryUsed)
		if current+int64(capacity) > limit {
			return nil, &MemoryLimitExceededError{
				Requested: int64(size),
				Current:   current,
				Limit:     limit,
			}
		}
	}
	atomic.AddInt64(&p.memoryUsed, int64(capacity))

	if idx >= 0 {
		if buf, ok := p.pools[idx].Get().([]byte); ok {
			atomic.AddInt64(&p.hitCount, 1)
			return buf[:size], nil
		}
	}
	atomic.AddInt64(&p.missCount, 1)
	return make([]byte, size, capacity), nil
}

// Put returns a buffer obtained from Get.
func (p *BufferPool) Put(buf []byte) {
	if buf == nil {
		return
	}
	c := cap(buf)
	atomic.AddInt64(&p.memoryUsed, -int64(c))
	if idx := poolIndex(c); idx >= 0 && bufferSizes[idx] == c {
		p.pools[idx].Put(buf[:c])
	}
}
