// Package ringbuf provides a fixed-capacity ring that overwrites its oldest
// entry when full. It is not safe for concurrent use; callers hold their own
// lock.
package ringbuf

// Ring keeps the most recent Cap() values pushed into it.
// Capacity is rounded up to a power of two for bitwise modulo.
type Ring[T any] struct {
	buf  []T
	mask uint64
	head uint64 // total pushes

	overwritten uint64
}

// New creates a ring. capacity is rounded up to the next power of two.
// Minimum capacity is 2.
func New[T any](capacity int) *Ring[T] {
	n := nextPow2(capacity)
	if n < 2 {
		n = 2
	}
	return &Ring[T]{
		buf:  make([]T, n),
		mask: uint64(n - 1),
	}
}

// Push appends v, evicting the oldest value when the ring is full.
// It reports whether an eviction happened.
func (r *Ring[T]) Push(v T) bool {
	evicted := r.head >= uint64(len(r.buf))
	if evicted {
		r.overwritten++
	}
	r.buf[r.head&r.mask] = v
	r.head++
	return evicted
}

// Len returns the number of values held.
func (r *Ring[T]) Len() int {
	if r.head < uint64(len(r.buf)) {
		return int(r.head)
	}
	return len(r.buf)
}

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int {
	return len(r.buf)
}

// Overwritten returns the total number of evicted values.
func (r *Ring[T]) Overwritten() uint64 {
	return r.overwritten
}

// Do calls fn for each held value, oldest first, until fn returns false.
func (r *Ring[T]) Do(fn func(T) bool) {
	start := r.head - uint64(r.Len())
	for i := start; i < r.head; i++ {
		if !fn(r.buf[i&r.mask]) {
			return
		}
	}
}

// Slice copies the held values, oldest first.
func (r *Ring[T]) Slice() []T {
	out := make([]T, 0, r.Len())
	r.Do(func(v T) bool {
		out = append(out, v)
		return true
	})
	return out
}

// nextPow2 returns the smallest power of 2 >= n.
func nextPow2(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
