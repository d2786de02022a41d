package contract

// Ring is a fixed-capacity circular buffer backed by a single slice.
// Push overwrites the oldest entry when full; Pop returns the newest.
// A Ring of capacity zero holds nothing.
type Ring[T any] struct {
	buf   []T
	head  int // next write position
	count int
}

// NewRing allocates a ring of the given capacity. Negative capacities are
// treated as zero.
func NewRing[T any](capacity int) *Ring[T] {
	return &Ring[T]{buf: make([]T, max(0, capacity))}
}

// Push appends v and reports whether the oldest entry was evicted.
func (r *Ring[T]) Push(v T) bool {
	if len(r.buf) == 0 {
		return false
	}

	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)

	if r.count < len(r.buf) {
		r.count++

		return false
	}

	return true
}

// Pop removes and returns the most recently pushed entry.
func (r *Ring[T]) Pop() (T, bool) {
	var zero T

	if r.count == 0 {
		return zero, false
	}

	r.head = (r.head - 1 + len(r.buf)) % len(r.buf)
	v := r.buf[r.head]
	r.buf[r.head] = zero
	r.count--

	return v, true
}

// Len returns the number of entries held.
func (r *Ring[T]) Len() int { return r.count }

// Cap returns the capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Reset empties the ring without reallocating.
func (r *Ring[T]) Reset() {
	clear(r.buf)
	r.head = 0
	r.count = 0
}
