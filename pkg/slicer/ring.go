package slicer

// ring is a fixed-capacity FIFO that evicts its oldest entry when full.
// It is owned by a single pass and is not safe for concurrent use.
type ring[T any] struct {
	entries  []T
	capacity int
	head     int // index of the oldest entry once the buffer is full
}

func newRing[T any](capacity int) *ring[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &ring[T]{
		entries:  make([]T, 0, capacity),
		capacity: capacity,
	}
}

// Push appends v, evicting the oldest entry if at capacity.
func (r *ring[T]) Push(v T) {
	if r.capacity == 0 {
		return
	}
	if len(r.entries) < r.capacity {
		r.entries = append(r.entries, v)
		return
	}
	r.entries[r.head] = v
	r.head = (r.head + 1) % r.capacity
}

// Len returns the number of retained entries.
func (r *ring[T]) Len() int {
	return len(r.entries)
}

// Items returns the retained entries, oldest first.
func (r *ring[T]) Items() []T {
	out := make([]T, 0, len(r.entries))
	out = append(out, r.entries[r.head:]...)
	out = append(out, r.entries[:r.head]...)
	return out
}
