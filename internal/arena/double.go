package arena

import "unsafe"

// Double is a pair of equally sized buffers selected by parity.
type Double[T any] struct {
	bufs [2][]T
}

// NewDouble allocates two buffers of n elements each.
func NewDouble[T any](n int) *Double[T] {
	return &Double[T]{
		bufs: [2][]T{make([]T, n), make([]T, n)},
	}
}

// Len returns the length of each buffer.
func (d *Double[T]) Len() int {
	return len(d.bufs[0])
}

// Span returns the window [start, start+extent) of the buffer selected by
// parity. The window's capacity ends at its length, so appends never bleed
// into a neighbour's region.
func (d *Double[T]) Span(parity, start, extent int) []T {
	return d.bufs[parity&1][start : start+extent : start+extent]
}

// Bytes returns the memory held by both buffers.
func (d *Double[T]) Bytes() int64 {
	var zero T
	return 2 * int64(len(d.bufs[0])) * int64(unsafe.Sizeof(zero))
}
