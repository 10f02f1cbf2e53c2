package bitset

import (
	"math/bits"
	"sync/atomic"
)

// BitSet is a fixed-size, lock-free bitset.
type BitSet struct {
	words []atomic.Uint64
	size  uint64
}

// New creates a new BitSet with the given size (in bits).
func New(size uint64) *BitSet {
	return &BitSet{
		words: make([]atomic.Uint64, (size+63)/64),
		size:  size,
	}
}

// Len returns the size in bits.
func (b *BitSet) Len() uint64 {
	return b.size
}

// Set sets the bit at the given index. Out-of-range indices are ignored.
func (b *BitSet) Set(i uint64) {
	if i >= b.size {
		return
	}
	b.words[i>>6].Or(1 << (i & 63))
}

// Unset clears the bit at the given index.
func (b *BitSet) Unset(i uint64) {
	if i >= b.size {
		return
	}
	b.words[i>>6].And(^uint64(1 << (i & 63)))
}

// SetTo sets or clears the bit at the given index.
func (b *BitSet) SetTo(i uint64, v bool) {
	if v {
		b.Set(i)
	} else {
		b.Unset(i)
	}
}

// Test returns true if the bit at the given index is set.
func (b *BitSet) Test(i uint64) bool {
	if i >= b.size {
		return false
	}
	return b.words[i>>6].Load()&(1<<(i&63)) != 0
}

// Count returns the number of set bits.
func (b *BitSet) Count() uint64 {
	var n uint64
	for i := range b.words {
		n += uint64(bits.OnesCount64(b.words[i].Load()))
	}
	return n
}

// ClearAll clears every bit. Not safe against concurrent writers.
func (b *BitSet) ClearAll() {
	for i := range b.words {
		b.words[i].Store(0)
	}
}
