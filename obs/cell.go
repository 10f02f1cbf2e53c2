package obs

import (
	"fmt"

	"github.com/hupe1980/arbor/internal/conv"
)

const (
	tieBit      = 1
	ctgShift    = 1
	ctgBits     = 10
	ctgMask     = 1<<ctgBits - 1
	sCountShift = ctgShift + ctgBits
	sCountBits  = 32 - sCountShift
)

// Tag packs a cell's tie flag, category and sample count.
//
//	bit 0      tie: rank equals the preceding cell's rank
//	bits 1-10  category
//	bits 11-31 sample count minus one
type Tag uint32

// MakeTag packs a sample count in [1, 2^21] and a category below 2^10.
func MakeTag(sCount, ctg uint32) (Tag, error) {
	if sCount == 0 {
		return 0, fmt.Errorf("%w: zero sample count", conv.ErrOverflow)
	}
	sc, err := conv.FitsBits(sCount-1, sCountBits)
	if err != nil {
		return 0, fmt.Errorf("sample count: %w", err)
	}
	c, err := conv.FitsBits(ctg, ctgBits)
	if err != nil {
		return 0, fmt.Errorf("category: %w", err)
	}
	return Tag(sc<<sCountShift | c<<ctgShift), nil
}

// SCount returns the sample count.
func (t Tag) SCount() uint32 { return uint32(t)>>sCountShift + 1 }

// Ctg returns the category.
func (t Tag) Ctg() uint32 { return uint32(t) >> ctgShift & ctgMask }

// Tie reports whether the cell repeats the preceding rank.
func (t Tag) Tie() bool { return t&tieBit != 0 }

// WithTie returns the tag with the tie flag set to tie.
func (t Tag) WithTie(tie bool) Tag {
	if tie {
		return t | tieBit
	}
	return t &^ tieBit
}

// Cell is one staged observation.
type Cell struct {
	YSum float64
	Rank uint32
	Tag  Tag
}

// SCount returns the sample count of the observation.
func (c Cell) SCount() uint32 { return c.Tag.SCount() }

// Ctg returns the category of the observation.
func (c Cell) Ctg() uint32 { return c.Tag.Ctg() }

// Tie reports whether the cell's rank equals its predecessor's.
func (c Cell) Tie() bool { return c.Tag.Tie() }

// Range is a half-open interval [Start, Start+Extent).
type Range struct {
	Start  int
	Extent int
}

// End returns the exclusive end of the range.
func (r Range) End() int { return r.Start + r.Extent }

// Run summarizes consecutive cells of one rank.
type Run struct {
	Rank   uint32
	Count  int
	SCount uint32
	YSum   float64
}
