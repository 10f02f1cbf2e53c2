package sample

import (
	"errors"
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/arbor/internal/conv"
)

// NoSample marks an out-of-bag row.
const NoSample = math.MaxUint32

// Limits imposed by the packed observation tag.
const (
	MaxCategories = 1 << 10
	MaxSCount     = 1 << 21
)

var (
	// ErrEmptyBag is returned when no row was sampled.
	ErrEmptyBag = errors.New("empty bag")

	// ErrInvalidResponse is returned for response vectors that do not match the frame.
	ErrInvalidResponse = errors.New("invalid response")
)

// Sample summarizes one in-bag row.
type Sample struct {
	Row    uint32
	SCount uint32
	YSum   float64
	Ctg    uint32
}

// Bag is the set of sampled rows of one tree.
type Bag struct {
	nRow       int
	nCtg       int
	rows       *roaring.Bitmap
	row2Sample []uint32
	samples    []Sample
	ySum       float64
	sCount     uint64
}

// NewBag builds a bag from per-row sample counts. y holds the response;
// ctg, when non-nil, holds categories in [0, nCtg) and marks the bag as
// classification.
func NewBag(y []float64, ctg []uint32, nCtg int, counts []uint32) (*Bag, error) {
	nRow := len(counts)
	if len(y) != nRow {
		return nil, fmt.Errorf("%w: %d responses for %d rows", ErrInvalidResponse, len(y), nRow)
	}
	if _, err := conv.IntToUint32(nRow); err != nil {
		return nil, err
	}
	if ctg != nil {
		if len(ctg) != nRow {
			return nil, fmt.Errorf("%w: %d categories for %d rows", ErrInvalidResponse, len(ctg), nRow)
		}
		if nCtg <= 0 || nCtg > MaxCategories {
			return nil, fmt.Errorf("%w: category count %d outside [1, %d]", ErrInvalidResponse, nCtg, MaxCategories)
		}
	}

	b := &Bag{
		nRow:       nRow,
		rows:       roaring.New(),
		row2Sample: make([]uint32, nRow),
	}
	if ctg != nil {
		b.nCtg = nCtg
	}

	for row, sc := range counts {
		if sc == 0 {
			b.row2Sample[row] = NoSample
			continue
		}
		if sc > MaxSCount {
			return nil, fmt.Errorf("%w: sample count %d at row %d exceeds %d", conv.ErrOverflow, sc, row, MaxSCount)
		}
		s := Sample{
			Row:    uint32(row),
			SCount: sc,
			YSum:   y[row] * float64(sc),
		}
		if ctg != nil {
			if int(ctg[row]) >= nCtg {
				return nil, fmt.Errorf("%w: category %d at row %d", ErrInvalidResponse, ctg[row], row)
			}
			s.Ctg = ctg[row]
		}
		b.row2Sample[row] = uint32(len(b.samples))
		b.samples = append(b.samples, s)
		b.rows.Add(uint32(row))
		b.ySum += s.YSum
		b.sCount += uint64(sc)
	}

	if len(b.samples) == 0 {
		return nil, ErrEmptyBag
	}
	return b, nil
}

// NRow returns the number of rows of the frame.
func (b *Bag) NRow() int { return b.nRow }

// NCtg returns the number of categories, 0 for regression.
func (b *Bag) NCtg() int { return b.nCtg }

// BagCount returns the number of distinct sampled rows.
func (b *Bag) BagCount() int { return len(b.samples) }

// Sample returns the summary of sample index i.
func (b *Bag) Sample(i int) Sample { return b.samples[i] }

// Samples returns all samples in row order. The slice must not be modified.
func (b *Bag) Samples() []Sample { return b.samples }

// SampleIndex returns the sample index of a row.
func (b *Bag) SampleIndex(row int) (uint32, bool) {
	idx := b.row2Sample[row]
	return idx, idx != NoSample
}

// Contains reports whether a row is in the bag.
func (b *Bag) Contains(row uint32) bool { return b.rows.Contains(row) }

// Rows returns a copy of the in-bag row set.
func (b *Bag) Rows() *roaring.Bitmap { return b.rows.Clone() }

// OutOfBag returns the rows not sampled.
func (b *Bag) OutOfBag() *roaring.Bitmap {
	oob := roaring.New()
	oob.AddRange(0, uint64(b.nRow))
	oob.AndNot(b.rows)
	return oob
}

// Sum returns the bag's weighted response sum and total sample count.
func (b *Bag) Sum() (float64, uint64) { return b.ySum, b.sCount }
