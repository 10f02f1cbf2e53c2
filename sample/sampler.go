package sample

import (
	"fmt"
	"math/rand"
)

// Sampler draws per-row sample counts.
type Sampler interface {
	Counts(rng *rand.Rand, nRow int) ([]uint32, error)
}

// Bootstrap draws NSamp rows uniformly. With Replace unset each row is
// drawn at most once. NSamp <= 0 means nRow.
type Bootstrap struct {
	NSamp   int
	Replace bool
}

// Counts implements Sampler.
func (s Bootstrap) Counts(rng *rand.Rand, nRow int) ([]uint32, error) {
	if nRow <= 0 {
		return nil, fmt.Errorf("%w: %d rows", ErrEmptyBag, nRow)
	}
	nSamp := s.NSamp
	if nSamp <= 0 {
		nSamp = nRow
	}
	counts := make([]uint32, nRow)

	if s.Replace {
		for i := 0; i < nSamp; i++ {
			counts[rng.Intn(nRow)]++
		}
		return counts, nil
	}

	if nSamp > nRow {
		return nil, fmt.Errorf("cannot draw %d of %d rows without replacement", nSamp, nRow)
	}
	for _, row := range rng.Perm(nRow)[:nSamp] {
		counts[row] = 1
	}
	return counts, nil
}

// All samples every row once.
type All struct{}

// Counts implements Sampler.
func (All) Counts(_ *rand.Rand, nRow int) ([]uint32, error) {
	counts := make([]uint32, nRow)
	for i := range counts {
		counts[i] = 1
	}
	return counts, nil
}
