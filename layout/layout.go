package layout

import (
	"errors"
	"fmt"
	"math"
)

// NoRank marks the absence of an implicit rank.
const NoRank = math.MaxUint32

// ErrInvalidLayout is returned when a run-length stream is malformed.
var ErrInvalidLayout = errors.New("invalid layout")

// RLE is a run of consecutive rows sharing a rank.
type RLE struct {
	Rank   uint32
	Row    uint32
	Extent uint32
}

// predictor holds the encoded column and its density decision.
type predictor struct {
	runs        []RLE
	cardinality uint32
	values      []float64

	implicitRank  uint32
	explicitCount int
	// Offset into the compact region when dense, else index among non-dense.
	slot int
}

func (p *predictor) dense() bool {
	return p.implicitRank != NoRank
}

// Layout is the rank-encoded training frame.
type Layout struct {
	nRow      int
	plurality float64
	preds     []predictor

	nonCompact    int
	lengthCompact int
}

// New builds a Layout from per-predictor run streams.
//
// runs[i] must be sorted by rank and cover every row exactly once.
// cardinality[i] is the number of distinct non-missing ranks; rank
// cardinality[i] denotes a missing value. values, if non-nil, maps each
// predictor's ranks to the observed values.
func New(nRow int, runs [][]RLE, cardinality []uint32, values [][]float64, plurality float64) (*Layout, error) {
	if nRow <= 0 {
		return nil, fmt.Errorf("%w: row count %d", ErrInvalidLayout, nRow)
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("%w: no predictors", ErrInvalidLayout)
	}
	if len(cardinality) != len(runs) {
		return nil, fmt.Errorf("%w: %d cardinalities for %d predictors", ErrInvalidLayout, len(cardinality), len(runs))
	}
	if values != nil && len(values) != len(runs) {
		return nil, fmt.Errorf("%w: %d value tables for %d predictors", ErrInvalidLayout, len(values), len(runs))
	}
	if plurality < 0 || plurality >= 1 || math.IsNaN(plurality) {
		return nil, fmt.Errorf("%w: plurality %v outside [0, 1)", ErrInvalidLayout, plurality)
	}

	l := &Layout{
		nRow:      nRow,
		plurality: plurality,
		preds:     make([]predictor, len(runs)),
	}
	for i := range runs {
		if err := validateRuns(nRow, runs[i], cardinality[i]); err != nil {
			return nil, fmt.Errorf("predictor %d: %w", i, err)
		}
		p := &l.preds[i]
		p.runs = runs[i]
		p.cardinality = cardinality[i]
		if values != nil {
			p.values = values[i]
		}
		p.implicitRank, p.explicitCount = l.denseRank(runs[i])
	}

	for i := range l.preds {
		p := &l.preds[i]
		if p.dense() {
			p.slot = l.lengthCompact
			l.lengthCompact += p.explicitCount
		} else {
			p.slot = l.nonCompact
			l.nonCompact++
		}
	}

	return l, nil
}

func validateRuns(nRow int, runs []RLE, cardinality uint32) error {
	seen := make([]bool, nRow)
	covered := 0
	for i, r := range runs {
		if r.Extent == 0 {
			return fmt.Errorf("%w: empty run at %d", ErrInvalidLayout, i)
		}
		if r.Rank > cardinality {
			return fmt.Errorf("%w: rank %d exceeds cardinality %d", ErrInvalidLayout, r.Rank, cardinality)
		}
		if i > 0 && r.Rank < runs[i-1].Rank {
			return fmt.Errorf("%w: runs not sorted by rank at %d", ErrInvalidLayout, i)
		}
		end := uint64(r.Row) + uint64(r.Extent)
		if end > uint64(nRow) {
			return fmt.Errorf("%w: run at %d exceeds row count", ErrInvalidLayout, i)
		}
		for row := r.Row; uint64(row) < end; row++ {
			if seen[row] {
				return fmt.Errorf("%w: row %d encoded twice", ErrInvalidLayout, row)
			}
			seen[row] = true
		}
		covered += int(r.Extent)
	}
	if covered != nRow {
		return fmt.Errorf("%w: runs cover %d of %d rows", ErrInvalidLayout, covered, nRow)
	}
	return nil
}

// denseRank merges adjacent runs of equal rank and elects the rank with the
// largest aggregate run. It returns NoRank and nRow unless that aggregate
// exceeds the plurality threshold.
func (l *Layout) denseRank(runs []RLE) (uint32, int) {
	denseMax := 0
	argMax := uint32(NoRank)
	for i := 0; i < len(runs); {
		rank := runs[i].Rank
		agg := 0
		for ; i < len(runs) && runs[i].Rank == rank; i++ {
			agg += int(runs[i].Extent)
		}
		if agg > denseMax {
			denseMax = agg
			argMax = rank
		}
	}

	if float64(denseMax) > l.plurality*float64(l.nRow) {
		return argMax, l.nRow - denseMax
	}
	return NoRank, l.nRow
}

// NRow returns the number of rows.
func (l *Layout) NRow() int { return l.nRow }

// NPred returns the number of predictors.
func (l *Layout) NPred() int { return len(l.preds) }

// Plurality returns the density threshold the layout was built with.
func (l *Layout) Plurality() float64 { return l.plurality }

// Runs returns the run stream of a predictor. The slice must not be modified.
func (l *Layout) Runs(pred int) []RLE { return l.preds[pred].runs }

// Cardinality returns the number of distinct non-missing ranks.
func (l *Layout) Cardinality(pred int) uint32 { return l.preds[pred].cardinality }

// MissingRank returns the rank assigned to missing values.
func (l *Layout) MissingRank(pred int) uint32 { return l.preds[pred].cardinality }

// IsDense reports whether the predictor elides an implicit rank.
func (l *Layout) IsDense(pred int) bool { return l.preds[pred].dense() }

// ImplicitRank returns the elided rank, or NoRank.
func (l *Layout) ImplicitRank(pred int) uint32 { return l.preds[pred].implicitRank }

// ExplicitCount returns the number of rows stored explicitly.
func (l *Layout) ExplicitCount(pred int) int { return l.preds[pred].explicitCount }

// NDense returns the number of dense predictors.
func (l *Layout) NDense() int { return len(l.preds) - l.nonCompact }

// SafeSize returns a buffer length sufficient to stage every predictor for
// a bag of bagCount distinct rows.
func (l *Layout) SafeSize(bagCount int) int {
	return l.nonCompact*bagCount + l.lengthCompact
}

// SafeRange returns the (start, extent) region reserved for a predictor
// within a buffer of SafeSize(bagCount).
func (l *Layout) SafeRange(pred, bagCount int) (int, int) {
	p := &l.preds[pred]
	if p.dense() {
		return l.nonCompact*bagCount + p.slot, min(p.explicitCount, bagCount)
	}
	return p.slot * bagCount, bagCount
}

// Value returns the observed value of a rank, NaN for the missing rank or
// when the layout carries no value tables.
func (l *Layout) Value(pred int, rank uint32) float64 {
	p := &l.preds[pred]
	if int(rank) >= len(p.values) {
		return math.NaN()
	}
	return p.values[rank]
}

// SplitValue converts a rank cut into a value threshold halfway between the
// cut rank and its successor.
func (l *Layout) SplitValue(pred int, cut uint32) float64 {
	p := &l.preds[pred]
	lo := l.Value(pred, cut)
	if int(cut)+1 >= len(p.values) {
		return lo
	}
	return (lo + p.values[cut+1]) / 2
}
