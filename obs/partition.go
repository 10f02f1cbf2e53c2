package obs

import (
	"errors"
	"fmt"

	"github.com/hupe1980/arbor/internal/arena"
	"github.com/hupe1980/arbor/layout"
	"github.com/hupe1980/arbor/sample"
)

var (
	// ErrBufferOverflow is returned when staging exceeds a predictor's safe region.
	ErrBufferOverflow = errors.New("observation buffer overflow")

	// ErrFrameMismatch is returned when a bag was drawn from a different frame.
	ErrFrameMismatch = errors.New("bag does not match layout")

	// ErrContract marks programming-contract violations. Values wrapping it
	// are raised with panic, never returned.
	ErrContract = errors.New("contract violation")
)

// Bytes per buffer position: two cells, two keys and one prepath byte.
const bytesPerPosition = 2*(16+4) + 1

// Partition stores the staged observations of every predictor in two
// alternating buffers. Each predictor owns a fixed region of both buffers.
type Partition struct {
	lay      *layout.Layout
	bag      *sample.Bag
	bagCount int
	regions  []Range
	tags     []Tag

	cells *arena.Double[Cell]
	keys  *arena.Double[uint32]

	// Scratch indexed by source position, shared by concurrent restages of
	// disjoint source ranges.
	prePath []uint8
}

// EstimateBytes returns the memory a Partition for the given bag size needs.
func EstimateBytes(lay *layout.Layout, bagCount int) int64 {
	return int64(lay.SafeSize(bagCount)) * bytesPerPosition
}

// New allocates a partition sized for the bag.
func New(lay *layout.Layout, bag *sample.Bag) (*Partition, error) {
	if bag.NRow() != lay.NRow() {
		return nil, fmt.Errorf("%w: bag has %d rows, layout %d", ErrFrameMismatch, bag.NRow(), lay.NRow())
	}

	bagCount := bag.BagCount()
	p := &Partition{
		lay:      lay,
		bag:      bag,
		bagCount: bagCount,
		regions:  make([]Range, lay.NPred()),
		tags:     make([]Tag, bagCount),
	}
	for i := range p.regions {
		start, extent := lay.SafeRange(i, bagCount)
		p.regions[i] = Range{Start: start, Extent: extent}
	}
	for i, s := range bag.Samples() {
		tag, err := MakeTag(s.SCount, s.Ctg)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		p.tags[i] = tag
	}

	size := lay.SafeSize(bagCount)
	p.cells = arena.NewDouble[Cell](size)
	p.keys = arena.NewDouble[uint32](size)
	p.prePath = make([]uint8, size)

	return p, nil
}

// NPred returns the number of predictors.
func (p *Partition) NPred() int { return len(p.regions) }

// BagCount returns the number of staged samples.
func (p *Partition) BagCount() int { return p.bagCount }

// Layout returns the frame the partition stages.
func (p *Partition) Layout() *layout.Layout { return p.lay }

// StageRange returns the buffer region reserved for a predictor.
func (p *Partition) StageRange(pred int) Range { return p.regions[pred] }

// Bytes returns the memory held by the buffers.
func (p *Partition) Bytes() int64 {
	return p.cells.Bytes() + p.keys.Bytes() + int64(len(p.prePath))
}

// Cells returns count cells of a predictor starting at start, relative to
// the predictor's region.
func (p *Partition) Cells(pred, parity, start, count int) []Cell {
	return p.cells.Span(parity, p.regions[pred].Start+start, count)
}

// Keys returns the index keys parallel to Cells.
func (p *Partition) Keys(pred, parity, start, count int) []uint32 {
	return p.keys.Span(parity, p.regions[pred].Start+start, count)
}

// StageResult summarizes root staging of one predictor.
type StageResult struct {
	Explicit  int
	Implicit  int
	RankCount int
	Missing   int
	RunCount  int
	Singleton bool
	Runs      []Run
}

// Stage copies a predictor's in-bag observations into buffer 0 in rank
// order, keyed by sample index. Rows of a dense predictor's implicit rank
// are skipped.
func (p *Partition) Stage(pred int, trackRuns bool) (StageResult, error) {
	region := p.regions[pred]
	cells := p.cells.Span(0, region.Start, region.Extent)
	keys := p.keys.Span(0, region.Start, region.Extent)
	implicitRank := p.lay.ImplicitRank(pred)
	missingRank := p.lay.MissingRank(pred)

	t := newTally(trackRuns)
	pos := 0
	for _, run := range p.lay.Runs(pred) {
		if run.Rank == implicitRank {
			continue
		}
		for row := run.Row; row < run.Row+run.Extent; row++ {
			idx, ok := p.bag.SampleIndex(int(row))
			if !ok {
				continue
			}
			if pos >= region.Extent {
				return StageResult{}, fmt.Errorf("%w: predictor %d exceeds %d cells", ErrBufferOverflow, pred, region.Extent)
			}
			c := Cell{
				YSum: p.bag.Sample(int(idx)).YSum,
				Rank: run.Rank,
				Tag:  p.tags[idx],
			}
			c.Tag = c.Tag.WithTie(t.add(&c, missingRank))
			cells[pos] = c
			keys[pos] = idx
			pos++
		}
	}

	res := StageResult{
		Explicit:  pos,
		Implicit:  p.bagCount - pos,
		RankCount: t.ranks,
		Missing:   t.missing,
		Runs:      t.runs,
	}
	if implicitRank == missingRank {
		res.Missing += res.Implicit
	}
	res.RunCount = runCount(res.RankCount, res.Implicit)
	res.Singleton = res.RunCount <= 1
	return res, nil
}

func runCount(ranks, implicit int) int {
	if implicit > 0 {
		return ranks + 1
	}
	return ranks
}

// tally accumulates rank statistics over a stable scan of one target.
type tally struct {
	prev    uint32
	ranks   int
	missing int
	track   bool
	runs    []Run
}

func newTally(track bool) tally {
	return tally{prev: layout.NoRank, track: track}
}

// add records a cell and reports whether it ties its predecessor.
func (t *tally) add(c *Cell, missingRank uint32) bool {
	tie := t.ranks > 0 && c.Rank == t.prev
	if !tie {
		t.ranks++
		t.prev = c.Rank
		if t.track {
			t.runs = append(t.runs, Run{Rank: c.Rank})
		}
	}
	if c.Rank == missingRank {
		t.missing++
	}
	if t.track {
		r := &t.runs[len(t.runs)-1]
		r.Count++
		r.SCount += c.SCount()
		r.YSum += c.YSum
	}
	return tie
}
