package frontier

import (
	"context"

	"github.com/hupe1980/arbor/obs"
)

// Candidate is a defined, non-singleton (node, predictor) pair offered to
// the splitter. Its explicit cells are in rank order.
type Candidate struct {
	Node int
	Pred int

	Parity int
	Start  int
	Count  int

	// Implicit is the number of samples at ImplicitRank that have no cell.
	Implicit     int
	ImplicitRank uint32
	// Missing cells carry MissingRank and sort last.
	MissingRank uint32
	Missing     int
	RunCount    int
	// Runs is set when run tracking is enabled.
	Runs []obs.Run
}

// NodeSummary aggregates the samples of a front node.
type NodeSummary struct {
	Range  obs.Range
	Depth  int
	SCount uint64
	Sum    float64
	// CtgSum holds per-category sample counts for classification.
	CtgSum []float64
}

// Split selects a cut for one front node. Explicit cells with rank at or
// below Cut branch left; missing observations branch right.
type Split struct {
	Node int
	Pred int
	Cut  uint32
	Gain float64
}

// Splitter chooses at most one split per front node.
type Splitter interface {
	Split(ctx context.Context, v *View, cands []Candidate) ([]Split, error)
}

// SplitterFunc adapts a function to the Splitter interface.
type SplitterFunc func(ctx context.Context, v *View, cands []Candidate) ([]Split, error)

func (fn SplitterFunc) Split(ctx context.Context, v *View, cands []Candidate) ([]Split, error) {
	return fn(ctx, v, cands)
}

// View exposes the current front to a Splitter. It is valid until the next
// AdvanceLevel.
type View struct {
	f *Frontier
}

// Cells returns the candidate's explicit cells.
func (v *View) Cells(c Candidate) []obs.Cell {
	return v.f.part.Cells(c.Pred, c.Parity, c.Start, c.Count)
}

// Node returns the summary of front node i.
func (v *View) Node(i int) NodeSummary {
	return v.f.summary(i)
}

// NNode returns the front width.
func (v *View) NNode() int { return len(v.f.nodes) }

// NCtg returns the response cardinality, zero for regression.
func (v *View) NCtg() int { return v.f.bag.NCtg() }

// Workers returns the configured parallelism.
func (v *View) Workers() int { return v.f.cfg.Workers }
