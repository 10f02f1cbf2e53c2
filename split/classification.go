package split

import (
	"context"
	"fmt"

	"github.com/hupe1980/arbor/frontier"
	"github.com/hupe1980/arbor/obs"
)

// Classification splits on Gini impurity reduction.
type Classification struct {
	// MinGain is the smallest gain accepted.
	MinGain float64
}

// Split implements frontier.Splitter.
func (c *Classification) Split(ctx context.Context, v *frontier.View, cands []frontier.Candidate) ([]frontier.Split, error) {
	if v.NCtg() == 0 {
		return nil, fmt.Errorf("%w: classification splitter on a regression response", ErrResponseKind)
	}
	return splitAll(ctx, v, cands, c.MinGain, func(cand frontier.Candidate, cells []obs.Cell) accum {
		return newGini(v.Node(cand.Node), cells)
	})
}

// gini keeps per-category weights and their sums of squares on both sides.
type gini struct {
	s, lS    float64
	left     []float64
	right    []float64
	implicit []float64
	ssL, ssR float64
	base     float64
}

func newGini(n frontier.NodeSummary, cells []obs.Cell) *gini {
	nCtg := len(n.CtgSum)
	a := &gini{
		s:        float64(n.SCount),
		left:     make([]float64, nCtg),
		right:    make([]float64, nCtg),
		implicit: make([]float64, nCtg),
	}
	copy(a.right, n.CtgSum)
	copy(a.implicit, n.CtgSum)
	for i := range cells {
		a.implicit[cells[i].Ctg()] -= float64(cells[i].SCount())
	}
	for _, w := range a.right {
		a.ssR += w * w
	}
	a.base = a.ssR / a.s
	return a
}

func (a *gini) move(ctg int, w float64) {
	if w == 0 {
		return
	}
	a.ssL += w * (2*a.left[ctg] + w)
	a.ssR += w * (w - 2*a.right[ctg])
	a.left[ctg] += w
	a.right[ctg] -= w
	a.lS += w
}

func (a *gini) add(c obs.Cell) {
	a.move(int(c.Ctg()), float64(c.SCount()))
}

func (a *gini) addImplicit() {
	for ctg, w := range a.implicit {
		a.move(ctg, w)
	}
}

func (a *gini) gain() (float64, bool) {
	rS := a.s - a.lS
	if a.lS <= 0 || rS <= 0 {
		return 0, false
	}
	return a.ssL/a.lS + a.ssR/rS - a.base, true
}
