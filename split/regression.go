package split

import (
	"context"
	"fmt"

	"github.com/hupe1980/arbor/frontier"
	"github.com/hupe1980/arbor/obs"
)

// Regression splits on weighted variance reduction.
type Regression struct {
	// MinGain is the smallest gain accepted.
	MinGain float64
}

// Split implements frontier.Splitter.
func (r *Regression) Split(ctx context.Context, v *frontier.View, cands []frontier.Candidate) ([]frontier.Split, error) {
	if v.NCtg() > 0 {
		return nil, fmt.Errorf("%w: regression splitter on %d categories", ErrResponseKind, v.NCtg())
	}
	return splitAll(ctx, v, cands, r.MinGain, func(c frontier.Candidate, cells []obs.Cell) accum {
		return newVariance(v.Node(c.Node), cells)
	})
}

type variance struct {
	s, sum     float64
	impS, impY float64
	lS, lY     float64
	base       float64
}

func newVariance(n frontier.NodeSummary, cells []obs.Cell) *variance {
	a := &variance{s: float64(n.SCount), sum: n.Sum}
	var expS, expY float64
	for i := range cells {
		expS += float64(cells[i].SCount())
		expY += cells[i].YSum
	}
	a.impS, a.impY = a.s-expS, a.sum-expY
	a.base = a.sum * a.sum / a.s
	return a
}

func (a *variance) add(c obs.Cell) {
	a.lS += float64(c.SCount())
	a.lY += c.YSum
}

func (a *variance) addImplicit() {
	a.lS += a.impS
	a.lY += a.impY
}

func (a *variance) gain() (float64, bool) {
	rS, rY := a.s-a.lS, a.sum-a.lY
	if a.lS <= 0 || rS <= 0 {
		return 0, false
	}
	return a.lY*a.lY/a.lS + rY*rY/rS - a.base, true
}
