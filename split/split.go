package split

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/arbor/frontier"
	"github.com/hupe1980/arbor/obs"
)

// ErrResponseKind is returned when a splitter does not match the response.
var ErrResponseKind = errors.New("splitter does not match response kind")

// New returns the splitter for a response with nCtg categories, zero
// meaning regression.
func New(nCtg int, minGain float64) frontier.Splitter {
	if nCtg > 0 {
		return &Classification{MinGain: minGain}
	}
	return &Regression{MinGain: minGain}
}

// accum tracks the left side of a scan in rank order.
type accum interface {
	add(c obs.Cell)
	addImplicit()
	// gain returns the impurity reduction of the current cut and whether
	// both sides are non-empty.
	gain() (float64, bool)
}

type result struct {
	cut  uint32
	gain float64
	ok   bool
}

// scan evaluates every cut of a candidate and returns the best.
func scan(c frontier.Candidate, cells []obs.Cell, a accum) result {
	var best result
	consider := func(cut uint32) {
		if g, ok := a.gain(); ok && (!best.ok || g > best.gain) {
			best = result{cut: cut, gain: g, ok: true}
		}
	}

	implicitDone := c.Implicit == 0
	for i := range cells {
		r := cells[i].Rank
		if r == c.MissingRank {
			break
		}
		if !implicitDone && c.ImplicitRank < r {
			a.addImplicit()
			implicitDone = true
			consider(c.ImplicitRank)
		}
		a.add(cells[i])
		if i+1 < len(cells) && cells[i+1].Rank == r {
			continue
		}
		consider(r)
	}
	if !implicitDone {
		a.addImplicit()
		consider(c.ImplicitRank)
	}
	return best
}

// splitAll scans candidates in parallel and keeps the best cut per node,
// preferring the lowest predictor on ties.
func splitAll(ctx context.Context, v *frontier.View, cands []frontier.Candidate, minGain float64, newAccum func(frontier.Candidate, []obs.Cell) accum) ([]frontier.Split, error) {
	results := make([]result, len(cands))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.Workers())
	for i := range cands {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cells := v.Cells(cands[i])
			results[i] = scan(cands[i], cells, newAccum(cands[i], cells))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := make([]int, v.NNode())
	for i := range best {
		best[i] = -1
	}
	for i, r := range results {
		if !r.ok || r.gain <= minGain {
			continue
		}
		node := cands[i].Node
		if b := best[node]; b < 0 || r.gain > results[b].gain {
			best[node] = i
		}
	}

	var out []frontier.Split
	for _, i := range best {
		if i < 0 {
			continue
		}
		out = append(out, frontier.Split{
			Node: cands[i].Node,
			Pred: cands[i].Pred,
			Cut:  results[i].cut,
			Gain: results[i].gain,
		})
	}
	return out, nil
}
