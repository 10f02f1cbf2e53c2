package obs

import "fmt"

// MaxPaths bounds the number of path buckets of one restage.
const MaxPaths = 1 << 7

const extinctPath uint8 = 0xFF

// Reacher resolves a source key to the branch path it took since the
// source was staged and to its key in the target regime.
type Reacher interface {
	Reach(key uint32) (path uint8, next uint32, live bool)
}

// Target is a front node reached by one path bucket. Node is negative when
// no live node sits on the path.
type Target struct {
	Node  int
	Range Range
}

// RestageRequest describes one MRRA restage.
type RestageRequest struct {
	Pred   int
	Source int // buffer parity read; the other buffer is written
	Start  int // first explicit cell, relative to the predictor region
	Count  int
	Dense  bool
	Reach  Reacher
	// Targets is indexed by path.
	Targets   []Target
	TrackRuns bool
}

// RestageResult is the staging summary of one target node.
type RestageResult struct {
	Node      int
	Start     int
	Count     int
	Margin    int
	Implicit  int
	RankCount int
	Missing   int
	RunCount  int
	Singleton bool
	Dense     bool
	Runs      []Run
}

// Restage partitions the source cells of one definition into its front
// descendants in the opposite buffer. The scan is stable: cells keep their
// relative order within every path bucket.
//
// Requests whose source ranges are disjoint may run concurrently.
func (p *Partition) Restage(req *RestageRequest) []RestageResult {
	if len(req.Targets) > MaxPaths {
		panic(fmt.Errorf("%w: %d path buckets", ErrContract, len(req.Targets)))
	}
	region := p.regions[req.Pred]
	base := region.Start + req.Start
	srcCells := p.cells.Span(req.Source, base, req.Count)
	srcKeys := p.keys.Span(req.Source, base, req.Count)
	pre := p.prePath[base : base+req.Count]

	var counts [MaxPaths]int
	for i, key := range srcKeys {
		path, _, live := req.Reach.Reach(key)
		if !live {
			pre[i] = extinctPath
			continue
		}
		if int(path) >= len(req.Targets) || req.Targets[path].Node < 0 {
			panic(fmt.Errorf("%w: live key %d on unmapped path %d", ErrContract, key, path))
		}
		pre[i] = path
		counts[path]++
	}

	results := make([]RestageResult, 0, len(req.Targets))
	var offset [MaxPaths]int
	var slot [MaxPaths]int
	idxStart := req.Start
	for path, t := range req.Targets {
		if t.Node < 0 {
			continue
		}
		res := RestageResult{
			Node:  t.Node,
			Count: counts[path],
		}
		if req.Dense {
			res.Start = idxStart
			res.Margin = t.Range.Start - idxStart
			idxStart += counts[path]
		} else {
			res.Start = t.Range.Start
		}
		res.Implicit = t.Range.Extent - res.Count
		res.Dense = res.Implicit > 0 || res.Margin > 0
		offset[path] = res.Start
		slot[path] = len(results)
		results = append(results, res)
	}

	target := 1 - (req.Source & 1)
	dstCells := p.cells.Span(target, region.Start, region.Extent)
	dstKeys := p.keys.Span(target, region.Start, region.Extent)
	missingRank := p.lay.MissingRank(req.Pred)
	implicitMissing := p.lay.ImplicitRank(req.Pred) == missingRank

	tallies := make([]tally, len(results))
	for i := range tallies {
		tallies[i] = newTally(req.TrackRuns)
	}
	for i, c := range srcCells {
		path := pre[i]
		if path == extinctPath {
			continue
		}
		_, next, _ := req.Reach.Reach(srcKeys[i])
		pos := offset[path]
		offset[path]++
		c.Tag = c.Tag.WithTie(tallies[slot[path]].add(&c, missingRank))
		dstCells[pos] = c
		dstKeys[pos] = next
	}

	for i := range results {
		t := &tallies[i]
		res := &results[i]
		res.RankCount = t.ranks
		res.Missing = t.missing
		if implicitMissing {
			// Implicit samples of a mostly-missing predictor are all missing.
			res.Missing += res.Implicit
		}
		res.Runs = t.runs
		res.RunCount = runCount(t.ranks, res.Implicit)
		res.Singleton = res.RunCount <= 1
	}
	return results
}
