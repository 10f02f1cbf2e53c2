package frontier

import (
	"context"
	"fmt"
	"math/rand"

	bbset "github.com/bits-and-blooms/bitset"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/arbor/internal/bitset"
	"github.com/hupe1980/arbor/internal/defmap"
	"github.com/hupe1980/arbor/layout"
	"github.com/hupe1980/arbor/obs"
	"github.com/hupe1980/arbor/sample"
)

// LevelStats describes one completed level.
type LevelStats struct {
	Level         int
	Nodes         int
	Candidates    int
	Restages      int
	RestagedCells int
	Splits        int
	Layers        int
}

type frontNode struct {
	rng   obs.Range
	path  uint8
	depth int
	// Pre-tree node id.
	pt int
}

// Frontier is the induction state of one tree.
type Frontier struct {
	cfg  Config
	lay  *layout.Layout
	bag  *sample.Bag
	part *obs.Partition
	dm   *defmap.Map
	rng  *rand.Rand
	tree *PreTree

	nodes []frontNode
	// slot2Sample maps front slots to bag samples; holes hold sample.NoSample.
	slot2Sample []uint32
	nextSlots   []uint32
	nodeRel     bool

	// sense has a bit per sample; set means the sample branches right.
	sense *bitset.BitSet
	// sched marks scheduled (node, pred) pairs of the current level.
	sched *bbset.BitSet
	perm  []int
	level int
}

// New stages every predictor for the root of bag.
func New(ctx context.Context, cfg Config, lay *layout.Layout, bag *sample.Bag) (*Frontier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	part, err := obs.New(lay, bag)
	if err != nil {
		return nil, err
	}

	nPred := lay.NPred()
	results := make([]obs.StageResult, nPred)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for p := 0; p < nPred; p++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := part.Stage(p, cfg.TrackRuns)
			if err != nil {
				return fmt.Errorf("stage predictor %d: %w", p, err)
			}
			results[p] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	bagCount := bag.BagCount()
	root := obs.Range{Start: 0, Extent: bagCount}
	dm := defmap.New(defmap.Config{
		NPred:      nPred,
		BagCount:   bagCount,
		Window:     cfg.PathWindow,
		Efficiency: cfg.Efficiency,
		TrackRuns:  cfg.TrackRuns,
	}, root)
	for p, res := range results {
		dm.RootDefine(p, res)
	}

	f := &Frontier{
		cfg:         cfg,
		lay:         lay,
		bag:         bag,
		part:        part,
		dm:          dm,
		rng:         rand.New(rand.NewSource(cfg.Seed)), //nolint:gosec // predictor sampling
		tree:        newPreTree(bag),
		slot2Sample: make([]uint32, bagCount),
		nextSlots:   make([]uint32, bagCount),
		sense:       bitset.New(uint64(bagCount)),
		perm:        make([]int, nPred),
	}

	pt := f.tree.addNode(0)
	for i, s := range bag.Samples() {
		f.slot2Sample[i] = uint32(i)
		f.tree.accumulate(pt, s)
	}
	if bagCount >= cfg.MinNode {
		f.nodes = []frontNode{{rng: root, pt: pt}}
		return f, nil
	}

	leaf := f.tree.makeLeaf(pt)
	for i, s := range bag.Samples() {
		f.dm.SetExtinct(uint32(i), uint32(i))
		f.tree.assign(uint32(i), leaf, s.Row)
	}
	f.tree.score(leaf)
	return f, nil
}

// Done reports whether the front is empty.
func (f *Frontier) Done() bool { return len(f.nodes) == 0 }

// Level returns the number of completed levels.
func (f *Frontier) Level() int { return f.level }

// Tree returns the pre-tree built so far.
func (f *Frontier) Tree() *PreTree { return f.tree }

// Partition returns the observation partition.
func (f *Frontier) Partition() *obs.Partition { return f.part }

// Stats counts definition traffic over the life of a Frontier.
type Stats struct {
	Levels      int
	Defined     int64
	Flushed     int64
	Purged      int64
	Restaged    int64
	DefinedCost int64
	FlushedCost int64
}

// Stats returns definition traffic counters.
func (f *Frontier) Stats() Stats {
	ds := f.dm.Stats()
	return Stats{
		Levels:      f.level,
		Defined:     ds.Defined,
		Flushed:     ds.Flushed,
		Purged:      ds.Purged,
		Restaged:    ds.Restaged,
		DefinedCost: ds.DefinedCost,
		FlushedCost: ds.FlushedCost,
	}
}

// NodeRel reports whether the front keys cells by front slot.
func (f *Frontier) NodeRel() bool { return f.nodeRel }

// Width returns the number of front nodes.
func (f *Frontier) Width() int { return len(f.nodes) }

func (f *Frontier) summary(i int) NodeSummary {
	nd := f.nodes[i]
	n := &f.tree.Nodes[nd.pt]
	return NodeSummary{
		Range:  nd.rng,
		Depth:  nd.depth,
		SCount: n.SCount,
		Sum:    n.Sum,
		CtgSum: n.CtgSum,
	}
}

// Step runs one level: flush, restage, split and advance.
func (f *Frontier) Step(ctx context.Context, sp Splitter) (LevelStats, error) {
	st := LevelStats{Level: f.level, Nodes: len(f.nodes)}
	if f.Done() {
		return st, nil
	}
	if err := ctx.Err(); err != nil {
		return st, err
	}

	f.dm.FlushRear()
	f.schedule()
	n, cells, err := f.restage(ctx)
	if err != nil {
		return st, err
	}
	st.Restages, st.RestagedCells = n, cells
	f.dm.EraseLayers()
	st.Layers = f.dm.NLayer()

	cands := f.Candidates()
	st.Candidates = len(cands)
	splits, err := sp.Split(ctx, &View{f: f}, cands)
	if err != nil {
		return st, err
	}
	st.Splits = f.AdvanceLevel(splits)
	return st, nil
}

// schedule draws predictors for every front node and flushes their
// reaching definitions to the front.
func (f *Frontier) schedule() {
	nPred := f.lay.NPred()
	f.sched = bbset.New(uint(len(f.nodes) * nPred))
	for i := range f.nodes {
		for _, p := range f.drawPreds() {
			f.sched.Set(uint(i*nPred + p))
			f.dm.FlushDef(defmap.Coord{Node: i, Pred: p})
		}
	}
}

func (f *Frontier) drawPreds() []int {
	nPred := len(f.perm)
	for i := range f.perm {
		f.perm[i] = i
	}
	k := f.cfg.PredFixed
	if k <= 0 || k >= nPred {
		return f.perm
	}
	for i := 0; i < k; i++ {
		j := i + f.rng.Intn(nPred-i)
		f.perm[i], f.perm[j] = f.perm[j], f.perm[i]
	}
	return f.perm[:k]
}

// restage runs the queued restages in parallel, then applies their
// results. It returns the number of restages and source cells moved.
func (f *Frontier) restage(ctx context.Context) (int, int, error) {
	items := f.dm.TakeRestages()
	if len(items) == 0 {
		return 0, 0, nil
	}
	reqs := make([]*obs.RestageRequest, len(items))
	for i := range items {
		reqs[i] = f.dm.RestageRequest(items[i])
	}

	results := make([][]obs.RestageResult, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.Workers)
	for i := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = f.part.Restage(reqs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}

	cells := 0
	for i := range items {
		f.dm.ApplyRestage(items[i], results[i])
		cells += reqs[i].Count
	}
	return len(items), cells, nil
}

// Candidates returns the scheduled pairs that are defined at the front
// and not singletons, node-major with predictors ascending.
func (f *Frontier) Candidates() []Candidate {
	nPred := f.lay.NPred()
	var out []Candidate
	for i, nd := range f.nodes {
		if nd.rng.Extent < f.cfg.MinNode {
			continue
		}
		for p := 0; p < nPred; p++ {
			if f.sched != nil && !f.sched.Test(uint(i*nPred+p)) {
				continue
			}
			d, ok := f.dm.LookupDef(defmap.Coord{Node: i, Pred: p})
			if !ok {
				continue
			}
			out = append(out, Candidate{
				Node:         i,
				Pred:         p,
				Parity:       d.Parity,
				Start:        d.Start,
				Count:        d.Count,
				Implicit:     d.Implicit,
				ImplicitRank: f.lay.ImplicitRank(p),
				MissingRank:  f.lay.MissingRank(p),
				Missing:      d.Missing,
				RunCount:     d.RunCount,
				Runs:         d.Runs,
			})
		}
	}
	return out
}
