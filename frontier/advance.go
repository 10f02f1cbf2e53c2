package frontier

import (
	"fmt"

	"github.com/hupe1980/arbor/internal/defmap"
	"github.com/hupe1980/arbor/internal/path"
	"github.com/hupe1980/arbor/obs"
	"github.com/hupe1980/arbor/sample"
)

// child is one side of a split front node.
type child struct {
	pt int
	// front is the successor index, or -1 for a leaf.
	front int
	leaf  int
	path  uint8
}

// outcome is the fate of one front node at AdvanceLevel.
type outcome struct {
	split bool
	s     Split
	def   defmap.Def
	nLeft int
	// leaf is set for an unsplit node.
	leaf        int
	left, right child
}

func contractf(format string, args ...any) {
	panic(fmt.Errorf("%w: "+format, append([]any{obs.ErrContract}, args...)...))
}

// AdvanceLevel applies splits to the front and installs its successors.
// Each split must name a front node at most once, on a pair returned by
// Candidates. Nodes without a split, or whose split sends every sample
// one way, become leaves. It returns the number of splits applied.
func (f *Frontier) AdvanceLevel(splits []Split) int {
	out := make([]outcome, len(f.nodes))
	for _, s := range splits {
		if s.Node < 0 || s.Node >= len(f.nodes) {
			contractf("split of node %d outside front of %d", s.Node, len(f.nodes))
		}
		o := &out[s.Node]
		if o.split {
			contractf("node %d split twice", s.Node)
		}
		o.split, o.s = true, s
		o.def = f.dm.FrontDef(defmap.Coord{Node: s.Node, Pred: s.Pred})
	}

	f.branchSense(out)

	applied := 0
	var (
		succ    []frontNode
		parents []int
		leaves  []int
	)
	for i, nd := range f.nodes {
		o := &out[i]
		if o.split && (o.nLeft == 0 || o.nLeft == nd.rng.Extent) {
			o.split = false
		}
		if !o.split {
			o.leaf = f.tree.makeLeaf(nd.pt)
			leaves = append(leaves, o.leaf)
			continue
		}
		applied++
		l, r := f.tree.branch(nd.pt, o.s)
		sides := [2]struct {
			c    *child
			pt   int
			rng  obs.Range
			left bool
		}{
			{&o.left, l, obs.Range{Start: nd.rng.Start, Extent: o.nLeft}, true},
			{&o.right, r, obs.Range{Start: nd.rng.Start + o.nLeft, Extent: nd.rng.Extent - o.nLeft}, false},
		}
		for _, sd := range sides {
			*sd.c = child{pt: sd.pt, front: -1, leaf: -1, path: path.Next(nd.path, sd.left)}
			depth := nd.depth + 1
			if sd.rng.Extent >= f.cfg.MinNode && (f.cfg.MaxDepth == 0 || depth < f.cfg.MaxDepth) {
				sd.c.front = len(succ)
				succ = append(succ, frontNode{rng: sd.rng, path: sd.c.path, depth: depth, pt: sd.pt})
				parents = append(parents, i)
			} else {
				sd.c.leaf = f.tree.makeLeaf(sd.pt)
				leaves = append(leaves, sd.c.leaf)
			}
		}
	}

	f.reindex(out)
	for _, leaf := range leaves {
		f.tree.score(leaf)
	}

	f.nodes = succ
	f.slot2Sample, f.nextSlots = f.nextSlots, f.slot2Sample
	f.level++
	if len(succ) == 0 {
		return applied
	}

	idxMax := 0
	ranges := make([]obs.Range, len(succ))
	for i, nd := range succ {
		ranges[i] = nd.rng
		idxMax = max(idxMax, nd.rng.Extent)
	}
	switch f.cfg.IndexMode {
	case IndexNode:
		f.nodeRel = true
	case IndexAuto:
		f.nodeRel = f.nodeRel || localizes(f.bag.BagCount(), idxMax)
	}

	f.dm.Overlap(ranges, f.nodeRel)
	for i, nd := range succ {
		f.dm.ReachingPath(i, parents[i], nd.path)
	}
	f.dm.Backdate()
	return applied
}

// sampleOf resolves a front cell key.
func (f *Frontier) sampleOf(key uint32) uint32 {
	if f.nodeRel {
		return f.slot2Sample[key]
	}
	return key
}

// branchSense sets the sense bit of every sample under a split node and
// counts the left side.
func (f *Frontier) branchSense(out []outcome) {
	forEach(len(out), f.cfg.Workers, func(i int) {
		o := &out[i]
		if !o.split {
			return
		}
		nd := f.nodes[i]
		pred := o.s.Pred
		implicitLeft := o.def.Implicit > 0 && f.lay.ImplicitRank(pred) <= o.s.Cut
		for slot := nd.rng.Start; slot < nd.rng.End(); slot++ {
			f.sense.SetTo(uint64(f.slot2Sample[slot]), !implicitLeft)
		}

		missing := f.lay.MissingRank(pred)
		cells := f.part.Cells(pred, o.def.Parity, o.def.Start, o.def.Count)
		keys := f.part.Keys(pred, o.def.Parity, o.def.Start, o.def.Count)
		for j := range cells {
			right := cells[j].Rank > o.s.Cut || cells[j].Rank == missing
			f.sense.SetTo(uint64(f.sampleOf(keys[j])), right)
		}

		for slot := nd.rng.Start; slot < nd.rng.End(); slot++ {
			if !f.sense.Test(uint64(f.slot2Sample[slot])) {
				o.nLeft++
			}
		}
	})
}

// reindex assigns every sample of the front a successor slot or a leaf.
// Slots within each side keep front order.
func (f *Frontier) reindex(out []outcome) {
	for i := range f.nextSlots {
		f.nextSlots[i] = sample.NoSample
	}

	forEach(len(out), f.cfg.Workers, func(i int) {
		o := &out[i]
		nd := f.nodes[i]
		cursor := [2]int{nd.rng.Start, nd.rng.Start + o.nLeft}
		for slot := nd.rng.Start; slot < nd.rng.End(); slot++ {
			idx := f.slot2Sample[slot]
			s := f.bag.Sample(int(idx))
			if !o.split {
				f.dm.SetExtinct(idx, uint32(slot))
				f.tree.assign(idx, o.leaf, s.Row)
				continue
			}

			side, c := 0, &o.left
			if f.sense.Test(uint64(idx)) {
				side, c = 1, &o.right
			}
			next := cursor[side]
			cursor[side]++
			f.tree.accumulate(c.pt, s)
			if c.front < 0 {
				f.dm.SetExtinct(idx, uint32(slot))
				f.tree.assign(idx, c.leaf, s.Row)
				continue
			}
			f.dm.SetLive(idx, uint32(slot), c.path, uint32(next))
			f.nextSlots[next] = idx
		}
	})
}
