package defmap

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/arbor/internal/path"
	"github.com/hupe1980/arbor/obs"
)

// Coord identifies a (node, predictor) pair within one layer.
type Coord struct {
	Node int
	Pred int
}

// Def locates the staged cells of a definition.
type Def struct {
	Parity   int
	Start    int
	Count    int
	Margin   int
	Implicit int
	Missing  int
	RunCount int
	Runs     []obs.Run
}

// Dense reports whether the definition's cells are packed rather than
// aligned with its node's range.
func (d Def) Dense() bool {
	return d.Implicit > 0 || d.Margin > 0
}

// Layer holds the definitions of one level.
type Layer struct {
	del       int
	nPred     int
	ranges    []obs.Range
	live      []int
	defs      []Def
	defined   *bitset.BitSet
	singleton *bitset.BitSet
	cost      int64

	// Indexed by (node << del) | path, back layers only.
	nodePath []path.NodePath

	// Non-nil under node-relative indexing, keyed by this layer's slots.
	relPath *path.IdxPath
}

func newLayer(ranges []obs.Range, nPred int, relPath *path.IdxPath) *Layer {
	n := uint(len(ranges) * nPred)
	return &Layer{
		nPred:     nPred,
		ranges:    ranges,
		live:      make([]int, len(ranges)),
		defs:      make([]Def, n),
		defined:   bitset.New(n),
		singleton: bitset.New(n),
		relPath:   relPath,
	}
}

// Del returns the layer's distance from the front.
func (l *Layer) Del() int { return l.del }

// NSplit returns the number of nodes in the layer.
func (l *Layer) NSplit() int { return len(l.ranges) }

// Range returns the root-space range of a node.
func (l *Layer) Range(node int) obs.Range { return l.ranges[node] }

// Live returns the number of live samples descending from a node.
func (l *Layer) Live(node int) int { return l.live[node] }

// NodeRel reports whether the layer uses node-relative indexing.
func (l *Layer) NodeRel() bool { return l.relPath != nil }

// DefCount returns the number of definitions held.
func (l *Layer) DefCount() int { return int(l.defined.Count()) }

// Cost returns the summed node extents of the definitions held.
func (l *Layer) Cost() int64 { return l.cost }

func (l *Layer) offset(node, pred int) uint {
	return uint(node*l.nPred + pred)
}

func (l *Layer) isDefined(node, pred int) bool {
	return l.defined.Test(l.offset(node, pred))
}

func (l *Layer) isSingleton(node, pred int) bool {
	return l.singleton.Test(l.offset(node, pred))
}

func (l *Layer) define(node, pred int, d Def, singleton bool) bool {
	off := l.offset(node, pred)
	if l.defined.Test(off) {
		return false
	}
	l.defined.Set(off)
	l.singleton.SetTo(off, singleton)
	l.defs[off] = d
	l.cost += int64(l.ranges[node].Extent)
	return true
}

func (l *Layer) undefine(node, pred int) (Def, bool) {
	off := l.offset(node, pred)
	d := l.defs[off]
	singleton := l.singleton.Test(off)
	l.defined.Clear(off)
	l.singleton.Clear(off)
	l.defs[off] = Def{}
	l.cost -= int64(l.ranges[node].Extent)
	return d, singleton
}

// reachingPaths moves the layer one level further from the front and
// clears its path table for the new front.
func (l *Layer) reachingPaths() {
	l.del++
	l.nodePath = make([]path.NodePath, len(l.ranges)<<l.del)
	for i := range l.nodePath {
		l.nodePath[i] = path.EmptyNodePath()
	}
	clear(l.live)
}

func (l *Layer) pathInit(anc int, pathBits uint8, front int, r obs.Range) {
	l.nodePath[anc<<l.del|int(pathBits&path.Mask(l.del))].Init(front, r.Start, r.Extent)
	l.live[anc] += r.Extent
}

func (l *Layer) targets(anc int) []obs.Target {
	n := 1 << l.del
	targets := make([]obs.Target, n)
	for p, np := range l.nodePath[anc<<l.del : anc<<l.del+n] {
		front, ok := np.Front()
		if !ok {
			targets[p] = obs.Target{Node: path.NoFront}
			continue
		}
		start, extent := np.Range()
		targets[p] = obs.Target{Node: front, Range: obs.Range{Start: start, Extent: extent}}
	}
	return targets
}
