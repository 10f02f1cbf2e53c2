package frontier

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/arbor/sample"
)

// Node is a pre-tree node. Leaves have Pred -1.
type Node struct {
	Pred  int
	Cut   uint32
	Gain  float64
	Left  int
	Right int
	// Leaf indexes PreTree.Leaves, or -1.
	Leaf   int
	Depth  int
	Extent int
	SCount uint64
	Sum    float64
	CtgSum []float64
}

// IsLeaf reports whether the node is terminal.
func (n *Node) IsLeaf() bool { return n.Leaf >= 0 }

// Leaf is a terminal node with its in-bag rows.
type Leaf struct {
	Node int
	// Score is the mean response for regression and the plurality
	// category for classification.
	Score float64
	Rows  *roaring.Bitmap
}

// PreTree is the tree built by a Frontier.
type PreTree struct {
	Nodes  []Node
	Leaves []Leaf

	nCtg       int
	sampleLeaf []int
}

func newPreTree(bag *sample.Bag) *PreTree {
	t := &PreTree{
		nCtg:       bag.NCtg(),
		sampleLeaf: make([]int, bag.BagCount()),
	}
	for i := range t.sampleLeaf {
		t.sampleLeaf[i] = -1
	}
	return t
}

func (t *PreTree) addNode(depth int) int {
	n := Node{Pred: -1, Left: -1, Right: -1, Leaf: -1, Depth: depth}
	if t.nCtg > 0 {
		n.CtgSum = make([]float64, t.nCtg)
	}
	t.Nodes = append(t.Nodes, n)
	return len(t.Nodes) - 1
}

func (t *PreTree) branch(id int, s Split) (int, int) {
	depth := t.Nodes[id].Depth + 1
	l := t.addNode(depth)
	r := t.addNode(depth)
	n := &t.Nodes[id]
	n.Pred, n.Cut, n.Gain = s.Pred, s.Cut, s.Gain
	n.Left, n.Right = l, r
	return l, r
}

func (t *PreTree) makeLeaf(id int) int {
	t.Leaves = append(t.Leaves, Leaf{Node: id, Rows: roaring.New()})
	t.Nodes[id].Leaf = len(t.Leaves) - 1
	return t.Nodes[id].Leaf
}

// accumulate adds a sample to node id. Callers own id exclusively.
func (t *PreTree) accumulate(id int, s sample.Sample) {
	n := &t.Nodes[id]
	n.Extent++
	n.SCount += uint64(s.SCount)
	n.Sum += s.YSum
	if t.nCtg > 0 {
		n.CtgSum[s.Ctg] += float64(s.SCount)
	}
}

// assign places sample idx in leaf. Callers own leaf exclusively.
func (t *PreTree) assign(idx uint32, leaf int, row uint32) {
	t.sampleLeaf[idx] = leaf
	t.Leaves[leaf].Rows.Add(row)
}

func (t *PreTree) score(leaf int) {
	n := &t.Nodes[t.Leaves[leaf].Node]
	if t.nCtg == 0 {
		if n.SCount > 0 {
			t.Leaves[leaf].Score = n.Sum / float64(n.SCount)
		}
		return
	}
	best := 0
	for c := range n.CtgSum {
		if n.CtgSum[c] > n.CtgSum[best] {
			best = c
		}
	}
	t.Leaves[leaf].Score = float64(best)
}

// NNode returns the node count.
func (t *PreTree) NNode() int { return len(t.Nodes) }

// NLeaf returns the leaf count.
func (t *PreTree) NLeaf() int { return len(t.Leaves) }

// Depth returns the depth of the deepest node.
func (t *PreTree) Depth() int {
	d := 0
	for i := range t.Nodes {
		d = max(d, t.Nodes[i].Depth)
	}
	return d
}

// SampleLeaf returns the leaf of bag sample idx, or -1 while the sample is
// still live.
func (t *PreTree) SampleLeaf(idx int) int { return t.sampleLeaf[idx] }

// Walk returns the leaf reached by a row given its predictor ranks.
func (t *PreTree) Walk(rank func(pred int) uint32) int {
	id := 0
	for {
		n := &t.Nodes[id]
		if n.IsLeaf() {
			return n.Leaf
		}
		if rank(n.Pred) <= n.Cut {
			id = n.Left
		} else {
			id = n.Right
		}
	}
}
