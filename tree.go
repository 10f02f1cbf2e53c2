package arbor

import (
	"math"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/arbor/frontier"
	"github.com/hupe1980/arbor/layout"
)

// Tree is a trained decision tree.
type Tree struct {
	*frontier.PreTree

	Stats frontier.Stats
	Seed  int64
	NCtg  int

	lay *layout.Layout
	oob *roaring.Bitmap
}

// OutOfBag returns the rows the tree was not trained on.
func (t *Tree) OutOfBag() *roaring.Bitmap { return t.oob }

// SplitValue returns the value threshold of an internal node: values at or
// below it branch left.
func (t *Tree) SplitValue(node int) float64 {
	n := &t.Nodes[node]
	return t.lay.SplitValue(n.Pred, n.Cut)
}

// LeafOf returns the leaf reached by a row of predictor values. NaN
// branches right.
func (t *Tree) LeafOf(x []float64) int {
	id := 0
	for {
		n := &t.Nodes[id]
		if n.IsLeaf() {
			return n.Leaf
		}
		v := x[n.Pred]
		if !math.IsNaN(v) && v <= t.SplitValue(id) {
			id = n.Left
		} else {
			id = n.Right
		}
	}
}

// Predict returns the leaf score of a row.
func (t *Tree) Predict(x []float64) float64 {
	return t.Leaves[t.LeafOf(x)].Score
}

// Forest is an ensemble of trees trained on one layout.
type Forest struct {
	Trees []*Tree
	NCtg  int
}

// Predict averages tree scores for regression and returns the plurality
// vote for classification.
func (f *Forest) Predict(x []float64) float64 {
	if f.NCtg == 0 {
		sum := 0.0
		for _, t := range f.Trees {
			sum += t.Predict(x)
		}
		return sum / float64(len(f.Trees))
	}

	votes := make([]int, f.NCtg)
	for _, t := range f.Trees {
		votes[int(t.Predict(x))]++
	}
	best := 0
	for c := range votes {
		if votes[c] > votes[best] {
			best = c
		}
	}
	return float64(best)
}
