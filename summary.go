package arbor

// NodeSummary describes one tree node for export.
type NodeSummary struct {
	ID        int     `json:"id"`
	Depth     int     `json:"depth"`
	Extent    int     `json:"extent"`
	Predictor string  `json:"predictor,omitempty"`
	Value     float64 `json:"value,omitempty"`
	Gain      float64 `json:"gain,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
	Score     float64 `json:"score"`
	Leaf      bool    `json:"leaf,omitempty"`
}

// TreeSummary describes a trained tree for export.
type TreeSummary struct {
	Seed        int64         `json:"seed"`
	Nodes       int           `json:"nodes"`
	Leaves      int           `json:"leaves"`
	Depth       int           `json:"depth"`
	OutOfBag    uint64        `json:"out_of_bag"`
	Levels      int           `json:"levels"`
	Restaged    int64         `json:"restaged"`
	DefinedCost int64         `json:"defined_cost"`
	FlushedCost int64         `json:"flushed_cost"`
	Tree        []NodeSummary `json:"tree"`
}

// ForestSummary describes a trained forest for export.
type ForestSummary struct {
	Predictors []string      `json:"predictors"`
	Categories int           `json:"categories,omitempty"`
	Trees      []TreeSummary `json:"trees"`
}

// Summary exports the tree with predictors named by names.
func (t *Tree) Summary(names []string) TreeSummary {
	s := TreeSummary{
		Seed:        t.Seed,
		Nodes:       t.NNode(),
		Leaves:      t.NLeaf(),
		Depth:       t.Depth(),
		OutOfBag:    t.oob.GetCardinality(),
		Levels:      t.Stats.Levels,
		Restaged:    t.Stats.Restaged,
		DefinedCost: t.Stats.DefinedCost,
		FlushedCost: t.Stats.FlushedCost,
		Tree:        make([]NodeSummary, len(t.Nodes)),
	}
	for i := range t.Nodes {
		n := &t.Nodes[i]
		ns := NodeSummary{ID: i, Depth: n.Depth, Extent: n.Extent}
		if n.IsLeaf() {
			ns.Leaf = true
			ns.Score = t.Leaves[n.Leaf].Score
		} else {
			ns.Predictor = names[n.Pred]
			ns.Value = t.SplitValue(i)
			ns.Gain = n.Gain
			ns.Left, ns.Right = n.Left, n.Right
			if n.SCount > 0 && t.NCtg == 0 {
				ns.Score = n.Sum / float64(n.SCount)
			}
		}
		s.Tree[i] = ns
	}
	return s
}

// Summary exports every tree of the forest.
func (f *Forest) Summary(names []string) ForestSummary {
	s := ForestSummary{
		Predictors: names,
		Categories: f.NCtg,
		Trees:      make([]TreeSummary, len(f.Trees)),
	}
	for i, t := range f.Trees {
		s.Trees[i] = t.Summary(names)
	}
	return s
}
