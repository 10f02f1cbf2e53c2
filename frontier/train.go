package frontier

import (
	"context"

	"github.com/hupe1980/arbor/layout"
	"github.com/hupe1980/arbor/sample"
)

// Train grows one tree to completion. observe, if not nil, runs after
// every level.
func Train(ctx context.Context, cfg Config, lay *layout.Layout, bag *sample.Bag, sp Splitter, observe func(LevelStats)) (*PreTree, Stats, error) {
	f, err := New(ctx, cfg, lay, bag)
	if err != nil {
		return nil, Stats{}, err
	}
	for !f.Done() {
		st, err := f.Step(ctx, sp)
		if err != nil {
			return nil, f.Stats(), err
		}
		if observe != nil {
			observe(st)
		}
	}
	return f.Tree(), f.Stats(), nil
}
