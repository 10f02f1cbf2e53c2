package arbor

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/arbor/frontier"
	"github.com/hupe1980/arbor/layout"
	"github.com/hupe1980/arbor/obs"
	"github.com/hupe1980/arbor/sample"
	"github.com/hupe1980/arbor/split"
)

// Response is the training target, one entry per layout row.
type Response struct {
	Y []float64
	// Ctg holds categories in [0, NCtg) for classification; nil for
	// regression.
	Ctg  []uint32
	NCtg int
}

// Trainer grows trees and forests with a fixed configuration. It is safe
// for concurrent use.
type Trainer struct {
	opts options
}

// New creates a Trainer.
func New(optFns ...Option) (*Trainer, error) {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}

	if o.plurality < 0 || o.plurality >= 1 || math.IsNaN(o.plurality) {
		return nil, &ConfigError{Field: "plurality", Value: o.plurality}
	}
	if o.minGain < 0 {
		return nil, &ConfigError{Field: "min gain", Value: o.minGain}
	}
	if err := o.frontier.Validate(); err != nil {
		return nil, translateError(err)
	}
	return &Trainer{opts: o}, nil
}

// NewLayout rank-encodes float columns with the configured plurality.
// NaN marks a missing observation.
func (t *Trainer) NewLayout(cols [][]float64) (*layout.Layout, error) {
	lay, err := layout.FromColumns(cols, t.opts.plurality)
	if err != nil {
		return nil, translateError(err)
	}
	return lay, nil
}

// Train grows a single tree.
func (t *Trainer) Train(ctx context.Context, lay *layout.Layout, resp Response) (*Tree, error) {
	return t.train(ctx, lay, resp, 0)
}

// TrainForest grows nTree trees. Trees run concurrently up to the
// resource controller's worker count; any failure cancels the rest.
func (t *Trainer) TrainForest(ctx context.Context, lay *layout.Layout, resp Response, nTree int) (*Forest, error) {
	if nTree < 1 {
		return nil, &ConfigError{Field: "tree count", Value: nTree}
	}

	start := time.Now()
	rc := t.opts.rc
	trees := make([]*Tree, nTree)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rc.MaxWorkers())
	for i := range trees {
		g.Go(func() error {
			if err := rc.AcquireWorker(gctx); err != nil {
				return err
			}
			defer rc.ReleaseWorker()

			tree, err := t.train(gctx, lay, resp, i)
			if err != nil {
				return fmt.Errorf("tree %d: %w", i, err)
			}
			trees[i] = tree
			return nil
		})
	}
	err := g.Wait()
	t.opts.logger.LogForest(ctx, nTree, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return &Forest{Trees: trees, NCtg: resp.NCtg}, nil
}

func (t *Trainer) train(ctx context.Context, lay *layout.Layout, resp Response, i int) (*Tree, error) {
	start := time.Now()
	log := t.opts.logger.WithTree(i)

	tree, err := t.grow(ctx, lay, resp, t.opts.seed+int64(i), log)
	err = translateError(err)

	duration := time.Since(start)
	if err != nil {
		t.opts.metricsCollector.RecordTree(0, 0, duration, err)
	} else {
		t.opts.metricsCollector.RecordTree(tree.NNode(), tree.NLeaf(), duration, nil)
	}
	log.LogTree(ctx, tree, duration, err)
	return tree, err
}

func (t *Trainer) grow(ctx context.Context, lay *layout.Layout, resp Response, seed int64, log *Logger) (*Tree, error) {
	rng := rand.New(rand.NewSource(seed)) // nolint gosec
	counts, err := t.opts.sampler.Counts(rng, lay.NRow())
	if err != nil {
		return nil, err
	}
	nCtg := 0
	if resp.Ctg != nil {
		nCtg = resp.NCtg
	}
	bag, err := sample.NewBag(resp.Y, resp.Ctg, nCtg, counts)
	if err != nil {
		return nil, err
	}

	bytes := obs.EstimateBytes(lay, bag.BagCount())
	rc := t.opts.rc
	if err := rc.AcquireMemory(ctx, bytes); err != nil {
		return nil, err
	}
	defer rc.ReleaseMemory(bytes)

	cfg := t.opts.frontier
	cfg.Seed = rng.Int63()
	sp := t.opts.splitter
	if sp == nil {
		sp = split.New(bag.NCtg(), t.opts.minGain)
	}

	pt, stats, err := frontier.Train(ctx, cfg, lay, bag, sp, func(st frontier.LevelStats) {
		t.opts.metricsCollector.RecordRestage(st.Restages, st.RestagedCells)
		t.opts.metricsCollector.RecordLevel(st.Nodes, st.Candidates, st.Splits)
		log.LogLevel(ctx, st)
	})
	if err != nil {
		return nil, err
	}

	return &Tree{
		PreTree: pt,
		Stats:   stats,
		Seed:    seed,
		NCtg:    bag.NCtg(),
		lay:     lay,
		oob:     bag.OutOfBag(),
	}, nil
}
