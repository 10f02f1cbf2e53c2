package arbor

import (
	"github.com/hupe1980/arbor/frontier"
	"github.com/hupe1980/arbor/resource"
	"github.com/hupe1980/arbor/sample"
)

type options struct {
	frontier         frontier.Config
	plurality        float64
	minGain          float64
	splitter         frontier.Splitter
	sampler          sample.Sampler
	metricsCollector MetricsCollector
	logger           *Logger
	rc               *resource.Controller
	seed             int64
}

func defaultOptions() options {
	return options{
		frontier:         frontier.DefaultConfig(),
		plurality:        0.5,
		sampler:          sample.Bootstrap{Replace: true},
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
}

// Option configures a Trainer.
type Option func(*options)

// WithMinNode sets the smallest sample count a node needs to be split.
// Default 2.
func WithMinNode(n int) Option {
	return func(o *options) {
		o.frontier.MinNode = n
	}
}

// WithMaxDepth bounds tree depth, the root being at depth 0.
// Zero, the default, means unlimited.
func WithMaxDepth(d int) Option {
	return func(o *options) {
		o.frontier.MaxDepth = d
	}
}

// WithPlurality sets the fraction of rows a single rank must exceed for
// NewLayout to elide it from staging, in [0, 1). Default 0.5.
func WithPlurality(p float64) Option {
	return func(o *options) {
		o.plurality = p
	}
}

// WithEfficiency sets the fraction of outstanding back-definition cost
// restaged eagerly each level.
//
// Low values defer restaging, keeping definitions far from the front and
// widening the reach of each later restage. High values restage early and
// keep few layers alive. Default 0.5.
func WithEfficiency(e float64) Option {
	return func(o *options) {
		o.frontier.Efficiency = e
	}
}

// WithPathWindow sets how many levels a definition may lag the front,
// between 1 and 7. Default 7.
func WithPathWindow(w int) Option {
	return func(o *options) {
		o.frontier.PathWindow = w
	}
}

// WithPredFixed samples n predictors per node. Zero selects all.
func WithPredFixed(n int) Option {
	return func(o *options) {
		o.frontier.PredFixed = n
	}
}

// WithIndexMode selects sample-index or front-slot keyed staging.
func WithIndexMode(m frontier.IndexMode) Option {
	return func(o *options) {
		o.frontier.IndexMode = m
	}
}

// WithTrackRuns makes restaging record per-node run tables, exposed to
// splitters as Candidate.Runs.
func WithTrackRuns(track bool) Option {
	return func(o *options) {
		o.frontier.TrackRuns = track
	}
}

// WithWorkers sets the per-tree parallelism of restaging and splitting.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.frontier.Workers = n
	}
}

// WithMinGain sets the smallest gain the default splitters accept.
func WithMinGain(g float64) Option {
	return func(o *options) {
		o.minGain = g
	}
}

// WithSplitter replaces the default splitter, which is chosen from the
// response kind.
func WithSplitter(s frontier.Splitter) Option {
	return func(o *options) {
		o.splitter = s
	}
}

// WithSampler configures row sampling. The default is a bootstrap of
// nRow draws with replacement.
func WithSampler(s sample.Sampler) Option {
	return func(o *options) {
		if s == nil {
			s = sample.All{}
		}
		o.sampler = s
	}
}

// WithMetricsCollector configures a metrics collector for monitoring training.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &arbor.BasicMetricsCollector{}
//	tr, _ := arbor.New(arbor.WithMetricsCollector(metrics))
//	// ... train ...
//	stats := metrics.GetStats()
//	fmt.Printf("Trees: %d, Splits: %d\n", stats.TreeCount, stats.SplitCount)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := arbor.NewJSONLogger(slog.LevelInfo)
//	tr, _ := arbor.New(arbor.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithResourceController bounds concurrent trees and their buffer memory.
// Without one, forests train one tree at a time.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithSeed seeds row sampling and predictor draws. Tree i of a forest
// uses seed+i.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}
