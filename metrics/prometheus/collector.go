// Package prometheus exports training metrics to a Prometheus registry.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hupe1980/arbor"
)

// Collector implements arbor.MetricsCollector.
type Collector struct {
	trees         *prometheus.CounterVec
	treeDuration  prometheus.Histogram
	treeNodes     prometheus.Histogram
	levels        prometheus.Counter
	frontWidth    prometheus.Histogram
	candidates    prometheus.Counter
	splits        prometheus.Counter
	restages      prometheus.Counter
	restagedCells prometheus.Counter
}

var _ arbor.MetricsCollector = (*Collector)(nil)

// New registers the arbor metrics with reg under namespace.
func New(reg prometheus.Registerer, namespace string) *Collector {
	f := promauto.With(reg)
	return &Collector{
		trees: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trees_total",
			Help:      "Trees trained by result",
		}, []string{"result"}),
		treeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tree_duration_seconds",
			Help:      "Tree training duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~30s
		}),
		treeNodes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tree_nodes",
			Help:      "Nodes per trained tree",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		levels: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "levels_total",
			Help:      "Induction levels completed",
		}),
		frontWidth: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "front_width",
			Help:      "Front nodes per level",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
		}),
		candidates: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Split candidates offered to splitters",
		}),
		splits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "splits_total",
			Help:      "Splits applied",
		}),
		restages: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "restages_total",
			Help:      "Definitions restaged",
		}),
		restagedCells: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "restaged_cells_total",
			Help:      "Cells read by restaging",
		}),
	}
}

// RecordTree implements arbor.MetricsCollector.
func (c *Collector) RecordTree(nodes, _ int, duration time.Duration, err error) {
	if err != nil {
		c.trees.WithLabelValues("error").Inc()
		return
	}
	c.trees.WithLabelValues("ok").Inc()
	c.treeDuration.Observe(duration.Seconds())
	c.treeNodes.Observe(float64(nodes))
}

// RecordLevel implements arbor.MetricsCollector.
func (c *Collector) RecordLevel(nodes, candidates, splits int) {
	c.levels.Inc()
	c.frontWidth.Observe(float64(nodes))
	c.candidates.Add(float64(candidates))
	c.splits.Add(float64(splits))
}

// RecordRestage implements arbor.MetricsCollector.
func (c *Collector) RecordRestage(restages, cells int) {
	c.restages.Add(float64(restages))
	c.restagedCells.Add(float64(cells))
}
