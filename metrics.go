package arbor

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting training metrics.
// Implement this interface to integrate with monitoring systems; see
// package metrics/prometheus for a Prometheus implementation.
type MetricsCollector interface {
	// RecordTree is called after each tree.
	// duration is the total time taken, err is nil if successful.
	RecordTree(nodes, leaves int, duration time.Duration, err error)

	// RecordLevel is called after each induction level with the front
	// width, candidate count and applied splits.
	RecordLevel(nodes, candidates, splits int)

	// RecordRestage is called after each level's restage phase with the
	// number of restaged definitions and the cells they moved.
	RecordRestage(restages, cells int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordTree(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordLevel(int, int, int)                 {}
func (NoopMetricsCollector) RecordRestage(int, int)                    {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	TreeCount      atomic.Int64
	TreeErrors     atomic.Int64
	TreeTotalNanos atomic.Int64
	NodeCount      atomic.Int64
	LeafCount      atomic.Int64
	LevelCount     atomic.Int64
	CandidateCount atomic.Int64
	SplitCount     atomic.Int64
	RestageCount   atomic.Int64
	RestagedCells  atomic.Int64
}

// RecordTree implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTree(nodes, leaves int, duration time.Duration, err error) {
	b.TreeCount.Add(1)
	b.TreeTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.TreeErrors.Add(1)
		return
	}
	b.NodeCount.Add(int64(nodes))
	b.LeafCount.Add(int64(leaves))
}

// RecordLevel implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLevel(_ int, candidates, splits int) {
	b.LevelCount.Add(1)
	b.CandidateCount.Add(int64(candidates))
	b.SplitCount.Add(int64(splits))
}

// RecordRestage implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRestage(restages, cells int) {
	b.RestageCount.Add(int64(restages))
	b.RestagedCells.Add(int64(cells))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		TreeCount:      b.TreeCount.Load(),
		TreeErrors:     b.TreeErrors.Load(),
		TreeAvgNanos:   b.getAvgTreeNanos(),
		NodeCount:      b.NodeCount.Load(),
		LeafCount:      b.LeafCount.Load(),
		LevelCount:     b.LevelCount.Load(),
		CandidateCount: b.CandidateCount.Load(),
		SplitCount:     b.SplitCount.Load(),
		RestageCount:   b.RestageCount.Load(),
		RestagedCells:  b.RestagedCells.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgTreeNanos() int64 {
	count := b.TreeCount.Load()
	if count == 0 {
		return 0
	}
	return b.TreeTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	TreeCount      int64
	TreeErrors     int64
	TreeAvgNanos   int64
	NodeCount      int64
	LeafCount      int64
	LevelCount     int64
	CandidateCount int64
	SplitCount     int64
	RestageCount   int64
	RestagedCells  int64
}
