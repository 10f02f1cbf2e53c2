package main

import (
	"time"

	"github.com/hupe1980/arbor"
	"github.com/hupe1980/arbor/resource"
)

// progress counts training metrics and reports finished trees, at most
// as often as the controller's event limit allows. The last tree is
// always reported.
type progress struct {
	arbor.BasicMetricsCollector

	logger *arbor.Logger
	rc     *resource.Controller
	total  int
}

func (p *progress) RecordTree(nodes, leaves int, duration time.Duration, err error) {
	p.BasicMetricsCollector.RecordTree(nodes, leaves, duration, err)
	done := p.TreeCount.Load()
	if done == int64(p.total) || p.rc.AllowEvent() {
		p.logger.Info("training", "trees", done, "total", p.total)
	}
}
