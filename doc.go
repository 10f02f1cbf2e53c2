// Package arbor trains decision trees and forests on rank-encoded
// columnar data.
//
// Observations are staged once per tree, sorted by rank, and then
// restaged lazily as the tree grows: a predictor's cells are only moved
// into the nodes that need them, and only when a splitter asks or the
// backlog grows too old. See package frontier for the level loop and
// internal/defmap for the bookkeeping of staged definitions.
//
// # Quick Start
//
//	tr, _ := arbor.New(arbor.WithMaxDepth(8), arbor.WithSeed(42))
//	lay, _ := tr.NewLayout(columns) // NaN marks missing values
//	forest, _ := tr.TrainForest(ctx, lay, arbor.Response{Y: y}, 100)
//	yhat := forest.Predict(row)
//
// Classification takes categories instead:
//
//	forest, _ := tr.TrainForest(ctx, lay, arbor.Response{Y: y, Ctg: ctg, NCtg: 3}, 100)
//
// # Tuning
//
// WithEfficiency trades restaging work against definition reach: at 0
// definitions are only restaged on demand or when they fall out of the
// path window; at 1 every back definition is restaged to the front each
// level. WithPlurality controls when a dominant rank is elided from the
// staged cells. WithIndexMode chooses between sample-index keys and
// front-slot keys for staged cells.
//
// # Concurrency
//
// Within a tree, restaging and split evaluation fan out over WithWorkers
// goroutines. Across trees, a resource.Controller bounds how many trees
// train at once and how much buffer memory they hold:
//
//	rc := resource.NewController(resource.Config{
//	    MaxWorkers:       4,
//	    MemoryLimitBytes: 1 << 30,
//	})
//	tr, _ := arbor.New(arbor.WithResourceController(rc))
//
// # Observability
//
// WithLogger attaches a structured Logger; WithMetricsCollector receives
// per-tree, per-level and restage counts. Package metrics/prometheus
// exports them to a Prometheus registry.
package arbor
