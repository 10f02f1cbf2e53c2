// Package testutil provides testing utilities for arbor.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, thread-safe RNG and generators for predictor
// columns and responses.
//
// # Columns
//
//	rng := testutil.NewRNG(seed)
//	x := rng.UniformColumn(1000)          // uniform [0, 1)
//	c := rng.DiscreteColumn(1000, 5)      // integers in [0, 5)
//	s := rng.SparseColumn(1000, 0.2)      // 80% zeros
//	z := rng.ZipfColumn(1000, 20, 1.5)    // heavy-tailed ranks
//	rng.InjectMissing(x, 0.1)             // 10% NaN
//
// # Responses
//
//	y := rng.StepResponse(x, 0.5, 0, 10, 0.1)
//	ctg := testutil.Threshold(x, 0.3, 0.7) // three categories
package testutil
