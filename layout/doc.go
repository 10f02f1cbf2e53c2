// Package layout holds the rank-encoded, read-only view of a training frame.
//
// Each predictor is stored as a run-length-encoded stream of (rank, row,
// extent) triples sorted by rank and then by row. A run covers consecutive
// rows sharing one rank. Missing values take the rank equal to the
// predictor's cardinality and therefore sort last.
//
// # Dense predictors
//
// A predictor whose most frequent rank covers more than a plurality fraction
// of the rows is dense: that rank becomes implicit and is never staged
// explicitly. Only the remaining rows occupy observation buffers, which is
// what SafeSize and SafeRange account for.
//
//	lay, err := layout.FromColumns(cols, 0.5)
//	size := lay.SafeSize(bagCount)
package layout
