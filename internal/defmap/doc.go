// Package defmap keeps the reaching definitions of (node, predictor) pairs.
//
// A definition asserts that a pair's cells are staged, in rank order, at the
// node that owns it. Layers hold the definitions of successive levels: layer
// 0 is the front, layer del the ancestors del levels back. A front pair whose
// cells were never restaged reaches the definition of its most recently
// restaged ancestor (MRRA), found by indexing the history table with the
// pair's layer distance.
//
// Each level, FlushRear evicts back definitions in three passes: the rear
// layer once it reaches the path window, definitions of nodes with no live
// samples left, and whole rear layers while their cost fits the efficiency
// budget. Flushing queues restages that the caller executes and reports back
// through ApplyRestage.
//
// Contract violations panic with an error wrapping obs.ErrContract.
package defmap
