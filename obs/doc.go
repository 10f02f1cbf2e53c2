// Package obs implements the observation partition: per-predictor cells
// staged in rank order across two alternating buffers.
//
// Root staging copies each predictor's in-bag rows from the layout into
// buffer 0. Thereafter a definition's cells are restaged from the buffer
// they occupy into the other one, partitioned by the branch path each
// sample took since the definition was staged.
//
// # Positions
//
// Node ranges live in root space [0, bagCount). A non-dense definition
// places its cells at its node's start; a dense one packs explicit cells
// margin positions earlier and leaves the implicit rank unstored. Nodes
// that do not nest own disjoint positions, so restages of distinct
// definitions write disjoint windows and need no locking.
package obs
