// Package arena provides contiguous typed storage addressed by explicit
// (start, extent) windows.
//
// Double holds two equally sized buffers. Observation staging reads one
// buffer and writes the other; callers hand out disjoint windows to
// concurrent writers, so the arena itself takes no locks.
package arena
