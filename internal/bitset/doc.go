// Package bitset provides a fixed-size bitset safe for concurrent writers.
//
// Words are atomic.Uint64, so goroutines setting distinct bits that share a
// word never lose updates. Branch assignment uses it: split workers for
// different nodes mark their samples' directions in parallel.
package bitset
