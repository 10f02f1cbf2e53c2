// Package sample draws the in-bag rows of a tree and summarizes them.
//
// A Bag maps rows to dense sample indices in row order. Each sample carries
// its multiplicity (sample count), the response weighted by that count and,
// for classification, its category. Sample indices are what the observation
// partition stores under subtree indexing.
package sample
