// Package path tracks the branch history of live samples.
//
// A path is one byte: the low seven bits record the last seven branch
// directions (left 0, right 1, newest in bit 0) and 0x80 marks a sample
// whose node became terminal. Masking a path with Mask(del) yields the
// branches taken since the ancestor del levels back.
//
// IdxPath maps a key to its path and to its slot at the front. Keyed by
// sample index it is the subtree path, valid for every layer; keyed by a
// layer's slots it is that layer's node-relative path.
package path
