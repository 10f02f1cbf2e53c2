// Package conv provides checked integer conversions.
//
// Row counts, sample multiplicities and categories arrive as int or uint32
// and end up in narrow packed fields. These helpers validate the narrowing
// once, at construction, so the hot restaging loops can use plain casts.
package conv
