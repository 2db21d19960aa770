// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/rzipdev/rzip

package rzip

import (
	"math/bits"
	"math/rand"
)

// minimumMatch is the rolling window length and the minimum length of any
// emitted match; the two are the same constant by design.
const minimumMatch = 31

// greatMatch is the match length that forces immediate emission without
// further lookahead.
const greatMatch = 1024

// tagTable is a table of 256 random uint32s used to compute the rolling
// tag over a minimumMatch-byte window. Each chunk driver owns its own
// table rather than sharing a package global, so concurrent compressions
// never share mutable state.
type tagTable [256]uint32

// newTagTable seeds a fresh table. Tags never reach the wire format, so
// reproducibility across runs does not matter; math/rand's top-level
// source (randomly seeded since Go 1.20) is sufficient.
func newTagTable() *tagTable {
	var t tagTable
	for i := range t {
		t[i] = rand.Uint32()
	}
	return &t
}

// fullTag computes the tag for the minimumMatch-byte window starting at p.
// p must have at least minimumMatch bytes remaining.
func (t *tagTable) fullTag(p []byte) uint32 {
	var tag uint32
	for i := 0; i < minimumMatch; i++ {
		tag ^= t[p[i]]
	}
	return tag
}

// nextTag rolls the window forward by one byte: old leaves the window, in
// enters it. XOR is its own inverse and associative, so this produces
// exactly fullTag of the new window.
func (t *tagTable) nextTag(tag uint32, old, in byte) uint32 {
	return tag ^ t[old] ^ t[in]
}

// bitness returns the one-based index of the lowest set bit of t, with
// bitness(0) defined as 32 (ffs semantics). Culling does not use this
// value: cleanOne and lesserBitness rank tags by their trailing set bits.
func bitness(t uint32) int {
	if t == 0 {
		return 32
	}
	return bits.TrailingZeros32(t) + 1
}
