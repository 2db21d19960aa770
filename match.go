// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/rzipdev/rzip

package rzip

// matchLen extends a candidate match both forward and backward from p0 (the
// current scan position) against op (a candidate earlier occurrence), then
// reports the total length and how far the match extended backward into
// already-scanned data (rev). A match shorter than minimumMatch is
// rejected by returning 0.
//
// op must lie strictly before p0 in the same buffer; lastMatch is the start
// of the unconsumed literal run (the earliest position a backward extension
// is allowed to reach, so it can never re-claim bytes already emitted as
// part of a prior match or literal run).
func matchLen(buf []byte, p0Off, opOff, end int, lastMatch int) (length, rev int) {
	if opOff >= p0Off {
		return 0, 0
	}

	p := p0Off
	o := opOff
	for p < end && buf[p] == buf[o] {
		p++
		o++
	}
	length = p - p0Off

	p = p0Off
	o = opOff

	backEnd := 0
	if lastMatch > backEnd {
		backEnd = lastMatch
	}

	for p > backEnd && o > 0 && buf[o-1] == buf[p-1] {
		o--
		p--
	}

	rev = p0Off - p
	length += rev

	if length < minimumMatch {
		return 0, 0
	}
	return length, rev
}

// findBestMatch walks the chain of hash entries sharing tag t and returns
// the longest verified match, along with the source offset (already
// adjusted backward by the match's reverse extension) and how far the
// match reaches backward past p. It never inserts into the table;
// insertion is the scanner's responsibility, performed separately and
// only for gate-passing tags.
func findBestMatch(h *hashTable, buf []byte, t uint32, pOff, end, lastMatch int) (mlen int, offset uint32, reverse int) {
	mask := uint32(1)<<h.bits - 1
	idx := h.primaryHash(t)

	for !h.empty(idx) {
		entry := h.entries[idx]

		if entry.t == t {
			candLen, rev := matchLen(buf, pOff, int(entry.offset), end, lastMatch)
			if candLen >= mlen {
				mlen = candLen
				offset = entry.offset - uint32(rev)
				reverse = rev
			}
		}

		idx = (idx + 1) & mask
	}

	return mlen, offset, reverse
}
