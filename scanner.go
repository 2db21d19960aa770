// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/rzipdev/rzip

package rzip

// scanChunk walks buf with the rolling tag, probing the hash table for the
// longest match at each position and committing to the best candidate seen
// once it either reaches greatMatch or the scan has moved minimumMatch
// bytes past where the candidate started. It writes the resulting
// literal/match opcode stream through e, ending with the terminator and
// the chunk's CRC trailer.
//
// The caller resets ht (via ht.reset) before each chunk; scanChunk does
// not, so a driver pushing multiple chunks through one *hashTable controls
// reuse explicitly.
func scanChunk(tt *tagTable, ht *hashTable, buf []byte, initialFreq uint, e *emitter) error {
	if len(buf) < minimumMatch {
		if len(buf) > 0 {
			if err := e.putLiteral(buf, 0, len(buf)); err != nil {
				return err
			}
		}
		return e.terminator()
	}

	end := len(buf) - minimumMatch
	tagMask := uint32(1)<<initialFreq - 1

	type pending struct {
		pos int
		ofs uint32
		len int
	}
	var current pending

	lastMatch := 0
	p := 0
	t := tt.fullTag(buf)

	for p < end {
		p++
		t = tt.nextTag(t, buf[p-1], buf[p+minimumMatch-1])

		if t&ht.minimumTagMask != ht.minimumTagMask {
			continue
		}

		mlen, offset, reverse := findBestMatch(ht, buf, t, p, len(buf), lastMatch)

		if t&tagMask == tagMask {
			ht.count++
			ht.insert(t, uint32(p))
			if ht.count > ht.limit {
				tagMask = ht.cleanOne()
			}
		}

		if mlen > current.len {
			current.pos = p - reverse
			current.len = mlen
			current.ofs = offset
		}

		if (current.len >= greatMatch || p >= current.pos+minimumMatch) && current.len >= minimumMatch {
			if lastMatch < current.pos {
				if err := e.putLiteral(buf, lastMatch, current.pos); err != nil {
					return err
				}
			}
			if err := e.putMatch(buf, current.pos, current.ofs, current.len); err != nil {
				return err
			}
			lastMatch = current.pos + current.len
			current.pos, p = lastMatch, lastMatch
			current.len = 0
			if p < end {
				t = tt.fullTag(buf[p:])
			}
		}
	}

	if lastMatch < len(buf) {
		if err := e.putLiteral(buf, lastMatch, len(buf)); err != nil {
			return err
		}
	}
	return e.terminator()
}
