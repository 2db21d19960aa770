package rzip

import "testing"

func TestMatchLen_ForwardAndBackwardExtension(t *testing.T) {
	// buf: [XXXX][AAAA...][BBBB...][AAAA...]  candidate match is the second
	// run of A's matching the first; forward extension should stop at
	// buf end, and backward extension should not move at all: the byte
	// before the anchor is 'B' and the byte before the candidate is 'X'.
	prefix := []byte("XXXX")
	pattern := make([]byte, 40)
	for i := range pattern {
		pattern[i] = 'A'
	}
	middle := make([]byte, 20)
	for i := range middle {
		middle[i] = 'B'
	}

	buf := append(append(append([]byte{}, prefix...), pattern...), middle...)
	buf = append(buf, pattern...)

	opOff := len(prefix)             // first occurrence of the A run
	p0Off := len(prefix) + len(pattern) + len(middle) // second occurrence
	lastMatch := len(prefix) + len(pattern)            // start of middle run

	length, rev := matchLen(buf, p0Off, opOff, len(buf), lastMatch)
	if rev != 0 {
		t.Fatalf("expected no backward extension past lastMatch, got rev=%d", rev)
	}
	if length != len(pattern) {
		t.Fatalf("expected forward match length %d, got %d", len(pattern), length)
	}
}

func TestMatchLen_BackwardExtensionReclaimsPrefix(t *testing.T) {
	seq := []byte("0123456789abcdefghijklmnopqrstuvwxyzABCD")
	buf := make([]byte, 200)
	for i := range buf {
		buf[i] = byte(i*5 + 1)
	}
	copy(buf[20:], seq)
	copy(buf[120:], seq)

	// Anchor 8 bytes into the second copy: the match must extend forward
	// to the end of the copy and backward to its start, comparing the
	// bytes before each copy's start (not bytes inside the forward match).
	length, rev := matchLen(buf, 128, 28, len(buf), 0)
	if rev != 8 {
		t.Fatalf("expected 8 bytes of backward extension, got rev=%d", rev)
	}
	if length != len(seq) {
		t.Fatalf("expected total match length %d, got %d", len(seq), length)
	}
}

func TestMatchLen_RejectsBelowMinimum(t *testing.T) {
	buf := []byte("abcabc")
	length, _ := matchLen(buf, 3, 0, len(buf), 0)
	if length != 0 {
		t.Fatalf("expected match below minimumMatch to be rejected, got length=%d", length)
	}
}

func TestMatchLen_RejectsNonStrictlyEarlierOp(t *testing.T) {
	buf := make([]byte, 64)
	length, rev := matchLen(buf, 10, 10, len(buf), 0)
	if length != 0 || rev != 0 {
		t.Fatalf("expected zero match when op is not strictly before p0, got length=%d rev=%d", length, rev)
	}
	length, rev = matchLen(buf, 10, 20, len(buf), 0)
	if length != 0 || rev != 0 {
		t.Fatalf("expected zero match when op is after p0, got length=%d rev=%d", length, rev)
	}
}

func TestFindBestMatch_PrefersLongestCandidate(t *testing.T) {
	ht := newHashTable(1, 4)
	ht.reset(0)

	pattern := make([]byte, 50)
	for i := range pattern {
		pattern[i] = byte(i + 1)
	}

	buf := make([]byte, 260)
	// Distinct filler everywhere so the planted matches can't accidentally
	// extend further than intended by coinciding with unrelated bytes.
	for i := range buf {
		buf[i] = byte(i*7 + 3)
	}
	// Candidate at offset 0: matches the first 35 bytes of pattern, then diverges.
	copy(buf[0:50], pattern)
	for i := 35; i < 50; i++ {
		buf[i] = 0xFF
	}
	// Candidate at offset 100: an exact copy of pattern (full 50-byte match).
	copy(buf[100:150], pattern)
	// Anchor at offset 200: another exact copy, scanned against both candidates.
	copy(buf[200:250], pattern)

	const tag = uint32(999)
	ht.count++
	ht.insert(tag, 0)
	ht.count++
	ht.insert(tag, 100)

	mlen, offset, _ := findBestMatch(ht, buf, tag, 200, len(buf), 0)
	if mlen != 50 {
		t.Fatalf("expected the longest (50-byte) candidate to win, got length=%d", mlen)
	}
	if offset != 100 {
		t.Fatalf("expected best match to resolve to offset 100, got %d", offset)
	}
}
