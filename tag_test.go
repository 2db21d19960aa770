package rzip

import (
	"math/rand"
	"testing"
)

func TestTagTable_NextTagMatchesFullTag(t *testing.T) {
	buf := make([]byte, minimumMatch+200)
	for i := range buf {
		buf[i] = byte(rand.Intn(256))
	}

	tt := newTagTable()
	tag := tt.fullTag(buf)

	for p := 0; p+minimumMatch < len(buf); p++ {
		want := tt.fullTag(buf[p+1 : p+1+minimumMatch])
		tag = tt.nextTag(tag, buf[p], buf[p+minimumMatch])
		if tag != want {
			t.Fatalf("position %d: nextTag = %#x, want %#x (fullTag)", p+1, tag, want)
		}
	}
}

func TestTagTable_FullTagDeterministicForFixedTable(t *testing.T) {
	tt := newTagTable()
	window := make([]byte, minimumMatch)
	for i := range window {
		window[i] = byte(i)
	}

	a := tt.fullTag(window)
	b := tt.fullTag(window)
	if a != b {
		t.Fatalf("fullTag is not deterministic for a fixed table: %#x != %#x", a, b)
	}
}

func TestBitness(t *testing.T) {
	cases := []struct {
		tag  uint32
		want int
	}{
		{0, 32},
		{1, 1},
		{2, 2},
		{3, 1},
		{4, 3},
		{1 << 31, 32},
		{0x80000001, 1},
	}
	for _, c := range cases {
		if got := bitness(c.tag); got != c.want {
			t.Errorf("bitness(%#x) = %d, want %d", c.tag, got, c.want)
		}
	}
}
