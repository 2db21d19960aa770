package rzip

import (
	"bytes"
	"hash/crc32"
	"math/rand"
	"testing"
)

// replayChunk decodes an opcode stream produced by scanChunk against its
// literal-data stream, using nothing but the opcodes themselves: literal
// runs are copied straight from the data stream, back-references are
// resolved against the output produced so far (self-overlapping runs
// included, one byte at a time, which is always correct even though the
// real decompressor copies in larger strides for speed).
func replayChunk(t *testing.T, ctl, data []byte) (out []byte, trailingCRC uint32) {
	t.Helper()

	ci, di := 0, 0
	readU8 := func() byte {
		b := ctl[ci]
		ci++
		return b
	}
	readU16 := func() uint16 {
		lo, hi := ctl[ci], ctl[ci+1]
		ci += 2
		return uint16(lo) | uint16(hi)<<8
	}
	readU32 := func() uint32 {
		var v uint32
		for i := 0; i < 4; i++ {
			v |= uint32(ctl[ci]) << (8 * i)
			ci++
		}
		return v
	}

	prevFullMatch := false
	for {
		head := readU8()
		length := readU16()
		if head == headLiteral && length == 0 {
			break
		}
		if head == headLiteral {
			out = append(out, data[di:di+int(length)]...)
			di += int(length)
			prevFullMatch = false
			continue
		}
		offset := readU32()
		if offset == 0 {
			t.Fatal("back-reference with zero offset")
		}
		// A logical match below minimumMatch is never emitted; only the
		// tail piece of a split >64 KiB match may come up short.
		if int(length) < minimumMatch && !prevFullMatch {
			t.Fatalf("back-reference shorter than the minimum match: %d", length)
		}
		prevFullMatch = length == 0xFFFF
		srcPos := len(out) - int(offset)
		if srcPos < 0 {
			t.Fatalf("back-reference underruns output: srcPos=%d offset=%d outLen=%d", srcPos, offset, len(out))
		}
		for i := 0; i < int(length); i++ {
			out = append(out, out[srcPos+i])
		}
	}

	trailingCRC = readU32()
	return out, trailingCRC
}

func scanAndReplay(t *testing.T, in []byte) []byte {
	t.Helper()

	var ctl, data bytes.Buffer
	crc := newRunningCRC()
	em := newEmitter(&ctl, &data, crc)

	tt := newTagTable()
	ht := newHashTable(4, 4)
	ht.reset(4)

	if err := scanChunk(tt, ht, in, 4, em); err != nil {
		t.Fatalf("scanChunk failed: %v", err)
	}

	out, trailingCRC := replayChunk(t, ctl.Bytes(), data.Bytes())
	if !bytes.Equal(out, in) {
		t.Fatalf("replayed output mismatch: got %d bytes, want %d bytes", len(out), len(in))
	}
	if want := crc32.ChecksumIEEE(in); trailingCRC != want {
		t.Fatalf("trailing CRC mismatch: got %#x, want %#x", trailingCRC, want)
	}
	return out
}

func TestScanChunk_OpcodeStreamReversibility(t *testing.T) {
	repeated := func(pattern string, n int) []byte {
		return bytes.Repeat([]byte(pattern), n)
	}

	rnd := func(n int) []byte {
		b := make([]byte, n)
		for i := range b {
			b[i] = byte(rand.Intn(256))
		}
		return b
	}

	cases := map[string][]byte{
		"all-zero":              make([]byte, 5000),
		"random":                rnd(3000),
		"pattern-repeat":        append(append(rnd(1024), repeated("PQRSTUVW", 512)...), append(rnd(1024), repeated("PQRSTUVW", 512)...)...),
		"pathological-long-run": bytes.Repeat([]byte{0x7A}, 20000),
		"exactly-minimum-match": make([]byte, minimumMatch),
		"below-minimum-match":   make([]byte, minimumMatch-1),
	}

	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			scanAndReplay(t, in)
		})
	}
}

func TestScanChunk_EmptyBufferProducesBareTerminator(t *testing.T) {
	out := scanAndReplay(t, nil)
	if len(out) != 0 {
		t.Fatalf("expected empty replay, got %d bytes", len(out))
	}
}
