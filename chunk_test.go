package rzip

import (
	"bytes"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/rzipdev/rzip/internal/header"
)

func silentLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l.WithField("component", "rzip-test")
}

// TestChunkDriver_MultiChunkRoundTrip splits one input across several
// chunks (each with its own container, hash-table reset, and CRC) and
// verifies the archive decompresses whole. The production chunk size is
// 100 MiB per level unit; the driver takes the chunk size as a parameter,
// so the boundary behavior is exercised here at test scale instead.
func TestChunkDriver_MultiChunkRoundTrip(t *testing.T) {
	pattern := bytes.Repeat([]byte("chunk-boundary-spanning-pattern-"), 128) // 4 KiB
	var data []byte
	for i := 0; i < 60; i++ {
		data = append(data, pattern...)
		data = append(data, byte(i))
	}

	src := writeTempFile(t, data)
	defer src.Close()
	dst := newTempFile(t, "rzip-multichunk")
	defer dst.Close()

	hdr := header.Encode(header.New(uint64(len(data))))
	if _, err := dst.Write(hdr[:]); err != nil {
		t.Fatalf("write header: %v", err)
	}

	_, lvl := levelFor(1)
	d := newChunkDriver(src, dst, lvl, silentLog(), false, 0)

	const chunkBytes = 64 << 10
	written, err := d.runAll(int64(len(data)), chunkBytes)
	if err != nil {
		t.Fatalf("runAll: %v", err)
	}
	if written != int64(len(data)) {
		t.Fatalf("runAll consumed %d bytes, want %d", written, len(data))
	}

	wantChunks := (len(data) + chunkBytes - 1) / chunkBytes
	if wantChunks < 3 {
		t.Fatalf("test input too small to span multiple chunks: %d", wantChunks)
	}

	got := decompressFromFile(t, dst)
	if !bytes.Equal(got, data) {
		t.Fatalf("multi-chunk round-trip mismatch: got %d bytes, want %d bytes", len(got), len(data))
	}
}

// TestChunkDriver_EmptyInputStillWritesOneChunk confirms an empty input
// produces a parseable archive: header, one container, a bare terminator,
// and a CRC over zero bytes.
func TestChunkDriver_EmptyInputStillWritesOneChunk(t *testing.T) {
	src := writeTempFile(t, nil)
	defer src.Close()
	dst := newTempFile(t, "rzip-empty")
	defer dst.Close()

	hdr := header.Encode(header.New(0))
	if _, err := dst.Write(hdr[:]); err != nil {
		t.Fatalf("write header: %v", err)
	}

	_, lvl := levelFor(0)
	d := newChunkDriver(src, dst, lvl, silentLog(), false, 0)
	if _, err := d.runAll(0, chunkSize(0)); err != nil {
		t.Fatalf("runAll: %v", err)
	}

	info, err := dst.Stat()
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() <= header.Size {
		t.Fatalf("archive is %d bytes; expected a container past the %d-byte header", info.Size(), header.Size)
	}

	got := decompressFromFile(t, dst)
	if len(got) != 0 {
		t.Fatalf("expected empty output, got %d bytes", len(got))
	}
}
