// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/rzipdev/rzip

// Package container implements rzip's multi-stream chunk container: N
// logical byte streams muxed through one block-compressed region of the
// output file. Each logical stream is buffered in fixed-size pieces; when
// a piece fills (or the container closes) it is compressed and appended as
// a block whose header back-chains to the previous block of the same
// stream. The container header records the offset of the last block of
// each stream and is rewritten at close, which is why both ends of the
// container require a seekable file.
package container

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/pkg/errors"
)

// ErrNotSeekable is returned by NewWriter/NewReader when seeking the
// destination or source fails (a pipe, for instance).
// Back-chaining and the close-time header rewrite both need real offsets,
// so seeking is load bearing, not an optimization.
var ErrNotSeekable = errors.New("container: file must support seeking")

// ErrBadBlock is returned when a block header is inconsistent with the
// container header that led to it (stream id mismatch, unknown method,
// length mismatch).
var ErrBadBlock = errors.New("container: corrupt block header")

// Block compression methods. A block whose bzip2 rendition would not
// shrink it (or whose container was opened at backend level 0) is stored
// raw instead, so the backend never inflates pathological data.
const (
	methodStored = 0
	methodBzip2  = 1
)

// bufSize is the in-memory buffer per logical stream; one full buffer
// becomes one block on flush.
const bufSize = 256 << 10

// noBlock marks a stream with no (further) blocks in a back-chain offset.
const noBlock = ^uint64(0)

// headerSize is the container header: one u64 last-block offset per
// stream, plus a u64 end-of-container offset so a reader can hand the
// file position past the container when it is done.
func headerSize(nStreams int) int64 { return int64(nStreams+1) * 8 }

// blockHeaderSize is u8 stream id, u8 method, u32 ulen, u32 clen, u64
// previous-block offset.
const blockHeaderSize = 1 + 1 + 4 + 4 + 8

// Writer muxes nStreams logical streams into one container.
type Writer struct {
	w         io.WriteSeeker
	level     int
	headerOff int64
	bufs      []bytes.Buffer
	lastOff   []uint64
}

// NewWriter opens a container at w's current offset with nStreams logical
// streams, compressing blocks with bzip2 at the given level (the per-level
// bzip_level knob); level 0 stores blocks raw. A placeholder header is
// written immediately and rewritten with real offsets at Close.
func NewWriter(w io.WriteSeeker, nStreams, level int) (*Writer, error) {
	start, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, errors.Wrap(ErrNotSeekable, err.Error())
	}

	cw := &Writer{
		w:         w,
		level:     level,
		headerOff: start,
		bufs:      make([]bytes.Buffer, nStreams),
		lastOff:   make([]uint64, nStreams),
	}
	for i := range cw.lastOff {
		cw.lastOff[i] = noBlock
	}
	if err := cw.writeHeader(noBlock); err != nil {
		return nil, err
	}
	return cw, nil
}

func (cw *Writer) writeHeader(end uint64) error {
	buf := make([]byte, headerSize(len(cw.bufs)))
	for i, off := range cw.lastOff {
		binary.LittleEndian.PutUint64(buf[i*8:], off)
	}
	binary.LittleEndian.PutUint64(buf[len(cw.lastOff)*8:], end)
	_, err := cw.w.Write(buf)
	return err
}

// Write appends p to the given logical stream, flushing a block whenever
// the stream's buffer fills.
func (cw *Writer) Write(stream int, p []byte) (int, error) {
	total := len(p)
	for len(p) > 0 {
		room := bufSize - cw.bufs[stream].Len()
		n := len(p)
		if n > room {
			n = room
		}
		cw.bufs[stream].Write(p[:n])
		p = p[n:]
		if cw.bufs[stream].Len() == bufSize {
			if err := cw.flushStream(stream); err != nil {
				return total - len(p), err
			}
		}
	}
	return total, nil
}

// flushStream compresses and appends the stream's pending buffer as one
// back-chained block.
func (cw *Writer) flushStream(stream int) error {
	plain := cw.bufs[stream].Bytes()
	if len(plain) == 0 {
		return nil
	}

	method := byte(methodStored)
	payload := plain
	if cw.level > 0 {
		compressed, err := compressBlock(plain, cw.level)
		if err != nil {
			return err
		}
		if len(compressed) < len(plain) {
			method = methodBzip2
			payload = compressed
		}
	}

	start, err := cw.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}

	hdr := make([]byte, blockHeaderSize)
	hdr[0] = byte(stream)
	hdr[1] = method
	binary.LittleEndian.PutUint32(hdr[2:], uint32(len(plain)))
	binary.LittleEndian.PutUint32(hdr[6:], uint32(len(payload)))
	binary.LittleEndian.PutUint64(hdr[10:], cw.lastOff[stream])
	if _, err := cw.w.Write(hdr); err != nil {
		return err
	}
	if _, err := cw.w.Write(payload); err != nil {
		return err
	}

	cw.lastOff[stream] = uint64(start)
	cw.bufs[stream].Reset()
	return nil
}

// Close flushes every stream's remaining bytes, rewrites the container
// header with the final per-stream block offsets and the end-of-container
// offset, and leaves the file positioned just past the container.
func (cw *Writer) Close() error {
	for i := range cw.bufs {
		if err := cw.flushStream(i); err != nil {
			return err
		}
	}

	end, err := cw.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if _, err := cw.w.Seek(cw.headerOff, io.SeekStart); err != nil {
		return err
	}
	if err := cw.writeHeader(uint64(end)); err != nil {
		return err
	}
	_, err = cw.w.Seek(end, io.SeekStart)
	return err
}

func compressBlock(p []byte, level int) ([]byte, error) {
	var out bytes.Buffer
	zw, err := bzip2.NewWriter(&out, &bzip2.WriterConfig{Level: level})
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(p); err != nil {
		zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Reader serves sequential per-stream reads from one container. Opening it
// walks each stream's back-chain once to recover the forward block order;
// blocks are decompressed lazily as each stream's cursor reaches them.
type Reader struct {
	r      io.ReadSeeker
	end    int64
	blocks [][]uint64 // per stream, forward order
	cur    [][]byte   // current decompressed block per stream
	pos    []int
}

// NewReader opens a container at r's current offset, expecting nStreams
// logical streams.
func NewReader(r io.ReadSeeker, nStreams int) (*Reader, error) {
	if _, err := r.Seek(0, io.SeekCurrent); err != nil {
		return nil, errors.Wrap(ErrNotSeekable, err.Error())
	}

	hdr := make([]byte, headerSize(nStreams))
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, errors.Wrap(err, "container: read header")
	}

	cr := &Reader{
		r:      r,
		blocks: make([][]uint64, nStreams),
		cur:    make([][]byte, nStreams),
		pos:    make([]int, nStreams),
	}
	cr.end = int64(binary.LittleEndian.Uint64(hdr[nStreams*8:]))

	for i := 0; i < nStreams; i++ {
		last := binary.LittleEndian.Uint64(hdr[i*8:])
		chain, err := cr.walkChain(i, last)
		if err != nil {
			return nil, err
		}
		cr.blocks[i] = chain
	}
	return cr, nil
}

// walkChain follows a stream's back-chain from its last block to its
// first, returning the block offsets in forward order.
func (cr *Reader) walkChain(stream int, last uint64) ([]uint64, error) {
	var reversed []uint64
	for off := last; off != noBlock; {
		reversed = append(reversed, off)

		var hdr [blockHeaderSize]byte
		if _, err := cr.r.Seek(int64(off), io.SeekStart); err != nil {
			return nil, err
		}
		if _, err := io.ReadFull(cr.r, hdr[:]); err != nil {
			return nil, errors.Wrap(err, "container: read block header")
		}
		if int(hdr[0]) != stream {
			return nil, errors.Wrapf(ErrBadBlock, "stream %d chain reached a stream-%d block", stream, hdr[0])
		}
		prev := binary.LittleEndian.Uint64(hdr[10:])
		if prev != noBlock && prev >= off {
			return nil, errors.Wrapf(ErrBadBlock, "stream %d back-chain does not decrease: %d -> %d", stream, off, prev)
		}
		off = prev
	}

	chain := make([]uint64, len(reversed))
	for i, off := range reversed {
		chain[len(reversed)-1-i] = off
	}
	return chain, nil
}

// loadBlock decompresses the block at off into memory.
func (cr *Reader) loadBlock(stream int, off uint64) ([]byte, error) {
	if _, err := cr.r.Seek(int64(off), io.SeekStart); err != nil {
		return nil, err
	}
	var hdr [blockHeaderSize]byte
	if _, err := io.ReadFull(cr.r, hdr[:]); err != nil {
		return nil, errors.Wrap(err, "container: read block header")
	}
	ulen := binary.LittleEndian.Uint32(hdr[2:])
	clen := binary.LittleEndian.Uint32(hdr[6:])

	payload := make([]byte, clen)
	if _, err := io.ReadFull(cr.r, payload); err != nil {
		return nil, errors.Wrap(err, "container: read block payload")
	}

	switch hdr[1] {
	case methodStored:
		if clen != ulen {
			return nil, errors.Wrapf(ErrBadBlock, "stored block claims ulen %d != clen %d", ulen, clen)
		}
		return payload, nil
	case methodBzip2:
		zr, err := bzip2.NewReader(bytes.NewReader(payload), nil)
		if err != nil {
			return nil, err
		}
		plain, err := io.ReadAll(zr)
		zr.Close()
		if err != nil {
			return nil, errors.Wrap(err, "container: decompress block")
		}
		if len(plain) != int(ulen) {
			return nil, errors.Wrapf(ErrBadBlock, "block decompressed to %d bytes, header says %d", len(plain), ulen)
		}
		return plain, nil
	default:
		return nil, errors.Wrapf(ErrBadBlock, "unknown block method %d", hdr[1])
	}
}

// Read copies up to len(p) bytes from the given logical stream, advancing
// its cursor and pulling in the stream's next block when the current one
// is exhausted. Returns io.EOF once the stream has no bytes left.
func (cr *Reader) Read(stream int, p []byte) (int, error) {
	for cr.pos[stream] >= len(cr.cur[stream]) {
		if len(cr.blocks[stream]) == 0 {
			return 0, io.EOF
		}
		off := cr.blocks[stream][0]
		cr.blocks[stream] = cr.blocks[stream][1:]
		plain, err := cr.loadBlock(stream, off)
		if err != nil {
			return 0, err
		}
		cr.cur[stream] = plain
		cr.pos[stream] = 0
	}

	n := copy(p, cr.cur[stream][cr.pos[stream]:])
	cr.pos[stream] += n
	return n, nil
}

// ReadByte reads a single byte from the given logical stream, for callers
// decoding the opcode stream's header bytes one at a time.
func (cr *Reader) ReadByte(stream int) (byte, error) {
	var b [1]byte
	_, err := cr.Read(stream, b[:])
	return b[0], err
}

// Close positions the underlying file just past the container, so the
// caller can open the next chunk's container (or detect end of archive).
func (cr *Reader) Close() error {
	_, err := cr.r.Seek(cr.end, io.SeekStart)
	return err
}
