// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/rzipdev/rzip

package rzip

import "io"

// headLiteral opens a literal opcode: a run of raw bytes carried on the
// data stream. Any other header byte marks a back-reference, offset-only
// (no payload).
const headLiteral = 0

// headMatch marks a back-reference opcode. Any nonzero header byte means
// "match" on the wire; 1 is what this implementation always writes.
const headMatch = 1

// maxRunLen is the largest run a single opcode can carry; longer runs are
// chunked into several opcodes of this size.
const maxRunLen = 0xFFFF

// emitter writes the opcode command stream (stream 0: header byte + u16
// length, plus u32 offset for matches) and the literal payload stream
// (stream 1), tracking the running CRC-32 and per-chunk opcode counters.
type emitter struct {
	ctl  io.Writer
	data io.Writer
	crc  *runningCRC

	Literals     uint32
	LiteralBytes uint64
	Matches      uint32
	MatchBytes   uint64
}

func newEmitter(ctl, data io.Writer, crc *runningCRC) *emitter {
	return &emitter{ctl: ctl, data: data, crc: crc}
}

func putU8(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

func putU16(w io.Writer, v uint16) error {
	_, err := w.Write([]byte{byte(v), byte(v >> 8)})
	return err
}

func putU32(w io.Writer, v uint32) error {
	_, err := w.Write([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
	return err
}

func (e *emitter) putHeader(head byte, length uint16) error {
	if err := putU8(e.ctl, head); err != nil {
		return err
	}
	return putU16(e.ctl, length)
}

// putLiteral emits buf[last:p] as one or more literal opcodes, chunked to
// maxRunLen, writing the raw bytes to the data stream and folding them into
// the running checksum.
func (e *emitter) putLiteral(buf []byte, last, p int) error {
	for {
		n := p - last
		if n > maxRunLen {
			n = maxRunLen
		}

		e.Literals++
		e.LiteralBytes += uint64(n)

		if err := e.putHeader(headLiteral, uint16(n)); err != nil {
			return err
		}
		if n > 0 {
			chunk := buf[last : last+n]
			if _, err := e.data.Write(chunk); err != nil {
				return err
			}
			e.crc.update(chunk)
		}
		last += n
		if p <= last {
			return nil
		}
	}
}

// putMatch emits a back-reference covering buf[pos:pos+length], sourced
// from offset (an earlier position in buf), chunked to maxRunLen. No
// payload bytes are written — the decompressor reconstructs them from its
// own output — but the covered plaintext still folds into the running
// checksum, exactly as if it had been emitted literally: the trailer must
// cover every byte of the chunk regardless of how it was encoded.
func (e *emitter) putMatch(buf []byte, pos int, offset uint32, length int) error {
	for length > 0 {
		n := length
		if n > maxRunLen {
			n = maxRunLen
		}

		ofs := int64(pos) - int64(offset)

		e.Matches++
		e.MatchBytes += uint64(n)

		if err := e.putHeader(headMatch, uint16(n)); err != nil {
			return err
		}
		if err := putU32(e.ctl, uint32(ofs)); err != nil {
			return err
		}
		e.crc.update(buf[pos : pos+n])

		length -= n
		pos += n
		offset += uint32(n)
	}
	return nil
}

// terminator closes the command stream: a zero-length literal header
// followed by the final checksum.
func (e *emitter) terminator() error {
	if err := e.putHeader(headLiteral, 0); err != nil {
		return err
	}
	return putU32(e.ctl, e.crc.sum())
}
