// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/rzipdev/rzip

package rzip

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/rzipdev/rzip/internal/container"
	"github.com/rzipdev/rzip/internal/header"
)

// Decompress reads an rzip archive from src and reconstructs the
// compressed file into dst. dst must be a regular, seekable file:
// back-references are resolved by reading dst's own already-written bytes
// as history, via ReadAt/WriteAt against the one *os.File (pread/pwrite,
// no second descriptor needed). opts may be nil to use
// DefaultDecompressOptions.
func Decompress(dst *os.File, src io.ReadSeeker, opts *DecompressOptions) error {
	opts = opts.orDefault()

	var hbuf [header.Size]byte
	if _, err := io.ReadFull(src, hbuf[:]); err != nil {
		return errors.Wrap(err, "decompress: read header")
	}
	hdr, err := header.Decode(hbuf[:])
	if err != nil {
		return err
	}

	var outPos int64
	for {
		cr, err := container.NewReader(src, numStreams)
		if err != nil {
			return err
		}
		n, err := decompressChunk(cr, dst, outPos)
		if err != nil {
			return err
		}
		if err := cr.Close(); err != nil {
			return err
		}
		outPos += n
		if outPos >= int64(hdr.ExpectedSize) {
			break
		}
		if n == 0 {
			return errors.Wrap(ErrTruncated, "empty chunk before expected size was reached")
		}
	}

	if outPos != int64(hdr.ExpectedSize) {
		return errors.Wrapf(ErrTruncated, "produced %d bytes, header expects %d", outPos, hdr.ExpectedSize)
	}
	if opts.Verbosity > 0 {
		logrus.WithFields(logrus.Fields{"component": "rzip", "bytes": outPos}).Info("decompressed")
	}
	return nil
}

// decompressChunk reads and applies exactly one chunk's opcode stream,
// returning the number of plaintext bytes it produced.
func decompressChunk(cr *container.Reader, dst *os.File, outPos int64) (int64, error) {
	crc := newRunningCRC()
	pos := outPos
	start := outPos

	for {
		head, err := cr.ReadByte(streamCtl)
		if err != nil {
			return pos - start, wrapTruncated(err)
		}
		length, err := readU16(cr)
		if err != nil {
			return pos - start, wrapTruncated(err)
		}

		if head == headLiteral && length == 0 {
			break
		}

		switch head {
		case headLiteral:
			n, err := unzipLiteral(cr, dst, pos, int(length), crc)
			if err != nil {
				return pos - start, err
			}
			pos += int64(n)
		default:
			n, err := unzipMatch(cr, dst, pos, int(length), crc)
			if err != nil {
				return pos - start, err
			}
			pos += int64(n)
		}
	}

	want, err := readU32(cr)
	if err != nil {
		return pos - start, wrapTruncated(err)
	}
	if want != crc.sum() {
		return pos - start, ErrChecksumMismatch
	}

	return pos - start, nil
}

func wrapTruncated(err error) error {
	if err == io.EOF {
		return ErrTruncated
	}
	return err
}

func readU16(cr *container.Reader) (uint16, error) {
	lo, err := cr.ReadByte(streamCtl)
	if err != nil {
		return 0, err
	}
	hi, err := cr.ReadByte(streamCtl)
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, nil
}

func readU32(cr *container.Reader) (uint32, error) {
	var v uint32
	for i := 0; i < 4; i++ {
		b, err := cr.ReadByte(streamCtl)
		if err != nil {
			return 0, err
		}
		v |= uint32(b) << (8 * i)
	}
	return v, nil
}

// unzipLiteral copies len bytes straight from the data stream to dst at
// pos, folding them into the running checksum.
func unzipLiteral(cr *container.Reader, dst *os.File, pos int64, length int, crc *runningCRC) (int, error) {
	buf := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(literalReader{cr}, buf); err != nil {
			return 0, wrapTruncated(err)
		}
	}
	if _, err := dst.WriteAt(buf, pos); err != nil {
		return 0, errors.Wrap(err, "decompress: write literal")
	}
	crc.update(buf)
	return length, nil
}

// unzipMatch reads a u32 backward offset from the control stream and
// copies length bytes from dst's own already-written history at
// pos-offset. When offset < length the match overlaps the bytes it is
// itself producing (a run-length pattern); this is resolved by seeding one
// full offset-sized stretch from history, then repeatedly doubling the
// already-written region onto the remainder instead of looping byte by
// byte.
func unzipMatch(cr *container.Reader, dst *os.File, pos int64, length int, crc *runningCRC) (int, error) {
	offset, err := readU32(cr)
	if err != nil {
		return 0, wrapTruncated(err)
	}
	if offset == 0 || int64(offset) > pos {
		return 0, ErrBadBackReference
	}
	srcPos := pos - int64(offset)

	copyRange := func(dstPos, srcPos int64, n int) error {
		buf := make([]byte, n)
		if _, err := dst.ReadAt(buf, srcPos); err != nil {
			return errors.Wrap(err, "decompress: read history")
		}
		if _, err := dst.WriteAt(buf, dstPos); err != nil {
			return errors.Wrap(err, "decompress: write match")
		}
		crc.update(buf)
		return nil
	}

	if int64(length) <= int64(offset) {
		if err := copyRange(pos, srcPos, length); err != nil {
			return 0, err
		}
		return length, nil
	}

	seed := int(offset)
	if err := copyRange(pos, srcPos, seed); err != nil {
		return 0, err
	}
	copied := seed

	for copied < length {
		n := copied
		if copied+n > length {
			n = length - copied
		}
		if err := copyRange(pos+int64(copied), pos, n); err != nil {
			return copied, err
		}
		copied += n
	}
	return copied, nil
}

// literalReader adapts container.Reader's per-stream Read to io.Reader for
// io.ReadFull.
type literalReader struct {
	cr *container.Reader
}

func (l literalReader) Read(p []byte) (int, error) {
	return l.cr.Read(streamData, p)
}
