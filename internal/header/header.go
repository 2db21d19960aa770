// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/rzipdev/rzip

// Package header encodes and decodes the 24-byte file magic that opens
// every rzip archive: a fixed-width block rather than a self-describing
// format, since the whole point is to read the decompressed size before
// touching a single compressed byte.
package header

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	// Size is the on-disk length of the magic header in bytes.
	Size = 24

	magic        = "RZIP"
	majorVersion = 2
	minorVersion = 1
)

// ErrBadMagic is returned by Decode when the leading 4 bytes are not "RZIP".
var ErrBadMagic = errors.New("header: not an rzip file")

// Header is the decoded form of the 24-byte magic block: a format tag, the
// engine version that produced the file, and the total decompressed size
// (so a decompressor knows when to stop asking the chunk driver for more).
type Header struct {
	Major        uint8
	Minor        uint8
	ExpectedSize uint64
}

// Encode renders h as the 24-byte on-disk block. Bytes 6-13 carry
// ExpectedSize as two big-endian uint32 halves, low half first; bytes
// 14-23 are reserved and always zero.
func Encode(h Header) [Size]byte {
	var buf [Size]byte
	copy(buf[0:4], magic)
	buf[4] = h.Major
	buf[5] = h.Minor
	binary.BigEndian.PutUint32(buf[6:10], uint32(h.ExpectedSize&0xFFFFFFFF))
	binary.BigEndian.PutUint32(buf[10:14], uint32(h.ExpectedSize>>32))
	return buf
}

// Decode parses a 24-byte magic block. It returns ErrBadMagic if the first
// 4 bytes don't read "RZIP"; it does not reject an unrecognized version,
// since the wire layout has not changed across 2.x.
func Decode(buf []byte) (Header, error) {
	if len(buf) < Size {
		return Header{}, errors.Wrap(ErrBadMagic, "short header")
	}
	if string(buf[0:4]) != magic {
		return Header{}, ErrBadMagic
	}

	lo := binary.BigEndian.Uint32(buf[6:10])
	hi := binary.BigEndian.Uint32(buf[10:14])

	return Header{
		Major:        buf[4],
		Minor:        buf[5],
		ExpectedSize: uint64(hi)<<32 | uint64(lo),
	}, nil
}

// New builds the header this implementation writes for a fresh archive.
func New(expectedSize uint64) Header {
	return Header{Major: majorVersion, Minor: minorVersion, ExpectedSize: expectedSize}
}
