// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/rzipdev/rzip

package rzip

import (
	"errors"

	"github.com/rzipdev/rzip/internal/container"
	"github.com/rzipdev/rzip/internal/header"
)

// Sentinel errors for the compressor and decompressor.
var (
	// ErrBadMagic is returned when the 24-byte file header does not start with "RZIP".
	ErrBadMagic = header.ErrBadMagic
	// ErrChecksumMismatch is returned when a chunk's trailing CRC-32 does not
	// match the checksum computed while decompressing it. Corruption is fatal;
	// there is no recovery path.
	ErrChecksumMismatch = errors.New("rzip: checksum mismatch")
	// ErrTruncated is returned when a chunk's command stream ends before its
	// terminator or checksum trailer.
	ErrTruncated = errors.New("rzip: truncated command stream")
	// ErrBadBackReference is returned when a back-reference would read before
	// the start of the output (lookbehind underrun) or past the end of the
	// history file.
	ErrBadBackReference = errors.New("rzip: back-reference out of range")
	// ErrNotSeekable is returned when the destination of a compress or the
	// source of a decompress does not support seeking. rzip's container
	// back-chains block offsets and its decompressor re-reads its own output
	// as history; neither works against a pipe.
	ErrNotSeekable = container.ErrNotSeekable
	// ErrInvalidLevel is returned when a CompressOptions.Level falls outside [0, 9].
	ErrInvalidLevel = errors.New("rzip: level must be in [0, 9]")

	// ErrEngineInternal names an internal invariant violation in the match
	// finder or hash table. No function in this package returns it: the
	// match finder and hash table report no errors.
	ErrEngineInternal = errors.New("rzip: internal engine error")
)
