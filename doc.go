// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/rzipdev/rzip

/*
Package rzip implements the rzip long-range compression engine: a two-stage
compressor that removes large-scale redundancy across very long windows
using a rolling-hash content-defined match finder, then hands the residual
literal/match command stream to a block-sort entropy backend for the final
pass.

# Compress

Options may be nil (default level 6, matching the historical rzip default):

	n, err := rzip.Compress(dst, src, nil)
	n, err := rzip.Compress(dst, src, &rzip.CompressOptions{Level: 9})

dst must be a seekable io.WriteSeeker (the multi-stream container back-chains
block offsets within the file); src must be a regular *os.File, read in
chunks that are each memory-mapped.

# Decompress

	err := rzip.Decompress(dst, src, nil)

dst must be a seekable, readable file: the decompressor reads back its own
output as the history source for back-references.
*/
package rzip
