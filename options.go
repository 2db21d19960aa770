// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/rzipdev/rzip

package rzip

// CompressOptions configures compression. Level selects one of the ten
// fixed presets in levels.go, trading hash-table memory and match-finding
// effort for ratio.
type CompressOptions struct {
	// Level: 0 (fastest, worst ratio) .. 9 (slowest, best ratio). Zero value
	// of an unset *CompressOptions defaults to 6, the historical rzip default.
	Level int

	// ShowProgress mirrors the -P flag: after each chunk, log the bytes
	// compressed so far and the total.
	ShowProgress bool

	// Verbosity mirrors -v repeated: 0 is silent, 1 logs the per-file
	// compression ratio, 2+ also logs each chunk's hash table distribution
	// and opcode counts.
	Verbosity int
}

// DefaultCompressOptions returns options at the historical rzip default level (6).
func DefaultCompressOptions() *CompressOptions {
	return &CompressOptions{Level: 6}
}

func (o *CompressOptions) orDefault() *CompressOptions {
	if o == nil {
		return DefaultCompressOptions()
	}
	return o
}

// DecompressOptions configures decompression.
type DecompressOptions struct {
	// Verbosity mirrors compression's -v; 0 is silent.
	Verbosity int
}

// DefaultDecompressOptions returns default (silent) decompress options.
func DefaultDecompressOptions() *DecompressOptions {
	return &DecompressOptions{}
}

func (o *DecompressOptions) orDefault() *DecompressOptions {
	if o == nil {
		return DefaultDecompressOptions()
	}
	return o
}
