// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/rzipdev/rzip

package rzip

// level holds the tuning knobs for one compression level: backend strength,
// hash table memory budget, the initial insertion-gate tag mask width, and
// the duplicate-tag chain cap.
type level struct {
	bzipLevel   uint // backend (bzip2) compression strength, 0-9
	mbUsed      uint // hash table memory budget in MiB
	initialFreq uint // initial tag_mask bit count (insertion gate width)
	maxChainLen uint // duplicate-tag chain cap before round-robin eviction
}

// levels are the ten fixed presets; index i holds the preset for
// compression level i.
var levels = [10]level{
	{0, 1, 4, 1},
	{1, 2, 4, 2},
	{3, 4, 4, 2},
	{5, 8, 4, 2},
	{7, 16, 4, 3},
	{9, 32, 4, 4},
	{9, 32, 2, 6},
	{9, 64, 1, 16}, // more MB makes sense, but needs bigger test files
	{9, 64, 1, 32},
	{9, 64, 1, 128},
}

// chunkMultiple is the per-level-unit chunk size: each chunk is
// max(1, level) * chunkMultiple bytes, clamped to the remaining input.
const chunkMultiple = 100 * 1024 * 1024

// levelFor clamps lvl into [0, 9] and returns its preset.
func levelFor(lvl int) (int, level) {
	if lvl < 0 {
		lvl = 0
	}
	if lvl > 9 {
		lvl = 9
	}
	return lvl, levels[lvl]
}

// chunkSize returns the chunk size in bytes for a given level.
func chunkSize(lvl int) int64 {
	mult := int64(lvl)
	if mult < 1 {
		mult = 1
	}
	return mult * chunkMultiple
}
