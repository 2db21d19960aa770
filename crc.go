// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/rzipdev/rzip

package rzip

import "hash/crc32"

// runningCRC accumulates the IEEE CRC-32 of a chunk's plaintext bytes in
// the order they are produced (literals as they're copied from the input
// buffer, match bytes as they'd be reconstructed from history); the sum is
// written as the chunk's trailer and verified on decompression. The wire
// format fixes IEEE CRC-32 as the checksum algorithm, so hash/crc32 is
// the whole implementation.
type runningCRC struct {
	crc uint32
}

func newRunningCRC() *runningCRC {
	return &runningCRC{}
}

func (r *runningCRC) update(p []byte) {
	r.crc = crc32.Update(r.crc, crc32.IEEETable, p)
}

func (r *runningCRC) sum() uint32 {
	return r.crc
}

func (r *runningCRC) reset() {
	r.crc = 0
}
