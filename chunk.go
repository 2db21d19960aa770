// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/rzipdev/rzip

package rzip

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/rzipdev/rzip/internal/container"
)

// numStreams is the container's stream count: 0 is the opcode/control
// stream, 1 is the literal-data stream.
const numStreams = 2

const streamCtl = 0
const streamData = 1

// chunkDriver walks an input file chunk by chunk, mmap'ing each chunk,
// handing it to scanChunk, and writing one multi-stream container per
// chunk. It owns the single *hashTable and *tagTable reused across chunks;
// the table is cleared, not reallocated, between chunks.
type chunkDriver struct {
	src       *os.File
	dst       io.WriteSeeker
	lvl       level
	tags      *tagTable
	table     *hashTable
	log       *logrus.Entry
	total     int64
	report    bool
	verbosity int
}

func newChunkDriver(src *os.File, dst io.WriteSeeker, lvl level, log *logrus.Entry, report bool, verbosity int) *chunkDriver {
	return &chunkDriver{
		src:       src,
		dst:       dst,
		lvl:       lvl,
		tags:      newTagTable(),
		table:     acquireHashTable(lvl.mbUsed, lvl.maxChainLen),
		log:       log,
		report:    report,
		verbosity: verbosity,
	}
}

// runAll drives the whole file through chunkBytes-sized chunks, returning
// the total number of bytes consumed. An empty input still gets one empty
// chunk (terminator + CRC of zero bytes) rather than zero containers.
func (d *chunkDriver) runAll(size, chunkBytes int64) (int64, error) {
	if size == 0 {
		return 0, d.runChunk(0, 0)
	}

	var offset int64
	for offset < size {
		n := chunkBytes
		if remaining := size - offset; n > remaining {
			n = remaining
		}
		if err := d.runChunk(offset, n); err != nil {
			return offset, err
		}
		offset += n
		if d.report {
			d.log.WithFields(logrus.Fields{"bytes": offset, "total": size}).Info("compressed")
		}
	}
	return offset, nil
}

// runChunk mmaps size bytes at offset, scans them, and closes out one
// container. size may be zero (empty input), in which case no mmap is made
// and the scan degenerates to a bare terminator + CRC(0).
func (d *chunkDriver) runChunk(offset, size int64) error {
	var buf []byte
	if size > 0 {
		mapped, err := unix.Mmap(int(d.src.Fd()), offset, int(size), unix.PROT_READ, unix.MAP_SHARED)
		if err != nil {
			return errors.Wrap(err, "chunk: mmap failed")
		}
		defer func() {
			if uerr := unix.Munmap(mapped); uerr != nil && d.log != nil {
				d.log.WithError(uerr).Warn("munmap failed")
			}
		}()
		buf = mapped
	}

	cw, err := container.NewWriter(d.dst, numStreams, int(d.lvl.bzipLevel))
	if err != nil {
		return err
	}

	d.table.reset(d.lvl.initialFreq)
	crc := newRunningCRC()
	em := newEmitter(
		streamWriter{cw, streamCtl},
		streamWriter{cw, streamData},
		crc,
	)

	if err := scanChunk(d.tags, d.table, buf, d.lvl.initialFreq, em); err != nil {
		return err
	}

	if d.verbosity > 1 {
		dist := d.table.distribution()
		d.log.WithFields(logrus.Fields{
			"entries": dist.Total,
			"primary": dist.PrimaryCount,
			"matches": em.Matches, "match_bytes": em.MatchBytes,
			"literals": em.Literals, "literal_bytes": em.LiteralBytes,
		}).Info("chunk distribution")
	}

	d.total += size
	return cw.Close()
}

// streamWriter adapts one logical stream of a *container.Writer to io.Writer.
type streamWriter struct {
	cw     *container.Writer
	stream int
}

func (s streamWriter) Write(p []byte) (int, error) {
	return s.cw.Write(s.stream, p)
}
