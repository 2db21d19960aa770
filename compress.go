// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/rzipdev/rzip

package rzip

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/rzipdev/rzip/internal/header"
)

// Compress reads all of src and writes an rzip archive to dst. dst must be
// seekable (the container back-chains block offsets and rewrites its
// header at close); src must be a regular file, since each chunk is
// memory-mapped rather than streamed. opts may be nil to use
// DefaultCompressOptions.
func Compress(dst io.WriteSeeker, src *os.File, opts *CompressOptions) (int64, error) {
	opts = opts.orDefault()
	if opts.Level < 0 || opts.Level > 9 {
		return 0, ErrInvalidLevel
	}

	info, err := src.Stat()
	if err != nil {
		return 0, errors.Wrap(err, "compress: stat input")
	}
	size := info.Size()

	log := logrus.WithFields(logrus.Fields{"component": "rzip", "level": opts.Level})
	if opts.Verbosity <= 0 && !opts.ShowProgress {
		noop := logrus.New()
		noop.SetOutput(io.Discard)
		log = noop.WithField("component", "rzip")
	}

	hdr := header.New(uint64(size))
	buf := header.Encode(hdr)
	if _, err := dst.Write(buf[:]); err != nil {
		return 0, errors.Wrap(err, "compress: write header")
	}

	lvlNum, lvl := levelFor(opts.Level)

	driver := newChunkDriver(src, dst, lvl, log, opts.ShowProgress, opts.Verbosity)
	defer releaseHashTable(driver.table)
	written, err := driver.runAll(size, chunkSize(lvlNum))
	if err != nil {
		return written, err
	}

	if opts.Verbosity > 0 {
		outSize, serr := dst.Seek(0, io.SeekCurrent)
		if serr == nil && outSize > 0 {
			log.WithField("ratio", float64(size)/float64(outSize)).Info("compression ratio")
		}
	}

	return written, nil
}
