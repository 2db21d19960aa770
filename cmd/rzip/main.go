// SPDX-License-Identifier: GPL-2.0-only
// Source: github.com/rzipdev/rzip

// Command rzip is the CLI front end for the rzip long-range compression
// engine: a thin cobra/pflag driver over the rzip package's Compress and
// Decompress entry points. One binary covers both directions: -d (or
// invocation as runzip) decompresses.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rzipdev/rzip"
)

const version = "2.1.0-go"

type cliOptions struct {
	decompress  bool
	level       int
	output      string
	suffix      string
	force       bool
	keep        bool
	progress    bool
	verbosity   int
	showVersion bool
	inTmpFile   string
	outTmpFile  string
}

func main() {
	cmd := newRootCmd()
	// Invocation as runzip decompresses, the gzip/gunzip symlink
	// convention.
	if strings.HasPrefix(filepath.Base(os.Args[0]), "runzip") {
		_ = cmd.Flags().Set("decompress", "true")
	}
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var uerr usageError
		if errors.As(err, &uerr) {
			os.Exit(255)
		}
		os.Exit(1)
	}
}

// usageError marks flag-parse failures so main can exit with the usage
// status instead of the fatal-error status.
type usageError struct{ err error }

func (u usageError) Error() string { return u.err.Error() }
func (u usageError) Unwrap() error { return u.err }

func newRootCmd() *cobra.Command {
	opts := &cliOptions{suffix: ".rz"}

	cmd := &cobra.Command{
		Use:           "rzip [options] <file...>",
		Short:         "long-range redundancy compressor",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				fmt.Printf("rzip %s\n", version)
				return nil
			}
			if opts.inTmpFile != "" || opts.outTmpFile != "" {
				return fmt.Errorf("-q/-Q tmp-file piping is not supported: rzip's back-chaining container requires a seekable destination file")
			}
			if len(args) == 0 {
				return cmd.Help()
			}
			for _, lvl := range []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9} {
				if set, _ := cmd.Flags().GetBool(levelFlagName(lvl)); set {
					opts.level = lvl
				}
			}
			return runFiles(opts, args)
		},
	}

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		_ = c.Usage()
		return usageError{err}
	})

	fs := cmd.Flags()
	bindLevelShortcuts(fs)
	fs.BoolVarP(&opts.decompress, "decompress", "d", false, "decompress")
	fs.IntVarP(&opts.level, "level", "L", 6, "set compression level (0-9)")
	fs.StringVarP(&opts.output, "output", "o", "", "specify the output file name")
	fs.StringVarP(&opts.suffix, "suffix", "S", ".rz", "specify compressed suffix")
	fs.BoolVarP(&opts.force, "force", "f", false, "force overwrite of any existing files")
	fs.BoolVarP(&opts.keep, "keep", "k", false, "keep existing files")
	fs.BoolVarP(&opts.progress, "progress", "P", false, "show compression progress")
	fs.BoolVarP(&opts.showVersion, "version", "V", false, "show version")
	fs.CountVarP(&opts.verbosity, "verbose", "v", "increase verbosity")
	fs.StringVarP(&opts.inTmpFile, "in-tmp-file", "q", "", "read piped input via a named tmp file (not supported)")
	fs.StringVarP(&opts.outTmpFile, "out-tmp-file", "Q", "", "write piped output via a named tmp file (not supported)")

	return cmd
}

func levelFlagName(lvl int) string { return fmt.Sprintf("level-%d", lvl) }

// bindLevelShortcuts registers the historical -0 .. -9 level shortcut
// flags; if several are given the highest wins.
func bindLevelShortcuts(fs *pflag.FlagSet) {
	for lvl := 0; lvl <= 9; lvl++ {
		fs.BoolP(levelFlagName(lvl), fmt.Sprint(lvl), false, fmt.Sprintf("compression level %d", lvl))
	}
}

func runFiles(opts *cliOptions, files []string) error {
	for _, f := range files {
		if err := runFile(opts, f); err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
	}
	return nil
}

func runFile(opts *cliOptions, infile string) error {
	if opts.decompress {
		return decompressFile(opts, infile)
	}
	return compressFile(opts, infile)
}

func compressFile(opts *cliOptions, infile string) error {
	if strings.HasSuffix(infile, opts.suffix) {
		fmt.Fprintf(os.Stderr, "rzip: %s already has suffix %s\n", infile, opts.suffix)
	}
	outname := opts.output
	if outname == "" {
		outname = infile + opts.suffix
	}
	if !opts.force {
		if _, err := os.Stat(outname); err == nil {
			return fmt.Errorf("output file %s already exists (use -f to overwrite)", outname)
		}
	}

	src, err := os.Open(infile)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(outname)
	if err != nil {
		return err
	}
	defer dst.Close()

	copts := &rzip.CompressOptions{
		Level:        opts.level,
		ShowProgress: opts.progress,
		Verbosity:    opts.verbosity,
	}

	if _, err := rzip.Compress(dst, src, copts); err != nil {
		os.Remove(outname)
		return err
	}

	if !opts.keep {
		return os.Remove(infile)
	}
	return nil
}

func decompressFile(opts *cliOptions, infile string) error {
	outname := opts.output
	if outname == "" {
		outname = strings.TrimSuffix(infile, opts.suffix)
		if outname == infile {
			return fmt.Errorf("%s: unknown suffix, use -o to name the output file", infile)
		}
	}
	if !opts.force {
		if _, err := os.Stat(outname); err == nil {
			return fmt.Errorf("output file %s already exists (use -f to overwrite)", outname)
		}
	}

	src, err := os.Open(infile)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(outname)
	if err != nil {
		return err
	}
	defer dst.Close()

	dopts := &rzip.DecompressOptions{Verbosity: opts.verbosity}
	if err := rzip.Decompress(dst, src, dopts); err != nil {
		os.Remove(outname)
		return err
	}

	if !opts.keep {
		return os.Remove(infile)
	}
	return nil
}
