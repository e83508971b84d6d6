// Package apply implements the flag applicator: given a flag file, a
// source manifest, and a target JSONL shard, it streams only the active
// (non-duplicate) lines of the target to its output.
package apply

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"doubri/internal/manifest"
	"doubri/internal/model"
)

// Options configures one applicator run.
type Options struct {
	FlagFile    string
	SourceFile  string
	Target      string
	Strip       bool
	Verbose     bool
	VerboseSink io.Writer
}

// Run streams r (the target shard's JSONL content) to w, writing only
// the lines whose corresponding flag byte is active. It returns the
// number of lines read and the number written.
func Run(opts Options, r io.Reader, w io.Writer) (linesRead, linesWritten uint64, err error) {
	_, entries, err := manifest.Read(opts.SourceFile)
	if err != nil {
		return 0, 0, err
	}

	total := manifest.TotalItems(entries)

	begin, size, err := manifest.Lookup(entries, opts.Target, opts.Strip)
	if err != nil {
		return 0, 0, err
	}

	flagInfo, err := os.Stat(opts.FlagFile)
	if err != nil {
		return 0, 0, fmt.Errorf("apply: failed to stat flag file %s: %w", opts.FlagFile, err)
	}
	if uint64(flagInfo.Size()) != total {
		return 0, 0, fmt.Errorf("apply: flag file %s has %d bytes but the manifest totals %d items", opts.FlagFile, flagInfo.Size(), total)
	}

	if opts.Verbose && opts.VerboseSink != nil {
		fmt.Fprintf(opts.VerboseSink, "flag=%s source=%s target=%s begin=%d size=%d\n",
			opts.FlagFile, opts.SourceFile, opts.Target, begin, size)
	}

	flagFile, err := os.Open(opts.FlagFile)
	if err != nil {
		return 0, 0, fmt.Errorf("apply: failed to open flag file %s: %w", opts.FlagFile, err)
	}
	defer flagFile.Close()

	flags := make([]byte, size)
	if _, err := flagFile.ReadAt(flags, int64(begin)); err != nil {
		return 0, 0, fmt.Errorf("apply: failed to read %d flag bytes at offset %d: %w", size, begin, err)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 64<<20)
	bw := bufio.NewWriter(w)

	var i uint64
	for scanner.Scan() {
		if i >= size {
			return linesRead, linesWritten, fmt.Errorf("apply: target %s has more lines than the manifest's %d items", opts.Target, size)
		}
		linesRead++
		if model.Flag(flags[i]) == model.FlagActive {
			if _, err := bw.Write(scanner.Bytes()); err != nil {
				return linesRead, linesWritten, fmt.Errorf("apply: failed to write output: %w", err)
			}
			if err := bw.WriteByte('\n'); err != nil {
				return linesRead, linesWritten, fmt.Errorf("apply: failed to write output: %w", err)
			}
			linesWritten++
		}
		i++
	}
	if err := scanner.Err(); err != nil {
		return linesRead, linesWritten, fmt.Errorf("apply: failed to read target %s: %w", opts.Target, err)
	}
	if i != size {
		return linesRead, linesWritten, fmt.Errorf("apply: target %s has %d lines, expected %d", opts.Target, i, size)
	}

	return linesRead, linesWritten, bw.Flush()
}

// RunWhole implements doubri-apply-whole: the flag file is assumed to
// align 1:1 with stdin with no manifest involved at all.
func RunWhole(flagFile string, r io.Reader, w io.Writer) (linesRead, linesWritten uint64, err error) {
	flags, err := os.ReadFile(flagFile)
	if err != nil {
		return 0, 0, fmt.Errorf("apply: failed to read flag file %s: %w", flagFile, err)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 64<<20)
	bw := bufio.NewWriter(w)

	var i uint64
	for scanner.Scan() {
		if i >= uint64(len(flags)) {
			return linesRead, linesWritten, fmt.Errorf("apply: stdin has more lines than the flag file's %d items", len(flags))
		}
		linesRead++
		if model.Flag(flags[i]) == model.FlagActive {
			if _, err := bw.Write(scanner.Bytes()); err != nil {
				return linesRead, linesWritten, err
			}
			if err := bw.WriteByte('\n'); err != nil {
				return linesRead, linesWritten, err
			}
			linesWritten++
		}
		i++
	}
	if err := scanner.Err(); err != nil {
		return linesRead, linesWritten, fmt.Errorf("apply: failed to read stdin: %w", err)
	}
	if i != uint64(len(flags)) {
		return linesRead, linesWritten, fmt.Errorf("apply: stdin has %d lines, expected %d", i, len(flags))
	}

	return linesRead, linesWritten, bw.Flush()
}
