// Command doubri-apply filters a JSONL shard, removing the lines
// flagged as duplicates according to a flag file and its source
// manifest, and writes the surviving lines to stdout.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"doubri/internal/apply"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "doubri-apply:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("doubri-apply", flag.ContinueOnError)
	flagFile := fs.String("flag", "", "flag file (.dup) (required)")
	sourceFile := fs.String("source", "", "source manifest (.src) (required)")
	strip := fs.Bool("strip", false, "match TARGET against manifest entries by basename instead of full path")
	verbose := fs.Bool("verbose", false, "print the resolved target's byte range in the flag file to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *flagFile == "" || *sourceFile == "" {
		return fmt.Errorf("-flag and -source are required")
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: doubri-apply -flag FILE -source FILE [flags] TARGET")
	}
	target := fs.Arg(0)

	in := bufio.NewReader(os.Stdin)
	out := bufio.NewWriter(os.Stdout)

	linesRead, linesWritten, err := apply.Run(apply.Options{
		FlagFile:    *flagFile,
		SourceFile:  *sourceFile,
		Target:      target,
		Strip:       *strip,
		Verbose:     *verbose,
		VerboseSink: os.Stderr,
	}, in, out)
	if err != nil {
		return err
	}
	if err := out.Flush(); err != nil {
		return fmt.Errorf("doubri-apply: failed to flush output: %w", err)
	}

	fmt.Fprintf(os.Stderr, "doubri-apply: read %d lines, wrote %d lines\n", linesRead, linesWritten)
	return nil
}
