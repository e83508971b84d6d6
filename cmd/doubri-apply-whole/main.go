// Command doubri-apply-whole filters stdin against a flag file that
// aligns 1:1 with stdin, with no manifest or sharding involved. It is
// the simple counterpart to doubri-apply for single-shard pipelines.
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
		fmt.Fprintln(os.Stderr, "doubri-apply-whole:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("doubri-apply-whole", flag.ContinueOnError)
	flagFile := fs.String("flag", "", "flag file (.dup) aligned 1:1 with stdin (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *flagFile == "" {
		return fmt.Errorf("-flag is required")
	}
	if fs.NArg() != 0 {
		return fmt.Errorf("usage: doubri-apply-whole -flag FILE < input > output")
	}

	in := bufio.NewReader(os.Stdin)
	out := bufio.NewWriter(os.Stdout)

	linesRead, linesWritten, err := apply.RunWhole(*flagFile, in, out)
	if err != nil {
		return err
	}
	if err := out.Flush(); err != nil {
		return fmt.Errorf("doubri-apply-whole: failed to flush output: %w", err)
	}

	fmt.Fprintf(os.Stderr, "doubri-apply-whole: read %d lines, wrote %d lines\n", linesRead, linesWritten)
	return nil
}
