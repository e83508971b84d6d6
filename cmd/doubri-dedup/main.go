// Command doubri-dedup reads MinHash buckets from files, deduplicates
// items within a group, and builds per-band bucket indices.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"doubri/internal/config"
	"doubri/internal/dedup"
	"doubri/internal/logging"
	"doubri/internal/manifest"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "doubri-dedup:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	d := config.DefaultDedup()

	fs := flag.NewFlagSet("doubri-dedup", flag.ContinueOnError)
	group := fs.Uint("group", 0, "unique group order in the range [0, 65535] (required)")
	noIndex := fs.Bool("no-index", false, "does not save index files after deduplication")
	logLevelConsole := fs.String("log-level-console", d.LogLevelConsole, "log level for console (off, trace, debug, info, warning, error, critical)")
	logLevelFile := fs.String("log-level-file", d.LogLevelFile, "log level for file logging ({basename}.log)")
	maxBucketBytes := fs.Int64("max-bucket-bytes", d.MaxBucketBytes, "reject the run if one band's bucket buffer would exceed this many bytes")
	resumeFlag := fs.String("resume-flag", "", "load an existing .dup flag file instead of starting with every item active")
	if err := fs.Parse(args); err != nil {
		return err
	}
	groupSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "group" {
			groupSet = true
		}
	})
	if !groupSet {
		return fmt.Errorf("-group is required")
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: doubri-dedup [flags] BASENAME")
	}
	basename := fs.Arg(0)

	cfg := config.Dedup{
		Group:           uint32(*group),
		SaveIndex:       !*noIndex,
		MaxBucketBytes:  *maxBucketBytes,
		LogLevelConsole: *logLevelConsole,
		LogLevelFile:    *logLevelFile,
	}
	if err := cfg.Normalize(); err != nil {
		return err
	}

	logger, closeLogger, err := logging.New("doubri-dedup", cfg.LogLevelConsole, cfg.LogLevelFile, basename+".log")
	if err != nil {
		return err
	}
	defer closeLogger()

	var filenames []string
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 4096), 1<<20)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			filenames = append(filenames, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read the list of MinHash files from stdin: %w", err)
	}

	engine, err := dedup.Open(filenames, logger)
	if err != nil {
		return err
	}
	if err := engine.CheckBudget(cfg.MaxBucketBytes); err != nil {
		return err
	}
	if *resumeFlag != "" {
		if err := engine.LoadFlags(*resumeFlag); err != nil {
			return err
		}
	}

	entries := make([]manifest.Entry, 0, len(engine.Shards()))
	for _, s := range engine.Shards() {
		entries = append(entries, manifest.Entry{NumItems: uint64(s.NumItems), Filename: s.Filename})
	}
	if err := manifest.Write(basename+".src", uint16(cfg.Group), entries); err != nil {
		return err
	}

	if err := engine.Run(uint16(cfg.Group), basename, cfg.SaveIndex); err != nil {
		return err
	}

	return engine.SaveFlags(basename + ".dup")
}
