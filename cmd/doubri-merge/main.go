// Command doubri-merge combines the per-band index files of several
// already-deduplicated groups, resolving cross-group duplicate buckets
// and producing one merged index plus one combined flag file.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"doubri/internal/config"
	"doubri/internal/logging"
	"doubri/internal/merge"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "doubri-merge:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	d := config.DefaultMerge()

	fs := flag.NewFlagSet("doubri-merge", flag.ContinueOnError)
	start := fs.Uint("start", uint(d.Begin), "start number of buckets")
	end := fs.Uint("end", uint(d.End), "end number of buckets")
	output := fs.String("output", "", "basename for the merged index (.idx.#####) and flag (.dup) files (required)")
	logLevelConsole := fs.String("log-level-console", d.LogLevelConsole, "log level for console (off, trace, debug, info, warning, error, critical)")
	logLevelFile := fs.String("log-level-file", d.LogLevelFile, "log level for file logging ({output}.log)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: doubri-merge [flags] BASENAME...")
	}

	cfg := config.Merge{
		Begin:           uint32(*start),
		End:             uint32(*end),
		Output:          *output,
		LogLevelConsole: *logLevelConsole,
		LogLevelFile:    *logLevelFile,
	}
	if err := cfg.Normalize(); err != nil {
		return err
	}

	logger, closeLogger, err := logging.New("doubri-merge", cfg.LogLevelConsole, cfg.LogLevelFile, cfg.Output+".log")
	if err != nil {
		return err
	}
	defer closeLogger()

	basenames := fs.Args()
	if extra := readExtraBasenames(os.Stdin); len(extra) > 0 {
		basenames = append(basenames, extra...)
	}

	m, err := merge.Open(basenames, logger)
	if err != nil {
		return err
	}

	if err := m.Run(cfg.Begin, cfg.End, cfg.Output); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "doubri-merge: merged %d groups into %s\n", len(basenames), cfg.Output)
	return nil
}

// readExtraBasenames allows piping additional source basenames via
// stdin, one per line, alongside (or instead of) positional arguments.
// It is best-effort: a non-piped, interactive stdin yields no lines.
func readExtraBasenames(f *os.File) []string {
	stat, err := f.Stat()
	if err != nil || (stat.Mode()&os.ModeCharDevice) != 0 {
		return nil
	}
	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			out = append(out, line)
		}
	}
	return out
}
