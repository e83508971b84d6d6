// Command doubri-sketch reads text (in JSONL format) from STDIN and
// writes MinHash buckets to a file.
package main

import (
	"flag"
	"fmt"
	"os"

	"doubri/internal/config"
	"doubri/internal/hashprovider"
	"doubri/internal/sketch"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "doubri-sketch:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	d := config.DefaultSketch()

	fs := flag.NewFlagSet("doubri-sketch", flag.ContinueOnError)
	ngramN := fs.Int("ngram", d.Ngram, "number of letters of an n-gram")
	bucket := fs.Uint("bucket", uint(d.NumHashValues), "number of hash values per bucket")
	start := fs.Uint("start", uint(d.Begin), "start number of buckets")
	end := fs.Uint("end", uint(d.End), "end number of buckets (number of buckets when start = 0)")
	text := fs.String("text", d.TextField, "text field in JSON")
	hashName := fs.String("hash", d.HashProvider, "hash family: xxh3 or murmur3")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: doubri-sketch [flags] FILENAME")
	}
	filename := fs.Arg(0)

	opts := config.Sketch{
		Ngram:         *ngramN,
		NumHashValues: uint32(*bucket),
		Begin:         uint32(*start),
		End:           uint32(*end),
		TextField:     *text,
		HashProvider:  *hashName,
	}
	if err := opts.Normalize(); err != nil {
		return err
	}

	provider, err := hashprovider.ByName(opts.HashProvider)
	if err != nil {
		return err
	}

	numItems, err := sketch.Run(sketch.Options{
		Ngram:         opts.Ngram,
		NumHashValues: opts.NumHashValues,
		Begin:         opts.Begin,
		End:           opts.End,
		TextField:     opts.TextField,
		Provider:      provider,
	}, os.Stdin, filename)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "doubri-sketch: wrote %d items to %s\n", numItems, filename)
	return nil
}
