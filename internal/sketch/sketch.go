// Package sketch implements the sketcher: it reads JSONL from a stream,
// extracts n-gram features from a configured text field, and writes the
// resulting MinHash buckets to a MinHash file.
package sketch

import (
	"bufio"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"doubri/internal/hashprovider"
	"doubri/internal/minhash"
	"doubri/internal/ngram"
)

// Options configures one sketcher run.
type Options struct {
	Ngram         int
	NumHashValues uint32
	Begin, End    uint32
	TextField     string
	Provider      hashprovider.Provider
}

// Run reads newline-delimited JSON objects from r and writes a MinHash
// file to filename, one item per non-empty input line. Empty lines are
// skipped and produce no item.
func Run(opts Options, r io.Reader, filename string) (numItems uint32, err error) {
	w, err := minhash.Create(filename, opts.Provider.BytesPerHash(), opts.NumHashValues, opts.Begin, opts.End)
	if err != nil {
		return 0, err
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 64<<20)

	buf := make([]uint64, opts.NumHashValues)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var doc map[string]any
		if err := json.Unmarshal(line, &doc); err != nil {
			w.Close()
			return 0, fmt.Errorf("sketch: failed to parse line %d: %w", w.NumItems()+1, err)
		}

		features := extractFeatures(doc, opts.TextField, opts.Ngram)

		for band := opts.Begin; band < opts.End; band++ {
			seedBase := uint64(band) * uint64(opts.NumHashValues)
			minHashBand(opts.Provider, features, seedBase, buf)
			if err := w.Put(int(band-opts.Begin), buf); err != nil {
				w.Close()
				return 0, err
			}
		}
		if err := w.PutDone(); err != nil {
			w.Close()
			return 0, err
		}
	}
	if err := scanner.Err(); err != nil {
		w.Close()
		return 0, fmt.Errorf("sketch: failed to read input: %w", err)
	}

	numItems = w.NumItems()
	return numItems, w.Close()
}

// extractFeatures pulls the configured text field out of doc and splits
// it into n-grams. A missing field, a non-string value, or text shorter
// than n characters all yield an empty feature set, for which minHashBand
// produces the maximum representable hash in every position.
func extractFeatures(doc map[string]any, field string, n int) [][]byte {
	v, ok := doc[field]
	if !ok {
		return nil
	}
	text, ok := v.(string)
	if !ok {
		return nil
	}
	if ngram.CharCount(text) < n {
		return nil
	}
	return ngram.Extract(text, n)
}

// minHashBand computes numHashValues MinHash values for features using
// hash functions seedBase, seedBase+1, ..., writing them into out. An
// empty feature set leaves every position at the maximum value
// representable in the provider's hash width.
func minHashBand(p hashprovider.Provider, features [][]byte, seedBase uint64, out []uint64) {
	maxForWidth := hashprovider.MaxHash
	if p.BytesPerHash() == 4 {
		maxForWidth = 0xFFFFFFFF
	}
	for i := range out {
		seed := seedBase + uint64(i)
		min := maxForWidth
		for _, f := range features {
			h := p.Hash(f, seed)
			if h < min {
				min = h
			}
		}
		out[i] = min
	}
}
