// Package merge implements the k-way merger: it combines the per-band
// index files of several groups into one merged index per band,
// resolving cross-group duplicate buckets in favor of the lowest
// (group, item) pair, and folds the losing items into a combined flag
// file spanning every source group.
package merge

import (
	"bytes"
	"container/heap"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"doubri/internal/index"
	"doubri/internal/manifest"
	"doubri/internal/model"
)

// source is one group participating in the merge: its basename (for
// {basename}.idx.##### and {basename}.src), its group id (read from its
// manifest), and its in-memory flag array (read from {basename}.dup and
// mutated in place as cross-group duplicates are found).
type source struct {
	basename string
	group    uint16
	flags    []byte
}

// Merger merges G groups' index and flag files across a band range.
type Merger struct {
	sources      []*source
	groupToIndex map[uint16]int
	logger       zerolog.Logger
}

// Open loads every source's manifest (for its group id and total item
// count) and flag file, validating that the flag file's length matches
// the manifest's total.
func Open(basenames []string, logger zerolog.Logger) (*Merger, error) {
	if len(basenames) == 0 {
		return nil, fmt.Errorf("merge: no sources supplied")
	}

	m := &Merger{groupToIndex: make(map[uint16]int), logger: logger}

	for _, bn := range basenames {
		group, entries, err := manifest.Read(bn + ".src")
		if err != nil {
			return nil, fmt.Errorf("merge: %w", err)
		}
		total := manifest.TotalItems(entries)

		flags, err := os.ReadFile(bn + ".dup")
		if err != nil {
			return nil, fmt.Errorf("merge: failed to read flag file for %s: %w", bn, err)
		}
		if uint64(len(flags)) != total {
			return nil, fmt.Errorf("merge: flag file for %s has %d items, manifest totals %d", bn, len(flags), total)
		}

		if _, dup := m.groupToIndex[group]; dup {
			return nil, fmt.Errorf("merge: group %d appears in more than one source", group)
		}
		m.groupToIndex[group] = len(m.sources)
		m.sources = append(m.sources, &source{basename: bn, group: group, flags: flags})
	}

	return m, nil
}

// cursor tracks one group's position within its current band's index
// file during the k-way merge.
type cursor struct {
	reader *index.Reader
	cur    index.Record
}

type mergeHeap []*cursor

func (h mergeHeap) Len() int { return len(h) }
func (h mergeHeap) Less(i, j int) bool {
	return bytes.Compare(h[i].cur.Bucket, h[j].cur.Bucket) < 0
}
func (h mergeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x any)        { *h = append(*h, x.(*cursor)) }
func (h *mergeHeap) Pop() any {
	old := *h
	n := len(old)
	last := old[n-1]
	*h = old[:n-1]
	return last
}

// RunBand merges band bn's index files across every source group,
// writing the winning records to {output}.idx.{bn:05d} and marking
// every losing record's item as a committed duplicate in that item's
// owning group's in-memory flag array.
func (m *Merger) RunBand(bn uint32, output string) error {
	log := m.logger.With().Uint32("band", bn).Logger()

	readers := make([]*index.Reader, 0, len(m.sources))
	defer func() {
		for _, r := range readers {
			r.Close()
		}
	}()

	h := &mergeHeap{}
	var bytesPerBucket uint32
	var totalItems uint64

	for _, src := range m.sources {
		r, err := index.Open(index.Path(src.basename, bn))
		if err != nil {
			return fmt.Errorf("merge: %w", err)
		}
		readers = append(readers, r)

		if bytesPerBucket == 0 {
			bytesPerBucket = r.Header.BytesPerBucket
		} else if bytesPerBucket != r.Header.BytesPerBucket {
			return fmt.Errorf("merge: %s band %d has bytes_per_bucket %d, expected %d", src.basename, bn, r.Header.BytesPerBucket, bytesPerBucket)
		}
		totalItems += r.Header.NumTotalItems

		rec, err := r.Next()
		if err == io.EOF {
			continue
		}
		if err != nil {
			return fmt.Errorf("merge: %s band %d: %w", src.basename, bn, err)
		}
		heap.Push(h, &cursor{reader: r, cur: rec})
	}

	outPath := index.Path(output, bn)
	w, err := index.Create(outPath, bn, bytesPerBucket)
	if err != nil {
		return err
	}
	w.SetTotalItems(totalItems)

	var numWinners, numLosers uint64

	for h.Len() > 0 {
		// Collect every cursor whose current record shares the lowest
		// bucket value.
		lowest := (*h)[0].cur.Bucket
		var run []*cursor
		for h.Len() > 0 && bytes.Equal((*h)[0].cur.Bucket, lowest) {
			run = append(run, heap.Pop(h).(*cursor))
		}

		winner := run[0]
		for _, c := range run[1:] {
			if (model.GroupItem{Group: c.cur.Group, Item: c.cur.Item}).
				Less(model.GroupItem{Group: winner.cur.Group, Item: winner.cur.Item}) {
				winner = c
			}
		}

		if err := w.WriteItem(winner.cur.Group, winner.cur.Item, winner.cur.Bucket); err != nil {
			w.Close()
			return err
		}
		numWinners++

		for _, c := range run {
			if c != winner {
				si := m.groupToIndex[c.cur.Group]
				m.sources[si].flags[c.cur.Item] = byte(model.FlagDuplicateCommitted)
				numLosers++
			}

			next, err := c.reader.Next()
			if err == io.EOF {
				continue
			}
			if err != nil {
				w.Close()
				return fmt.Errorf("merge: band %d: %w", bn, err)
			}
			c.cur = next
			heap.Push(h, c)
		}
	}

	if err := w.Close(); err != nil {
		return err
	}

	log.Info().
		Str("path", outPath).
		Uint64("num_winners", numWinners).
		Uint64("num_cross_group_duplicates", numLosers).
		Msg("merged band")

	return nil
}

// Run merges every band in [begin, end) and then writes the combined
// flag file for every source, in source order, to {output}.dup.
func (m *Merger) Run(begin, end uint32, output string) error {
	for bn := begin; bn < end; bn++ {
		if err := m.RunBand(bn, output); err != nil {
			return err
		}
	}
	return m.saveCombinedFlags(output)
}

func (m *Merger) saveCombinedFlags(output string) error {
	var combined []byte
	for _, src := range m.sources {
		combined = append(combined, src.flags...)
	}

	dir := filepath.Dir(output + ".dup")
	tmp, err := os.CreateTemp(dir, filepath.Base(output)+".dup.tmp-*")
	if err != nil {
		return fmt.Errorf("merge: failed to create temp flag file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(combined); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("merge: failed to write combined flag file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("merge: failed to close combined flag file: %w", err)
	}
	if err := os.Rename(tmpName, output+".dup"); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("merge: failed to rename combined flag file into place: %w", err)
	}
	return nil
}
