// Package dedup implements the group deduper: it loads one band's
// bucket column from every shard in a group, sorts items by bucket
// bytes, marks duplicate runs, optionally emits a per-band index file,
// and accumulates a flag byte per item across all bands.
package dedup

import (
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"doubri/internal/index"
	"doubri/internal/minhash"
	"doubri/internal/model"
)

// Engine runs the group deduper over a set of shard MinHash files that
// all agree on format parameters.
type Engine struct {
	shards []Shard
	params shardParams

	numItems       uint64
	bytesPerBucket uint32

	buffer []byte // current band's bucket bytes, numItems*bytesPerBucket
	flags  []byte // one flag byte per item, persists across bands

	logger zerolog.Logger
}

// Open reads the header of every shard file to validate consistency and
// compute the group's total item count, without loading any bucket
// data yet.
func Open(filenames []string, logger zerolog.Logger) (*Engine, error) {
	if len(filenames) == 0 {
		return nil, fmt.Errorf("dedup: no MinHash files supplied")
	}

	shards, params, err := loadShardParams(filenames)
	if err != nil {
		return nil, err
	}

	var total uint64
	for _, s := range shards {
		total += uint64(s.NumItems)
	}

	e := &Engine{
		shards:         shards,
		params:         params,
		numItems:       total,
		bytesPerBucket: params.numHashValues * params.bytesPerHash,
		flags:          make([]byte, total),
		logger:         logger,
	}
	for i := range e.flags {
		e.flags[i] = byte(model.FlagActive)
	}

	logger.Info().
		Int("num_shards", len(shards)).
		Uint64("num_items", total).
		Uint32("bytes_per_hash", params.bytesPerHash).
		Uint32("num_hash_values", params.numHashValues).
		Uint32("begin", params.begin).
		Uint32("end", params.end).
		Msg("initialized deduplication engine")

	return e, nil
}

// NumItems is the total number of items across every shard in the
// group.
func (e *Engine) NumItems() uint64 { return e.numItems }

// Shards returns the shard accounting computed from the input files, in
// the order they were supplied (and so in the order a .src manifest
// must record them).
func (e *Engine) Shards() []Shard { return e.shards }

// CheckBudget rejects a run whose bucket buffer for one band would
// exceed maxBytes, before any allocation happens.
func (e *Engine) CheckBudget(maxBytes int64) error {
	need := int64(e.numItems) * int64(e.bytesPerBucket)
	if need > maxBytes {
		return fmt.Errorf("dedup: band buffer would need %d bytes, exceeding the %d byte budget (--max-bucket-bytes)", need, maxBytes)
	}
	return nil
}

// Flags returns the current per-item flag bytes. The returned slice
// aliases the engine's internal state and must not be mutated by the
// caller.
func (e *Engine) Flags() []byte { return e.flags }

// LoadFlags replaces the engine's fresh all-active flag array with one
// loaded from a previous run's .dup file, so that a second dedup pass
// (e.g. adding bands to an existing group without forgetting earlier
// results) resumes from where that run left off instead of starting
// over.
func (e *Engine) LoadFlags(path string) error {
	flags, err := readFlagFile(path, e.numItems)
	if err != nil {
		return err
	}
	e.flags = flags
	return nil
}

// loadBucketColumn fills e.buffer with every item's bucket for band bn,
// reading each shard's column concurrently.
func (e *Engine) loadBucketColumn(bn uint32) error {
	if e.buffer == nil {
		e.buffer = make([]byte, e.numItems*uint64(e.bytesPerBucket))
	}

	var g errgroup.Group
	for _, shard := range e.shards {
		shard := shard
		g.Go(func() error {
			r, err := minhash.Open(shard.Filename)
			if err != nil {
				return err
			}
			defer r.Close()

			col, err := r.ReadBucketColumn(bn)
			if err != nil {
				return fmt.Errorf("dedup: %s: %w", shard.Filename, err)
			}

			dstStart := shard.StartIndex * uint64(e.bytesPerBucket)
			copy(e.buffer[dstStart:dstStart+uint64(len(col))], col)
			return nil
		})
	}
	return g.Wait()
}

func (e *Engine) bucketAt(i uint64) []byte {
	bpb := uint64(e.bytesPerBucket)
	return e.buffer[i*bpb : (i+1)*bpb]
}

// RunBand performs one band's worth of deduplication: load, sort, mark
// duplicates, optionally emit the index, promote transient marks.
// indexBasename is the basename index files are written under
// ("{indexBasename}.idx.{bn:05d}"); pass "" and saveIndex=false to skip
// emitting an index for this band.
func (e *Engine) RunBand(bn uint32, group uint16, indexBasename string, saveIndex bool) error {
	if bn < e.params.begin || bn >= e.params.end {
		return fmt.Errorf("dedup: band %d out of range [%d, %d)", bn, e.params.begin, e.params.end)
	}

	log := e.logger.With().Uint32("band", bn).Logger()

	log.Info().Int("num_shards", len(e.shards)).Msg("reading buckets")
	if err := e.loadBucketColumn(bn); err != nil {
		return err
	}

	log.Info().Msg("sorting items")
	order := orderItems(e.numItems, e.bucketAt)

	numActiveBefore := countFlag(e.flags, model.FlagActive)

	log.Info().Msg("finding duplicates")
	for cur := 0; cur < len(order); {
		next := cur + 1
		for next < len(order) && sameBucket(e.bucketAt(order[cur]), e.bucketAt(order[next])) {
			next++
		}
		for k := cur + 1; k < next; k++ {
			e.flags[order[k]] = byte(model.FlagDuplicateTransient)
		}
		cur = next
	}

	numDetected := countFlag(e.flags, model.FlagDuplicateTransient)

	if saveIndex {
		path := index.Path(indexBasename, bn)
		if err := e.writeIndex(path, bn, group, order); err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("saved index")
	}

	// Promote this band's transient marks to committed duplicates; once
	// committed a flag never reverts.
	for i, f := range e.flags {
		if model.Flag(f) == model.FlagDuplicateTransient {
			e.flags[i] = byte(model.FlagDuplicateCommitted)
		}
	}

	numActiveAfter := countFlag(e.flags, model.FlagActive)
	activeRatio, detectionRatio := 0.0, 0.0
	if e.numItems > 0 {
		activeRatio = float64(numActiveAfter) / float64(e.numItems)
		detectionRatio = float64(numDetected) / float64(e.numItems)
	}
	log.Info().
		Uint64("num_active_before", numActiveBefore).
		Uint64("num_detected", numDetected).
		Uint64("num_active_after", numActiveAfter).
		Float64("active_ratio", activeRatio).
		Float64("detection_ratio", detectionRatio).
		Msg("band complete")

	return nil
}

func sameBucket(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// writeIndex emits the sorted index for one band: every item whose flag
// is not the current band's transient duplicate mark, in sorted bucket
// order. This intentionally includes items already committed as
// duplicates by an earlier band — the merger needs their buckets too in
// order to detect cross-group collisions against those same buckets.
func (e *Engine) writeIndex(path string, bn uint32, group uint16, order []uint64) error {
	w, err := index.Create(path, bn, e.bytesPerBucket)
	if err != nil {
		return err
	}
	w.SetTotalItems(e.numItems)

	for _, i := range order {
		if model.Flag(e.flags[i]) == model.FlagDuplicateTransient {
			continue
		}
		if err := w.WriteItem(group, i, e.bucketAt(i)); err != nil {
			w.Close()
			return err
		}
	}

	return w.Close()
}

// Run performs deduplication over every band in [begin, end), leaving
// the final flag array in the engine (see Flags). The caller is
// responsible for persisting it (see SaveFlags) and for writing the
// source manifest (see manifest.Write).
func (e *Engine) Run(group uint16, indexBasename string, saveIndex bool) error {
	numActiveBefore := countFlag(e.flags, model.FlagActive)

	for bn := e.params.begin; bn < e.params.end; bn++ {
		if err := e.RunBand(bn, group, indexBasename, saveIndex); err != nil {
			return err
		}
	}

	numActiveAfter := countFlag(e.flags, model.FlagActive)
	e.logger.Info().
		Uint64("num_items", e.numItems).
		Uint64("num_active_before", numActiveBefore).
		Uint64("num_active_after", numActiveAfter).
		Msg("deduplication complete")

	return nil
}

// SaveFlags writes the final flag array to path, atomically.
func (e *Engine) SaveFlags(path string) error {
	return writeFlagFile(path, e.flags)
}
