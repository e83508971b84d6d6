package dedup

import (
	"fmt"

	"doubri/internal/minhash"
)

// Shard describes one MinHash file contributing items to a group, along
// with the range of global item indices it owns once all shards are
// concatenated in the order they were listed.
type Shard struct {
	Filename   string
	NumItems   uint32
	StartIndex uint64
}

// shardParams is the set of header fields every shard in a group must
// agree on.
type shardParams struct {
	bytesPerHash  uint32
	numHashValues uint32
	begin, end    uint32
}

// loadShardParams opens each file in filenames just long enough to read
// its header, validates that every shard agrees on format parameters,
// and returns the per-shard item accounting plus the shared parameters.
func loadShardParams(filenames []string) ([]Shard, shardParams, error) {
	var params shardParams
	shards := make([]Shard, 0, len(filenames))

	var total uint64
	for idx, fn := range filenames {
		r, err := minhash.Open(fn)
		if err != nil {
			return nil, shardParams{}, fmt.Errorf("dedup: %w", err)
		}
		h := r.Header
		r.Close()

		if idx == 0 {
			params = shardParams{
				bytesPerHash:  h.BytesPerHash,
				numHashValues: h.NumHashValues,
				begin:         h.Begin,
				end:           h.End,
			}
		} else {
			if h.BytesPerHash != params.bytesPerHash {
				return nil, shardParams{}, fmt.Errorf("dedup: %s has bytes_per_hash %d, expected %d", fn, h.BytesPerHash, params.bytesPerHash)
			}
			if h.NumHashValues != params.numHashValues {
				return nil, shardParams{}, fmt.Errorf("dedup: %s has num_hash_values %d, expected %d", fn, h.NumHashValues, params.numHashValues)
			}
			if h.Begin != params.begin {
				return nil, shardParams{}, fmt.Errorf("dedup: %s has begin %d, expected %d", fn, h.Begin, params.begin)
			}
			if h.End != params.end {
				return nil, shardParams{}, fmt.Errorf("dedup: %s has end %d, expected %d", fn, h.End, params.end)
			}
		}

		shards = append(shards, Shard{
			Filename:   fn,
			NumItems:   h.NumItems,
			StartIndex: total,
		})
		total += uint64(h.NumItems)
	}

	return shards, params, nil
}
