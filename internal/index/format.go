// Package index implements the reader and writer for per-band index
// files (magic "DoubriI4"): a sorted stream of (bucket bytes, packed
// group/item) records produced by the group deduper and consumed by the
// k-way merger.
package index

import (
	"fmt"
	"path/filepath"
)

// Magic is the 8-byte file signature every index file starts with.
const Magic = "DoubriI4"

// HeaderSize is the fixed size, in bytes, of an index file header.
const HeaderSize = 32

// Header mirrors the 32-byte index file header.
type Header struct {
	BucketNumber   uint32
	BytesPerBucket uint32
	NumTotalItems  uint64
	NumActiveItems uint64
}

// BytesPerRecord is the size of one (bucket, packed group/item) record.
func (h Header) BytesPerRecord() uint32 {
	return h.BytesPerBucket + 8
}

// Validate checks the header's structural invariants.
func (h Header) Validate() error {
	if h.BytesPerBucket == 0 {
		return fmt.Errorf("bytes per bucket must be positive")
	}
	if h.NumActiveItems > h.NumTotalItems {
		return fmt.Errorf("active item count %d exceeds total item count %d", h.NumActiveItems, h.NumTotalItems)
	}
	return nil
}

// Path returns the conventional filename for band bucketNumber of a
// basename: "{basename}.idx.{bucketNumber:05d}".
func Path(basename string, bucketNumber uint32) string {
	return fmt.Sprintf("%s.idx.%05d", basename, bucketNumber)
}

// StripDir mirrors the applicator's --strip option: it drops the
// directory component of a manifest-recorded source path, leaving only
// the base filename.
func StripDir(path string) string {
	return filepath.Base(path)
}
