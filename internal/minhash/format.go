// Package minhash implements the reader and writer for MinHash bucket
// files (magic "DoubriH4"): a sector-blocked, bucket-major binary layout
// that lets the deduper load one band's bucket column from a large shard
// without reading unrelated bands off disk.
package minhash

import "fmt"

// Magic is the 8-byte file signature every MinHash file starts with.
const Magic = "DoubriH4"

// HeaderSize is the fixed size, in bytes, of a MinHash file header.
const HeaderSize = 32

// SectorSize is the number of items grouped into one sector block. It is
// part of the on-disk format (stored in the header and validated on
// read), not a tunable.
const SectorSize = 512

// Header mirrors the 32-byte MinHash file header.
type Header struct {
	NumItems      uint32
	BytesPerHash  uint32
	NumHashValues uint32
	Begin         uint32
	End           uint32
	SectorSize    uint32
}

// NumBands returns the number of bands [Begin, End) this file covers.
func (h Header) NumBands() uint32 {
	return h.End - h.Begin
}

// BytesPerBand is the number of bytes one sector-block contributes per
// band: SectorSize items, each NumHashValues hashes of BytesPerHash
// bytes.
func (h Header) BytesPerBand() uint64 {
	return uint64(h.SectorSize) * uint64(h.BytesPerHash) * uint64(h.NumHashValues)
}

// BytesPerSector is the total size of one sector block across every
// band this file stores.
func (h Header) BytesPerSector() uint64 {
	return uint64(h.NumBands()) * h.BytesPerBand()
}

// Validate checks the structural invariants every MinHash file must
// satisfy, independent of any particular reader's expectations.
func (h Header) Validate() error {
	if h.SectorSize != SectorSize {
		return fmt.Errorf("unexpected sector size %d (want %d)", h.SectorSize, SectorSize)
	}
	if h.BytesPerHash != 4 && h.BytesPerHash != 8 {
		return fmt.Errorf("unsupported bytes-per-hash %d (want 4 or 8)", h.BytesPerHash)
	}
	if h.Begin > h.End {
		return fmt.Errorf("band range [%d, %d) is inverted", h.Begin, h.End)
	}
	if h.NumHashValues == 0 {
		return fmt.Errorf("num hash values must be positive")
	}
	return nil
}

// BytesPerBucket is the size of a single item's bucket in band b: the
// number of hash values times the width of one hash.
func (h Header) BytesPerBucket() uint32 {
	return h.NumHashValues * h.BytesPerHash
}
