package minhash

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Reader reads bucket columns out of a MinHash file without loading
// bands it wasn't asked for.
type Reader struct {
	f      *os.File
	Header Header
}

// Open opens filename, reads and validates its header, and returns a
// Reader ready to serve ReadBucketColumn calls.
func Open(filename string) (*Reader, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("minhash: failed to open %s: %w", filename, err)
	}

	hdr := make([]byte, HeaderSize)
	if _, err := io.ReadFull(f, hdr); err != nil {
		f.Close()
		return nil, fmt.Errorf("minhash: failed to read header from %s: %w", filename, err)
	}
	if string(hdr[0:8]) != Magic {
		f.Close()
		return nil, fmt.Errorf("minhash: invalid magic %q in %s", hdr[0:8], filename)
	}

	h := Header{
		NumItems:      binary.LittleEndian.Uint32(hdr[8:12]),
		BytesPerHash:  binary.LittleEndian.Uint32(hdr[12:16]),
		NumHashValues: binary.LittleEndian.Uint32(hdr[16:20]),
		Begin:         binary.LittleEndian.Uint32(hdr[20:24]),
		End:           binary.LittleEndian.Uint32(hdr[24:28]),
		SectorSize:    binary.LittleEndian.Uint32(hdr[28:32]),
	}
	if err := h.Validate(); err != nil {
		f.Close()
		return nil, fmt.Errorf("minhash: %s: %w", filename, err)
	}

	return &Reader{f: f, Header: h}, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	return r.f.Close()
}

// ReadBucketColumn reads every item's bucket for band bucketNumber
// (which must lie in [Header.Begin, Header.End)) into one contiguous
// big-endian byte slice of length NumItems * BytesPerBucket. It performs
// one seek+read per sector of the file plus one for the trailing
// partial sector, matching the file's sector-blocked bucket-major
// layout.
func (r *Reader) ReadBucketColumn(bucketNumber uint32) ([]byte, error) {
	h := r.Header
	if bucketNumber < h.Begin || bucketNumber >= h.End {
		return nil, fmt.Errorf("minhash: band %d out of range [%d, %d)", bucketNumber, h.Begin, h.End)
	}

	bytesPerBucket := h.BytesPerBucket()
	out := make([]byte, uint64(h.NumItems)*uint64(bytesPerBucket))

	numSectors := uint64(h.NumItems) / uint64(h.SectorSize)
	numRemaining := uint64(h.NumItems) % uint64(h.SectorSize)
	bytesPerBandSector := uint64(h.SectorSize) * uint64(bytesPerBucket)
	bytesPerFullSector := h.BytesPerSector()
	bandOffsetInSector := uint64(bucketNumber-h.Begin) * bytesPerBandSector

	var cursor uint64
	for sector := uint64(0); sector < numSectors; sector++ {
		offset := int64(HeaderSize) + int64(bytesPerFullSector*sector+bandOffsetInSector)
		chunk := out[cursor : cursor+bytesPerBandSector]
		if _, err := r.f.ReadAt(chunk, offset); err != nil {
			return nil, fmt.Errorf("minhash: failed to read sector %d of band %d: %w", sector, bucketNumber, err)
		}
		cursor += bytesPerBandSector
	}

	if numRemaining > 0 {
		bytes := numRemaining * uint64(bytesPerBucket)
		offset := int64(HeaderSize) + int64(bytesPerFullSector*numSectors+uint64(bucketNumber-h.Begin)*bytes)
		chunk := out[cursor : cursor+bytes]
		if _, err := r.f.ReadAt(chunk, offset); err != nil {
			return nil, fmt.Errorf("minhash: failed to read trailing sector of band %d: %w", bucketNumber, err)
		}
		cursor += bytes
	}

	return out, nil
}
