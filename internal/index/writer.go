package index

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"doubri/internal/model"
)

// Writer appends sorted (bucket, packed group/item) records to an index
// file. Callers (the deduper) must supply records in non-decreasing
// bucket order; Writer does not sort or validate ordering itself, since
// the sort already happened over the full band before any record is
// written.
type Writer struct {
	f              *os.File
	finalPath      string
	bytesPerBucket uint32
	bucketNumber   uint32
	numTotal       uint64
	numActive      uint64
	closed         bool
}

// Create opens a temp file in filename's directory and reserves space
// for the header, which is patched with final item counts on Close.
// Close renames the temp file into place at filename, so a cancelled or
// failed run never leaves a truncated index file sitting at its real
// path.
func Create(filename string, bucketNumber, bytesPerBucket uint32) (*Writer, error) {
	dir := filepath.Dir(filename)
	f, err := os.CreateTemp(dir, filepath.Base(filename)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("index: failed to create temp file for %s: %w", filename, err)
	}

	hdr := make([]byte, HeaderSize)
	copy(hdr[0:8], Magic)
	binary.LittleEndian.PutUint32(hdr[8:12], bucketNumber)
	binary.LittleEndian.PutUint32(hdr[12:16], bytesPerBucket)
	// num_total_items and num_active_items (offsets 16, 24) are patched
	// on Close.
	if _, err := f.Write(hdr); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("index: failed to write header to %s: %w", filename, err)
	}

	return &Writer{
		f:              f,
		finalPath:      filename,
		bytesPerBucket: bytesPerBucket,
		bucketNumber:   bucketNumber,
	}, nil
}

// WriteItem appends one active item: its bucket bytes (exactly
// BytesPerBucket long) and the packed (group, item) identifier.
// numTotalItems is tracked independently via SetTotalItems since it
// also counts items that were excluded from this file as duplicates.
func (w *Writer) WriteItem(group uint16, item uint64, bucket []byte) error {
	if uint32(len(bucket)) != w.bytesPerBucket {
		return fmt.Errorf("index: bucket length %d does not match header (%d)", len(bucket), w.bytesPerBucket)
	}
	packed, err := model.PackGroupItem(group, item)
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}

	rec := make([]byte, w.bytesPerBucket+8)
	copy(rec, bucket)
	binary.BigEndian.PutUint64(rec[w.bytesPerBucket:], packed)
	if _, err := w.f.Write(rec); err != nil {
		return fmt.Errorf("index: failed to write record: %w", err)
	}
	w.numActive++
	return nil
}

// SetTotalItems records the number of items considered for this band
// (active and duplicate alike), patched into the header on Close.
func (w *Writer) SetTotalItems(n uint64) {
	w.numTotal = n
}

// Close patches the header with final item counts, closes the temp
// file, and renames it into place at the file's final path. A cancelled
// or failed run never touches the real output path.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	tmpName := w.f.Name()

	if _, err := w.f.Seek(16, 0); err != nil {
		w.f.Close()
		os.Remove(tmpName)
		return fmt.Errorf("index: failed to seek to patch header: %w", err)
	}
	var counts [16]byte
	binary.LittleEndian.PutUint64(counts[0:8], w.numTotal)
	binary.LittleEndian.PutUint64(counts[8:16], w.numActive)
	if _, err := w.f.Write(counts[:]); err != nil {
		w.f.Close()
		os.Remove(tmpName)
		return fmt.Errorf("index: failed to patch header: %w", err)
	}

	if err := w.f.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("index: failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, w.finalPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("index: failed to rename index file into place: %w", err)
	}
	return nil
}
