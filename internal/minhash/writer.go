package minhash

import (
	"encoding/binary"
	"fmt"
	"os"
)

// Writer accumulates per-item bucket rows into per-band sector buffers
// and flushes a full sector across every band at once, mirroring the
// teacher sstable writer's "accumulate into curBlock, flush on full"
// idiom but keyed by band instead of by a single linear block.
type Writer struct {
	f *os.File

	bytesPerHash  uint32
	numHashValues uint32
	begin, end    uint32

	// bands[j] holds up to SectorSize*numHashValues hash values (as raw
	// big-endian bytes) for band begin+j, awaiting a sector flush.
	bands    [][]byte
	inSector int
	numItems uint32
	closed   bool
}

// Create opens filename for writing and writes the file header. Bucket
// values for a given item must subsequently be supplied one band at a
// time, in band order, via Put.
func Create(filename string, bytesPerHash, numHashValues, begin, end uint32) (*Writer, error) {
	if begin > end {
		return nil, fmt.Errorf("minhash: band range [%d, %d) is inverted", begin, end)
	}
	if bytesPerHash != 4 && bytesPerHash != 8 {
		return nil, fmt.Errorf("minhash: unsupported bytes-per-hash %d", bytesPerHash)
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("minhash: failed to create %s: %w", filename, err)
	}

	w := &Writer{
		f:             f,
		bytesPerHash:  bytesPerHash,
		numHashValues: numHashValues,
		begin:         begin,
		end:           end,
		bands:         make([][]byte, end-begin),
	}
	rowBytes := int(SectorSize) * int(bytesPerHash) * int(numHashValues)
	for i := range w.bands {
		w.bands[i] = make([]byte, 0, rowBytes)
	}

	if err := w.writeHeader(); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) writeHeader() error {
	hdr := make([]byte, HeaderSize)
	copy(hdr[0:8], Magic)
	binary.LittleEndian.PutUint32(hdr[8:12], 0) // num_items, patched in Close
	binary.LittleEndian.PutUint32(hdr[12:16], w.bytesPerHash)
	binary.LittleEndian.PutUint32(hdr[16:20], w.numHashValues)
	binary.LittleEndian.PutUint32(hdr[20:24], w.begin)
	binary.LittleEndian.PutUint32(hdr[24:28], w.end)
	binary.LittleEndian.PutUint32(hdr[28:32], SectorSize)
	if _, err := w.f.Write(hdr); err != nil {
		return fmt.Errorf("minhash: failed to write header: %w", err)
	}
	return nil
}

// Put appends one item's hash values for band (begin+bandIdx), where
// bandIdx indexes into [0, end-begin). values must hold numHashValues
// entries. Hash values are stored big-endian on disk regardless of host
// byte order, so that a MinHash file can be inspected with a hex editor.
//
// Bands for a given item must be supplied in order 0, 1, ..., end-begin-1
// before PutDone is called to advance to the next item.
func (w *Writer) Put(bandIdx int, values []uint64) error {
	if bandIdx < 0 || bandIdx >= len(w.bands) {
		return fmt.Errorf("minhash: band index %d out of range [0, %d)", bandIdx, len(w.bands))
	}
	if uint32(len(values)) != w.numHashValues {
		return fmt.Errorf("minhash: expected %d hash values, got %d", w.numHashValues, len(values))
	}

	buf := make([]byte, w.bytesPerHash)
	for _, v := range values {
		switch w.bytesPerHash {
		case 4:
			if v > 0xFFFFFFFF {
				return fmt.Errorf("minhash: hash value %#x does not fit in 4 bytes", v)
			}
			binary.BigEndian.PutUint32(buf, uint32(v))
		case 8:
			binary.BigEndian.PutUint64(buf, v)
		}
		w.bands[bandIdx] = append(w.bands[bandIdx], buf[:w.bytesPerHash]...)
	}
	return nil
}

// PutDone advances the writer to the next item after all bands for the
// current item have been supplied via Put, flushing a full sector to
// disk when the in-memory buffer fills up.
func (w *Writer) PutDone() error {
	w.inSector++
	w.numItems++
	if w.inSector >= SectorSize {
		if err := w.flush(); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) flush() error {
	if w.inSector == 0 {
		return nil
	}
	for _, band := range w.bands {
		if _, err := w.f.Write(band); err != nil {
			return fmt.Errorf("minhash: failed to write sector data: %w", err)
		}
	}
	for i := range w.bands {
		w.bands[i] = w.bands[i][:0]
	}
	w.inSector = 0
	return nil
}

// NumItems returns the number of items written so far.
func (w *Writer) NumItems() uint32 {
	return w.numItems
}

// Close flushes any remaining partial sector, patches the item count
// into the header, and closes the underlying file. Calls after the first
// do nothing and return nil. Close is not safe to call after an error
// from Put or PutDone without discarding the file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.flush(); err != nil {
		w.f.Close()
		return err
	}

	if _, err := w.f.Seek(8, 0); err != nil {
		w.f.Close()
		return fmt.Errorf("minhash: failed to seek to patch item count: %w", err)
	}
	var numItemsBuf [4]byte
	binary.LittleEndian.PutUint32(numItemsBuf[:], w.numItems)
	if _, err := w.f.Write(numItemsBuf[:]); err != nil {
		w.f.Close()
		return fmt.Errorf("minhash: failed to patch item count: %w", err)
	}

	return w.f.Close()
}
