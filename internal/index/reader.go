package index

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"doubri/internal/model"
)

// Record is one decoded index entry.
type Record struct {
	Bucket []byte
	Group  uint16
	Item   uint64
}

// Reader streams records out of an index file in the order they were
// written (i.e., sorted by bucket bytes, since the deduper only ever
// writes sorted records).
type Reader struct {
	f      *os.File
	br     *bufio.Reader
	Header Header
	rec    []byte
}

// Open opens filename, reads and validates its header, and returns a
// Reader positioned at the first record.
func Open(filename string) (*Reader, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("index: failed to open %s: %w", filename, err)
	}

	hdr := make([]byte, HeaderSize)
	if _, err := io.ReadFull(f, hdr); err != nil {
		f.Close()
		return nil, fmt.Errorf("index: failed to read header from %s: %w", filename, err)
	}
	if string(hdr[0:8]) != Magic {
		f.Close()
		return nil, fmt.Errorf("index: invalid magic %q in %s", hdr[0:8], filename)
	}

	h := Header{
		BucketNumber:   binary.LittleEndian.Uint32(hdr[8:12]),
		BytesPerBucket: binary.LittleEndian.Uint32(hdr[12:16]),
		NumTotalItems:  binary.LittleEndian.Uint64(hdr[16:24]),
		NumActiveItems: binary.LittleEndian.Uint64(hdr[24:32]),
	}
	if err := h.Validate(); err != nil {
		f.Close()
		return nil, fmt.Errorf("index: %s: %w", filename, err)
	}

	return &Reader{
		f:      f,
		br:     bufio.NewReaderSize(f, 1<<20),
		Header: h,
		rec:    make([]byte, h.BytesPerRecord()),
	}, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	return r.f.Close()
}

// Next reads the next record, returning io.EOF once every
// NumActiveItems record has been consumed.
func (r *Reader) Next() (Record, error) {
	if _, err := io.ReadFull(r.br, r.rec); err != nil {
		if err == io.ErrUnexpectedEOF {
			return Record{}, fmt.Errorf("index: truncated record")
		}
		return Record{}, err
	}

	bpb := r.Header.BytesPerBucket
	bucket := make([]byte, bpb)
	copy(bucket, r.rec[:bpb])
	packed := binary.BigEndian.Uint64(r.rec[bpb:])
	group, item := model.UnpackGroupItem(packed)

	return Record{Bucket: bucket, Group: group, Item: item}, nil
}
