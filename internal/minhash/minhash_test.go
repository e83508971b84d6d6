package minhash

import (
	"os"
	"path/filepath"
	"testing"
)

func writeItems(t *testing.T, filename string, bytesPerHash, numHashValues, begin, end uint32, items [][]uint64) {
	t.Helper()
	w, err := Create(filename, bytesPerHash, numHashValues, begin, end)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, item := range items {
		for band := 0; band < int(end-begin); band++ {
			if err := w.Put(band, item); err != nil {
				t.Fatalf("Put: %v", err)
			}
		}
		if err := w.PutDone(); err != nil {
			t.Fatalf("PutDone: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestRoundTripSmall(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "small.mh")

	items := [][]uint64{
		{1, 2, 3},
		{4, 5, 6},
		{7, 8, 9},
	}
	writeItems(t, path, 8, 3, 0, 2, items)

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if r.Header.NumItems != uint32(len(items)) {
		t.Errorf("NumItems = %d, want %d", r.Header.NumItems, len(items))
	}

	col, err := r.ReadBucketColumn(0)
	if err != nil {
		t.Fatalf("ReadBucketColumn(0): %v", err)
	}
	if len(col) != len(items)*int(r.Header.BytesPerBucket()) {
		t.Fatalf("ReadBucketColumn(0) length = %d, want %d", len(col), len(items)*int(r.Header.BytesPerBucket()))
	}

	bpb := int(r.Header.BytesPerBucket())
	for i, item := range items {
		bucket := col[i*bpb : (i+1)*bpb]
		for j, v := range item {
			got := uint64(bucket[j*8])<<56 | uint64(bucket[j*8+1])<<48 | uint64(bucket[j*8+2])<<40 | uint64(bucket[j*8+3])<<32 |
				uint64(bucket[j*8+4])<<24 | uint64(bucket[j*8+5])<<16 | uint64(bucket[j*8+6])<<8 | uint64(bucket[j*8+7])
			if got != v {
				t.Errorf("item %d band 0 hash %d = %d, want %d", i, j, got, v)
			}
		}
	}
}

func TestSectorBoundaries(t *testing.T) {
	for _, n := range []int{SectorSize - 1, SectorSize, SectorSize + 1, 2*SectorSize + 3} {
		n := n
		t.Run("", func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "boundary.mh")

			items := make([][]uint64, n)
			for i := range items {
				items[i] = []uint64{uint64(i)}
			}
			writeItems(t, path, 4, 1, 0, 1, items)

			r, err := Open(path)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer r.Close()

			if int(r.Header.NumItems) != n {
				t.Fatalf("NumItems = %d, want %d", r.Header.NumItems, n)
			}

			col, err := r.ReadBucketColumn(0)
			if err != nil {
				t.Fatalf("ReadBucketColumn(0): %v", err)
			}
			if len(col) != n*4 {
				t.Fatalf("ReadBucketColumn(0) length = %d, want %d", len(col), n*4)
			}
			for i := 0; i < n; i++ {
				got := uint32(col[i*4])<<24 | uint32(col[i*4+1])<<16 | uint32(col[i*4+2])<<8 | uint32(col[i*4+3])
				if got != uint32(i) {
					t.Fatalf("item %d = %d, want %d", i, got, i)
				}
			}
		})
	}
}

func TestOpenRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.mh")
	writeItems(t, path, 4, 1, 0, 1, [][]uint64{{1}})

	data := make([]byte, HeaderSize)
	copy(data, "XXXXXXXX")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Open(path); err == nil {
		t.Errorf("Open with corrupted magic: got nil error, want error")
	}
}
