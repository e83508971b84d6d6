package index

import (
	"io"
	"path/filepath"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "band.idx")

	w, err := Create(path, 7, 4)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	w.SetTotalItems(10)

	records := []struct {
		group uint16
		item  uint64
		bkt   []byte
	}{
		{0, 1, []byte{0, 0, 0, 1}},
		{0, 3, []byte{0, 0, 0, 2}},
		{1, 0, []byte{0, 0, 0, 3}},
	}
	for _, r := range records {
		if err := w.WriteItem(r.group, r.item, r.bkt); err != nil {
			t.Fatalf("WriteItem: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if r.Header.BucketNumber != 7 {
		t.Errorf("BucketNumber = %d, want 7", r.Header.BucketNumber)
	}
	if r.Header.NumTotalItems != 10 {
		t.Errorf("NumTotalItems = %d, want 10", r.Header.NumTotalItems)
	}
	if r.Header.NumActiveItems != uint64(len(records)) {
		t.Errorf("NumActiveItems = %d, want %d", r.Header.NumActiveItems, len(records))
	}

	for i, want := range records {
		got, err := r.Next()
		if err != nil {
			t.Fatalf("Next() at %d: %v", i, err)
		}
		if got.Group != want.group || got.Item != want.item {
			t.Errorf("record %d = (%d, %d), want (%d, %d)", i, got.Group, got.Item, want.group, want.item)
		}
		if string(got.Bucket) != string(want.bkt) {
			t.Errorf("record %d bucket = %v, want %v", i, got.Bucket, want.bkt)
		}
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("Next() past the end = %v, want io.EOF", err)
	}
}

func TestHeaderValidate(t *testing.T) {
	h := Header{BytesPerBucket: 0}
	if err := h.Validate(); err == nil {
		t.Errorf("Validate with zero BytesPerBucket: got nil error, want error")
	}

	h = Header{BytesPerBucket: 4, NumTotalItems: 2, NumActiveItems: 3}
	if err := h.Validate(); err == nil {
		t.Errorf("Validate with NumActiveItems > NumTotalItems: got nil error, want error")
	}
}

func TestPath(t *testing.T) {
	got := Path("group0", 42)
	want := "group0.idx.00042"
	if got != want {
		t.Errorf("Path(group0, 42) = %q, want %q", got, want)
	}
}
