package dedup

import (
	"os"
	"path/filepath"
	"testing"

	"doubri/internal/model"
)

func TestReadFlagFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.dup")
	want := []byte{' ', 'D', ' ', 'D'}

	if err := writeFlagFile(path, want); err != nil {
		t.Fatalf("writeFlagFile: %v", err)
	}
	got, err := readFlagFile(path, uint64(len(want)))
	if err != nil {
		t.Fatalf("readFlagFile: %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("readFlagFile = %v, want %v", got, want)
	}
}

func TestReadFlagFileRejectsTransientFlag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corrupt.dup")
	if err := os.WriteFile(path, []byte{' ', 'd', 'D'}, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := readFlagFile(path, 3); err == nil {
		t.Errorf("readFlagFile with a transient 'd' byte: got nil error, want error")
	}
}

func TestReadFlagFileRejectsUnknownByte(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "garbage.dup")
	if err := os.WriteFile(path, []byte{' ', 'X'}, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := readFlagFile(path, 2); err == nil {
		t.Errorf("readFlagFile with an unrecognized byte: got nil error, want error")
	}
}

func TestReadFlagFileRejectsLengthMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "short.dup")
	if err := os.WriteFile(path, []byte{' ', ' '}, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := readFlagFile(path, 3); err == nil {
		t.Errorf("readFlagFile with fewer bytes than numItems: got nil error, want error")
	}
}

func TestCountFlag(t *testing.T) {
	flags := []byte{' ', 'D', ' ', 'D', 'D'}
	if n := countFlag(flags, model.FlagDuplicateCommitted); n != 3 {
		t.Errorf("countFlag(FlagDuplicateCommitted) = %d, want 3", n)
	}
	if n := countFlag(flags, model.FlagActive); n != 2 {
		t.Errorf("countFlag(FlagActive) = %d, want 2", n)
	}
}
