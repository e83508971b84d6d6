package dedup

import (
	"fmt"
	"os"
	"path/filepath"

	"doubri/internal/model"
)

// readFlagFile loads a .dup flag file, validating that it carries only
// the on-disk flag alphabet ({' ', 'D'}; the transient 'd' mark is an
// in-memory-only state and is never written to a flag file, so one
// found on disk means the file is corrupt or was interrupted mid-write).
// A group deduper only resumes flags from a previous run's file when it
// is explicitly asked to; the CLI's default path starts every run with
// a fresh all-active flag array, matching the original tool's main().
func readFlagFile(path string, numItems uint64) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dedup: failed to read flag file %s: %w", path, err)
	}
	if uint64(len(data)) != numItems {
		return nil, fmt.Errorf("dedup: flag file %s has %d items, expected %d", path, len(data), numItems)
	}
	for i, b := range data {
		if !model.Flag(b).OnDisk() {
			return nil, fmt.Errorf("dedup: flag file %s has invalid on-disk flag byte %#x at item %d", path, b, i)
		}
	}
	return data, nil
}

// writeFlagFile writes flags to path atomically: the data lands in a
// temp file in the same directory first, and only an fsync'd rename
// makes it visible at path, so a cancelled or failed run never leaves a
// corrupt or half-written flag file in place of a previous good one.
func writeFlagFile(path string, flags []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("dedup: failed to create temp flag file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(flags); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("dedup: failed to write flag data: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("dedup: failed to sync flag file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("dedup: failed to close flag file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("dedup: failed to rename flag file into place: %w", err)
	}
	return nil
}

// countFlag returns the number of bytes in flags equal to want.
func countFlag(flags []byte, want model.Flag) uint64 {
	var n uint64
	for _, b := range flags {
		if model.Flag(b) == want {
			n++
		}
	}
	return n
}
