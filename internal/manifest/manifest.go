// Package manifest reads and writes the .src source-shard manifest that
// the group deduper emits and the applicator consumes to locate a
// target shard's byte range within a flag file.
package manifest

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Entry is one "{num_items}\t{filename}" line of a manifest, recording
// how many flag-file bytes belong to one input shard.
type Entry struct {
	NumItems uint64
	Filename string
}

// Write writes a manifest: a "#G {group}" header line followed by one
// "{num_items}\t{filename}" line per entry, in the order supplied.
func Write(path string, group uint16, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("manifest: failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := fmt.Fprintf(w, "#G %d\n", group); err != nil {
		return fmt.Errorf("manifest: failed to write header: %w", err)
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%d\t%s\n", e.NumItems, e.Filename); err != nil {
			return fmt.Errorf("manifest: failed to write entry for %s: %w", e.Filename, err)
		}
	}
	return w.Flush()
}

// Read parses a manifest, returning the group id from its "#G" header
// line and the per-shard entries that follow.
func Read(path string) (group uint16, entries []Entry, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, fmt.Errorf("manifest: failed to open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	if !scanner.Scan() {
		return 0, nil, fmt.Errorf("manifest: %s is empty", path)
	}
	header := scanner.Text()
	fields := strings.Fields(header)
	if len(fields) != 2 || fields[0] != "#G" {
		return 0, nil, fmt.Errorf("manifest: %s has malformed header %q", path, header)
	}
	g, err := strconv.ParseUint(fields[1], 10, 16)
	if err != nil {
		return 0, nil, fmt.Errorf("manifest: %s has invalid group id %q: %w", path, fields[1], err)
	}
	group = uint16(g)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		tabAt := strings.IndexByte(line, '\t')
		if tabAt < 0 {
			return 0, nil, fmt.Errorf("manifest: %s has malformed entry %q", path, line)
		}
		n, err := strconv.ParseUint(line[:tabAt], 10, 64)
		if err != nil {
			return 0, nil, fmt.Errorf("manifest: %s has invalid item count in %q: %w", path, line, err)
		}
		entries = append(entries, Entry{NumItems: n, Filename: line[tabAt+1:]})
	}
	if err := scanner.Err(); err != nil {
		return 0, nil, fmt.Errorf("manifest: failed to read %s: %w", path, err)
	}

	return group, entries, nil
}

// Lookup finds the byte range [begin, begin+size) that entry target
// owns within a flag file, given the manifest's entries in order. If
// strip is true, both the manifest's recorded filename and target are
// compared by base name only (the applicator's --strip option).
// Lookup fails if target is missing or appears more than once.
func Lookup(entries []Entry, target string, strip bool) (begin, size uint64, err error) {
	norm := func(s string) string { return s }
	if strip {
		norm = func(s string) string {
			if i := strings.LastIndexByte(s, '/'); i >= 0 {
				return s[i+1:]
			}
			return s
		}
	}

	wantedTarget := norm(target)
	var found bool
	var cursor uint64
	for _, e := range entries {
		if norm(e.Filename) == wantedTarget {
			if found {
				return 0, 0, fmt.Errorf("manifest: target %q appears more than once", target)
			}
			found = true
			begin, size = cursor, e.NumItems
		}
		cursor += e.NumItems
	}
	if !found {
		return 0, 0, fmt.Errorf("manifest: target %q not found", target)
	}
	return begin, size, nil
}

// TotalItems sums the item counts across every manifest entry.
func TotalItems(entries []Entry) uint64 {
	var total uint64
	for _, e := range entries {
		total += e.NumItems
	}
	return total
}
