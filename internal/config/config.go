// Package config holds the shared, validated run parameters every
// binary in the pipeline derives its flag defaults from, following the
// teacher's Default()/Normalize() idiom but applied to sketching and
// deduplication parameters instead of storage-engine parameters.
package config

import "fmt"

// Sketch holds the sketcher's tunables.
type Sketch struct {
	Ngram         int
	NumHashValues uint32
	Begin         uint32
	End           uint32
	TextField     string
	HashProvider  string
}

// DefaultSketch returns the sketcher's documented defaults.
func DefaultSketch() Sketch {
	return Sketch{
		Ngram:         5,
		NumHashValues: 20,
		Begin:         0,
		End:           40,
		TextField:     "text",
		HashProvider:  "xxh3",
	}
}

// Normalize fills in zero-valued Ngram, NumHashValues, TextField and
// HashProvider fields with their defaults (Begin and End are kept as
// given) and rejects an inverted band range.
func (s *Sketch) Normalize() error {
	d := DefaultSketch()
	if s.Ngram <= 0 {
		s.Ngram = d.Ngram
	}
	if s.NumHashValues == 0 {
		s.NumHashValues = d.NumHashValues
	}
	if s.TextField == "" {
		s.TextField = d.TextField
	}
	if s.HashProvider == "" {
		s.HashProvider = d.HashProvider
	}
	if s.Begin > s.End {
		return fmt.Errorf("band range [%d, %d) is inverted", s.Begin, s.End)
	}
	return nil
}

// Dedup holds the group deduper's tunables.
type Dedup struct {
	Group           uint32
	SaveIndex       bool
	MaxBucketBytes  int64
	LogLevelConsole string
	LogLevelFile    string
}

// DefaultDedup returns the deduper's documented defaults.
func DefaultDedup() Dedup {
	return Dedup{
		SaveIndex: true,
		// 8 GiB: a deliberately explicit budget knob rather than host RAM
		// introspection (see DESIGN.md for why no pack library is used
		// here).
		MaxBucketBytes:  8 << 30,
		LogLevelConsole: "warning",
		LogLevelFile:    "info",
	}
}

// Normalize fills in zero-valued fields and validates the group id
// range the on-disk format can represent (16 bits).
func (d *Dedup) Normalize() error {
	def := DefaultDedup()
	if d.MaxBucketBytes <= 0 {
		d.MaxBucketBytes = def.MaxBucketBytes
	}
	if d.LogLevelConsole == "" {
		d.LogLevelConsole = def.LogLevelConsole
	}
	if d.LogLevelFile == "" {
		d.LogLevelFile = def.LogLevelFile
	}
	if d.Group > 0xFFFF {
		return fmt.Errorf("group order must be in the range [0, 65535], got %d", d.Group)
	}
	return nil
}

// Merge holds the k-way merger's tunables.
type Merge struct {
	Begin, End      uint32
	Output          string
	LogLevelConsole string
	LogLevelFile    string
}

// DefaultMerge returns the merger's documented defaults.
func DefaultMerge() Merge {
	return Merge{
		Begin:           0,
		End:             40,
		LogLevelConsole: "warning",
		LogLevelFile:    "off",
	}
}

// Normalize fills in zero-valued fields and rejects an inverted range.
func (m *Merge) Normalize() error {
	d := DefaultMerge()
	if m.LogLevelConsole == "" {
		m.LogLevelConsole = d.LogLevelConsole
	}
	if m.LogLevelFile == "" {
		m.LogLevelFile = d.LogLevelFile
	}
	if m.Begin > m.End {
		return fmt.Errorf("band range [%d, %d) is inverted", m.Begin, m.End)
	}
	if m.Output == "" {
		return fmt.Errorf("--output is required")
	}
	return nil
}
