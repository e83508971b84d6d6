// Package model holds the shared types that flow between the sketcher,
// deduper, merger and applicator: item addressing, flag states and the
// packed (group, item) identifiers used inside index records.
package model

import "fmt"

// Flag is the per-item duplicate marker stored in a .dup file.
type Flag byte

const (
	// FlagActive marks an item as the first representative of its class.
	FlagActive Flag = ' '
	// FlagDuplicateTransient marks an item as a duplicate discovered
	// during the band currently being processed. It is promoted to
	// FlagDuplicateCommitted at the end of the band, after the band's
	// index file is written, so it never reaches a .dup file.
	FlagDuplicateTransient Flag = 'd'
	// FlagDuplicateCommitted marks an item as a duplicate of an earlier
	// item, decided by some prior or current band. Terminal: once set,
	// later bands must never clear it.
	FlagDuplicateCommitted Flag = 'D'
)

// Valid reports whether f is one of the three defined flag states.
func (f Flag) Valid() bool {
	switch f {
	case FlagActive, FlagDuplicateTransient, FlagDuplicateCommitted:
		return true
	default:
		return false
	}
}

// OnDisk reports whether f is one of the two states a .dup file is
// allowed to persist. FlagDuplicateTransient is valid only as an
// in-memory, mid-band marker and must never reach disk.
func (f Flag) OnDisk() bool {
	switch f {
	case FlagActive, FlagDuplicateCommitted:
		return true
	default:
		return false
	}
}

func (f Flag) String() string {
	switch f {
	case FlagActive:
		return "active"
	case FlagDuplicateTransient:
		return "duplicate(transient)"
	case FlagDuplicateCommitted:
		return "duplicate"
	default:
		return fmt.Sprintf("flag(%#x)", byte(f))
	}
}

// IsDuplicate reports whether f marks the item as excluded from output,
// in either its transient or committed form.
func (f Flag) IsDuplicate() bool {
	return f == FlagDuplicateTransient || f == FlagDuplicateCommitted
}

// maxGroup is the largest group id representable in the top 16 bits of a
// packed (group, item) value.
const maxGroup = 0xFFFF

// maxItemIndex is the largest item index representable in the bottom 48
// bits of a packed (group, item) value.
const maxItemIndex = 0x0000FFFFFFFFFFFF

// PackGroupItem combines a group id and an item index into the 8-byte
// value that follows the bucket bytes of an index record: the group
// occupies the high 16 bits, the item index the low 48 bits.
func PackGroupItem(group uint16, item uint64) (uint64, error) {
	if item > maxItemIndex {
		return 0, fmt.Errorf("item index %d exceeds the 48-bit range", item)
	}
	return (uint64(group) << 48) | (item & maxItemIndex), nil
}

// UnpackGroupItem splits a packed value back into its group id and item
// index.
func UnpackGroupItem(v uint64) (group uint16, item uint64) {
	return uint16(v >> 48), v & maxItemIndex
}

// MaxGroup is the largest group id the format can represent.
const MaxGroup = maxGroup

// GroupItem identifies a single item by the group it belongs to and its
// position within that group's shards.
type GroupItem struct {
	Group uint16
	Item  uint64
}

func (gi GroupItem) Less(other GroupItem) bool {
	if gi.Group != other.Group {
		return gi.Group < other.Group
	}
	return gi.Item < other.Item
}
