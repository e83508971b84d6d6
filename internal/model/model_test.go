package model

import "testing"

func TestFlagValid(t *testing.T) {
	for _, f := range []Flag{FlagActive, FlagDuplicateTransient, FlagDuplicateCommitted} {
		if !f.Valid() {
			t.Errorf("Flag(%q).Valid() = false, want true", byte(f))
		}
	}
	if Flag('x').Valid() {
		t.Errorf("Flag('x').Valid() = true, want false")
	}
}

func TestFlagOnDisk(t *testing.T) {
	for _, f := range []Flag{FlagActive, FlagDuplicateCommitted} {
		if !f.OnDisk() {
			t.Errorf("Flag(%q).OnDisk() = false, want true", byte(f))
		}
	}
	if FlagDuplicateTransient.OnDisk() {
		t.Errorf("FlagDuplicateTransient.OnDisk() = true, want false (transient marks never persist)")
	}
}

func TestFlagIsDuplicate(t *testing.T) {
	if FlagActive.IsDuplicate() {
		t.Errorf("FlagActive.IsDuplicate() = true, want false")
	}
	if !FlagDuplicateTransient.IsDuplicate() {
		t.Errorf("FlagDuplicateTransient.IsDuplicate() = false, want true")
	}
	if !FlagDuplicateCommitted.IsDuplicate() {
		t.Errorf("FlagDuplicateCommitted.IsDuplicate() = false, want true")
	}
}

func TestPackUnpackGroupItemRoundTrip(t *testing.T) {
	cases := []struct {
		group uint16
		item  uint64
	}{
		{0, 0},
		{1, 1},
		{MaxGroup, 0},
		{0, maxItemIndex},
		{MaxGroup, maxItemIndex},
		{1234, 56789},
	}
	for _, c := range cases {
		packed, err := PackGroupItem(c.group, c.item)
		if err != nil {
			t.Fatalf("PackGroupItem(%d, %d): %v", c.group, c.item, err)
		}
		gotGroup, gotItem := UnpackGroupItem(packed)
		if gotGroup != c.group || gotItem != c.item {
			t.Errorf("round trip (%d, %d) = (%d, %d)", c.group, c.item, gotGroup, gotItem)
		}
	}
}

func TestPackGroupItemRejectsOversizedItem(t *testing.T) {
	if _, err := PackGroupItem(0, maxItemIndex+1); err == nil {
		t.Errorf("PackGroupItem with out-of-range item: got nil error, want error")
	}
}

func TestGroupItemLess(t *testing.T) {
	a := GroupItem{Group: 1, Item: 100}
	b := GroupItem{Group: 2, Item: 0}
	if !a.Less(b) {
		t.Errorf("(%v).Less(%v) = false, want true (lower group wins)", a, b)
	}
	c := GroupItem{Group: 1, Item: 50}
	if !c.Less(a) {
		t.Errorf("(%v).Less(%v) = false, want true (same group, lower item wins)", c, a)
	}
}
