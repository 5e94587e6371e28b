// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

package rangeindex

import "testing"

func cmpUint32(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func TestFindWithinRange(t *testing.T) {
	idx := New(cmpUint32)
	idx.Insert(100, 200, 1)
	idx.Insert(300, 400, 2)

	tests := []struct {
		needle  uint32
		wantASN uint32
		wantOK  bool
	}{
		{150, 1, true},
		{100, 1, true},
		{200, 1, true},
		{250, 0, false},
		{300, 2, true},
		{400, 2, true},
		{401, 0, false},
		{99, 0, false},
	}

	for _, tt := range tests {
		e, ok := idx.Find(tt.needle)
		if ok != tt.wantOK {
			t.Errorf("Find(%d): ok=%v, want %v", tt.needle, ok, tt.wantOK)
			continue
		}
		if ok && e.ASN != tt.wantASN {
			t.Errorf("Find(%d): asn=%d, want %d", tt.needle, e.ASN, tt.wantASN)
		}
	}
}

func TestFindEmptyIndex(t *testing.T) {
	idx := New(cmpUint32)
	if _, ok := idx.Find(42); ok {
		t.Fatal("expected no match on empty index")
	}
}

func TestInsertOutOfOrder(t *testing.T) {
	idx := New(cmpUint32)
	idx.Insert(300, 400, 2)
	idx.Insert(100, 200, 1)
	idx.Insert(500, 600, 3)

	e, ok := idx.Find(350)
	if !ok || e.ASN != 2 {
		t.Fatalf("Find(350) = %v, %v; want asn 2", e, ok)
	}

	entries := idx.Entries()
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Start > entries[i].Start {
			t.Fatalf("Entries() not sorted ascending by Start: %v", entries)
		}
	}
}

func TestFindGapBetweenRanges(t *testing.T) {
	idx := New(cmpUint32)
	idx.Insert(10, 20, 1)
	idx.Insert(30, 40, 2)

	if _, ok := idx.Find(25); ok {
		t.Fatal("expected no match in the gap between ranges")
	}
	if _, ok := idx.Find(21); ok {
		t.Fatal("expected no match immediately after first range")
	}
	if _, ok := idx.Find(29); ok {
		t.Fatal("expected no match immediately before second range")
	}
}
