// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

package stage

import (
	"net/netip"
	"testing"
)

func TestStorePutWalkRoundTrip(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	v4rec := Record{
		Start:       netip.MustParseAddr("31.90.0.0"),
		End:         netip.MustParseAddr("31.91.255.255"),
		Country:     "NL",
		Description: "Example Network",
		Source:      "ripebulk",
	}
	v6rec := Record{
		Start:       netip.MustParseAddr("2001:db8::"),
		End:         netip.MustParseAddr("2001:db8:ffff:ffff:ffff:ffff:ffff:ffff"),
		Country:     "US",
		Description: "Example Network 6",
		Source:      "arinbulk",
	}
	if err := store.Put(v4rec); err != nil {
		t.Fatalf("Put v4: %v", err)
	}
	if err := store.Put(v6rec); err != nil {
		t.Fatalf("Put v6: %v", err)
	}

	var gotV4, gotV6 []Record
	if err := store.Walk(true, func(rec Record) error {
		gotV4 = append(gotV4, rec)
		return nil
	}); err != nil {
		t.Fatalf("Walk v4: %v", err)
	}
	if err := store.Walk(false, func(rec Record) error {
		gotV6 = append(gotV6, rec)
		return nil
	}); err != nil {
		t.Fatalf("Walk v6: %v", err)
	}

	if len(gotV4) != 1 || gotV4[0].Description != v4rec.Description || gotV4[0].End != v4rec.End {
		t.Fatalf("got v4 %+v, want %+v", gotV4, v4rec)
	}
	if len(gotV6) != 1 || gotV6[0].Description != v6rec.Description || gotV6[0].End != v6rec.End {
		t.Fatalf("got v6 %+v, want %+v", gotV6, v6rec)
	}
}

func TestStoreWalkEmptyFamily(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	if err := store.Put(Record{
		Start: netip.MustParseAddr("31.90.0.0"),
		End:   netip.MustParseAddr("31.91.255.255"),
	}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	var n int
	if err := store.Walk(false, func(Record) error {
		n++
		return nil
	}); err != nil {
		t.Fatalf("Walk v6: %v", err)
	}
	if n != 0 {
		t.Fatalf("got %d v6 records, want 0", n)
	}
}
