// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

package asntable

import "testing"

func TestInsertGet(t *testing.T) {
	tb := New()
	tb.Insert(13335, Record{ASN: 13335, Country: [2]byte{'U', 'S'}, Description: "CLOUDFLARENET"})

	rec, ok := tb.Get(13335)
	if !ok {
		t.Fatal("expected record to be present")
	}
	if rec.Description != "CLOUDFLARENET" || rec.CountryString() != "US" {
		t.Fatalf("got %+v", rec)
	}
}

func TestGetMissing(t *testing.T) {
	tb := New()
	if _, ok := tb.Get(1); ok {
		t.Fatal("expected no record for unknown ASN")
	}
}

func TestLastWriteWins(t *testing.T) {
	tb := New()
	tb.Insert(100, Record{ASN: 100, Description: "FIRST"})
	tb.Insert(100, Record{ASN: 100, Description: "SECOND"})

	rec, ok := tb.Get(100)
	if !ok || rec.Description != "SECOND" {
		t.Fatalf("got %+v, want description SECOND", rec)
	}
	if tb.Len() != 1 {
		t.Fatalf("got %d entries, want 1", tb.Len())
	}
}

func TestGrowthPreservesEntries(t *testing.T) {
	tb := New()
	const n = 500
	for i := uint32(0); i < n; i++ {
		tb.Insert(i, Record{ASN: i, Description: "D"})
	}
	if tb.Len() != n {
		t.Fatalf("got %d entries, want %d", tb.Len(), n)
	}
	for i := uint32(0); i < n; i++ {
		if _, ok := tb.Get(i); !ok {
			t.Fatalf("missing ASN %d after growth", i)
		}
	}
}

func TestCountryRendering(t *testing.T) {
	unknown := Record{Country: [2]byte{0, 0}}
	if got := unknown.CountryString(); got != "--" {
		t.Fatalf("got %q, want --", got)
	}
	us := Record{Country: [2]byte{'U', 'S'}}
	if got := us.CountryString(); got != "US" {
		t.Fatalf("got %q, want US", got)
	}
}
