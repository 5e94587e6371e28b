// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

// Package asntable is the asn -> Record mapping (spec.md §4.C). It is a
// small open-addressing hash table keyed by the raw uint32 ASN, hashed
// with a seeded non-cryptographic mixer rather than Go's built-in map
// (whose hash function and seed are runtime-internal and not something
// callers can pin or reason about). blainsmith.com/go/seahash is the
// mixer the corpus already reaches for when it needs a fast, seedable
// hash over raw bytes (grailbio-bio shards a concurrent map with
// seahash.Sum64 in encoding/bamprovider/concurrentmap.go).
package asntable

import (
	"encoding/binary"

	"blainsmith.com/go/seahash"
)

// tableSeed is mixed into every key before hashing so that the table's
// bucket distribution does not depend solely on the raw ASN value.
const tableSeed uint64 = 0x61736e64622d6462 // "asndb-db"

type slot struct {
	key      uint32
	value    Record
	occupied bool
}

// Table is an open-addressing hash table from ASN to Record.
type Table struct {
	slots []slot
	count int
}

// New returns an empty table.
func New() *Table {
	t := &Table{}
	t.slots = make([]slot, 16)
	return t
}

// Insert stores rec under rec.ASN, overwriting any prior entry for that
// ASN — the last row wins, which is intentional: the TSV ingestor may
// legitimately repeat an ASN across multiple ranges (spec.md §4.C).
func (t *Table) Insert(asn uint32, rec Record) {
	if t.count*2 >= len(t.slots) {
		t.grow()
	}
	t.insertSlot(asn, rec)
}

// Get returns the record for asn, if present.
func (t *Table) Get(asn uint32) (Record, bool) {
	i := t.probeStart(asn, len(t.slots))
	for {
		s := &t.slots[i]
		if !s.occupied {
			return Record{}, false
		}
		if s.key == asn {
			return s.value, true
		}
		i = (i + 1) % len(t.slots)
	}
}

// Len returns the number of distinct ASNs stored.
func (t *Table) Len() int {
	return t.count
}

// All calls fn for every (asn, record) pair currently stored. Iteration
// order is unspecified.
func (t *Table) All(fn func(asn uint32, rec Record)) {
	for _, s := range t.slots {
		if s.occupied {
			fn(s.key, s.value)
		}
	}
}

func (t *Table) insertSlot(asn uint32, rec Record) {
	i := t.probeStart(asn, len(t.slots))
	for {
		s := &t.slots[i]
		if !s.occupied {
			*s = slot{key: asn, value: rec, occupied: true}
			t.count++
			return
		}
		if s.key == asn {
			s.value = rec
			return
		}
		i = (i + 1) % len(t.slots)
	}
}

func (t *Table) grow() {
	old := t.slots
	t.slots = make([]slot, len(old)*2)
	t.count = 0
	for _, s := range old {
		if s.occupied {
			t.insertSlot(s.key, s.value)
		}
	}
}

func (t *Table) probeStart(asn uint32, tableSize int) int {
	return int(hashASN(asn) % uint64(tableSize))
}

func hashASN(asn uint32) uint64 {
	var buf [12]byte
	binary.LittleEndian.PutUint64(buf[0:8], tableSeed)
	binary.LittleEndian.PutUint32(buf[8:12], asn)
	return seahash.Sum64(buf[:])
}
