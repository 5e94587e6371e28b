// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

// Package rangeindex is an ordered, interval-based set over integer IP
// keys. It resolves a point query in O(log n) by locating the entry with
// the greatest start <= needle and checking that its end still covers
// the needle — one ordered set of interval entries, rather than two
// parallel maps keyed on range start and range end.
//
// The index does not enforce non-overlap between entries (spec.md
// §4.B): callers guarantee that invariant during ingest.
package rangeindex

import "sort"

// Entry is one (start, end, asn) range. Entries are uniquely identified
// by Start within an Index.
type Entry[K any] struct {
	Start K
	End   K
	ASN   uint32
}

// Index is a range index parametric over the key type K (uint32 for
// IPv4, ipkey.Key128 for IPv6). It is built with a three-way comparator
// for K, since Go generics have no notion of a user-ordered type beyond
// cmp.Ordered, which Key128 does not satisfy.
type Index[K any] struct {
	cmp     func(a, b K) int
	entries []Entry[K]
	sorted  bool
}

// New returns an empty index that orders keys with cmp(a, b): negative
// if a < b, zero if equal, positive if a > b.
func New[K any](cmp func(a, b K) int) *Index[K] {
	return &Index[K]{cmp: cmp}
}

// Insert adds a range entry. If an entry with the same Start already
// exists, behavior is unspecified — the caller guarantees unique starts
// (spec.md §4.B).
func (idx *Index[K]) Insert(start, end K, asn uint32) {
	idx.entries = append(idx.entries, Entry[K]{Start: start, End: end, ASN: asn})
	idx.sorted = false
}

// Len returns the number of entries currently in the index.
func (idx *Index[K]) Len() int {
	return len(idx.entries)
}

// Find returns the entry e with the greatest e.Start <= needle, provided
// e.End >= needle too. It returns (zero, false) when no such entry
// exists.
func (idx *Index[K]) Find(needle K) (Entry[K], bool) {
	idx.ensureSorted()

	// Find the first index i such that entries[i].Start > needle; the
	// candidate predecessor is i-1.
	i := sort.Search(len(idx.entries), func(i int) bool {
		return idx.cmp(idx.entries[i].Start, needle) > 0
	})
	if i == 0 {
		return Entry[K]{}, false
	}
	e := idx.entries[i-1]
	if idx.cmp(e.End, needle) < 0 {
		return Entry[K]{}, false
	}
	return e, true
}

// Entries returns all entries in ascending-Start order, the order the
// binary codec writes them in.
func (idx *Index[K]) Entries() []Entry[K] {
	idx.ensureSorted()
	return idx.entries
}

func (idx *Index[K]) ensureSorted() {
	if idx.sorted {
		return
	}
	sort.Slice(idx.entries, func(i, j int) bool {
		return idx.cmp(idx.entries[i].Start, idx.entries[j].Start) < 0
	})
	idx.sorted = true
}
