// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

// Package database is the facade of spec.md §4.D: it owns exactly one
// IPv4 range index, one IPv6 range index, and the ASN table, and
// coordinates ingest, query, save, and load.
//
// A Database is constructed empty, populated by exactly one ingest (TSV
// or snapshot load), then read-only for the rest of its life. Query
// never mutates and is safe for any number of concurrent readers once
// ingest or load has returned (spec.md §5).
package database

import (
	"io"
	"net/netip"

	"asndb/pkg/asntable"
	"asndb/pkg/ipkey"
	"asndb/pkg/rangeindex"
	"asndb/pkg/snapshot"
	"asndb/pkg/tsvingest"
)

// Database is the core facade: one v4 index, one v6 index, one ASN
// table. The zero value is not ready to use — construct with New.
type Database struct {
	v4  *rangeindex.Index[uint32]
	v6  *rangeindex.Index[ipkey.Key128]
	asn *asntable.Table
}

// New returns an empty Database ready for exactly one ingest or Load.
func New() *Database {
	return &Database{
		v4:  rangeindex.New(compareUint32),
		v6:  rangeindex.New(compareKey128),
		asn: asntable.New(),
	}
}

// IngestTSV reads r as the spec.md §4.E TSV format and populates the
// database. It is forgiving of malformed rows (they are skipped) but
// surfaces I/O errors from r unchanged.
func (d *Database) IngestTSV(r io.Reader) error {
	if err := tsvingest.Ingest(r, (*tsvSink)(d)); err != nil {
		return err
	}
	// Sort both indexes now, so that Query only ever reads them.
	d.v4.Entries()
	d.v6.Entries()
	return nil
}

// tsvSink adapts *Database to tsvingest.Sink without exposing IngestRow
// on the public API.
type tsvSink Database

func (s *tsvSink) IngestRow(row tsvingest.Row) {
	d := (*Database)(s)
	d.asn.Insert(row.ASN, asntable.Record{
		ASN:         row.ASN,
		Country:     row.Country,
		Description: row.Description,
	})

	if row.Start.Is4() {
		d.v4.Insert(ipv4ToUint32(row.Start), ipv4ToUint32(row.End), row.ASN)
	} else {
		d.v6.Insert(ipkey.FromBytes(row.Start.As16()), ipkey.FromBytes(row.End.As16()), row.ASN)
	}
}

// Query parses ipText as an IPv4 or IPv6 literal and returns the ASN
// record for the range containing it. Parse failure, a miss in the
// range index, or a dangling asn reference (referential-integrity
// violation on a corrupt snapshot) all yield (zero, false), never an
// error (spec.md §4.D, §7).
func (d *Database) Query(ipText string) (asntable.Record, bool) {
	ip, err := netip.ParseAddr(ipText)
	if err != nil {
		return asntable.Record{}, false
	}

	var asn uint32
	var found bool
	if ip.Is4() {
		e, ok := d.v4.Find(ipv4ToUint32(ip))
		asn, found = e.ASN, ok
	} else {
		e, ok := d.v6.Find(ipkey.FromBytes(ip.As16()))
		asn, found = e.ASN, ok
	}
	if !found {
		return asntable.Record{}, false
	}
	return d.asn.Get(asn)
}

// Save writes the database to w as a binary snapshot (spec.md §4.F).
func (d *Database) Save(w io.WriteSeeker) error {
	return snapshot.Write(w, d.asn, d.v4, d.v6)
}

// Load replaces d's contents with a snapshot read from r. The snapshot
// is decoded in full before d is touched, so on error d keeps its
// previous contents.
func (d *Database) Load(r io.ReadSeeker) error {
	snap, err := snapshot.Read(r)
	if err != nil {
		return err
	}
	d.asn = snap.ASNTable
	d.v4 = snap.IPv4
	d.v6 = snap.IPv6
	// Sort both indexes now, so that Query only ever reads them.
	d.v4.Entries()
	d.v6.Entries()
	return nil
}

// EnrichmentTarget names an ASN that still has no description after
// TSV ingest, along with one address drawn from its range index entry
// so a build-time enrichment source can be asked about it.
type EnrichmentTarget struct {
	ASN  uint32
	Repr netip.Addr
}

// MissingDescriptions returns one EnrichmentTarget per ASN whose
// description is still empty, for cmd/asndb-build to hand to an
// enrichment source after ingest and before Save.
func (d *Database) MissingDescriptions() []EnrichmentTarget {
	var targets []EnrichmentTarget

	d.asn.All(func(asn uint32, rec asntable.Record) {
		if rec.Description != "" {
			return
		}
		if repr, ok := d.representativeAddr(asn); ok {
			targets = append(targets, EnrichmentTarget{ASN: asn, Repr: repr})
		}
	})
	return targets
}

func (d *Database) representativeAddr(asn uint32) (netip.Addr, bool) {
	for _, e := range d.v4.Entries() {
		if e.ASN == asn {
			return uint32ToIPv4(e.Start), true
		}
	}
	for _, e := range d.v6.Entries() {
		if e.ASN == asn {
			return netip.AddrFrom16(e.Start.Bytes()), true
		}
	}
	return netip.Addr{}, false
}

// EnrichMissingDescription is a build-time-only helper for
// cmd/asndb-build: given a representative address from an enrichment
// source's range, it backfills the covering ASN's description (and
// country, if still unknown) when the TSV ingest left them empty. It
// has no effect once a gap is already filled, so when several
// enrichment sources are layered, the first one to supply a value for
// an ASN wins and later ones cannot replace it. It must
// only be called during the build's single ingest phase, before Save —
// the core's lifecycle contract (construct, ingest once, freeze) is
// unchanged; this only extends what counts as "ingest" for a builder
// that consults more than one source.
func (d *Database) EnrichMissingDescription(repr netip.Addr, country [2]byte, description string) bool {
	var asn uint32
	var found bool
	if repr.Is4() {
		e, ok := d.v4.Find(ipv4ToUint32(repr))
		asn, found = e.ASN, ok
	} else {
		e, ok := d.v6.Find(ipkey.FromBytes(repr.As16()))
		asn, found = e.ASN, ok
	}
	if !found {
		return false
	}

	rec, ok := d.asn.Get(asn)
	if !ok {
		return false
	}

	changed := false
	if rec.Description == "" && description != "" {
		rec.Description = description
		changed = true
	}
	if rec.Country == ([2]byte{}) && country != ([2]byte{}) {
		rec.Country = country
		changed = true
	}
	if changed {
		d.asn.Insert(asn, rec)
	}
	return changed
}

// Stats summarizes the database's current contents, for the external
// timing/benchmark harnesses spec.md §1 treats as out-of-scope
// collaborators.
type Stats struct {
	ASNCount  int
	IPv4Count int
	IPv6Count int
}

// Stats returns the current record counts.
func (d *Database) Stats() Stats {
	return Stats{
		ASNCount:  d.asn.Len(),
		IPv4Count: d.v4.Len(),
		IPv6Count: d.v6.Len(),
	}
}

func ipv4ToUint32(ip netip.Addr) uint32 {
	b := ip.As4()
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func uint32ToIPv4(v uint32) netip.Addr {
	return netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

func compareUint32(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareKey128(a, b ipkey.Key128) int {
	return a.Compare(b)
}
