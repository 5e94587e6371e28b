// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

// Package stage is the builder-side staging store: a place to
// accumulate candidate range records from more than one registry bulk
// dump (RIPE and ARIN) before they are flattened into a
// database.Database and written out as one binary snapshot. Records are
// keyed by start address, so a later Put with the same start replaces
// the earlier record; no other deduplication is done.
//
// It is not part of the core's contract (spec.md §1/§6 treat anything
// beyond TSV ingest and the snapshot codec as an external collaborator)
// — pkg/database never imports this package. It exists so
// cmd/asndb-build has somewhere to put data gathered from slower,
// multi-source builds without holding the whole thing in a Go slice.
//
// Adapted from pkg/iporgdb/db.go (LevelDB open options, snappy
// compression) and pkg/iptoasn/store.go (msgpack-encoded values keyed
// by range start) in the teacher repo.
package stage

import (
	"fmt"
	"net/netip"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	prefixV4 = "r4:"
	prefixV6 = "r6:"
)

// Record is one candidate range, as produced by any enrichment source.
// Source is a label set by the producer and stored with the record;
// regbulk.StageAll sets "ripebulk" on every record it stages, including
// those parsed from an ARIN dump, and cmd/asndb-build's flatten pass
// does not read it.
type Record struct {
	Start       netip.Addr
	End         netip.Addr
	ASN         uint32
	Country     string
	Description string
	Source      string
}

type wireRecord struct {
	EndBytes    []byte
	ASN         uint32
	Country     string
	Description string
	Source      string
}

// Store is a LevelDB-backed staging area for Records, ordered by range
// start within each IP family.
type Store struct {
	db *leveldb.DB
}

// Open opens or creates a staging store at path, with snappy block
// compression enabled — the same option the teacher's iporgdb.Open
// sets for exactly this reason: build-time intermediate data is
// write-once, read-sequentially, and benefits from cheap compression
// more than from write latency.
func Open(path string) (*Store, error) {
	opts := &opt.Options{
		Compression: opt.SnappyCompression,
		WriteBuffer: 32 * 1024 * 1024,
	}
	db, err := leveldb.OpenFile(path, opts)
	if err != nil {
		return nil, fmt.Errorf("stage: open: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying LevelDB handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stages rec, keyed by its start address so that a later flatten
// pass can walk entries in ascending order per family.
func (s *Store) Put(rec Record) error {
	key := encodeKey(rec.Start)
	value, err := msgpack.Marshal(wireRecord{
		EndBytes:    rec.End.AsSlice(),
		ASN:         rec.ASN,
		Country:     rec.Country,
		Description: rec.Description,
		Source:      rec.Source,
	})
	if err != nil {
		return fmt.Errorf("stage: marshal record: %w", err)
	}
	return s.db.Put(key, value, nil)
}

// Walk calls fn for every staged record of the given family, in
// ascending start-address order.
func (s *Store) Walk(v4 bool, fn func(Record) error) error {
	prefix := prefixV6
	if v4 {
		prefix = prefixV4
	}
	iter := s.db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer iter.Release()

	for iter.Next() {
		start, err := decodeKey(iter.Key())
		if err != nil {
			continue
		}
		var w wireRecord
		if err := msgpack.Unmarshal(iter.Value(), &w); err != nil {
			return fmt.Errorf("stage: unmarshal record: %w", err)
		}
		end, ok := netip.AddrFromSlice(w.EndBytes)
		if !ok {
			continue
		}
		if err := fn(Record{
			Start:       start,
			End:         end,
			ASN:         w.ASN,
			Country:     w.Country,
			Description: w.Description,
			Source:      w.Source,
		}); err != nil {
			return err
		}
	}
	return iter.Error()
}

func encodeKey(ip netip.Addr) []byte {
	if ip.Is4() {
		key := make([]byte, len(prefixV4)+4)
		copy(key, prefixV4)
		b := ip.As4()
		copy(key[len(prefixV4):], b[:])
		return key
	}
	key := make([]byte, len(prefixV6)+16)
	copy(key, prefixV6)
	b := ip.As16()
	copy(key[len(prefixV6):], b[:])
	return key
}

func decodeKey(key []byte) (netip.Addr, error) {
	switch {
	case len(key) == len(prefixV4)+4 && string(key[:len(prefixV4)]) == prefixV4:
		addr, ok := netip.AddrFromSlice(key[len(prefixV4):])
		if !ok {
			return netip.Addr{}, fmt.Errorf("stage: invalid v4 key")
		}
		return addr, nil
	case len(key) == len(prefixV6)+16 && string(key[:len(prefixV6)]) == prefixV6:
		addr, ok := netip.AddrFromSlice(key[len(prefixV6):])
		if !ok {
			return netip.Addr{}, fmt.Errorf("stage: invalid v6 key")
		}
		return addr, nil
	default:
		return netip.Addr{}, fmt.Errorf("stage: unrecognized key prefix")
	}
}
