// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

// Package snapshot implements the self-describing binary codec
// (spec.md §4.F): a fixed 1024-byte header followed by ASN records, v4
// range entries, v6 range entries, and the string pool.
//
// Structural integers (header fields, range-entry start/end/asn) are
// big-endian. The 8-byte description token packed inside each ASN row
// is little-endian — a historical wart inherited from the original
// implementation that must be preserved byte-for-byte; see DESIGN.md.
// All big-endian encoding lives in this file; the little-endian token
// encoding lives in pkg/stringpool (encodeToken/decodeToken), which this
// file only copies in and out of the ASN rows as opaque bytes.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"asndb/pkg/asntable"
	"asndb/pkg/ipkey"
	"asndb/pkg/rangeindex"
	"asndb/pkg/stringpool"
)

const (
	headerSize = 1024

	signature      = "_IPRANGECACHE_DB"
	currentVersion = uint16(2)

	offSignature   = 0
	offVersion     = 16
	offPoolOffset  = 18
	offPoolLength  = 22
	offReserved    = 26
	offASNCount    = 30
	offIPv4Count   = 34
	offIPv6Count   = 38
	headerUsed     = 42
	asnRecordSize  = 4 + 2 + stringpool.TokenSize // 14
	ipv4EntrySize  = 4 + 4 + 4                     // 12
	ipv6EntrySize  = 16 + 16 + 4                   // 36
)

// headerPadding asserts at compile time that the header's structural
// fields (up to headerUsed) fit within the fixed 1024-byte header; the
// array type's length would be negative and refuse to compile if a
// future field pushed offIPv6Count+4 past headerSize.
type headerPadding [headerSize - headerUsed]byte

// ErrInvalidSignature is returned by Read when the file does not begin
// with the expected 16-byte signature.
var ErrInvalidSignature = fmt.Errorf("snapshot: invalid signature")

// ErrUnsupportedVersion is returned by Read when the header's version
// field does not match the version this codec writes. There is no
// best-effort fallback (spec.md §4.F).
var ErrUnsupportedVersion = fmt.Errorf("snapshot: unsupported version")

// Snapshot is the decoded, in-memory form of a loaded binary snapshot:
// one ASN table and the two range indexes, ready to be adopted by a
// database.Database.
type Snapshot struct {
	ASNTable *asntable.Table
	IPv4     *rangeindex.Index[uint32]
	IPv6     *rangeindex.Index[ipkey.Key128]
}

// Write encodes asnTable, v4, and v6 to w following the write protocol
// in spec.md §4.F: header with zeroed pool offset/length, counts, then
// padding, then ASN rows (packing descriptions through a fresh string
// pool), then v4 entries, then v6 entries, then the pool bytes, then a
// patch of the pool offset/length back into the header.
func Write(w io.WriteSeeker, asnTable *asntable.Table, v4 *rangeindex.Index[uint32], v6 *rangeindex.Index[ipkey.Key128]) error {
	var header [headerSize]byte
	copy(header[offSignature:], signature)
	binary.BigEndian.PutUint16(header[offVersion:], currentVersion)
	binary.BigEndian.PutUint32(header[offASNCount:], uint32(asnTable.Len()))
	binary.BigEndian.PutUint32(header[offIPv4Count:], uint32(v4.Len()))
	binary.BigEndian.PutUint32(header[offIPv6Count:], uint32(v6.Len()))
	// offPoolOffset, offPoolLength, offReserved, and the padding tail are
	// left zero and patched (or left zero, for the reserved word) below.

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("snapshot: write header: %w", err)
	}

	pool := stringpool.New()

	var asnErr error
	asnTable.All(func(asn uint32, rec asntable.Record) {
		if asnErr != nil {
			return
		}
		var row [asnRecordSize]byte
		binary.BigEndian.PutUint32(row[0:4], asn)
		row[4] = rec.Country[0]
		row[5] = rec.Country[1]
		tok := pool.Pack(rec.Description)
		copy(row[6:6+stringpool.TokenSize], tok[:])
		if _, err := w.Write(row[:]); err != nil {
			asnErr = fmt.Errorf("snapshot: write asn row: %w", err)
		}
	})
	if asnErr != nil {
		return asnErr
	}

	for _, e := range v4.Entries() {
		var row [ipv4EntrySize]byte
		binary.BigEndian.PutUint32(row[0:4], e.Start)
		binary.BigEndian.PutUint32(row[4:8], e.End)
		binary.BigEndian.PutUint32(row[8:12], e.ASN)
		if _, err := w.Write(row[:]); err != nil {
			return fmt.Errorf("snapshot: write ipv4 entry: %w", err)
		}
	}

	for _, e := range v6.Entries() {
		var row [ipv6EntrySize]byte
		startBytes := e.Start.Bytes()
		endBytes := e.End.Bytes()
		copy(row[0:16], startBytes[:])
		copy(row[16:32], endBytes[:])
		binary.BigEndian.PutUint32(row[32:36], e.ASN)
		if _, err := w.Write(row[:]); err != nil {
			return fmt.Errorf("snapshot: write ipv6 entry: %w", err)
		}
	}

	poolOffset, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("snapshot: tell pool offset: %w", err)
	}
	poolBytes := pool.Save()
	if _, err := w.Write(poolBytes); err != nil {
		return fmt.Errorf("snapshot: write string pool: %w", err)
	}

	if _, err := w.Seek(offPoolOffset, io.SeekStart); err != nil {
		return fmt.Errorf("snapshot: seek to patch pool offset: %w", err)
	}
	var patch [8]byte
	binary.BigEndian.PutUint32(patch[0:4], uint32(poolOffset))
	binary.BigEndian.PutUint32(patch[4:8], uint32(len(poolBytes)))
	if _, err := w.Write(patch[:]); err != nil {
		return fmt.Errorf("snapshot: patch pool offset/length: %w", err)
	}

	return nil
}

// Read decodes a snapshot from r following the read protocol in
// spec.md §4.F. It rejects files with an unrecognized signature or
// version; it does not validate referential integrity between ranges
// and ASN rows (spec.md §9 "Referential integrity on load").
func Read(r io.ReadSeeker) (*Snapshot, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("snapshot: read header: %w", err)
	}

	if !bytes.Equal(header[offSignature:offSignature+16], []byte(signature)) {
		return nil, ErrInvalidSignature
	}
	if version := binary.BigEndian.Uint16(header[offVersion:]); version != currentVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrUnsupportedVersion, version, currentVersion)
	}

	asnCount := binary.BigEndian.Uint32(header[offASNCount:])
	ipv4Count := binary.BigEndian.Uint32(header[offIPv4Count:])
	ipv6Count := binary.BigEndian.Uint32(header[offIPv6Count:])
	poolOffset := binary.BigEndian.Uint32(header[offPoolOffset:])
	poolLength := binary.BigEndian.Uint32(header[offPoolLength:])

	if _, err := r.Seek(int64(poolOffset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("snapshot: seek to string pool: %w", err)
	}
	poolBuf := make([]byte, poolLength)
	if _, err := io.ReadFull(r, poolBuf); err != nil {
		return nil, fmt.Errorf("snapshot: read string pool: %w", err)
	}
	pool := stringpool.Load(poolBuf)

	if _, err := r.Seek(headerSize, io.SeekStart); err != nil {
		return nil, fmt.Errorf("snapshot: seek to body: %w", err)
	}

	asnTable := asntable.New()
	var row [asnRecordSize]byte
	for i := uint32(0); i < asnCount; i++ {
		if _, err := io.ReadFull(r, row[:]); err != nil {
			return nil, fmt.Errorf("snapshot: read asn row %d: %w", i, err)
		}
		asn := binary.BigEndian.Uint32(row[0:4])
		var country [2]byte
		country[0], country[1] = row[4], row[5]
		var tok [stringpool.TokenSize]byte
		copy(tok[:], row[6:6+stringpool.TokenSize])
		asnTable.Insert(asn, asntable.Record{
			ASN:         asn,
			Country:     country,
			Description: pool.Unpack(tok),
		})
	}

	v4 := rangeindex.New(compareUint32)
	var v4row [ipv4EntrySize]byte
	for i := uint32(0); i < ipv4Count; i++ {
		if _, err := io.ReadFull(r, v4row[:]); err != nil {
			return nil, fmt.Errorf("snapshot: read ipv4 entry %d: %w", i, err)
		}
		start := binary.BigEndian.Uint32(v4row[0:4])
		end := binary.BigEndian.Uint32(v4row[4:8])
		asn := binary.BigEndian.Uint32(v4row[8:12])
		v4.Insert(start, end, asn)
	}

	v6 := rangeindex.New(compareKey128)
	var v6row [ipv6EntrySize]byte
	for i := uint32(0); i < ipv6Count; i++ {
		if _, err := io.ReadFull(r, v6row[:]); err != nil {
			return nil, fmt.Errorf("snapshot: read ipv6 entry %d: %w", i, err)
		}
		var startBytes, endBytes [16]byte
		copy(startBytes[:], v6row[0:16])
		copy(endBytes[:], v6row[16:32])
		asn := binary.BigEndian.Uint32(v6row[32:36])
		v6.Insert(ipkey.FromBytes(startBytes), ipkey.FromBytes(endBytes), asn)
	}

	return &Snapshot{ASNTable: asnTable, IPv4: v4, IPv6: v6}, nil
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
