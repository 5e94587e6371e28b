// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

// Package stringpool implements the deduplicated description-string area
// embedded in a database snapshot: a single concatenated byte buffer plus
// an interning cache from string to (offset, length).
package stringpool

import (
	"encoding/binary"
	"log"
)

// TokenSize is the width, in bytes, of a packed (offset, length) token.
const TokenSize = 8

// Pool is a concatenated UTF-8 buffer with an interning cache. The zero
// value is ready to use for packing; a pool built with Load has no cache
// and supports Unpack only, matching how a reloaded snapshot never packs
// a new description.
type Pool struct {
	buf   []byte
	cache map[string][2]uint32 // value -> (offset, length)
}

// New returns an empty pool ready for Pack.
func New() *Pool {
	return &Pool{cache: make(map[string][2]uint32)}
}

// Load adopts buf as the pool contents. The interning cache starts empty;
// only Unpack is meaningful afterward.
func Load(buf []byte) *Pool {
	return &Pool{buf: buf}
}

// Pack interns s if it has not been seen before and returns its 8-byte
// token: bytes 0..4 are the little-endian offset, bytes 4..8 the
// little-endian length.
func (p *Pool) Pack(s string) [TokenSize]byte {
	if tok, ok := p.cache[s]; ok {
		return encodeToken(tok[0], tok[1])
	}

	offset := uint32(len(p.buf))
	p.buf = append(p.buf, s...)
	length := uint32(len(s))

	if p.cache == nil {
		p.cache = make(map[string][2]uint32)
	}
	p.cache[s] = [2]uint32{offset, length}

	return encodeToken(offset, length)
}

// Unpack decodes a token and returns the corresponding slice of the pool
// as a string. A token whose range exceeds the pool is reported as
// snapshot corruption: Unpack logs a warning and returns the empty string
// rather than panicking.
func (p *Pool) Unpack(tok [TokenSize]byte) string {
	offset, length := decodeToken(tok)
	end := uint64(offset) + uint64(length)
	if end > uint64(len(p.buf)) {
		log.Printf("WARN: stringpool: token offset=%d length=%d exceeds pool size %d", offset, length, len(p.buf))
		return ""
	}
	return string(p.buf[offset:end])
}

// Save exposes the pool as a contiguous byte sequence for writing.
func (p *Pool) Save() []byte {
	return p.buf
}

func encodeToken(offset, length uint32) [TokenSize]byte {
	var tok [TokenSize]byte
	binary.LittleEndian.PutUint32(tok[0:4], offset)
	binary.LittleEndian.PutUint32(tok[4:8], length)
	return tok
}

func decodeToken(tok [TokenSize]byte) (offset, length uint32) {
	offset = binary.LittleEndian.Uint32(tok[0:4])
	length = binary.LittleEndian.Uint32(tok[4:8])
	return offset, length
}
