// Package ipkey provides the integer key types the range index is built
// over: the stdlib uint32 for IPv4, and a 128-bit pair for IPv6 (Go has
// no native 128-bit integer).
package ipkey

import "encoding/binary"

// Key128 is an unsigned 128-bit integer, stored as two big-endian halves.
// It is comparable and totally ordered, which is all the range index
// needs from a key type.
type Key128 struct {
	Hi uint64
	Lo uint64
}

// FromBytes builds a Key128 from a 16-byte big-endian slice, the layout
// netip.Addr.As16 produces for an IPv6 address.
func FromBytes(b [16]byte) Key128 {
	return Key128{
		Hi: binary.BigEndian.Uint64(b[0:8]),
		Lo: binary.BigEndian.Uint64(b[8:16]),
	}
}

// Bytes renders the key back to its 16-byte big-endian form.
func (k Key128) Bytes() [16]byte {
	var b [16]byte
	binary.BigEndian.PutUint64(b[0:8], k.Hi)
	binary.BigEndian.PutUint64(b[8:16], k.Lo)
	return b
}

// Compare returns -1, 0, or 1 as k is less than, equal to, or greater
// than other.
func (k Key128) Compare(other Key128) int {
	if k.Hi != other.Hi {
		if k.Hi < other.Hi {
			return -1
		}
		return 1
	}
	switch {
	case k.Lo < other.Lo:
		return -1
	case k.Lo > other.Lo:
		return 1
	default:
		return 0
	}
}

// Less reports whether k sorts before other.
func (k Key128) Less(other Key128) bool {
	return k.Compare(other) < 0
}
