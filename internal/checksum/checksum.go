// Package checksum computes the single rolling 32-bit checksum used to
// protect journal records. It is deliberately not cryptographic: the
// on-disk format only needs to detect accidental corruption (torn
// writes, bit rot), and the same algorithm must stay stable across
// releases since it is part of the wire format.
package checksum

import "hash/crc32"

// Sum32 is an in-progress checksum. Its zero value is the checksum of
// the empty byte sequence.
type Sum32 uint32

// Update folds p into the checksum and returns the new value. Because
// CRC-32 is defined by continuing polynomial division from a prior
// remainder, Update(p) applied to Update(a) is exactly the checksum of
// a||p: the incremental property §4.2 requires falls out of how CRC-32
// already works, with no extra bookkeeping.
func (s Sum32) Update(p []byte) Sum32 {
	return Sum32(crc32.Update(uint32(s), crc32.IEEETable, p))
}

// Uint32 returns the checksum accumulated so far.
func (s Sum32) Uint32() uint32 { return uint32(s) }

// Of is a convenience for computing the checksum of a single byte
// sequence in one call.
func Of(p []byte) uint32 {
	return Sum32(0).Update(p).Uint32()
}
