// Package journal implements the on-disk journal directory: one
// fixed-format file per committed transaction, a persisted monotonic
// identifier counter, and a scan that returns records in commit order.
package journal

import (
	"encoding/binary"
	"fmt"

	"github.com/jio/libjournal/internal/checksum"
)

// Magic identifies a libjournal record file.
const Magic uint32 = 0x6a696f31 // "jio1"

// Version is the on-disk format version this package writes and reads.
const Version uint32 = 1

const (
	headerSize     = 20 // magic + version + flags + txid + numops, 4B each
	descriptorSize = 12 // offset int64 (8B) + length uint32 (4B)
	checksumSize   = 4
)

// Header is the fixed-size prefix of a journal record. TxID is a
// 4-byte field on disk; the identifier space (≈4 billion) comfortably
// outlives any journal directory's lifetime since records are removed
// on release.
type Header struct {
	Magic   uint32
	Version uint32
	Flags   uint32
	TxID    uint32
	NumOps  uint32
}

// OpDescriptor describes one operation's placement within the record:
// its target offset in the data file and the length of its payload.
type OpDescriptor struct {
	Offset int64
	Length uint32
}

// Record is a fully parsed, well-formed journal record.
type Record struct {
	Header      Header
	Descriptors []OpDescriptor
	Payloads    [][]byte
}

// Encode serializes header, descriptors, and payloads into the fixed
// on-disk byte layout, including the trailing checksum.
func Encode(header Header, descriptors []OpDescriptor, payloads [][]byte) ([]byte, error) {
	if len(descriptors) != len(payloads) {
		return nil, fmt.Errorf("journal: %d descriptors but %d payloads", len(descriptors), len(payloads))
	}
	header.NumOps = uint32(len(descriptors))

	payloadLen := 0
	for i, p := range payloads {
		if len(p) != int(descriptors[i].Length) {
			return nil, fmt.Errorf("journal: descriptor %d declares length %d, payload is %d bytes", i, descriptors[i].Length, len(p))
		}
		payloadLen += len(p)
	}

	total := headerSize + len(descriptors)*descriptorSize + payloadLen + checksumSize
	buf := make([]byte, total)

	off := 0
	binary.LittleEndian.PutUint32(buf[off:], header.Magic)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], header.Version)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], header.Flags)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], header.TxID)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], header.NumOps)
	off += 4

	for _, d := range descriptors {
		binary.LittleEndian.PutUint64(buf[off:], uint64(d.Offset))
		off += 8
		binary.LittleEndian.PutUint32(buf[off:], d.Length)
		off += 4
	}

	for _, p := range payloads {
		off += copy(buf[off:], p)
	}

	sum := checksum.Of(buf[:off])
	binary.LittleEndian.PutUint32(buf[off:], sum)

	return buf, nil
}
