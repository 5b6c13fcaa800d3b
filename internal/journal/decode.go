package journal

import (
	"encoding/binary"

	"github.com/jio/libjournal/internal/checksum"
)

// Status classifies the outcome of decoding a journal record: well
// formed, corrupt, or truncated.
type Status int

const (
	// StatusOK means the record is well-formed: magic and version
	// match, descriptors are consistent with the file length, and the
	// checksum verifies.
	StatusOK Status = iota
	// StatusCorrupt means the contents are structurally wrong (bad
	// magic or version, bytes past the declared end) or fail checksum
	// verification — a bit flip anywhere in the record lands here. A
	// bad magic or version is reported as corrupt whatever the file's
	// length.
	StatusCorrupt
	// StatusTruncated means the file is shorter than its own header
	// and descriptors say it should be — a partial write that never
	// reached its final fsync.
	StatusTruncated
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusCorrupt:
		return "corrupt"
	case StatusTruncated:
		return "truncated"
	default:
		return "unknown"
	}
}

// Decode parses buf into a Record, classifying any failure as
// StatusCorrupt or StatusTruncated. A non-OK status is not itself an
// error: it is the expected outcome of reading a record that a crash
// interrupted partway through being written.
func Decode(buf []byte) (Record, Status) {
	if len(buf) < headerSize {
		return Record{}, StatusTruncated
	}

	var header Header
	off := 0
	header.Magic = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	header.Version = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	header.Flags = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	header.TxID = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	header.NumOps = binary.LittleEndian.Uint32(buf[off:])
	off += 4

	if header.Magic != Magic || header.Version != Version {
		return Record{}, StatusCorrupt
	}

	descriptorsEnd := off + int(header.NumOps)*descriptorSize
	if descriptorsEnd < off || len(buf) < descriptorsEnd {
		return Record{}, StatusTruncated
	}

	descriptors := make([]OpDescriptor, header.NumOps)
	payloadLen := 0
	pos := off
	for i := range descriptors {
		offset := int64(binary.LittleEndian.Uint64(buf[pos:]))
		pos += 8
		length := binary.LittleEndian.Uint32(buf[pos:])
		pos += 4
		descriptors[i] = OpDescriptor{Offset: offset, Length: length}
		payloadLen += int(length)
	}

	wantTotal := descriptorsEnd + payloadLen + checksumSize
	if wantTotal < descriptorsEnd {
		return Record{}, StatusCorrupt
	}
	if len(buf) < wantTotal {
		return Record{}, StatusTruncated
	}
	if len(buf) != wantTotal {
		return Record{}, StatusCorrupt
	}

	payloads := make([][]byte, header.NumOps)
	p := descriptorsEnd
	for i, d := range descriptors {
		payloads[i] = buf[p : p+int(d.Length)]
		p += int(d.Length)
	}

	wantSum := binary.LittleEndian.Uint32(buf[p:])
	gotSum := checksum.Of(buf[:p])
	if wantSum != gotSum {
		return Record{}, StatusCorrupt
	}

	return Record{Header: header, Descriptors: descriptors, Payloads: payloads}, StatusOK
}
