package journal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validRecordBytes(t *testing.T) []byte {
	t.Helper()
	buf, err := Encode(
		Header{Magic: Magic, Version: Version, TxID: 1},
		[]OpDescriptor{{Offset: 0, Length: 4}},
		[][]byte{[]byte("data")},
	)
	require.NoError(t, err)
	return buf
}

func TestDecodeTruncatedHeader(t *testing.T) {
	_, status := Decode(make([]byte, 3))
	require.Equal(t, StatusTruncated, status)
}

func TestDecodeBadMagic(t *testing.T) {
	buf := validRecordBytes(t)
	buf[0] ^= 0xFF
	_, status := Decode(buf)
	require.Equal(t, StatusCorrupt, status)
}

func TestDecodeTruncatedPayload(t *testing.T) {
	buf := validRecordBytes(t)
	_, status := Decode(buf[:len(buf)-2])
	require.Equal(t, StatusTruncated, status)
}

func TestDecodeChecksumMismatch(t *testing.T) {
	buf := validRecordBytes(t)
	buf[len(buf)-1] ^= 0xFF
	_, status := Decode(buf)
	require.Equal(t, StatusCorrupt, status)
}

func TestDecodeTrailingGarbageIsCorrupt(t *testing.T) {
	buf := append(validRecordBytes(t), 0x00)
	_, status := Decode(buf)
	require.Equal(t, StatusCorrupt, status)
}
