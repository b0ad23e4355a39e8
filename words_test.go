package sht31d

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frame serializes words into wire groups of two data bytes plus CRC.
func frame(words ...uint16) []byte {
	buf := make([]byte, 0, len(words)*wordSize)
	for _, w := range words {
		var group [wordSize]byte
		binary.BigEndian.PutUint16(group[:2], w)
		group[2] = crc8(group[:2])
		buf = append(buf, group[:]...)
	}
	return buf
}

func TestEncodeCommand(t *testing.T) {
	tests := []struct {
		cmd      uint16
		expected []byte
	}{
		{0x2C06, []byte{0x2C, 0x06}},
		{0x30A2, []byte{0x30, 0xA2}},
		{0x0000, []byte{0x00, 0x00}},
		{0xFFFF, []byte{0xFF, 0xFF}},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, encodeCommand(test.cmd))
	}
}

func TestEncodeCommand_RoundTrip(t *testing.T) {
	for _, cmd := range []uint16{0x0000, 0x0001, 0x00FF, 0x0100, 0x2400, 0xE000, 0x8080, 0xFFFF} {
		assert.Equal(t, cmd, binary.BigEndian.Uint16(encodeCommand(cmd)))
	}
}

func TestDecodeWords_ValidBuffer(t *testing.T) {
	words := []uint16{0x6488, 0x9C2E, 0x0000, 0xFFFF}
	decoded, err := decodeWords(frame(words...))
	require.NoError(t, err)
	assert.Equal(t, words, decoded)
}

func TestDecodeWords_Empty(t *testing.T) {
	decoded, err := decodeWords(nil)
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestDecodeWords_TruncatesAtCorruption(t *testing.T) {
	buf := frame(0x6488, 0x9C2E, 0x1234)
	// corrupt the CRC of the second group; the third group stays valid but
	// must not survive the truncation
	buf[5] ^= 0xFF
	decoded, err := decodeWords(buf)
	require.NoError(t, err)
	assert.Equal(t, []uint16{0x6488}, decoded)
}

func TestDecodeWords_UnfilledTail(t *testing.T) {
	// periodic-mode fetch: 8-pair buffer with only 2 pairs populated, the
	// rest zeroed by the transport
	buf := make([]byte, 48)
	copy(buf, frame(0x6488, 0x9C2E, 0x6490, 0x9C30))
	decoded, err := decodeWords(buf)
	require.NoError(t, err)
	assert.Equal(t, []uint16{0x6488, 0x9C2E, 0x6490, 0x9C30}, decoded)
}

func TestDecodeWords_FirstGroupCorrupt(t *testing.T) {
	buf := frame(0x6488, 0x9C2E)
	buf[2] ^= 0xFF
	_, err := decodeWords(buf)
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestDecodeWords_Misaligned(t *testing.T) {
	_, err := decodeWords([]byte{0x64, 0x88, 0x0F, 0x9C})
	assert.ErrorIs(t, err, ErrChecksum)
}
