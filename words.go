package sht31d

import (
	"encoding/binary"
	"fmt"
)

// ErrChecksum reports a reply whose mandatory content failed CRC validation.
var ErrChecksum = fmt.Errorf("crc mismatch")

// wordSize is one 16-bit data word plus its trailing CRC byte on the wire.
const wordSize = 3

// encodeCommand serializes a 16-bit command word big-endian, the way the
// sensor expects every command on the bus.
func encodeCommand(cmd uint16) []byte {
	out := make([]byte, 2)
	binary.BigEndian.PutUint16(out, cmd)
	return out
}

// decodeWords unpacks a reply buffer laid out as consecutive 3-byte groups
// (two data bytes followed by a CRC byte) into validated 16-bit words.
//
// Periodic-mode fetches may return a buffer that is only partially filled;
// the unfilled tail never carries valid checksums, so decoding stops at the
// first group whose CRC does not match and returns the valid prefix. A
// mismatch on the very first group means the reply contains no usable data
// and fails with ErrChecksum, as does a buffer that is not group-aligned.
func decodeWords(buf []byte) ([]uint16, error) {
	if len(buf)%wordSize != 0 {
		return nil, fmt.Errorf("reply length %d is not a multiple of %d: %w", len(buf), wordSize, ErrChecksum)
	}
	words := make([]uint16, 0, len(buf)/wordSize)
	for i := 0; i+wordSize <= len(buf); i += wordSize {
		if crc8(buf[i:i+2]) != buf[i+2] {
			if i == 0 {
				return nil, fmt.Errorf("first word of reply: %w", ErrChecksum)
			}
			break
		}
		words = append(words, binary.BigEndian.Uint16(buf[i:i+2]))
	}
	return words, nil
}
