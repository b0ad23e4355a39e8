package sht31d

// crc8 computes the Sensirion CRC-8 over data: polynomial 0x31
// (x8 + x5 + x4 + 1), initial value 0xFF, no final XOR. The sensor appends
// this checksum to every 16-bit word it returns. An empty input yields the
// initial value 0xFF.
//
// Early SHT31 drivers used the 9-bit feedback constant 0x131 with a final
// 8-bit truncation; on byte arithmetic both collapse to the same result, so
// the 8-bit form is used here.
func crc8(data []byte) byte {
	crc := byte(0xFF)
	for _, b := range data {
		crc ^= b
		for range 8 {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ 0x31
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
