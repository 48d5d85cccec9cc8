package protocol

// crcPoly is x^8 + x^2 + x + 1, processed MSB first without final XOR.
const crcPoly byte = 0x07

var crcTable = func() (t [256]byte) {
	for i := range t {
		crc := byte(i)
		for bit := 0; bit < 8; bit++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ crcPoly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return
}()

// CRC8 calculates the checksum of data.
func CRC8(data []byte) byte {
	return UpdateCRC8(0, data)
}

// UpdateCRC8 continues a checksum from seed, so that
// UpdateCRC8(CRC8(a), b) == CRC8(append(a, b...)).
func UpdateCRC8(seed byte, data []byte) byte {
	crc := seed
	for _, b := range data {
		crc = crcTable[crc^b]
	}
	return crc
}

// updateCRC8Byte folds a single byte.
func updateCRC8Byte(crc, b byte) byte {
	return crcTable[crc^b]
}
