package pmbus

// pecTable is the SMBus CRC-8 table (polynomial x^8 + x^2 + x + 1).
var pecTable = func() [256]byte {
	var t [256]byte
	for i := 0; i < 256; i++ {
		crc := byte(i)
		for bit := 0; bit < 8; bit++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x07
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return t
}()

// PEC computes the SMBus packet error code over the given byte runs.
func PEC(runs ...[]byte) byte {
	var crc byte
	for _, run := range runs {
		for _, b := range run {
			crc = pecTable[crc^b]
		}
	}
	return crc
}
