package production

import "hash/crc64"

const (
	// StandardSeed is the usual all-ones CRC-64 seed. With it Checksum equals
	// CRC-64/XZ.
	StandardSeed uint64 = 0xFFFFFFFFFFFFFFFF
	// LegacySeed is the 32-bit seed older settings images were sealed with.
	LegacySeed uint64 = 0xFFFFFFFF
)

var ecmaTable = crc64.MakeTable(crc64.ECMA)

// Checksum computes a reflected CRC-64/ECMA over data, one byte at a time,
// starting from seed and inverting the result.
func Checksum(data []byte, seed uint64) uint64 {
	// crc64.Update inverts on the way in and out.
	return crc64.Update(^seed, ecmaTable, data)
}
