// Package bits holds the small bit and byte-field helpers shared by the packed
// card structures (key settings, key-count byte, 24-bit sizes).
//
// Bit positions are 1-based, bit 8 being the most significant, as in the NXP
// and ISO/IEC 7816 data sheets.
package bits

// Bit returns a byte with only the n-th bit set (1 to 8).
func Bit(n uint) byte {
	if n < 1 || n > 8 {
		return 0
	}
	return 1 << (n - 1)
}

// IsSet checks if the n-th bit is set (1 to 8).
func IsSet(b byte, n uint) bool {
	return b&Bit(n) != 0
}

// GetRange extracts the value from a range of bits (e.g., bits 4 to 3).
// Example: GetRange(0b00001100, 4, 3) returns 3 (0b11)
func GetRange(b byte, high, low uint) byte {
	if high < low || high > 8 || low < 1 {
		return 0
	}

	width := high - low + 1
	mask := byte((1 << width) - 1)

	return (b >> (low - 1)) & mask
}

// HighNibble returns bits 8-5.
func HighNibble(b byte) byte {
	return GetRange(b, 8, 5)
}

// Uint24LE decodes a 3-byte little-endian value, as used by DESFire for sizes
// and offsets. Shorter input is zero-extended.
func Uint24LE(b []byte) uint32 {
	var v uint32
	for i := 0; i < 3 && i < len(b); i++ {
		v |= uint32(b[i]) << (8 * i)
	}
	return v
}
