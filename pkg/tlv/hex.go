// Package tlv provides small helpers around BER-TLV data (github.com/moov-io/bertlv)
// and hex fixtures used when describing card exchanges.
package tlv

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Hex constructs a byte slice from a series of hex strings.
// Spaces and ':' separators are ignored, so trace dumps such as
// "90 5A 00 00 03" or "04:B3:04" can be pasted as-is.
func Hex(parts ...string) []byte {
	fullHex := strings.Join(parts, "")
	cleanHex := strings.NewReplacer(" ", "", ":", "", "\n", "", "\t", "").Replace(fullHex)

	data, err := hex.DecodeString(cleanHex)
	if err != nil {
		panic(fmt.Sprintf("invalid input '%s': %v", cleanHex, err))
	}
	return data
}

// MakeSafeASCII replaces every non-printable byte with '.'.
func MakeSafeASCII(data []byte) string {
	return strings.Map(func(r rune) rune {
		if r >= 32 && r <= 126 {
			return r
		}
		return '.'
	}, string(data))
}
