package tlv

import (
	"fmt"
	"strings"

	"github.com/moov-io/bertlv"
)

// Decode parses raw BER-TLV data.
func Decode(data []byte) ([]bertlv.TLV, error) {
	packets, err := bertlv.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("bertlv decode failed: %w", err)
	}
	return packets, nil
}

// Find walks packets following path (one tag per nesting level, hex, case
// insensitive) and returns the first matching TLV.
func Find(packets []bertlv.TLV, path ...string) (bertlv.TLV, bool) {
	if len(path) == 0 {
		return bertlv.TLV{}, false
	}

	for _, p := range packets {
		if !strings.EqualFold(p.Tag, path[0]) {
			continue
		}
		if len(path) == 1 {
			return p, true
		}
		return Find(p.TLVs, path[1:]...)
	}
	return bertlv.TLV{}, false
}

// Value returns the raw payload of a TLV. Constructed TLVs are re-encoded so the
// caller always gets the bytes as they appeared on the wire.
func Value(p bertlv.TLV) []byte {
	if len(p.TLVs) > 0 {
		if enc, err := bertlv.Encode(p.TLVs); err == nil {
			return enc
		}
	}
	return p.Value
}

// Without returns packets minus the ones whose tag is listed.
func Without(packets []bertlv.TLV, tags ...string) []bertlv.TLV {
	var out []bertlv.TLV
	for _, p := range packets {
		skip := false
		for _, t := range tags {
			if strings.EqualFold(p.Tag, t) {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, p)
		}
	}
	return out
}
