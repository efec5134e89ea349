// Package originality checks the NXP originality signature of a card.
//
// The card signs its 7-byte UID with ECDSA over secp224r1. The UID is used as
// the message as is, without hashing. The 56-byte signature is r followed by
// s, 28 bytes each.
package originality

import (
	"github.com/gregLibert/desfire-audit/pkg/tlv"
)

// PublicKeySize is an uncompressed secp224r1 point: 0x04 || X || Y.
const PublicKeySize = 1 + 2*coordinateSize

const coordinateSize = 28

// PublicKey is one entry of the originality key catalog.
type PublicKey struct {
	Label string
	Key   []byte
}

// DefaultCatalog returns the NXP originality keys, in probe order.
func DefaultCatalog() []PublicKey {
	out := make([]PublicKey, len(nxpKeys))
	copy(out, nxpKeys)
	return out
}

var nxpKeys = []PublicKey{
	{
		Label: "NTAG424DNA, DESFire EV2",
		Key:   tlv.Hex("048A9B380AF2EE1B98DC417FECC263F8449C7625CECE82D9B916C992DA209D68422B81EC20B65A66B5102A61596AF3379200599316A00A1410"),
	},
	{
		Label: "NTAG413DNA, DESFire EV1",
		Key:   tlv.Hex("04BB5D514F7050025C7D0F397310360EEC91EAF792E96FC7E0F496CB4E669D414F877B7B27901FE67C2E3B33CD39D1C797715189AC951C2ADD"),
	},
	{
		Label: "DESFire EV2",
		Key:   tlv.Hex("04B304DC4C615F5326FE9383DDEC9AA892DF3A57FA7FFB3276192BC0EAA252ED45A865E3B093A3D0DCE5BE29E92F1392CE7DE321E3E5C52B3A"),
	},
	{
		Label: "NTAG424DNA, NTAG424DNATT, DESFire Light EV2",
		Key:   tlv.Hex("04B304DC4C615F5326FE9383DDEC9AA892DF3A57FA7FFB3276192BC0EAA252ED45A865E3B093A3D0DCE5BE29E92F1392CE7DE321E3E5C52B3B"),
	},
	{
		Label: "DESFire Light EV1",
		Key:   tlv.Hex("040E98E117AAA36457F43173DC920A8757267F44CE4EC5ADD3C54075571AEBBF7B942A9774A1D94AD02572427E5AE0A2DD36591B1FB34FCF3D"),
	},
	{
		Label: "Mifare Plus EV1",
		Key:   tlv.Hex("044409ADC42F91A8394066BA83D872FB1D16803734E911170412DDF8BAD1A4DADFD0416291AFE1C748253925DA39A5F39A1C557FFACD34C62E"),
	},
}
