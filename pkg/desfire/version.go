package desfire

import (
	"fmt"
)

// VERSION (GetVersion, INS '60'):
// Three frames chained with '91 AF':
// 1. Hardware: vendor, type, subtype, major, minor, storage size, protocol (7 bytes).
// 2. Software: same layout (7 bytes).
// 3. Production: UID (7), batch number (5), production week, production year.

// versionSize is the assembled GetVersion answer.
const versionSize = 7 + 7 + 14

// CardType is the DESFire generation derived from the hardware version.
type CardType int

const (
	CardTypeUnknown CardType = iota
	CardTypeMF3ICD40
	CardTypeEV1
	CardTypeEV2
	CardTypeLight
)

func (t CardType) String() string {
	switch t {
	case CardTypeMF3ICD40:
		return "MIFARE DESFire MF3ICD40"
	case CardTypeEV1:
		return "MIFARE DESFire EV1"
	case CardTypeEV2:
		return "MIFARE DESFire EV2"
	case CardTypeLight:
		return "MIFARE DESFire Light"
	default:
		return "Unknown"
	}
}

// VersionInfo is one 7-byte version block.
type VersionInfo struct {
	Vendor      byte
	Type        byte
	Subtype     byte
	Major       byte
	Minor       byte
	StorageSize byte
	Protocol    byte
}

func parseVersionInfo(b []byte) VersionInfo {
	return VersionInfo{
		Vendor:      b[0],
		Type:        b[1],
		Subtype:     b[2],
		Major:       b[3],
		Minor:       b[4],
		StorageSize: b[5],
		Protocol:    b[6],
	}
}

// Storage decodes the storage size byte. The 7 most significant bits give n
// and the size is 2^n bytes; when the lowest bit is set the size lies between
// 2^n and 2^(n+1) and exact is false.
func (v VersionInfo) Storage() (size int, exact bool) {
	n := v.StorageSize >> 1
	if n > 30 {
		return 0, false
	}
	return 1 << n, v.StorageSize&0x01 == 0
}

// StorageString renders the storage size as the data sheet does.
func (v VersionInfo) StorageString() string {
	size, exact := v.Storage()
	if exact {
		return fmt.Sprintf("%d bytes", size)
	}
	return fmt.Sprintf("between %d and %d bytes", size, size*2)
}

// Version is the decoded GetVersion answer.
type Version struct {
	Hardware       VersionInfo
	Software       VersionInfo
	UID            [7]byte
	Batch          [5]byte
	ProductionWeek byte
	ProductionYear byte
}

// CardType derives the card generation from the hardware major/minor.
func (v Version) CardType() CardType {
	major, minor := v.Hardware.Major, v.Hardware.Minor
	switch {
	case major == 0x00:
		return CardTypeMF3ICD40
	case major == 0x01 && minor == 0x00:
		return CardTypeEV1
	case major == 0x12 && minor == 0x00:
		return CardTypeEV2
	case major == 0x30 && minor == 0x00:
		return CardTypeLight
	default:
		return CardTypeUnknown
	}
}

// ParseVersion decodes the 28-byte assembled GetVersion answer.
func ParseVersion(data []byte) (*Version, error) {
	if len(data) != versionSize {
		return nil, fmt.Errorf("%w: version answer must be %d bytes, got %d", ErrProtocol, versionSize, len(data))
	}

	v := &Version{
		Hardware:       parseVersionInfo(data[0:7]),
		Software:       parseVersionInfo(data[7:14]),
		ProductionWeek: data[26],
		ProductionYear: data[27],
	}
	copy(v.UID[:], data[14:21])
	copy(v.Batch[:], data[21:26])

	return v, nil
}
