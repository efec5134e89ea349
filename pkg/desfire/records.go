package desfire

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// AID is a 3-byte DESFire application identifier, kept in wire order.
type AID [3]byte

// PICC is the card master context.
var PICC = AID{}

// ParseAID builds an AID from 3 raw bytes.
func ParseAID(b []byte) (AID, error) {
	var aid AID
	if len(b) != len(aid) {
		return aid, fmt.Errorf("%w: AID must be 3 bytes, got %d", ErrProtocol, len(b))
	}
	copy(aid[:], b)
	return aid, nil
}

// ParseAIDHex builds an AID from its hex form ("018380").
func ParseAIDHex(s string) (AID, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return AID{}, fmt.Errorf("invalid AID %q: %w", s, err)
	}
	return ParseAID(b)
}

// IsPICC reports whether the AID designates the card master context.
func (a AID) IsPICC() bool {
	return a == PICC
}

func (a AID) String() string {
	return fmt.Sprintf("%02X%02X%02X", a[0], a[1], a[2])
}

// DFNameRecordSize is the fixed width of one GetDFNames record:
// AID (3) + ISO file ID (2) + DF name (up to 16, NUL padded).
const DFNameRecordSize = 21

// DFName is the ISO name attached to an application.
type DFName struct {
	AID    AID
	FileID [2]byte
	Name   []byte
}

// parseDFNames cuts a stride-assembled GetDFNames answer into records.
// All-zero slots are padding and are skipped.
func parseDFNames(data []byte) []DFName {
	var out []DFName
	zero := make([]byte, DFNameRecordSize)

	for off := 0; off+DFNameRecordSize <= len(data); off += DFNameRecordSize {
		rec := data[off : off+DFNameRecordSize]
		if bytes.Equal(rec, zero) {
			continue
		}

		var df DFName
		copy(df.AID[:], rec[0:3])
		copy(df.FileID[:], rec[3:5])
		df.Name = bytes.TrimRight(rec[5:], "\x00")
		out = append(out, df)
	}
	return out
}

// KeyVersion is the version byte of one application key.
type KeyVersion struct {
	Index   byte
	Version byte
}

// FileType is the first byte of a file settings answer.
type FileType byte

const (
	FileTypeStandard     FileType = 0x00
	FileTypeBackup       FileType = 0x01
	FileTypeValue        FileType = 0x02
	FileTypeLinearRecord FileType = 0x03
	FileTypeCyclicRecord FileType = 0x04
)

func (t FileType) String() string {
	switch t {
	case FileTypeStandard:
		return "standard data"
	case FileTypeBackup:
		return "backup data"
	case FileTypeValue:
		return "value"
	case FileTypeLinearRecord:
		return "linear record"
	case FileTypeCyclicRecord:
		return "cyclic record"
	default:
		return fmt.Sprintf("FileType(0x%02X)", byte(t))
	}
}

// FileSettings is the GetFileSettings answer. Its layout depends on the file
// type and card generation, so the bytes are kept whole; the accessors only
// read the common header.
type FileSettings struct {
	FileID byte
	Raw    []byte
}

// Type returns the file type, if present.
func (f FileSettings) Type() (FileType, bool) {
	if len(f.Raw) < 1 {
		return 0, false
	}
	return FileType(f.Raw[0]), true
}

// CommMode returns the communication settings byte (plain, MACed, enciphered).
func (f FileSettings) CommMode() (byte, bool) {
	if len(f.Raw) < 2 {
		return 0, false
	}
	return f.Raw[1] & 0x03, true
}

// AccessRights returns the 16-bit access rights field: read, write,
// read&write and change nibbles, from the most significant.
func (f FileSettings) AccessRights() (uint16, bool) {
	if len(f.Raw) < 4 {
		return 0, false
	}
	return uint16(f.Raw[3])<<8 | uint16(f.Raw[2]), true
}
