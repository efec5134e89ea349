package desfire

import (
	"fmt"

	"github.com/gregLibert/desfire-audit/pkg/bits"
)

// KEY SETTINGS (GetKeySettings, INS '45'):
// The card answers two bytes.
//
// Byte 1, the settings byte:
// - Bits 8-5: change-key access rule (application level only, RFU on the PICC).
//   0x0 master key, 0xE the key itself, 0xF frozen, any other value N key N.
// - Bit 4: configuration changeable.
// - Bit 3: create/delete free (cleared means the master key is required).
// - Bit 2: directory list free (cleared means the master key is required).
// - Bit 1: master key changeable.
//
// Byte 2 carries two fields:
// - Bits 6-1: number of keys of the application.
// - Bits 8-7: cipher of those keys (00 DES/2K3DES, 01 3K3DES, 10 AES).
//
// Every accessor decodes from the two raw bytes on each call.

// KeySettings is the raw GetKeySettings answer.
type KeySettings struct {
	Settings byte
	KeyCount byte
}

// ChangeKeyRule is the kind of the change-key access rule.
type ChangeKeyRule int

const (
	ChangeKeyWithMasterKey ChangeKeyRule = iota
	ChangeKeyWithSameKey
	ChangeKeyFrozen
	ChangeKeyWithSpecificKey
)

func (r ChangeKeyRule) String() string {
	switch r {
	case ChangeKeyWithMasterKey:
		return "master key"
	case ChangeKeyWithSameKey:
		return "same key"
	case ChangeKeyFrozen:
		return "frozen"
	case ChangeKeyWithSpecificKey:
		return "specific key"
	default:
		return fmt.Sprintf("ChangeKeyRule(%d)", int(r))
	}
}

// CipherClass is the key cipher family announced in the key-count byte.
type CipherClass byte

const (
	CipherDES    CipherClass = 0 // DES or 2K3DES
	Cipher3K3DES CipherClass = 1
	CipherAES    CipherClass = 2
	CipherRFU    CipherClass = 3
)

func (c CipherClass) String() string {
	switch c {
	case CipherDES:
		return "DES/2K3DES"
	case Cipher3K3DES:
		return "3K3DES"
	case CipherAES:
		return "AES"
	default:
		return "unknown"
	}
}

// ChangeKey returns the change-key access rule. key is the key number
// for ChangeKeyWithSpecificKey and 0 otherwise.
func (k KeySettings) ChangeKey() (rule ChangeKeyRule, key byte) {
	switch n := bits.HighNibble(k.Settings); n {
	case 0x0:
		return ChangeKeyWithMasterKey, 0
	case 0xE:
		return ChangeKeyWithSameKey, 0
	case 0xF:
		return ChangeKeyFrozen, 0
	default:
		return ChangeKeyWithSpecificKey, n
	}
}

// ConfigChangeable reports whether the settings themselves can be changed.
func (k KeySettings) ConfigChangeable() bool {
	return bits.IsSet(k.Settings, 4)
}

// CreateDeleteRequiresMasterKey reports whether creating or deleting
// applications (PICC) or files (application) needs master key authentication.
func (k KeySettings) CreateDeleteRequiresMasterKey() bool {
	return !bits.IsSet(k.Settings, 3)
}

// DirectoryListRequiresMasterKey reports whether listing applications or
// files needs master key authentication.
func (k KeySettings) DirectoryListRequiresMasterKey() bool {
	return !bits.IsSet(k.Settings, 2)
}

// MasterKeyChangeable reports whether the master key can still be changed.
func (k KeySettings) MasterKeyChangeable() bool {
	return bits.IsSet(k.Settings, 1)
}

// MaxKeys returns the number of keys, from the low 6 bits of the key-count byte.
func (k KeySettings) MaxKeys() int {
	return int(bits.GetRange(k.KeyCount, 6, 1))
}

// Cipher returns the key cipher, from the top 2 bits of the key-count byte.
func (k KeySettings) Cipher() CipherClass {
	return CipherClass(bits.GetRange(k.KeyCount, 8, 7))
}
