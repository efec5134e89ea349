package iso7816

import "fmt"

// Instruction Byte (INS).
//
// ISO/IEC 7816-3 reserves INS values '6X' and '9X' for transport procedure
// bytes, but that rule only binds the interindustry class. DESFire native
// commands travel in the proprietary class (CLA 0x90) and use their own code
// space, so GET APPLICATION IDS (0x6A) or GET KEY VERSION (0x64) are valid
// instructions there.

// InsCode is a typed representation of the instruction byte.
type InsCode byte

// DESFire native instruction codes.
const (
	INS_DESFIRE_AUTHENTICATE        InsCode = 0x0A
	INS_DESFIRE_AUTHENTICATE_ISO    InsCode = 0x1A
	INS_DESFIRE_AUTHENTICATE_AES    InsCode = 0xAA
	INS_DESFIRE_READ_SIGNATURE      InsCode = 0x3C
	INS_DESFIRE_GET_KEY_SETTINGS    InsCode = 0x45
	INS_DESFIRE_SELECT_APPLICATION  InsCode = 0x5A
	INS_DESFIRE_GET_VERSION         InsCode = 0x60
	INS_DESFIRE_GET_KEY_VERSION     InsCode = 0x64
	INS_DESFIRE_GET_APPLICATION_IDS InsCode = 0x6A
	INS_DESFIRE_GET_DF_NAMES        InsCode = 0x6D
	INS_DESFIRE_GET_FREE_MEMORY     InsCode = 0x6E
	INS_DESFIRE_GET_FILE_IDS        InsCode = 0x6F
	INS_DESFIRE_ADDITIONAL_FRAME    InsCode = 0xAF
	INS_DESFIRE_GET_FILE_SETTINGS   InsCode = 0xF5
)

// ISO/IEC 7816-4 interindustry instruction codes used alongside the native set.
const (
	INS_SELECT       InsCode = 0xA4
	INS_READ_BINARY  InsCode = 0xB0
	INS_GET_RESPONSE InsCode = 0xC0
	INS_GET_DATA     InsCode = 0xCA
)

var insNames = map[InsCode]string{
	INS_DESFIRE_AUTHENTICATE:        "AUTHENTICATE",
	INS_DESFIRE_AUTHENTICATE_ISO:    "AUTHENTICATE ISO",
	INS_DESFIRE_AUTHENTICATE_AES:    "AUTHENTICATE AES",
	INS_DESFIRE_READ_SIGNATURE:      "READ SIGNATURE",
	INS_DESFIRE_GET_KEY_SETTINGS:    "GET KEY SETTINGS",
	INS_DESFIRE_SELECT_APPLICATION:  "SELECT APPLICATION",
	INS_DESFIRE_GET_VERSION:         "GET VERSION",
	INS_DESFIRE_GET_KEY_VERSION:     "GET KEY VERSION",
	INS_DESFIRE_GET_APPLICATION_IDS: "GET APPLICATION IDS",
	INS_DESFIRE_GET_DF_NAMES:        "GET DF NAMES",
	INS_DESFIRE_GET_FREE_MEMORY:     "GET FREE MEMORY",
	INS_DESFIRE_GET_FILE_IDS:        "GET FILE IDS",
	INS_DESFIRE_ADDITIONAL_FRAME:    "ADDITIONAL FRAME",
	INS_DESFIRE_GET_FILE_SETTINGS:   "GET FILE SETTINGS",
	INS_SELECT:                      "SELECT",
	INS_READ_BINARY:                 "READ BINARY",
	INS_GET_RESPONSE:                "GET RESPONSE",
	INS_GET_DATA:                    "GET DATA",
}

// String returns the command name, or InsCode(0xXX) for unknown codes.
func (i InsCode) String() string {
	if name, ok := insNames[i]; ok {
		return name
	}
	return fmt.Sprintf("InsCode(0x%02X)", byte(i))
}

// Verbose returns a human-readable description of the instruction.
func (i InsCode) Verbose() string {
	return fmt.Sprintf("INS: 0x%02X | Command: %s", byte(i), i.String())
}
