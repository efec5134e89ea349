package iso7816

import (
	"fmt"
)

// Status Word classes for DESFire traffic.
//
// A DESFire card answers a wrapped native command with SW1 = 0x91 and its
// native status code in SW2. ISO commands (and some readers) answer with
// plain ISO status words. The chaining protocol only needs three classes:
//
// 1. Success: 0x9000 (ISO) or 0x9100 (native OPERATION_OK).
// 2. MoreFrames: 0x91AF (native ADDITIONAL_FRAME). Data is pending.
// 3. Error: anything else. SW2 is the vendor sub-code used for diagnostics.
//
// '61XX' (ISO response available) is a T=0 transport detail. It is left to
// the transport and classified here as an error so it never silently passes
// as a complete answer.

// StatusWord represents the two-byte status response (SW1-SW2) returned by the smart card.
type StatusWord uint16

// Outcome is the protocol class of a status word.
type Outcome int

const (
	OutcomeError Outcome = iota
	OutcomeSuccess
	OutcomeMoreFrames
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "Success"
	case OutcomeMoreFrames:
		return "MoreFrames"
	default:
		return "Error"
	}
}

// NewStatusWord creates a StatusWord instance from two separate bytes.
func NewStatusWord(sw1, sw2 byte) StatusWord {
	return StatusWord(uint16(sw1)<<8 | uint16(sw2))
}

// SW1 returns the first byte (high byte) of the status word.
func (sw StatusWord) SW1() byte {
	return byte(sw >> 8)
}

// SW2 returns the second byte (low byte) of the status word.
func (sw StatusWord) SW2() byte {
	return byte(sw)
}

// IsNative reports whether the status carries a DESFire native code (SW1 = 0x91).
func (sw StatusWord) IsNative() bool {
	return sw.SW1() == 0x91
}

// SubCode returns the vendor-specific sub-code (SW2).
func (sw StatusWord) SubCode() byte {
	return sw.SW2()
}

// Outcome classifies the status word for the chaining protocol.
func (sw StatusWord) Outcome() Outcome {
	switch sw {
	case SW_NO_ERROR, SW_DESFIRE_OK:
		return OutcomeSuccess
	case SW_DESFIRE_ADDITIONAL_FRAME:
		return OutcomeMoreFrames
	default:
		return OutcomeError
	}
}

// IsSuccess returns true for 0x9000 and 0x9100.
func (sw StatusWord) IsSuccess() bool {
	return sw.Outcome() == OutcomeSuccess
}

// IsMoreFrames returns true when the card has more response frames pending.
func (sw StatusWord) IsMoreFrames() bool {
	return sw.Outcome() == OutcomeMoreFrames
}

// IsResponseAvailable reports the ISO '61XX' hint. SW2 is the number of bytes
// the card holds for GET RESPONSE.
func (sw StatusWord) IsResponseAvailable() bool {
	return sw.SW1() == 0x61
}

// String returns the constant name of a known status word.
func (sw StatusWord) String() string {
	if name, ok := swNames[sw]; ok {
		return name
	}
	return fmt.Sprintf("StatusWord(0x%04X)", uint16(sw))
}

// Verbose returns a human-readable description of the status word.
func (sw StatusWord) Verbose() string {
	if desc, ok := swDescriptions[sw]; ok {
		return fmt.Sprintf("[%04X] %s", uint16(sw), desc)
	}

	sw1 := sw.SW1()
	sw2 := sw.SW2()

	if sw1 == 0x61 {
		return fmt.Sprintf("[%04X] Process completed, %d bytes available", uint16(sw), sw2)
	}

	if sw1 == 0x6C {
		return fmt.Sprintf("[%04X] Wrong length, correct Le is %d", uint16(sw), sw2)
	}

	return fmt.Sprintf("[%04X] %s", uint16(sw), sw.genericCategoryDescription())
}

// genericCategoryDescription provides a fallback description based on SW1.
func (sw StatusWord) genericCategoryDescription() string {
	if sw.IsNative() {
		return fmt.Sprintf("DESFire status 0x%02X", sw.SubCode())
	}

	switch sw.SW1() {
	case 0x62:
		return "Warning: NV memory unchanged"
	case 0x63:
		return "Warning: NV memory changed"
	case 0x64:
		return "Execution Error: NV memory unchanged"
	case 0x65:
		return "Execution Error: NV memory changed"
	case 0x66:
		return "Execution Error: Security issue"
	case 0x68:
		return "Checking Error: Function not supported"
	case 0x69:
		return "Checking Error: Command not allowed"
	case 0x6A:
		return "Checking Error: Wrong parameters"
	default:
		return "Unknown Status"
	}
}

// Standard Status Word codes defined in ISO/IEC 7816-4.
const (
	SW_NO_ERROR                    StatusWord = 0x9000
	SW_ERR_WRONG_LENGTH            StatusWord = 0x6700
	SW_ERR_SECURITY_STATUS_NOT_SAT StatusWord = 0x6982
	SW_ERR_FILE_NOT_FOUND          StatusWord = 0x6A82
	SW_ERR_INCORRECT_PARAMS_P1P2   StatusWord = 0x6A86
	SW_ERR_INS_INVALID             StatusWord = 0x6D00
	SW_ERR_CLA_NOT_SUPPORTED       StatusWord = 0x6E00
)

// DESFire native status codes (SW1 = 0x91).
const (
	SW_DESFIRE_OK                    StatusWord = 0x9100
	SW_DESFIRE_NO_CHANGES            StatusWord = 0x910C
	SW_DESFIRE_OUT_OF_EEPROM         StatusWord = 0x910E
	SW_DESFIRE_ILLEGAL_COMMAND       StatusWord = 0x911C
	SW_DESFIRE_INTEGRITY_ERROR       StatusWord = 0x911E
	SW_DESFIRE_NO_SUCH_KEY           StatusWord = 0x9140
	SW_DESFIRE_LENGTH_ERROR          StatusWord = 0x917E
	SW_DESFIRE_PERMISSION_DENIED     StatusWord = 0x919D
	SW_DESFIRE_PARAMETER_ERROR       StatusWord = 0x919E
	SW_DESFIRE_APPLICATION_NOT_FOUND StatusWord = 0x91A0
	SW_DESFIRE_APPL_INTEGRITY_ERROR  StatusWord = 0x91A1
	SW_DESFIRE_AUTHENTICATION_ERROR  StatusWord = 0x91AE
	SW_DESFIRE_ADDITIONAL_FRAME      StatusWord = 0x91AF
	SW_DESFIRE_BOUNDARY_ERROR        StatusWord = 0x91BE
	SW_DESFIRE_PICC_INTEGRITY_ERROR  StatusWord = 0x91C1
	SW_DESFIRE_COMMAND_ABORTED       StatusWord = 0x91CA
	SW_DESFIRE_PICC_DISABLED         StatusWord = 0x91CD
	SW_DESFIRE_COUNT_ERROR           StatusWord = 0x91CE
	SW_DESFIRE_DUPLICATE_ERROR       StatusWord = 0x91DE
	SW_DESFIRE_EEPROM_ERROR          StatusWord = 0x91EE
	SW_DESFIRE_FILE_NOT_FOUND        StatusWord = 0x91F0
	SW_DESFIRE_FILE_INTEGRITY_ERROR  StatusWord = 0x91F1
)

var swNames = map[StatusWord]string{
	SW_NO_ERROR:                      "SW_NO_ERROR",
	SW_ERR_WRONG_LENGTH:              "SW_ERR_WRONG_LENGTH",
	SW_ERR_SECURITY_STATUS_NOT_SAT:   "SW_ERR_SECURITY_STATUS_NOT_SAT",
	SW_ERR_FILE_NOT_FOUND:            "SW_ERR_FILE_NOT_FOUND",
	SW_ERR_INCORRECT_PARAMS_P1P2:     "SW_ERR_INCORRECT_PARAMS_P1P2",
	SW_ERR_INS_INVALID:               "SW_ERR_INS_INVALID",
	SW_ERR_CLA_NOT_SUPPORTED:         "SW_ERR_CLA_NOT_SUPPORTED",
	SW_DESFIRE_OK:                    "SW_DESFIRE_OK",
	SW_DESFIRE_NO_CHANGES:            "SW_DESFIRE_NO_CHANGES",
	SW_DESFIRE_OUT_OF_EEPROM:         "SW_DESFIRE_OUT_OF_EEPROM",
	SW_DESFIRE_ILLEGAL_COMMAND:       "SW_DESFIRE_ILLEGAL_COMMAND",
	SW_DESFIRE_INTEGRITY_ERROR:       "SW_DESFIRE_INTEGRITY_ERROR",
	SW_DESFIRE_NO_SUCH_KEY:           "SW_DESFIRE_NO_SUCH_KEY",
	SW_DESFIRE_LENGTH_ERROR:          "SW_DESFIRE_LENGTH_ERROR",
	SW_DESFIRE_PERMISSION_DENIED:     "SW_DESFIRE_PERMISSION_DENIED",
	SW_DESFIRE_PARAMETER_ERROR:       "SW_DESFIRE_PARAMETER_ERROR",
	SW_DESFIRE_APPLICATION_NOT_FOUND: "SW_DESFIRE_APPLICATION_NOT_FOUND",
	SW_DESFIRE_APPL_INTEGRITY_ERROR:  "SW_DESFIRE_APPL_INTEGRITY_ERROR",
	SW_DESFIRE_AUTHENTICATION_ERROR:  "SW_DESFIRE_AUTHENTICATION_ERROR",
	SW_DESFIRE_ADDITIONAL_FRAME:      "SW_DESFIRE_ADDITIONAL_FRAME",
	SW_DESFIRE_BOUNDARY_ERROR:        "SW_DESFIRE_BOUNDARY_ERROR",
	SW_DESFIRE_PICC_INTEGRITY_ERROR:  "SW_DESFIRE_PICC_INTEGRITY_ERROR",
	SW_DESFIRE_COMMAND_ABORTED:       "SW_DESFIRE_COMMAND_ABORTED",
	SW_DESFIRE_PICC_DISABLED:         "SW_DESFIRE_PICC_DISABLED",
	SW_DESFIRE_COUNT_ERROR:           "SW_DESFIRE_COUNT_ERROR",
	SW_DESFIRE_DUPLICATE_ERROR:       "SW_DESFIRE_DUPLICATE_ERROR",
	SW_DESFIRE_EEPROM_ERROR:          "SW_DESFIRE_EEPROM_ERROR",
	SW_DESFIRE_FILE_NOT_FOUND:        "SW_DESFIRE_FILE_NOT_FOUND",
	SW_DESFIRE_FILE_INTEGRITY_ERROR:  "SW_DESFIRE_FILE_INTEGRITY_ERROR",
}

var swDescriptions = map[StatusWord]string{
	SW_NO_ERROR:                      "Success",
	SW_ERR_WRONG_LENGTH:              "Wrong length",
	SW_ERR_SECURITY_STATUS_NOT_SAT:   "Security status not satisfied",
	SW_ERR_FILE_NOT_FOUND:            "File or application not found",
	SW_ERR_INCORRECT_PARAMS_P1P2:     "Incorrect parameters P1-P2",
	SW_ERR_INS_INVALID:               "Instruction not supported",
	SW_ERR_CLA_NOT_SUPPORTED:         "Class not supported",
	SW_DESFIRE_OK:                    "Operation OK",
	SW_DESFIRE_NO_CHANGES:            "No changes done to backup files",
	SW_DESFIRE_OUT_OF_EEPROM:         "Insufficient NV memory",
	SW_DESFIRE_ILLEGAL_COMMAND:       "Command code not supported",
	SW_DESFIRE_INTEGRITY_ERROR:       "CRC or MAC does not match data",
	SW_DESFIRE_NO_SUCH_KEY:           "Invalid key number specified",
	SW_DESFIRE_LENGTH_ERROR:          "Length of command string invalid",
	SW_DESFIRE_PERMISSION_DENIED:     "Current configuration or status does not allow the command",
	SW_DESFIRE_PARAMETER_ERROR:       "Value of the parameter(s) invalid",
	SW_DESFIRE_APPLICATION_NOT_FOUND: "Requested AID not present on PICC",
	SW_DESFIRE_APPL_INTEGRITY_ERROR:  "Unrecoverable error within application",
	SW_DESFIRE_AUTHENTICATION_ERROR:  "Current authentication status does not allow the command",
	SW_DESFIRE_ADDITIONAL_FRAME:      "Additional data frame is expected",
	SW_DESFIRE_BOUNDARY_ERROR:        "Attempt to read/write beyond file limits",
	SW_DESFIRE_PICC_INTEGRITY_ERROR:  "Unrecoverable error within PICC",
	SW_DESFIRE_COMMAND_ABORTED:       "Previous command was not fully completed",
	SW_DESFIRE_PICC_DISABLED:         "PICC was disabled by an unrecoverable error",
	SW_DESFIRE_COUNT_ERROR:           "Number of applications limited to 28",
	SW_DESFIRE_DUPLICATE_ERROR:       "File or application already exists",
	SW_DESFIRE_EEPROM_ERROR:          "Could not complete NV-write operation",
	SW_DESFIRE_FILE_NOT_FOUND:        "Specified file number does not exist",
	SW_DESFIRE_FILE_INTEGRITY_ERROR:  "Unrecoverable error within file",
}
