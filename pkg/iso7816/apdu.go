package iso7816

import (
	"bytes"
	"errors"
	"fmt"
)

// APDU (Application Protocol Data Unit) structures and encodings according to ISO/IEC 7816-3 and 7816-4.
//
// COMMAND APDU (C-APDU):
// A command consists of a mandatory Header (4 bytes) and an optional Body.
//
// 1. Header: CLA, INS, P1, P2.
// 2. Body:   Lc + Data (when data is present), Le (when a response is expected).
//
// ENCODING CASES (ISO 7816-3):
// - Case 1: No Data, No Response (Header only).
// - Case 2: No Data, Response Expected (Header + Le).
// - Case 3: Data Present, No Response (Header + Lc + Data).
// - Case 4: Data Present, Response Expected (Header + Lc + Data + Le).
//
// LENGTH MODES:
//   - Short Length: Lc/Le encoded on 1 byte (Max 255/256).
//   - Extended Length: Lc/Le encoded on multiple bytes (Max 65535/65536).
//     Extended mode is triggered if Lc > 255 or Le > 256.
//
// RESPONSE APDU (R-APDU): optional data followed by the 2-byte status word.

// APDU Limits and Constants according to ISO 7816-3.
const (
	// MaxShortLc is the maximum data length (Nc) encodable in Short Length mode (1 byte).
	MaxShortLc = 255

	// MaxShortLe is the maximum expected response length (Ne) encodable in Short Length mode.
	// In Short mode, 0x00 encodes 256.
	MaxShortLe = 256

	// MaxExtendedLc is the limit for Lc in Extended mode (16-bit unsigned).
	MaxExtendedLc = 65535

	// MaxExtendedLe is the maximum Ne encodable in Extended Length mode.
	// In Extended mode, 0x0000 encodes 65536.
	MaxExtendedLe = 65536

	// ClassNative is the CLA used to wrap DESFire native commands.
	ClassNative byte = 0x90

	// ClassInterindustry is the plain ISO CLA (no SM, channel 0).
	ClassInterindustry byte = 0x00
)

var (
	// ErrEncoding reports a command that cannot be represented on the wire.
	ErrEncoding = errors.New("apdu encoding error")

	// ErrMalformedResponse reports a reply too short to carry a status word.
	ErrMalformedResponse = errors.New("malformed response")
)

// CommandAPDU represents a command sent to the card.
type CommandAPDU struct {
	Class       byte
	Instruction InsCode
	P1, P2      byte
	Data        []byte
	Ne          int // Expected response length (0 means none)
}

// NewCommandAPDU creates a basic command.
func NewCommandAPDU(cla byte, ins InsCode, p1, p2 byte, data []byte, ne int) *CommandAPDU {
	return &CommandAPDU{
		Class:       cla,
		Instruction: ins,
		P1:          p1,
		P2:          p2,
		Data:        data,
		Ne:          ne,
	}
}

// NewNativeCommand wraps a DESFire native command: CLA 0x90, P1 = P2 = 0x00,
// Le = 0x00 (up to 256 bytes).
func NewNativeCommand(ins InsCode, data []byte) *CommandAPDU {
	return NewCommandAPDU(ClassNative, ins, 0x00, 0x00, data, MaxShortLe)
}

// Continuation returns the command requesting the next frame of a chained
// response: same class and parameters, INS 0xAF, no data.
func (c *CommandAPDU) Continuation() *CommandAPDU {
	return NewCommandAPDU(c.Class, INS_DESFIRE_ADDITIONAL_FRAME, c.P1, c.P2, nil, c.Ne)
}

// Bytes encodes the CommandAPDU into its byte representation (C-APDU).
// It automatically handles the selection between Short and Extended encoding
// based on the length of Data (Nc) and the expected response length (Ne).
func (c *CommandAPDU) Bytes() ([]byte, error) {
	nc := len(c.Data)
	ne := c.Ne

	if nc > MaxExtendedLc {
		return nil, fmt.Errorf("%w: data length %d exceeds %d", ErrEncoding, nc, MaxExtendedLc)
	}
	if ne < 0 || ne > MaxExtendedLe {
		return nil, fmt.Errorf("%w: expected length %d out of range", ErrEncoding, ne)
	}

	buf := new(bytes.Buffer)

	// 1. Encode Header
	buf.WriteByte(c.Class)
	buf.WriteByte(byte(c.Instruction))
	buf.WriteByte(c.P1)
	buf.WriteByte(c.P2)

	// Determine encoding mode
	isExtended := nc > MaxShortLc || ne > MaxShortLe

	// 2. Encode Lc Field & Data Field
	if nc > 0 {
		if !isExtended {
			buf.WriteByte(byte(nc))
		} else {
			// 00 + Lc (2 bytes)
			buf.WriteByte(0x00)
			buf.WriteByte(byte(nc >> 8))
			buf.WriteByte(byte(nc))
		}
		buf.Write(c.Data)
	}

	// 3. Encode Le Field
	if ne > 0 {
		if !isExtended {
			if ne == MaxShortLe {
				buf.WriteByte(0x00) // 0x00 represents 256
			} else {
				buf.WriteByte(byte(ne))
			}
		} else {
			// Without Lc, a leading 00 distinguishes extended Le from a short Lc.
			if nc == 0 {
				buf.WriteByte(0x00)
			}

			if ne == MaxExtendedLe {
				buf.WriteByte(0x00)
				buf.WriteByte(0x00)
			} else {
				buf.WriteByte(byte(ne >> 8))
				buf.WriteByte(byte(ne))
			}
		}
	}

	return buf.Bytes(), nil
}

// ParseCommandAPDU decodes the wire form of a command. It is the inverse of
// Bytes and is used by card simulators and trace analysis.
func ParseCommandAPDU(raw []byte) (*CommandAPDU, error) {
	if len(raw) < 4 {
		return nil, fmt.Errorf("%w: command too short: length %d", ErrEncoding, len(raw))
	}

	cmd := &CommandAPDU{
		Class:       raw[0],
		Instruction: InsCode(raw[1]),
		P1:          raw[2],
		P2:          raw[3],
	}
	body := raw[4:]

	switch {
	case len(body) == 0:
		// Case 1
		return cmd, nil

	case len(body) == 1:
		// Case 2 Short
		cmd.Ne = decodeLe(body, MaxShortLe)
		return cmd, nil

	case body[0] != 0x00:
		// Case 3/4 Short
		nc := int(body[0])
		rest := body[1:]
		if len(rest) != nc && len(rest) != nc+1 {
			return nil, fmt.Errorf("%w: Lc %d does not match body length %d", ErrEncoding, nc, len(rest))
		}
		cmd.Data = rest[:nc]
		if len(rest) == nc+1 {
			cmd.Ne = decodeLe(rest[nc:], MaxShortLe)
		}
		return cmd, nil

	case len(body) == 3:
		// Case 2 Extended
		cmd.Ne = decodeLe(body[1:], MaxExtendedLe)
		return cmd, nil

	default:
		// Case 3/4 Extended
		if len(body) < 3 {
			return nil, fmt.Errorf("%w: truncated extended length", ErrEncoding)
		}
		nc := int(body[1])<<8 | int(body[2])
		rest := body[3:]
		if len(rest) != nc && len(rest) != nc+2 {
			return nil, fmt.Errorf("%w: extended Lc %d does not match body length %d", ErrEncoding, nc, len(rest))
		}
		cmd.Data = rest[:nc]
		if len(rest) == nc+2 {
			cmd.Ne = decodeLe(rest[nc:], MaxExtendedLe)
		}
		return cmd, nil
	}
}

func decodeLe(b []byte, zeroValue int) int {
	v := 0
	for _, x := range b {
		v = v<<8 | int(x)
	}
	if v == 0 {
		return zeroValue
	}
	return v
}

// String returns a readable representation of the command meta-data.
func (c *CommandAPDU) String() string {
	return fmt.Sprintf("CLA: %02X | %s | P1: %02X, P2: %02X | Lc: %d | Le: %d",
		c.Class, c.Instruction.Verbose(), c.P1, c.P2, len(c.Data), c.Ne)
}

// ResponseAPDU represents the reply from the card (R-APDU).
type ResponseAPDU struct {
	Data   []byte
	Status StatusWord
}

// ParseResponseAPDU parses raw bytes received from the card into a ResponseAPDU.
// The input must contain at least 2 bytes (SW1, SW2).
func ParseResponseAPDU(raw []byte) (*ResponseAPDU, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("%w: response too short: length %d", ErrMalformedResponse, len(raw))
	}

	indexSW1 := len(raw) - 2
	data := raw[:indexSW1]
	sw1 := raw[indexSW1]
	sw2 := raw[indexSW1+1]

	return &ResponseAPDU{
		Data:   data,
		Status: NewStatusWord(sw1, sw2),
	}, nil
}

// Bytes returns the wire form of the response (data followed by SW1 SW2).
func (r *ResponseAPDU) Bytes() []byte {
	out := make([]byte, 0, len(r.Data)+2)
	out = append(out, r.Data...)
	return append(out, r.Status.SW1(), r.Status.SW2())
}

// String returns a readable representation of the response.
func (r *ResponseAPDU) String() string {
	return fmt.Sprintf("Data (%d bytes) | Status: %s", len(r.Data), r.Status.Verbose())
}
