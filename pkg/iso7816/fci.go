package iso7816

import (
	"strings"

	"github.com/gregLibert/desfire-audit/pkg/tlv"
	"github.com/moov-io/bertlv"
)

// FILE CONTROL INFORMATION (ISO/IEC 7816-4).
//
// SELECT by DF name with P2=00 returns an FCI template ('6F'). Its fields may
// sit directly under it or inside a File Control Parameters ('62') and/or a
// File Management Data ('64') template.
//
// A DESFire application selected by DF name answers with a '6F' template
// holding its DF name ('84') and, on EV2 and later, a proprietary block ('85').

// Tags the parser extracts. Everything else lands in Unknown.
const (
	tagFCI             = "6F"
	tagFCP             = "62"
	tagFMD             = "64"
	tagFileID          = "83"
	tagDFName          = "84"
	tagProprietary     = "85"
	tagApplicationLbl  = "50"
	tagProprietaryBERs = "A5"
)

// FileControlInfo represents the parsed result of a SELECT command.
type FileControlInfo struct {
	DFName      []byte
	FileID      []byte
	Label       []byte
	Proprietary []byte

	// Unknown contains TLV tags the parser does not interpret.
	Unknown []bertlv.TLV

	// ProprietaryRawData holds answers that are not BER-TLV at all.
	ProprietaryRawData []byte
}

// ParseFCI parses the data field of a SELECT answer requested with P2=00.
// An empty answer gives a nil FCI.
func ParseFCI(data []byte) (*FileControlInfo, error) {
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] >= 0xC0 {
		return &FileControlInfo{ProprietaryRawData: data}, nil
	}

	packets, err := tlv.Decode(data)
	if err != nil {
		return nil, err
	}

	fci := &FileControlInfo{}

	working := packets
	if wrapper, ok := tlv.Find(packets, tagFCI); ok {
		working = wrapper.TLVs
	}

	fcp, foundFCP := tlv.Find(working, tagFCP)
	fmd, foundFMD := tlv.Find(working, tagFMD)

	// Without explicit templates the fields sit flat under the wrapper.
	if !foundFCP && !foundFMD {
		fci.fill(working)
		return fci, nil
	}

	if foundFCP {
		fci.fill(fcp.TLVs)
	}
	if foundFMD {
		fci.fill(fmd.TLVs)
	}
	fci.Unknown = append(fci.Unknown, tlv.Without(working, tagFCP, tagFMD)...)
	return fci, nil
}

func (fci *FileControlInfo) fill(packets []bertlv.TLV) {
	for _, p := range packets {
		switch strings.ToUpper(p.Tag) {
		case tagDFName:
			fci.DFName = p.Value
		case tagFileID:
			fci.FileID = p.Value
		case tagApplicationLbl:
			fci.Label = p.Value
		case tagProprietary, tagProprietaryBERs:
			fci.Proprietary = tlv.Value(p)
		default:
			fci.Unknown = append(fci.Unknown, p)
		}
	}
}
