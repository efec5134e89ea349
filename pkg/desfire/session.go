package desfire

import (
	"fmt"

	"github.com/gregLibert/desfire-audit/pkg/bits"
	"github.com/gregLibert/desfire-audit/pkg/iso7816"
	"github.com/pion/logging"
)

// SESSION STATE:
// The card keeps one selected application. The Session mirrors it:
//
// - SelectApplication (and SelectDFName) set it on success and clear it on
//   failure, so a failed select is never mistaken for the previous context.
// - Card-level commands (GetApplicationIDs, GetDFNames, GetFreeMemory,
//   GetSignature, GetVersion) re-activate the field, which puts the card back
//   at the PICC level; the Session records PICC afterwards.
// - Every other command needs a selection and fails with ErrNotSelected
//   without one.

const (
	signatureSize  = 56
	freeMemorySize = 3
)

// Session is the typed command set of one card. It is not safe for
// concurrent use.
type Session struct {
	client   *Client
	selected AID
	valid    bool
	log      logging.LeveledLogger
}

// NewSession creates a Session with no application selected.
func NewSession(client *Client) *Session {
	return &Session{client: client, log: client.log}
}

// Selected returns the application the card is known to have selected.
func (s *Session) Selected() (AID, bool) {
	return s.selected, s.valid
}

func (s *Session) setSelected(aid AID) {
	s.selected = aid
	s.valid = true
}

func (s *Session) clearSelected() {
	s.selected = AID{}
	s.valid = false
}

// appCommand runs a native command against the selected application.
func (s *Session) appCommand(ins iso7816.InsCode, data []byte, stride int) ([]byte, error) {
	if !s.valid {
		return nil, fmt.Errorf("%s: %w", ins, ErrNotSelected)
	}
	return s.client.Transceive(iso7816.NewNativeCommand(ins, data), ChainOptions{Stride: stride})
}

// cardCommand runs a native command on a fresh field, at the PICC level.
func (s *Session) cardCommand(ins iso7816.InsCode, data []byte, stride int) ([]byte, error) {
	out, err := s.client.Transceive(iso7816.NewNativeCommand(ins, data), ChainOptions{ActivateField: true, Stride: stride})
	if err != nil && !IsStatusError(err) {
		// The link failed; what the card holds is unknown.
		s.clearSelected()
		return nil, err
	}
	s.setSelected(PICC)
	return out, err
}

// SelectApplication selects aid (PICC for the card master context).
func (s *Session) SelectApplication(aid AID) error {
	cmd := iso7816.NewNativeCommand(iso7816.INS_DESFIRE_SELECT_APPLICATION, aid[:])

	if _, err := s.client.Transceive(cmd, ChainOptions{ActivateField: true}); err != nil {
		s.clearSelected()
		if IsStatusError(err) {
			return fmt.Errorf("%w: %s: %w", ErrSelectFailed, aid, err)
		}
		return err
	}

	s.setSelected(aid)
	if s.log != nil {
		s.log.Debugf("selected application %s", aid)
	}
	return nil
}

// SelectDFName selects the application df through ISO SELECT by DF name and
// returns the FCI the card answered.
func (s *Session) SelectDFName(df DFName) (*iso7816.FileControlInfo, error) {
	cmd := iso7816.SelectByName(df.Name)

	data, err := s.client.Transceive(cmd, ChainOptions{})
	if err != nil {
		s.clearSelected()
		if IsStatusError(err) {
			return nil, fmt.Errorf("%w: DF name %X: %w", ErrSelectFailed, df.Name, err)
		}
		return nil, err
	}
	s.setSelected(df.AID)

	fci, err := iso7816.ParseFCI(data)
	if err != nil {
		return nil, fmt.Errorf("%w: FCI of %s: %w", ErrProtocol, df.AID, err)
	}
	return fci, nil
}

// GetKeySettings reads the key settings of the selected context.
func (s *Session) GetKeySettings() (KeySettings, error) {
	data, err := s.appCommand(iso7816.INS_DESFIRE_GET_KEY_SETTINGS, nil, 0)
	if err != nil {
		return KeySettings{}, err
	}
	if len(data) != 2 {
		return KeySettings{}, fmt.Errorf("%w: key settings must be 2 bytes, got %d", ErrProtocol, len(data))
	}
	return KeySettings{Settings: data[0], KeyCount: data[1]}, nil
}

// GetKeyVersion reads the version of key index. A key slot beyond the
// application's key count fails with ErrNoSuchKey.
func (s *Session) GetKeyVersion(index byte) (KeyVersion, error) {
	data, err := s.appCommand(iso7816.INS_DESFIRE_GET_KEY_VERSION, []byte{index}, 0)
	if err != nil {
		return KeyVersion{}, err
	}
	if len(data) < 1 {
		return KeyVersion{}, fmt.Errorf("%w: empty key version answer", ErrProtocol)
	}
	return KeyVersion{Index: index, Version: data[0]}, nil
}

// GetFileIDs lists the files of the selected application.
func (s *Session) GetFileIDs() ([]byte, error) {
	return s.appCommand(iso7816.INS_DESFIRE_GET_FILE_IDS, nil, 0)
}

// GetFileSettings reads the settings of one file.
func (s *Session) GetFileSettings(fileID byte) (FileSettings, error) {
	data, err := s.appCommand(iso7816.INS_DESFIRE_GET_FILE_SETTINGS, []byte{fileID}, 0)
	if err != nil {
		return FileSettings{}, err
	}
	return FileSettings{FileID: fileID, Raw: data}, nil
}

// GetApplicationIDs lists the applications of the card, in card order.
func (s *Session) GetApplicationIDs() ([]AID, error) {
	data, err := s.cardCommand(iso7816.INS_DESFIRE_GET_APPLICATION_IDS, nil, 0)
	if err != nil {
		return nil, err
	}
	if len(data)%3 != 0 {
		return nil, fmt.Errorf("%w: application list of %d bytes is not a multiple of 3", ErrProtocol, len(data))
	}

	aids := make([]AID, 0, len(data)/3)
	for off := 0; off < len(data); off += 3 {
		var aid AID
		copy(aid[:], data[off:off+3])
		aids = append(aids, aid)
	}
	return aids, nil
}

// GetDFNames lists the ISO DF names of the card applications.
func (s *Session) GetDFNames() ([]DFName, error) {
	data, err := s.cardCommand(iso7816.INS_DESFIRE_GET_DF_NAMES, nil, DFNameRecordSize)
	if err != nil {
		return nil, err
	}
	return parseDFNames(data), nil
}

// GetFreeMemory returns the free user memory in bytes. Cards that do not
// implement the command fail with ErrUnsupported.
func (s *Session) GetFreeMemory() (uint32, error) {
	data, err := s.cardCommand(iso7816.INS_DESFIRE_GET_FREE_MEMORY, nil, 0)
	if err != nil {
		return 0, err
	}
	if len(data) != freeMemorySize {
		return 0, fmt.Errorf("%w: free memory must be %d bytes, got %d", ErrProtocol, freeMemorySize, len(data))
	}
	return bits.Uint24LE(data), nil
}

// GetSignature reads the 56-byte originality signature.
func (s *Session) GetSignature() ([]byte, error) {
	data, err := s.cardCommand(iso7816.INS_DESFIRE_READ_SIGNATURE, []byte{0x00}, 0)
	if err != nil {
		return nil, err
	}
	if len(data) != signatureSize {
		return nil, fmt.Errorf("%w: signature must be %d bytes, got %d", ErrProtocol, signatureSize, len(data))
	}
	return data, nil
}

// GetVersion reads the hardware, software and production information.
func (s *Session) GetVersion() (*Version, error) {
	data, err := s.cardCommand(iso7816.INS_DESFIRE_GET_VERSION, nil, 0)
	if err != nil {
		return nil, err
	}
	return ParseVersion(data)
}
