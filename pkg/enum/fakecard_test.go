package enum

import (
	"bytes"
	"fmt"

	"github.com/gregLibert/desfire-audit/pkg/desfire"
	"github.com/gregLibert/desfire-audit/pkg/iso7816"
)

// fakeApp is one application of the simulated card.
type fakeApp struct {
	keySettings []byte // nil answers 91AE
	keyVersions map[byte]byte
	fileIDs     []byte
	files       map[byte][]byte
	dfName      []byte
	isoFileID   [2]byte
	selectFails bool
}

// fakeCard simulates enough of a DESFire card to drive Enumerate and Inspect.
type fakeCard struct {
	apps  map[desfire.AID]*fakeApp
	order []desfire.AID // GetApplicationIDs order

	version    []byte
	signature  []byte
	freeMemory []byte // nil answers 911C
	auth       map[iso7816.InsCode]iso7816.StatusWord

	// failures forces a status word for an instruction.
	failures map[iso7816.InsCode]iso7816.StatusWord
	// replies forces a raw answer for an instruction.
	replies map[iso7816.InsCode][]byte
	// timeoutOn makes the transport time out on an instruction.
	timeoutOn map[iso7816.InsCode]bool

	selected desfire.AID
	pending  [][]byte
	seen     []string
}

func newFakeCard() *fakeCard {
	return &fakeCard{
		apps:      map[desfire.AID]*fakeApp{desfire.PICC: {}},
		auth:      map[iso7816.InsCode]iso7816.StatusWord{},
		failures:  map[iso7816.InsCode]iso7816.StatusWord{},
		replies:   map[iso7816.InsCode][]byte{},
		timeoutOn: map[iso7816.InsCode]bool{},
	}
}

func (c *fakeCard) addApp(aid desfire.AID, app *fakeApp) {
	c.apps[aid] = app
	c.order = append(c.order, aid)
}

func status(sw iso7816.StatusWord) []byte {
	return []byte{sw.SW1(), sw.SW2()}
}

// frames answers the first frame and queues the others behind 91AF.
func (c *fakeCard) frames(parts ...[]byte) []byte {
	if len(parts) == 0 {
		return status(iso7816.SW_DESFIRE_OK)
	}
	c.pending = parts[1:]
	return c.frame(parts[0])
}

func (c *fakeCard) frame(data []byte) []byte {
	sw := iso7816.SW_DESFIRE_OK
	if len(c.pending) > 0 {
		sw = iso7816.SW_DESFIRE_ADDITIONAL_FRAME
	}
	return append(append([]byte(nil), data...), status(sw)...)
}

func (c *fakeCard) Exchange(activateField, keepFieldOn bool, req []byte) ([]byte, error) {
	cmd, err := iso7816.ParseCommandAPDU(req)
	if err != nil {
		return nil, err
	}
	if activateField {
		c.selected = desfire.PICC
	}

	ins := cmd.Instruction
	c.seen = append(c.seen, fmt.Sprintf("%02X%X", byte(ins), cmd.Data))

	if c.timeoutOn[ins] {
		return nil, fmt.Errorf("simulated: %w", desfire.ErrTimeout)
	}
	if sw, ok := c.failures[ins]; ok {
		return status(sw), nil
	}
	if raw, ok := c.replies[ins]; ok {
		return raw, nil
	}

	app := c.apps[c.selected]

	switch ins {
	case iso7816.INS_DESFIRE_ADDITIONAL_FRAME:
		if len(c.pending) == 0 {
			return status(iso7816.SW_DESFIRE_PERMISSION_DENIED), nil
		}
		next := c.pending[0]
		c.pending = c.pending[1:]
		return c.frame(next), nil

	case iso7816.INS_DESFIRE_SELECT_APPLICATION:
		aid, _ := desfire.ParseAID(cmd.Data)
		target, ok := c.apps[aid]
		if !ok || target.selectFails {
			return status(iso7816.SW_DESFIRE_APPLICATION_NOT_FOUND), nil
		}
		c.selected = aid
		return status(iso7816.SW_DESFIRE_OK), nil

	case iso7816.INS_DESFIRE_GET_KEY_SETTINGS:
		if app.keySettings == nil {
			return status(iso7816.SW_DESFIRE_AUTHENTICATION_ERROR), nil
		}
		return c.frames(app.keySettings), nil

	case iso7816.INS_DESFIRE_GET_KEY_VERSION:
		v, ok := app.keyVersions[cmd.Data[0]]
		if !ok {
			return status(iso7816.SW_DESFIRE_NO_SUCH_KEY), nil
		}
		return c.frames([]byte{v}), nil

	case iso7816.INS_DESFIRE_GET_FILE_IDS:
		return c.frames(app.fileIDs), nil

	case iso7816.INS_DESFIRE_GET_FILE_SETTINGS:
		fs, ok := app.files[cmd.Data[0]]
		if !ok {
			return status(iso7816.SW_DESFIRE_FILE_NOT_FOUND), nil
		}
		return c.frames(fs), nil

	case iso7816.INS_DESFIRE_GET_APPLICATION_IDS:
		var parts [][]byte
		for _, aid := range c.order {
			parts = append(parts, append([]byte(nil), aid[:]...))
		}
		return c.frames(parts...), nil

	case iso7816.INS_DESFIRE_GET_DF_NAMES:
		var parts [][]byte
		for _, aid := range c.order {
			if a := c.apps[aid]; a.dfName != nil {
				rec := append(append(append([]byte(nil), aid[:]...), a.isoFileID[:]...), a.dfName...)
				parts = append(parts, rec)
			}
		}
		return c.frames(parts...), nil

	case iso7816.INS_DESFIRE_GET_VERSION:
		return c.frames(c.version[0:7], c.version[7:14], c.version[14:]), nil

	case iso7816.INS_DESFIRE_READ_SIGNATURE:
		return c.frames(c.signature[:32], c.signature[32:]), nil

	case iso7816.INS_DESFIRE_GET_FREE_MEMORY:
		if c.freeMemory == nil {
			return status(iso7816.SW_DESFIRE_ILLEGAL_COMMAND), nil
		}
		return c.frames(c.freeMemory), nil

	case iso7816.INS_DESFIRE_AUTHENTICATE, iso7816.INS_DESFIRE_AUTHENTICATE_ISO, iso7816.INS_DESFIRE_AUTHENTICATE_AES:
		sw, ok := c.auth[ins]
		if !ok {
			sw = iso7816.SW_DESFIRE_AUTHENTICATION_ERROR
		}
		if sw == iso7816.SW_DESFIRE_ADDITIONAL_FRAME {
			return append(bytes.Repeat([]byte{0xA5}, 8), status(sw)...), nil
		}
		return status(sw), nil

	case iso7816.INS_SELECT:
		for _, aid := range c.order {
			if a := c.apps[aid]; a.dfName != nil && bytes.Equal(a.dfName, cmd.Data) {
				c.selected = aid
				fci := append([]byte{0x6F, byte(2 + len(a.dfName)), 0x84, byte(len(a.dfName))}, a.dfName...)
				return append(fci, status(iso7816.SW_NO_ERROR)...), nil
			}
		}
		return status(iso7816.SW_ERR_FILE_NOT_FOUND), nil
	}

	return status(iso7816.SW_DESFIRE_ILLEGAL_COMMAND), nil
}
