package iso7816

// SELECT (INS 'A4') as a DESFire card understands it: applications created
// with an ISO DF name can be selected by that name (P1=04) and answer with an
// FCI template (P2=00, see ParseFCI).

const (
	selectByDFName byte = 0x04
	selectFCI      byte = 0x00
)

// SelectByName creates a SELECT by DF name: 00 A4 04 00 Lc name 00.
// Le asks for up to 256 bytes, since Lc and Le travel together on a
// contactless (T=CL) link.
func SelectByName(name []byte) *CommandAPDU {
	return NewCommandAPDU(ClassInterindustry, INS_SELECT, selectByDFName, selectFCI, name, MaxShortLe)
}
