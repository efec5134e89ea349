/*
Package iso7816 implements the APDU layer used to talk to MIFARE DESFire cards
through ISO/IEC 7816-4 wrapping.

DESFire native commands are carried in proprietary-class APDUs:

	90 <INS> 00 00 [Lc <data>] 00

and every response ends with a 2-byte Status Word. The card reports its native
status in SW2 with SW1 fixed to 0x91:

  - 0x9100 (or ISO 0x9000): Success.
  - 0x91AF: Additional frame. More response data is pending and the terminal must
    send the continuation instruction (INS 0xAF) to fetch it.
  - 0x91xx: Error, the sub-code xx tells which one (0xAE authentication error,
    0x40 no such key, 0x1C illegal command code, ...).

This package only encodes and decodes. Frame chaining and the typed card
operations live in package desfire.

# Usage Example: Encoding a native command

	cmd := iso7816.NewNativeCommand(iso7816.INS_DESFIRE_SELECT_APPLICATION, []byte{0x01, 0x83, 0x80})
	raw, err := cmd.Bytes() // 90 5A 00 00 03 01 83 80 00
	if err != nil {
	    log.Fatal(err)
	}

	resp, err := iso7816.ParseResponseAPDU(reply)
	if err != nil {
	    log.Fatal(err) // fewer than 2 bytes: transport fault
	}

	switch resp.Status.Outcome() {
	case iso7816.OutcomeSuccess:
	case iso7816.OutcomeMoreFrames:
	default:
	    fmt.Println(resp.Status.Verbose())
	}
*/
package iso7816
