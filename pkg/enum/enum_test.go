package enum

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/gregLibert/desfire-audit/pkg/desfire"
	"github.com/gregLibert/desfire-audit/pkg/iso7816"
	"github.com/gregLibert/desfire-audit/pkg/tlv"
)

var (
	appNDEF  = desfire.AID{0x01, 0x83, 0x80}
	appOther = desfire.AID{0xF4, 0x81, 0x20}
)

func newSession(card *fakeCard) *desfire.Session {
	return desfire.NewSession(desfire.NewClient(desfire.Config{Transport: card}))
}

// ev1Card lists the PICC itself and one NDEF application.
func ev1Card() *fakeCard {
	card := newFakeCard()
	card.apps[desfire.PICC] = &fakeApp{
		keySettings: tlv.Hex("0F 01"),
		keyVersions: map[byte]byte{0: 0x00},
	}
	card.order = append(card.order, desfire.PICC)
	card.addApp(appNDEF, &fakeApp{
		keySettings: tlv.Hex("0F 82"),
		keyVersions: map[byte]byte{0: 0x10, 1: 0x11},
		fileIDs:     tlv.Hex("01 02"),
		files: map[byte][]byte{
			0x01: tlv.Hex("00 00 E0EE 0F0000"),
			0x02: tlv.Hex("00 00 E0EE 000100"),
		},
		dfName:    tlv.Hex("D2760000850101"),
		isoFileID: [2]byte{0x10, 0xE1},
	})
	card.auth[iso7816.INS_DESFIRE_AUTHENTICATE] = iso7816.SW_DESFIRE_ADDITIONAL_FRAME
	card.auth[iso7816.INS_DESFIRE_AUTHENTICATE_ISO] = iso7816.SW_DESFIRE_ADDITIONAL_FRAME
	return card
}

var cmpReport = []cmp.Option{cmpopts.EquateErrors(), cmpopts.EquateEmpty()}

func TestEnumerate_PICCAndOneApplication(t *testing.T) {
	card := ev1Card()

	got, err := Enumerate(newSession(card), Options{ProbeAuth: true})
	if err != nil {
		t.Fatalf("Enumerate() error = %v", err)
	}

	want := &Report{
		PICC: ApplicationRecord{
			AID:         desfire.PICC,
			Selected:    true,
			KeySettings: &desfire.KeySettings{Settings: 0x0F, KeyCount: 0x01},
			KeyVersions: []desfire.KeyVersion{{Index: 0, Version: 0x00}},
			Auth: desfire.AuthProbe{
				{Method: desfire.AuthLegacy, Status: iso7816.SW_DESFIRE_ADDITIONAL_FRAME},
				{Method: desfire.AuthISO, Status: iso7816.SW_DESFIRE_ADDITIONAL_FRAME},
				{Method: desfire.AuthAES, Status: iso7816.SW_DESFIRE_AUTHENTICATION_ERROR},
			},
		},
		Applications: []ApplicationRecord{
			{
				AID:         appNDEF,
				Name:        &desfire.DFName{AID: appNDEF, FileID: [2]byte{0x10, 0xE1}, Name: tlv.Hex("D2760000850101")},
				Selected:    true,
				KeySettings: &desfire.KeySettings{Settings: 0x0F, KeyCount: 0x82},
				KeyVersions: []desfire.KeyVersion{{Index: 0, Version: 0x10}, {Index: 1, Version: 0x11}},
				FileIDs:     tlv.Hex("01 02"),
				Files: []desfire.FileSettings{
					{FileID: 0x01, Raw: tlv.Hex("00 00 E0EE 0F0000")},
					{FileID: 0x02, Raw: tlv.Hex("00 00 E0EE 000100")},
				},
			},
		},
	}

	if diff := cmp.Diff(want, got, cmpReport...); diff != "" {
		t.Errorf("Enumerate() mismatch (-want +got):\n%s", diff)
	}
}

func TestEnumerate_MissingKeyVersionContinues(t *testing.T) {
	card := newFakeCard()
	card.addApp(appNDEF, &fakeApp{
		keySettings: tlv.Hex("0F 83"), // 3 AES keys
		keyVersions: map[byte]byte{0: 0x01, 2: 0x03},
		fileIDs:     tlv.Hex("07"),
		files:       map[byte][]byte{0x07: tlv.Hex("01 03 1234 200000")},
	})

	got, err := Enumerate(newSession(card), Options{})
	if err != nil {
		t.Fatalf("Enumerate() error = %v", err)
	}
	app := got.Applications[0]

	wantVersions := []desfire.KeyVersion{{Index: 0, Version: 0x01}, {Index: 2, Version: 0x03}}
	if diff := cmp.Diff(wantVersions, app.KeyVersions); diff != "" {
		t.Errorf("KeyVersions mismatch (-want +got):\n%s", diff)
	}

	wantFailures := []Failure{{Op: "key version 1", Err: desfire.ErrNoSuchKey}}
	if diff := cmp.Diff(wantFailures, app.Failures, cmpReport...); diff != "" {
		t.Errorf("Failures mismatch (-want +got):\n%s", diff)
	}

	// File settings are requested by file ID, not by position.
	wantFiles := []desfire.FileSettings{{FileID: 0x07, Raw: tlv.Hex("01 03 1234 200000")}}
	if diff := cmp.Diff(wantFiles, app.Files); diff != "" {
		t.Errorf("Files mismatch (-want +got):\n%s", diff)
	}
}

func TestEnumerate_SelectFailureSkipsOnlyThatApplication(t *testing.T) {
	card := newFakeCard()
	card.addApp(appOther, &fakeApp{selectFails: true})
	card.addApp(appNDEF, &fakeApp{
		keySettings: tlv.Hex("0B 01"),
		keyVersions: map[byte]byte{0: 0x00},
	})

	got, err := Enumerate(newSession(card), Options{})
	if err != nil {
		t.Fatalf("Enumerate() error = %v", err)
	}

	if len(got.Applications) != 2 {
		t.Fatalf("got %d application records, want 2", len(got.Applications))
	}

	failed := got.Applications[0]
	if failed.AID != appOther || failed.Selected || failed.KeySettings != nil {
		t.Errorf("failed application record = %+v", failed)
	}
	if len(failed.Failures) != 1 || !errors.Is(failed.Failures[0].Err, desfire.ErrSelectFailed) {
		t.Errorf("failed application Failures = %v", failed.Failures)
	}

	ok := got.Applications[1]
	if !ok.Selected || ok.KeySettings == nil || len(ok.Failures) != 0 {
		t.Errorf("second application record = %+v", ok)
	}
}

func TestEnumerate_AuthRequiredIsRecorded(t *testing.T) {
	card := newFakeCard()
	card.addApp(appNDEF, &fakeApp{
		keySettings: nil, // 91AE
		keyVersions: map[byte]byte{0: 0x02},
	})

	got, err := Enumerate(newSession(card), Options{})
	if err != nil {
		t.Fatalf("Enumerate() error = %v", err)
	}

	app := got.Applications[0]
	// Without key settings only key 0 is probed.
	if diff := cmp.Diff([]desfire.KeyVersion{{Index: 0, Version: 0x02}}, app.KeyVersions); diff != "" {
		t.Errorf("KeyVersions mismatch (-want +got):\n%s", diff)
	}
	wantFailures := []Failure{{Op: "key settings", Err: desfire.ErrAuthRequired}}
	if diff := cmp.Diff(wantFailures, app.Failures, cmpReport...); diff != "" {
		t.Errorf("Failures mismatch (-want +got):\n%s", diff)
	}
}

func TestEnumerate_MalformedAuthAnswerIsRecorded(t *testing.T) {
	card := ev1Card()
	card.replies[iso7816.INS_DESFIRE_AUTHENTICATE] = tlv.Hex("91")

	got, err := Enumerate(newSession(card), Options{ProbeAuth: true})
	if err != nil {
		t.Fatalf("Enumerate() error = %v", err)
	}

	want := desfire.AuthProbe{
		{Method: desfire.AuthLegacy, Err: desfire.ErrMalformedResponse},
		{Method: desfire.AuthISO, Status: iso7816.SW_DESFIRE_ADDITIONAL_FRAME},
		{Method: desfire.AuthAES, Status: iso7816.SW_DESFIRE_AUTHENTICATION_ERROR},
	}
	if diff := cmp.Diff(want, got.PICC.Auth, cmpReport...); diff != "" {
		t.Errorf("PICC auth probe mismatch (-want +got):\n%s", diff)
	}
	if len(got.Applications) != 1 {
		t.Errorf("the walk should go on to the applications, got %d", len(got.Applications))
	}
	if !strings.Contains(got.Describe(), "Auth legacy DES/3DES (0x0A): [!!]") {
		t.Errorf("Describe() should report the undecodable answer")
	}
}

func TestEnumerate_PrerequisitesAbort(t *testing.T) {
	tests := []struct {
		name string
		ins  iso7816.InsCode
	}{
		{"application IDs", iso7816.INS_DESFIRE_GET_APPLICATION_IDS},
		{"DF names", iso7816.INS_DESFIRE_GET_DF_NAMES},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := ev1Card()
			card.failures[tt.ins] = iso7816.SW_DESFIRE_PERMISSION_DENIED

			got, err := Enumerate(newSession(card), Options{})
			if !errors.Is(err, desfire.ErrProtocol) {
				t.Fatalf("Enumerate() error = %v, want ErrProtocol", err)
			}
			if got != nil {
				t.Errorf("Enumerate() returned a partial report")
			}
		})
	}
}

func TestEnumerate_TimeoutAborts(t *testing.T) {
	tests := []struct {
		name string
		ins  iso7816.InsCode
	}{
		{"during auth probe", iso7816.INS_DESFIRE_AUTHENTICATE_ISO},
		{"during file settings", iso7816.INS_DESFIRE_GET_FILE_SETTINGS},
		{"during select", iso7816.INS_DESFIRE_SELECT_APPLICATION},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := ev1Card()
			card.timeoutOn[tt.ins] = true

			got, err := Enumerate(newSession(card), Options{ProbeAuth: true})
			if !errors.Is(err, desfire.ErrTimeout) {
				t.Fatalf("Enumerate() error = %v, want ErrTimeout", err)
			}
			if got != nil {
				t.Errorf("Enumerate() returned a partial report")
			}
		})
	}
}

func TestEnumerate_SelectDFNames(t *testing.T) {
	card := ev1Card()

	got, err := Enumerate(newSession(card), Options{SelectDFNames: true})
	if err != nil {
		t.Fatalf("Enumerate() error = %v", err)
	}

	want := &iso7816.FileControlInfo{DFName: tlv.Hex("D2760000850101")}
	if diff := cmp.Diff(want, got.Applications[0].FCI, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("FCI mismatch (-want +got):\n%s", diff)
	}
	if last := card.seen[len(card.seen)-1]; last != "A4D2760000850101" {
		t.Errorf("last command = %s, want ISO select by DF name", last)
	}
}

func TestReport_Describe(t *testing.T) {
	got, err := Enumerate(newSession(ev1Card()), Options{ProbeAuth: true})
	if err != nil {
		t.Fatalf("Enumerate() error = %v", err)
	}

	text := got.Describe()
	for _, want := range []string{
		"=== DESFIRE ENUMERATION REPORT ===",
		"[App 1/1] AID 018380",
		`DF name:      D2760000850101 (".v....."), ISO file 10E1`,
		"Keys:                  2 (AES)",
		"Auth AES (0xAA): [--] rejected (91AE)",
		"Auth legacy DES/3DES (0x0A): [OK] accepted (91AF)",
		"File 0x01: 0000E0EE0F0000 (standard data) access RE WE RWE C0",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Describe() is missing %q\n%s", want, text)
		}
	}
}
