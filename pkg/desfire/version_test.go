package desfire

import (
	"errors"
	"testing"
)

func TestVersion_CardType(t *testing.T) {
	tests := []struct {
		major, minor byte
		want         CardType
	}{
		{0x00, 0x06, CardTypeMF3ICD40},
		{0x01, 0x00, CardTypeEV1},
		{0x12, 0x00, CardTypeEV2},
		{0x30, 0x00, CardTypeLight},
		{0x01, 0x01, CardTypeUnknown},
		{0x33, 0x00, CardTypeUnknown},
	}

	for _, tt := range tests {
		v := Version{Hardware: VersionInfo{Major: tt.major, Minor: tt.minor}}
		if got := v.CardType(); got != tt.want {
			t.Errorf("CardType(%02X.%02X) = %s, want %s", tt.major, tt.minor, got, tt.want)
		}
	}
}

func TestVersionInfo_Storage(t *testing.T) {
	tests := []struct {
		raw       byte
		wantSize  int
		wantExact bool
		wantText  string
	}{
		{0x18, 4096, true, "4096 bytes"},
		{0x1A, 8192, true, "8192 bytes"},
		{0x13, 512, false, "between 512 and 1024 bytes"},
	}

	for _, tt := range tests {
		v := VersionInfo{StorageSize: tt.raw}
		size, exact := v.Storage()
		if size != tt.wantSize || exact != tt.wantExact {
			t.Errorf("Storage(%02X) = %d, %v; want %d, %v", tt.raw, size, exact, tt.wantSize, tt.wantExact)
		}
		if got := v.StorageString(); got != tt.wantText {
			t.Errorf("StorageString(%02X) = %q, want %q", tt.raw, got, tt.wantText)
		}
	}
}

func TestParseVersion_WrongLength(t *testing.T) {
	if _, err := ParseVersion(make([]byte, 27)); !errors.Is(err, ErrProtocol) {
		t.Errorf("ParseVersion() error = %v, want ErrProtocol", err)
	}
}
