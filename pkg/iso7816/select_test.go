package iso7816

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gregLibert/desfire-audit/pkg/tlv"
)

func TestSelectByName(t *testing.T) {
	tests := []struct {
		name string
		df   []byte
		want []byte
	}{
		{
			name: "NDEF application",
			df:   tlv.Hex("D2760000850101"),
			want: tlv.Hex(
				"00 A4 04 00",          // P1=04 DF name, P2=00 FCI
				"07",                   // Lc
				"D2 76 00 00 85 01 01", // DF name
				"00",                   // Le=256
			),
		},
		{
			name: "full-length DF name",
			df:   tlv.Hex("A0000000 0102030405060708090A0B0C"),
			want: tlv.Hex("00 A4 04 00 10 A0000000 0102030405060708090A0B0C 00"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectByName(tt.df).Bytes()
			if err != nil {
				t.Fatalf("Bytes() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("encoding mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
