package originality

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"errors"
	"fmt"
	"math/big"
)

// SignatureSize is the raw r || s signature returned by READ SIG.
const SignatureSize = 2 * coordinateSize

var (
	// ErrVerificationFailed means no catalog key validates the signature:
	// the card is a clone or a variant missing from the catalog.
	ErrVerificationFailed = errors.New("originality signature verification failed")

	ErrInvalidSignature = errors.New("invalid originality signature")
)

// Match identifies the catalog key that validated a signature.
type Match struct {
	Label string
	Key   []byte

	// Hint is the card type given by the caller, for reporting only.
	Hint string
}

type catalogKey struct {
	PublicKey
	pub *ecdsa.PublicKey
}

// Verifier checks signatures against an ordered key catalog.
type Verifier struct {
	keys    []catalogKey
	skipped []string
}

// NewVerifier builds a Verifier over keys. Keys that do not decode to a
// secp224r1 point are left out (see Skipped). A nil catalog means
// DefaultCatalog.
func NewVerifier(keys []PublicKey) *Verifier {
	if keys == nil {
		keys = DefaultCatalog()
	}

	v := &Verifier{}
	for _, k := range keys {
		pub, err := parsePublicKey(k.Key)
		if err != nil {
			v.skipped = append(v.skipped, k.Label)
			continue
		}
		v.keys = append(v.keys, catalogKey{PublicKey: k, pub: pub})
	}
	return v
}

// Skipped lists the labels of catalog keys that could not be used.
func (v *Verifier) Skipped() []string {
	return v.skipped
}

// Verify tries every catalog key in order and returns the first that
// validates sig over uid. hint only labels the result.
func (v *Verifier) Verify(uid, sig []byte, hint string) (*Match, error) {
	if len(sig) != SignatureSize {
		return nil, fmt.Errorf("%w: %d bytes, want %d", ErrInvalidSignature, len(sig), SignatureSize)
	}
	if len(uid) == 0 {
		return nil, fmt.Errorf("%w: empty UID", ErrInvalidSignature)
	}

	r := new(big.Int).SetBytes(sig[:coordinateSize])
	s := new(big.Int).SetBytes(sig[coordinateSize:])

	for _, k := range v.keys {
		if ecdsa.Verify(k.pub, uid, r, s) {
			return &Match{Label: k.Label, Key: k.Key, Hint: hint}, nil
		}
	}
	return nil, fmt.Errorf("%w: UID %X (%s)", ErrVerificationFailed, uid, hint)
}

func parsePublicKey(raw []byte) (*ecdsa.PublicKey, error) {
	if len(raw) != PublicKeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", PublicKeySize, len(raw))
	}
	if raw[0] != 0x04 {
		return nil, errors.New("public key must be in uncompressed format (starting with 0x04)")
	}

	x := new(big.Int).SetBytes(raw[1 : 1+coordinateSize])
	y := new(big.Int).SetBytes(raw[1+coordinateSize:])

	pub := &ecdsa.PublicKey{
		Curve: elliptic.P224(),
		X:     x,
		Y:     y,
	}

	if !pub.Curve.IsOnCurve(x, y) {
		return nil, errors.New("public key point is not on the P-224 curve")
	}
	return pub, nil
}
