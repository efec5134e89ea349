package enum

import (
	"errors"
	"fmt"

	"github.com/gregLibert/desfire-audit/pkg/desfire"
	"github.com/gregLibert/desfire-audit/pkg/originality"
)

// CardInfo is the result of Inspect: what the card says about itself.
type CardInfo struct {
	Version *desfire.Version

	Signature   []byte
	Originality *originality.Match

	PICC ApplicationRecord

	// FreeMemory is nil when the card could not report it.
	FreeMemory            *uint32
	FreeMemoryUnsupported bool

	Failures []Failure
}

// Inspect reads the card identity: version, originality signature, PICC key
// characterisation and free memory. Only transport errors abort it.
func Inspect(session *desfire.Session, verifier *originality.Verifier, opts Options) (*CardInfo, error) {
	w := newWalker(session, opts)
	info := &CardInfo{}

	fail := func(op string, err error) error {
		if isFatal(err) {
			return fmt.Errorf("%s: %w", op, err)
		}
		info.Failures = append(info.Failures, Failure{Op: op, Err: err})
		if w.log != nil {
			w.log.Warnf("%s: %v", op, err)
		}
		return nil
	}

	version, err := session.GetVersion()
	if err != nil {
		if err := fail("version", err); err != nil {
			return nil, err
		}
	}
	info.Version = version

	sig, err := session.GetSignature()
	if err != nil {
		if err := fail("signature", err); err != nil {
			return nil, err
		}
	}
	info.Signature = sig

	if sig != nil && version != nil {
		match, err := verifier.Verify(version.UID[:], sig, version.CardType().String())
		if err != nil {
			if err := fail("originality", err); err != nil {
				return nil, err
			}
		}
		info.Originality = match
	}

	if err := w.picc(&info.PICC); err != nil {
		return nil, err
	}

	free, err := session.GetFreeMemory()
	switch {
	case err == nil:
		info.FreeMemory = &free
	case errors.Is(err, desfire.ErrUnsupported):
		info.FreeMemoryUnsupported = true
	default:
		if err := fail("free memory", err); err != nil {
			return nil, err
		}
	}

	return info, nil
}
