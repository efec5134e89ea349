package desfire

import (
	"errors"
	"fmt"

	"github.com/gregLibert/desfire-audit/pkg/iso7816"
)

var (
	// ErrEncoding reports a command that cannot be put on the wire.
	ErrEncoding = iso7816.ErrEncoding

	// ErrMalformedResponse reports a reply shorter than a status word.
	ErrMalformedResponse = iso7816.ErrMalformedResponse

	ErrBufferOverflow = errors.New("response exceeds buffer capacity")
	ErrTimeout        = errors.New("transport timeout")
	ErrTransport      = errors.New("transport failure")
	ErrSelectFailed   = errors.New("select failed")
	ErrAuthRequired   = errors.New("authentication required")
	ErrNoSuchKey      = errors.New("no such key")
	ErrProtocol       = errors.New("protocol error")
	ErrUnsupported    = errors.New("command not supported by card")

	// ErrNotSelected is returned by application-level operations before any
	// successful select.
	ErrNotSelected = errors.New("no application selected")
)

// StatusError is a non-success status word returned by the card.
//
// It matches ErrProtocol, plus the sentinel of its sub-code class:
// ErrAuthRequired (91AE, 6982), ErrNoSuchKey (9140), ErrUnsupported (911C).
type StatusError struct {
	Ins iso7816.InsCode
	SW  iso7816.StatusWord
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("card command %s failed: %s", e.Ins, e.SW.Verbose())
}

// Is implements errors.Is matching against the package sentinels.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrProtocol:
		return true
	case ErrAuthRequired:
		return e.SW == iso7816.SW_DESFIRE_AUTHENTICATION_ERROR ||
			e.SW == iso7816.SW_ERR_SECURITY_STATUS_NOT_SAT
	case ErrNoSuchKey:
		return e.SW == iso7816.SW_DESFIRE_NO_SUCH_KEY
	case ErrUnsupported:
		return e.SW == iso7816.SW_DESFIRE_ILLEGAL_COMMAND
	default:
		return false
	}
}

// IsStatusError reports whether err came from the card rather than the link.
func IsStatusError(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}
