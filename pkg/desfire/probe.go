package desfire

import (
	"errors"
	"fmt"

	"github.com/gregLibert/desfire-audit/pkg/iso7816"
)

// AUTHENTICATION PROBE:
// Each authentication command is sent with key number 0. A card that supports
// the variant answers '91 AF' with its challenge; the probe stops there and
// never sends the second pass, so no key (the all-zero candidate included) is
// ever used and no session key is derived.

// AuthMethod is one authentication entry point.
type AuthMethod iso7816.InsCode

const (
	AuthLegacy AuthMethod = AuthMethod(iso7816.INS_DESFIRE_AUTHENTICATE)
	AuthISO    AuthMethod = AuthMethod(iso7816.INS_DESFIRE_AUTHENTICATE_ISO)
	AuthAES    AuthMethod = AuthMethod(iso7816.INS_DESFIRE_AUTHENTICATE_AES)
)

// authMethods is the probe order.
var authMethods = []AuthMethod{AuthLegacy, AuthISO, AuthAES}

func (m AuthMethod) String() string {
	switch m {
	case AuthLegacy:
		return "legacy DES/3DES (0x0A)"
	case AuthISO:
		return "ISO 3DES (0x1A)"
	case AuthAES:
		return "AES (0xAA)"
	default:
		return fmt.Sprintf("AuthMethod(0x%02X)", byte(m))
	}
}

// ProbeResult is the card's answer to one authentication request.
type ProbeResult struct {
	Method AuthMethod
	Status iso7816.StatusWord

	// Err is set when the answer could not be decoded. Status is then zero.
	Err error
}

// Accepted reports whether the card started the handshake.
func (r ProbeResult) Accepted() bool {
	return r.Err == nil && r.Status.IsMoreFrames()
}

// AuthProbe holds one result per method, in probe order.
type AuthProbe []ProbeResult

// Supports reports whether method was accepted.
func (p AuthProbe) Supports(method AuthMethod) bool {
	for _, r := range p {
		if r.Method == method {
			return r.Accepted()
		}
	}
	return false
}

// ProbeAuth tries every authentication method against the selected context.
// Rejections and undecodable answers are recorded per method; a transport
// error (timeout included) stops the probe and is returned.
func (s *Session) ProbeAuth() (AuthProbe, error) {
	if !s.valid {
		return nil, fmt.Errorf("auth probe: %w", ErrNotSelected)
	}

	probe := make(AuthProbe, 0, len(authMethods))
	for _, m := range authMethods {
		cmd := iso7816.NewNativeCommand(iso7816.InsCode(m), []byte{0x00})

		resp, err := s.client.Exchange(cmd, false)
		if err != nil {
			if errors.Is(err, ErrTimeout) || errors.Is(err, ErrTransport) {
				return nil, fmt.Errorf("auth probe %s: %w", m, err)
			}
			probe = append(probe, ProbeResult{Method: m, Err: err})
			if s.log != nil {
				s.log.Debugf("auth probe %s on %s: %v", m, s.selected, err)
			}
			continue
		}

		probe = append(probe, ProbeResult{Method: m, Status: resp.Status})
		if s.log != nil {
			s.log.Debugf("auth probe %s on %s: %s", m, s.selected, resp.Status.Verbose())
		}
	}
	return probe, nil
}
