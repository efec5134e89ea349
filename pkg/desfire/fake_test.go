package desfire

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/gregLibert/desfire-audit/pkg/tlv"
)

// step is one scripted exchange: the expected request and the canned answer.
type step struct {
	req  string
	resp string
	err  error
}

// exchangeCall records one call the code under test made.
type exchangeCall struct {
	activateField bool
	keepFieldOn   bool
	req           []byte
}

// scriptedCard replays a fixed conversation and fails the test on any
// request it did not expect.
type scriptedCard struct {
	t     *testing.T
	steps []step
	calls []exchangeCall
}

func newScriptedCard(t *testing.T, steps ...step) *scriptedCard {
	t.Helper()
	return &scriptedCard{t: t, steps: steps}
}

func (c *scriptedCard) Exchange(activateField, keepFieldOn bool, req []byte) ([]byte, error) {
	c.calls = append(c.calls, exchangeCall{activateField, keepFieldOn, append([]byte(nil), req...)})

	n := len(c.calls) - 1
	if n >= len(c.steps) {
		c.t.Errorf("unexpected exchange #%d: %X", n+1, req)
		return nil, fmt.Errorf("script exhausted")
	}

	s := c.steps[n]
	if want := tlv.Hex(s.req); !bytes.Equal(req, want) {
		c.t.Errorf("exchange #%d: got request %X, want %X", n+1, req, want)
	}
	if s.err != nil {
		return nil, s.err
	}
	return tlv.Hex(s.resp), nil
}

// done fails the test when scripted steps were left unused.
func (c *scriptedCard) done() {
	c.t.Helper()
	if len(c.calls) != len(c.steps) {
		c.t.Errorf("%d exchange(s) made, %d scripted", len(c.calls), len(c.steps))
	}
}

func newTestSession(t *testing.T, steps ...step) (*Session, *scriptedCard) {
	t.Helper()
	card := newScriptedCard(t, steps...)
	return NewSession(NewClient(Config{Transport: card})), card
}

// selectStep is the exchange behind a successful SelectApplication.
func selectStep(aid string) step {
	return step{req: "905A000003 " + aid + " 00", resp: "9100"}
}
