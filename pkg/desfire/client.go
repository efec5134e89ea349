package desfire

import (
	"errors"
	"fmt"

	"github.com/gregLibert/desfire-audit/pkg/iso7816"
	"github.com/pion/logging"
)

// CHAINING LOGIC:
// A DESFire card that cannot fit its answer in one frame ends the frame with
// '91 AF'. The Client then sends INS 'AF' (same class and parameters, no data)
// until the card closes the chain with a success status. Any other status
// ends the chain and everything gathered so far is dropped.
//
// Some answers are sequences of fixed-width records sent one record per
// frame with variable-length tails (GetDFNames). With a Stride, each frame
// after the first starts on the next record boundary, so the records can be
// cut back out of the buffer.

// DefaultCapacity is the largest assembled response accepted when
// Config.Capacity is 0.
const DefaultCapacity = 4096

// Config configures a Client.
type Config struct {
	// Transport carries the APDUs. Required.
	Transport Transport

	// Capacity bounds the size of one assembled response.
	// Defaults to DefaultCapacity if 0.
	Capacity int

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// ChainOptions tunes one Transceive call.
type ChainOptions struct {
	// ActivateField is passed to the transport for the first frame only.
	ActivateField bool

	// Stride aligns continuation frames on record boundaries when > 0.
	Stride int
}

// Client runs APDU exchanges and frame chaining over a Transport.
type Client struct {
	transport Transport
	capacity  int
	log       logging.LeveledLogger
}

// NewClient creates a new Client.
func NewClient(config Config) *Client {
	capacity := config.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	c := &Client{
		transport: config.Transport,
		capacity:  capacity,
	}

	if config.LoggerFactory != nil {
		c.log = config.LoggerFactory.NewLogger("desfire")
	}

	return c
}

// Capacity returns the size bound applied to assembled responses.
func (c *Client) Capacity() int {
	return c.capacity
}

// Exchange sends one command and decodes the reply. No chaining is applied
// and the status word is returned as is, whatever its class.
func (c *Client) Exchange(cmd *iso7816.CommandAPDU, activateField bool) (*iso7816.ResponseAPDU, error) {
	raw, err := cmd.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cmd.Instruction, err)
	}

	if c.log != nil {
		c.log.Tracef(">>>> %X", raw)
	}

	rawResp, err := c.transport.Exchange(activateField, true, raw)
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			return nil, fmt.Errorf("%s: %w", cmd.Instruction, err)
		}
		return nil, fmt.Errorf("%s: %w: %w", cmd.Instruction, ErrTransport, err)
	}

	if c.log != nil {
		c.log.Tracef("<<<< %X", rawResp)
	}

	resp, err := iso7816.ParseResponseAPDU(rawResp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cmd.Instruction, err)
	}

	// The reader's T=0 layer owns GET RESPONSE; the hint is only reported.
	if resp.Status.IsResponseAvailable() && c.log != nil {
		c.log.Debugf("%s: card reports %d more bytes (61xx), left to the transport", cmd.Instruction, resp.Status.SW2())
	}

	return resp, nil
}

// Transceive sends cmd and follows '91 AF' continuations until the card
// reports success. It returns the assembled payload, or an error and no data.
func (c *Client) Transceive(cmd *iso7816.CommandAPDU, opts ChainOptions) ([]byte, error) {
	var (
		trace    iso7816.Trace
		assembly []byte
	)

	next := cmd
	activate := opts.ActivateField

	for {
		resp, err := c.Exchange(next, activate)
		if err != nil {
			return nil, err
		}
		trace = append(trace, iso7816.Transaction{Command: next, Response: resp})

		if resp.Status.Outcome() == iso7816.OutcomeError {
			if c.log != nil {
				c.log.Debugf("%s: chain aborted after %d frame(s): %s", cmd.Instruction, len(trace), resp.Status.Verbose())
			}
			return nil, &StatusError{Ins: cmd.Instruction, SW: resp.Status}
		}

		offset := len(assembly)
		if opts.Stride > 0 {
			offset = alignUp(offset, opts.Stride)
		}
		if end := offset + len(resp.Data); end > c.capacity {
			return nil, fmt.Errorf("%s: %w: %d bytes, capacity %d", cmd.Instruction, ErrBufferOverflow, end, c.capacity)
		}
		assembly = place(assembly, offset, resp.Data)

		if resp.Status.IsSuccess() {
			break
		}

		next = cmd.Continuation()
		activate = false
	}

	if opts.Stride > 0 {
		padded := alignUp(len(assembly), opts.Stride)
		if padded > c.capacity {
			return nil, fmt.Errorf("%s: %w: %d bytes, capacity %d", cmd.Instruction, ErrBufferOverflow, padded, c.capacity)
		}
		assembly = place(assembly, padded, nil)
	}

	if c.log != nil {
		c.log.Debugf("%s: %d frame(s), %d bytes received, %d assembled, %s", cmd.Instruction, len(trace), len(trace.Data()), len(assembly), trace.Status())
	}

	return assembly, nil
}

// place writes data at offset, zero-filling any gap.
func place(buf []byte, offset int, data []byte) []byte {
	for len(buf) < offset {
		buf = append(buf, 0x00)
	}
	return append(buf[:offset], data...)
}

func alignUp(n, stride int) int {
	if rem := n % stride; rem != 0 {
		return n + stride - rem
	}
	return n
}
