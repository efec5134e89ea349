// Package pcsc carries DESFire exchanges over a PC/SC reader.
package pcsc

import (
	"errors"
	"fmt"

	"github.com/ebfe/scard"
	"github.com/gregLibert/desfire-audit/pkg/desfire"
)

// card is the part of *scard.Card the reader drives.
type card interface {
	Transmit(cmd []byte) ([]byte, error)
	Reconnect(mode scard.ShareMode, proto scard.Protocol, disp scard.Disposition) error
	Disconnect(disp scard.Disposition) error
}

// Reader is a connected PC/SC reader. It implements desfire.Transport.
type Reader struct {
	Name  string
	Index int

	ctx  *scard.Context
	card card

	// powerDown is set when the previous exchange asked for the field to
	// be dropped, so the next one starts with a fresh activation.
	powerDown bool
}

// ListReaders returns the names of the readers known to the PC/SC service.
func ListReaders() ([]string, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("EstablishContext failed: %w", err)
	}
	defer func() { _ = ctx.Release() }()

	readers, err := ctx.ListReaders()
	if err != nil {
		return nil, fmt.Errorf("ListReaders failed: %w", err)
	}
	return readers, nil
}

// Connect opens the reader at readerIndex (0-based) and connects to the card
// in its field.
func Connect(readerIndex int) (*Reader, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("EstablishContext failed: %w", err)
	}

	readers, err := ctx.ListReaders()
	if err != nil || len(readers) == 0 {
		_ = ctx.Release()
		return nil, fmt.Errorf("no readers found: %v", err)
	}
	if readerIndex < 0 || readerIndex >= len(readers) {
		_ = ctx.Release()
		return nil, fmt.Errorf("reader index %d out of range (0..%d)", readerIndex, len(readers)-1)
	}

	name := readers[readerIndex]
	c, err := ctx.Connect(name, scard.ShareShared, scard.ProtocolAny)
	if err != nil {
		_ = ctx.Release()
		return nil, fmt.Errorf("connect to %q failed: %w", name, mapError(err))
	}

	return &Reader{Name: name, Index: readerIndex, ctx: ctx, card: c}, nil
}

// Exchange sends one raw APDU. activateField resets the card so it comes
// back at PICC level; keepFieldOn=false makes the next exchange reactivate.
func (r *Reader) Exchange(activateField, keepFieldOn bool, req []byte) ([]byte, error) {
	if r == nil || r.card == nil {
		return nil, fmt.Errorf("%w: reader not connected", desfire.ErrTransport)
	}

	if activateField || r.powerDown {
		if err := r.card.Reconnect(scard.ShareShared, scard.ProtocolAny, scard.ResetCard); err != nil {
			return nil, fmt.Errorf("field activation: %w", mapError(err))
		}
	}
	r.powerDown = !keepFieldOn

	resp, err := r.card.Transmit(req)
	if err != nil {
		return nil, mapError(err)
	}
	return resp, nil
}

// Close powers the card down and releases the PC/SC context.
func (r *Reader) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.card != nil {
		errs = append(errs, r.card.Disconnect(scard.UnpowerCard))
		r.card = nil
	}
	if r.ctx != nil {
		errs = append(errs, r.ctx.Release())
		r.ctx = nil
	}
	return errors.Join(errs...)
}

// mapError keeps the PC/SC error and adds the desfire sentinel it belongs to.
func mapError(err error) error {
	if errors.Is(err, scard.ErrTimeout) {
		return fmt.Errorf("%w: %w", desfire.ErrTimeout, err)
	}
	return err
}
