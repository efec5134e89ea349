// Package enum walks a DESFire card and gathers its security layout into
// report records.
//
// ENUMERATION ORDER (single pass, card order, no backtracking):
// 1. PICC: select 000000, key settings, key version 0, authentication probe.
// 2. Application IDs and DF names. Both are prerequisites: a failure ends the run.
// 3. Each application: select, key settings, key versions 0..n-1, file IDs,
//    then the settings of every file. Optionally, ISO SELECT by DF name.
//
// Per-item failures are recorded in the record and the walk goes on. A
// failed select skips the rest of that application. Transport errors
// (timeouts included) end the whole run.
package enum

import (
	"errors"
	"fmt"

	"github.com/gregLibert/desfire-audit/pkg/desfire"
	"github.com/gregLibert/desfire-audit/pkg/iso7816"
	"github.com/pion/logging"
)

// Options configures Enumerate and Inspect.
type Options struct {
	// ProbeAuth runs the authentication probe on the PICC.
	ProbeAuth bool

	// SelectDFNames ISO-selects every named application after its native
	// traversal and records the FCI.
	SelectDFNames bool

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// Failure is one operation that failed without stopping the walk.
type Failure struct {
	Op  string
	Err error
}

func (f Failure) String() string {
	return fmt.Sprintf("%s: %v", f.Op, f.Err)
}

// ApplicationRecord is everything read from one application (or the PICC).
type ApplicationRecord struct {
	AID         desfire.AID
	Name        *desfire.DFName
	Selected    bool
	KeySettings *desfire.KeySettings
	KeyVersions []desfire.KeyVersion
	Auth        desfire.AuthProbe
	FileIDs     []byte
	Files       []desfire.FileSettings
	FCI         *iso7816.FileControlInfo
	Failures    []Failure
}

// Report is the result of Enumerate.
type Report struct {
	PICC         ApplicationRecord
	Applications []ApplicationRecord
}

// walker carries one run.
type walker struct {
	session *desfire.Session
	opts    Options
	log     logging.LeveledLogger
}

func newWalker(session *desfire.Session, opts Options) *walker {
	w := &walker{session: session, opts: opts}
	if opts.LoggerFactory != nil {
		w.log = opts.LoggerFactory.NewLogger("enum")
	}
	return w
}

// isFatal reports errors that end the whole run: the card or the reader
// stopped answering.
func isFatal(err error) bool {
	return errors.Is(err, desfire.ErrTimeout) || errors.Is(err, desfire.ErrTransport)
}

// record files a non-fatal failure, or returns err when it is fatal.
func (w *walker) record(rec *ApplicationRecord, op string, err error) error {
	if isFatal(err) {
		return fmt.Errorf("%s %s: %w", rec.AID, op, err)
	}
	rec.Failures = append(rec.Failures, Failure{Op: op, Err: err})
	if w.log != nil {
		w.log.Warnf("%s %s: %v", rec.AID, op, err)
	}
	return nil
}

// Enumerate walks the card behind session.
func Enumerate(session *desfire.Session, opts Options) (*Report, error) {
	w := newWalker(session, opts)
	report := &Report{}

	if err := w.picc(&report.PICC); err != nil {
		return nil, err
	}

	aids, err := session.GetApplicationIDs()
	if err != nil {
		return nil, fmt.Errorf("application IDs: %w", err)
	}
	names, err := session.GetDFNames()
	if err != nil {
		return nil, fmt.Errorf("DF names: %w", err)
	}

	if w.log != nil {
		w.log.Debugf("%d application(s), %d DF name(s)", len(aids), len(names))
	}

	for _, aid := range aids {
		// Some cards list the PICC itself; it was covered above.
		if aid.IsPICC() {
			continue
		}

		rec := ApplicationRecord{AID: aid, Name: findName(names, aid)}
		if err := w.application(&rec); err != nil {
			return nil, err
		}
		report.Applications = append(report.Applications, rec)
	}

	return report, nil
}

// picc characterises the card master context.
func (w *walker) picc(rec *ApplicationRecord) error {
	rec.AID = desfire.PICC

	if err := w.session.SelectApplication(desfire.PICC); err != nil {
		return w.record(rec, "select", err)
	}
	rec.Selected = true

	if ks, err := w.session.GetKeySettings(); err != nil {
		if err := w.record(rec, "key settings", err); err != nil {
			return err
		}
	} else {
		rec.KeySettings = &ks
	}

	if kv, err := w.session.GetKeyVersion(0); err != nil {
		if err := w.record(rec, "key version 0", err); err != nil {
			return err
		}
	} else {
		rec.KeyVersions = append(rec.KeyVersions, kv)
	}

	if w.opts.ProbeAuth {
		probe, err := w.session.ProbeAuth()
		if err != nil {
			// Only transport errors come out of the probe.
			return fmt.Errorf("%s auth probe: %w", rec.AID, err)
		}
		rec.Auth = probe
	}
	return nil
}

// application walks one application.
func (w *walker) application(rec *ApplicationRecord) error {
	if err := w.session.SelectApplication(rec.AID); err != nil {
		return w.record(rec, "select", err)
	}
	rec.Selected = true

	keys := 1
	if ks, err := w.session.GetKeySettings(); err != nil {
		if err := w.record(rec, "key settings", err); err != nil {
			return err
		}
	} else {
		rec.KeySettings = &ks
		if n := ks.MaxKeys(); n > keys {
			keys = n
		}
	}

	for i := 0; i < keys; i++ {
		kv, err := w.session.GetKeyVersion(byte(i))
		if err != nil {
			if err := w.record(rec, fmt.Sprintf("key version %d", i), err); err != nil {
				return err
			}
			continue
		}
		rec.KeyVersions = append(rec.KeyVersions, kv)
	}

	ids, err := w.session.GetFileIDs()
	if err != nil {
		if err := w.record(rec, "file IDs", err); err != nil {
			return err
		}
	}
	rec.FileIDs = ids

	for _, id := range ids {
		fs, err := w.session.GetFileSettings(id)
		if err != nil {
			if err := w.record(rec, fmt.Sprintf("file settings 0x%02X", id), err); err != nil {
				return err
			}
			continue
		}
		rec.Files = append(rec.Files, fs)
	}

	if w.opts.SelectDFNames && rec.Name != nil {
		fci, err := w.session.SelectDFName(*rec.Name)
		if err != nil {
			return w.record(rec, "ISO select by DF name", err)
		}
		rec.FCI = fci
	}

	return nil
}

func findName(names []desfire.DFName, aid desfire.AID) *desfire.DFName {
	for i := range names {
		if names[i].AID == aid {
			return &names[i]
		}
	}
	return nil
}
