package gen

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/syssam/cmpby/compiler/load"
)

// Severity of a diagnostic.
type Severity uint8

const (
	// SeverityError fails generation for the type it is reported on.
	SeverityError Severity = iota
	// SeverityWarning is reported but does not stop generation.
	SeverityWarning
)

// String implements fmt.Stringer.
func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Diagnostic is an error or a warning reported on a source position.
type Diagnostic struct {
	Severity Severity
	Pos      load.Pos
	Err      error
}

// String renders the diagnostic in the file:line:col form used by the Go
// tools.
func (d *Diagnostic) String() string {
	if d.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %v", d.Pos, d.Severity, d.Err)
	}
	return fmt.Sprintf("%s: %v", d.Severity, d.Err)
}

// MarshalText implements encoding.TextMarshaler.
func (d *Diagnostic) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// errorDiag wraps err as an error diagnostic. The position is taken from
// the error when it carries one.
func errorDiag(err error) *Diagnostic {
	d := &Diagnostic{Severity: SeverityError, Err: err}
	var p Positioned
	if errors.As(err, &p) {
		d.Pos = p.Position()
	}
	return d
}

func warnf(pos load.Pos, format string, args ...any) *Diagnostic {
	return &Diagnostic{Severity: SeverityWarning, Pos: pos, Err: fmt.Errorf(format, args...)}
}

// Diagnostics is a list of diagnostics.
type Diagnostics []*Diagnostic

// HasErrors reports whether the list holds at least one error.
func (ds Diagnostics) HasErrors() bool {
	return slices.ContainsFunc(ds, func(d *Diagnostic) bool { return d.Severity == SeverityError })
}

// Warnings returns the warnings of the list.
func (ds Diagnostics) Warnings() Diagnostics {
	var ws Diagnostics
	for _, d := range ds {
		if d.Severity == SeverityWarning {
			ws = append(ws, d)
		}
	}
	return ws
}

// Err joins the errors of the list, or returns nil if there are none.
func (ds Diagnostics) Err() error {
	var errs []error
	for _, d := range ds {
		if d.Severity == SeverityError {
			errs = append(errs, d.Err)
		}
	}
	return errors.Join(errs...)
}

// Sort orders the diagnostics by position.
func (ds Diagnostics) Sort() {
	slices.SortStableFunc(ds, func(a, b *Diagnostic) int {
		return cmp.Or(
			cmp.Compare(a.Pos.Filename, b.Pos.Filename),
			cmp.Compare(a.Pos.Line, b.Pos.Line),
			cmp.Compare(a.Pos.Column, b.Pos.Column),
		)
	})
}
