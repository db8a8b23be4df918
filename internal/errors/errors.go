// Package errors defines the failure kinds surfaced by the ledger core.
package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a ledger failure.
type Kind string

const (
	KindValidation Kind = "VALIDATION"
	KindConflict   Kind = "CONFLICT"
	KindStorage    Kind = "STORAGE"
)

// LedgerError is the single failure value returned by ledger operations.
type LedgerError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *LedgerError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, strings.ToLower(string(e.Kind)))
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, strings.ToLower(string(e.Kind)), e.Err)
}

func (e *LedgerError) Unwrap() error { return e.Err }

func Validation(op string, err error) error {
	return &LedgerError{Kind: KindValidation, Op: op, Err: err}
}

func Conflict(op string, err error) error {
	return &LedgerError{Kind: KindConflict, Op: op, Err: err}
}

func Storage(op string, err error) error {
	return &LedgerError{Kind: KindStorage, Op: op, Err: err}
}

// KindOf reports the kind of err. Unclassified errors count as storage faults.
func KindOf(err error) Kind {
	var le *LedgerError
	if stderrors.As(err, &le) {
		return le.Kind
	}
	return KindStorage
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ValidationErrors collects field-level messages.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, v[f]))
	}
	return strings.Join(parts, "; ")
}
