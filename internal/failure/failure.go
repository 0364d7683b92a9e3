// Package failure classifies run errors. Fatal errors abort the whole run,
// skips drop one record and warnings are only reported.
package failure

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Class is the severity of a run error.
type Class int

// Error classes, most severe first.
const (
	ClassFatal Class = iota
	ClassSkip
	ClassWarning
)

func (c Class) String() string {
	switch c {
	case ClassFatal:
		return "fatal"
	case ClassSkip:
		return "skip"
	case ClassWarning:
		return "warning"
	}
	return "unknown"
}

var (
	errFatal   = errors.New("fatal")
	errSkip    = errors.New("skip")
	errWarning = errors.New("warning")
)

// Fatal marks err as aborting the run and attaches an operator hint.
func Fatal(err error, hint string) error {
	return mark(err, errFatal, hint)
}

// Skip marks err as dropping a single record.
func Skip(err error, hint string) error {
	return mark(err, errSkip, hint)
}

// Warning marks err as informational.
func Warning(err error) error {
	return mark(err, errWarning, "")
}

func mark(err error, class error, hint string) error {
	if err == nil {
		return nil
	}
	err = errors.Mark(err, class)
	if hint != "" {
		err = errors.WithHint(err, hint)
	}
	return err
}

// ClassOf reports how err should be handled. Unmarked errors are fatal.
func ClassOf(err error) Class {
	switch {
	case errors.Is(err, errSkip):
		return ClassSkip
	case errors.Is(err, errWarning):
		return ClassWarning
	}
	return ClassFatal
}

// Hint returns the operator hints attached anywhere in err's chain.
func Hint(err error) string {
	return strings.Join(errors.GetAllHints(err), "; ")
}

// WithDetail attaches a detail line, such as the offending source value.
func WithDetail(err error, detail string) error {
	return errors.WithDetail(err, detail)
}

// Details returns the detail lines attached to err.
func Details(err error) []string {
	return errors.GetAllDetails(err)
}
