package goquad

import (
	"errors"
	"fmt"
)

// ============================================================
// Validation errors
// ============================================================

// Sentinels for errors.Is. Every rejection from the Coordinator is a
// *ValidationError wrapping exactly one of them.
var (
	ErrInvalidParameter    = errors.New("invalid parameter")
	ErrInvalidInterval     = errors.New("invalid interval")
	ErrMalformedExpression = errors.New("malformed expression")
	ErrUndefinedOnInterval = errors.New("function undefined on interval")
	ErrUnknownPreset       = errors.New("unknown preset")
)

type ErrorKind string

const (
	KindInvalidParameter    ErrorKind = "invalid_parameter"
	KindInvalidInterval     ErrorKind = "invalid_interval"
	KindMalformedExpression ErrorKind = "malformed_expression"
	KindUndefinedOnInterval ErrorKind = "undefined_on_interval"
	KindUnknownPreset       ErrorKind = "unknown_preset"
)

var kindSentinels = map[ErrorKind]error{
	KindInvalidParameter:    ErrInvalidParameter,
	KindInvalidInterval:     ErrInvalidInterval,
	KindMalformedExpression: ErrMalformedExpression,
	KindUndefinedOnInterval: ErrUndefinedOnInterval,
	KindUnknownPreset:       ErrUnknownPreset,
}

// ValidationError rejects a run before any rule executes.
type ValidationError struct {
	Kind ErrorKind
	Msg  string
	Err  error // underlying cause, e.g. a *ParseError
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", kindSentinels[e.Kind], e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", kindSentinels[e.Kind], e.Msg)
}

func (e *ValidationError) Is(target error) bool { return kindSentinels[e.Kind] == target }
func (e *ValidationError) Unwrap() error        { return e.Err }

func validationErr(kind ErrorKind, cause error, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf returns the validation kind of err, or "" if err is not a
// validation error.
func KindOf(err error) ErrorKind {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Kind
	}
	return ""
}
