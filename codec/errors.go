package codec

import (
	"errors"
	"fmt"
)

var (
	ErrMissingMarker = errors.New("missing marker")
	ErrBadNumber     = errors.New("bad number")
	ErrBadValue      = errors.New("value out of range")
)

// DecodeError describes where and why decoding stopped. Kind is one of
// ErrMissingMarker, ErrBadNumber or ErrBadValue; errors.Is matches it.
type DecodeError struct {
	Kind   error
	Offset int    // token index
	Token  string // offending token, empty at end of input
	Want   string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("codec: %v at token %d (%q), want %s", e.Kind, e.Offset, e.Token, e.Want)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
