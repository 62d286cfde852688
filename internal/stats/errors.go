package stats

import (
	"errors"
	"fmt"
)

// Kind classifies failures surfaced by the statistics service.
type Kind string

const (
	KindUpstreamRead Kind = "upstream_read"
	KindValidation   Kind = "validation"
)

// Error is the tagged error returned by Service operations.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Upstream tags a failed record store read.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindUpstreamRead, Op: op, Message: "failed to read from record store", Err: err}
}

// Invalid reports a rejected request parameter.
func Invalid(op, msg string) error {
	return &Error{Kind: KindValidation, Op: op, Message: msg}
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}
