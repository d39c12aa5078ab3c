// Package apperr defines the domain-level error kinds shared by the
// analytical tree engine and the Datalog inference bridge.
package apperr

import "fmt"

// Kind classifies a domain error. Naming is for design, not wire format.
type Kind string

const (
	// InvalidArgument covers an out-of-range numeric parameter, an empty
	// required string, an unknown enum value, or an unsupported Datalog
	// construct.
	InvalidArgument Kind = "InvalidArgument"
	// NotFound covers a referenced node id or session id that is unknown.
	NotFound Kind = "NotFound"
	// StateViolation covers an operation that requires a tree/cursor/KB
	// state that is absent.
	StateViolation Kind = "StateViolation"
	// Timeout covers a Datalog query that exceeded timeout_ms.
	Timeout Kind = "Timeout"
	// Internal covers a reasoner builder failure on otherwise-valid input.
	Internal Kind = "Internal"
)

// Error is a structured domain error. It never carries partial-mutation
// state — callers that receive one are guaranteed the operation made no
// observable change.
type Error struct {
	Kind   Kind
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs an *Error with no wrapped cause.
func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Newf constructs an *Error with a formatted detail message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap constructs an *Error carrying a wrapped cause.
func Wrap(kind Kind, detail string, cause error) *Error {
	return &Error{Kind: kind, Detail: detail, Cause: cause}
}

// As reports whether err is (or wraps) an *Error, returning it if so.
func As(err error) (*Error, bool) {
	var e *Error
	if err == nil {
		return nil, false
	}
	if ae, ok := err.(*Error); ok {
		return ae, true
	}
	if u, ok := err.(interface{ Unwrap() error }); ok {
		return As(u.Unwrap())
	}
	return e, false
}
