package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind uint8

const (
	// KindUnknown is the zero value.
	KindUnknown Kind = iota
	// KindNetwork covers connection failures, timeouts and non-success HTTP statuses.
	KindNetwork
	// KindParse covers feed documents that cannot be parsed.
	KindParse
	// KindIO covers local filesystem failures.
	KindIO
	// KindArgument covers invalid or missing user input.
	KindArgument
)

// Sentinel values, one per kind, for use with errors.Is.
var (
	// ErrNetwork matches every error of kind KindNetwork.
	ErrNetwork = errors.New("network error")
	// ErrParse matches every error of kind KindParse.
	ErrParse = errors.New("parse error")
	// ErrIO matches every error of kind KindIO.
	ErrIO = errors.New("i/o error")
	// ErrArgument matches every error of kind KindArgument.
	ErrArgument = errors.New("argument error")
)

// String returns a human-readable representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindUnknown:
		return "unknown"
	case KindNetwork:
		return "network"
	case KindParse:
		return "parse"
	case KindIO:
		return "io"
	case KindArgument:
		return "argument"
	default:
		return fmt.Sprintf("unknown: %d", k)
	}
}

func (k Kind) sentinel() error {
	//nolint:exhaustive // Unknown kind has no sentinel.
	switch k {
	case KindNetwork:
		return ErrNetwork
	case KindParse:
		return ErrParse
	case KindIO:
		return ErrIO
	case KindArgument:
		return ErrArgument
	default:
		return nil
	}
}

// Error is a classified failure of a named operation.
type Error struct {
	// Kind is the failure class.
	Kind Kind
	// Op names the operation that failed, e.g. "fetch feed".
	Op string
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind.sentinel(), e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind.sentinel(), e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Kind.sentinel(), e.Op)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrNetwork) and friends match by kind.
func (e *Error) Is(target error) bool {
	sentinel := e.Kind.sentinel()

	return sentinel != nil && target == sentinel
}

// New creates a classified error.
func New(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Network wraps err as a network failure of op.
func Network(op string, err error) error {
	return New(KindNetwork, op, err)
}

// Parse wraps err as a parse failure of op.
func Parse(op string, err error) error {
	return New(KindParse, op, err)
}

// IO wraps err as a local I/O failure of op.
func IO(op string, err error) error {
	return New(KindIO, op, err)
}

// Argument wraps err as an argument failure of op.
func Argument(op string, err error) error {
	return New(KindArgument, op, err)
}

// KindOf returns the kind of the first classified error in the chain.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}

	return KindUnknown
}
