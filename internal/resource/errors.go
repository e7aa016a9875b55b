package resource

import (
	"errors"
	"fmt"
)

// Kind classifies resource failures.
type Kind int

// Error kinds.
const (
	KindUnknown Kind = iota
	KindNotFound
	KindIO
	KindInvalidArgument
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindIO:
		return "i/o error"
	case KindInvalidArgument:
		return "invalid argument"
	default:
		return "unknown error"
	}
}

// Sentinels for errors.Is checks against an *Error's kind.
var (
	ErrNotFound        = errors.New("resource: not found")
	ErrIO              = errors.New("resource: i/o error")
	ErrInvalidArgument = errors.New("resource: invalid argument")
)

// Error is returned by every resource operation that fails.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := "resource: " + e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	} else {
		msg += ": " + e.Kind.String()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrIO:
		return e.Kind == KindIO
	case ErrInvalidArgument:
		return e.Kind == KindInvalidArgument
	}
	return false
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func invalidArgument(op, subject, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidArgument, Op: op, Path: subject, Err: fmt.Errorf(format, args...)}
}
