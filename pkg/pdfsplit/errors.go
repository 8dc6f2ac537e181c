package pdfsplit

import (
	"errors"
	"fmt"
)

// Kind classifies a split failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindNotFound
	KindMalformed
	KindAuth
	KindTemplate
	KindIO
	KindExists
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid-argument"
	case KindNotFound:
		return "not-found"
	case KindMalformed:
		return "malformed-document"
	case KindAuth:
		return "authentication"
	case KindTemplate:
		return "template-error"
	case KindIO:
		return "io-error"
	case KindExists:
		return "output-exists"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Error lets a Kind be used as an errors.Is target.
func (k Kind) Error() string { return k.String() }

// Error is the typed failure returned by every operation in this package.
type Error struct {
	Kind Kind
	Op   string // failing step, e.g. "open", "partition", "write"
	Path string // file the step was working on, if any
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the Kind of e.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// KindOf returns the Kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func newError(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

func errorf(kind Kind, op, path, format string, args ...any) *Error {
	return newError(kind, op, path, fmt.Errorf(format, args...))
}
