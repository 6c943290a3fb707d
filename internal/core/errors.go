package core

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error so adapters can map it to a transport status.
type Kind int

const (
	KindInvalid Kind = iota + 1
	KindNotFound
	// KindConflict is a uniqueness violation reported by storage.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by the domain services.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works
// regardless of the message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrInvalid  = &Error{Kind: KindInvalid, Msg: "invalid request"}
	ErrNotFound = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrConflict = &Error{Kind: KindConflict, Msg: "conflict"}
)

func invalidf(format string, args ...any) error {
	return &Error{Kind: KindInvalid, Msg: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Invalidf builds a KindInvalid error for callers outside the package.
func Invalidf(format string, args ...any) error {
	return invalidf(format, args...)
}

// NotFoundf builds a KindNotFound error. Storage adapters use it to report missing rows.
func NotFoundf(format string, args ...any) error {
	return notFoundf(format, args...)
}

// Conflictf builds a KindConflict error. Storage adapters use it to translate
// unique-constraint violations into a readable message.
func Conflictf(format string, args ...any) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of a domain error, or 0 for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// asDomainError re-surfaces an arbitrary failure from inside a unit of work as
// KindInvalid carrying the underlying message. Domain errors pass through unchanged.
func asDomainError(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindInvalid, Msg: err.Error()}
}
