package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindUnauthenticated   Kind = "UNAUTHENTICATED"
	KindInvalid           Kind = "INVALID_ARGUMENT"
	KindNotFound          Kind = "NOT_FOUND"
	KindForbidden         Kind = "FORBIDDEN"
	KindConflict          Kind = "CONFLICT"
	KindInsufficientFunds Kind = "INSUFFICIENT_FUNDS"
	KindSelfTipNotAllowed Kind = "SELF_TIP_NOT_ALLOWED"
	KindTransient         Kind = "TRANSIENT"
	KindInternal          Kind = "INTERNAL"
)

// Error is the typed failure returned by the binder, the store and the
// mutation service. Callers branch on Kind, never on Message.
type Error struct {
	Kind    Kind   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error with the same kind and message, so that
// wrapped sentinels still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func Unauthenticated(msg string) *Error { return New(KindUnauthenticated, msg) }
func Invalid(msg string) *Error         { return New(KindInvalid, msg) }
func NotFound(msg string) *Error        { return New(KindNotFound, msg) }
func Forbidden(msg string) *Error       { return New(KindForbidden, msg) }
func Conflict(msg string) *Error        { return New(KindConflict, msg) }

func Internal(cause error) *Error {
	return Wrap(KindInternal, "internal error", cause)
}

func Transient(cause error) *Error {
	return Wrap(KindTransient, "transient store failure", cause)
}

// KindOf reports the kind of the first *Error in err's chain, or
// KindInternal for untyped errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
