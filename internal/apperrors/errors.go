// Package apperrors defines the small, stable error taxonomy the storage
// core raises, following the corpus convention (see cuemby-warren's
// pkg/storage doc.go "Error Wrapping" section) of wrapping the original
// cause for logging while keeping the public message generic enough to
// return to a caller.
package apperrors

import "fmt"

// Kind is one of the five stable failure kinds the core ever raises.
type Kind string

const (
	KindValidation         Kind = "VALIDATION_ERROR"
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindNotFound           Kind = "NOT_FOUND"
	KindPreconditionFailed Kind = "PRECONDITION_FAILED"
	KindInternal           Kind = "INTERNAL_ERROR"
)

// Error is the concrete error type carried through the core. Code is
// always equal to string(Kind) today; it is kept distinct from Kind so a
// future revision could subdivide a kind into several stable codes
// without changing Kind's meaning.
type Error struct {
	cause   error
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As, without
// leaking it through Error() to callers who only log the message.
func (e *Error) Unwrap() error {
	return e.cause
}

// Cause returns the original error that triggered this one, or nil. Used
// by logging call sites that want the full diagnostic; never serialized
// to an HTTP response body.
func (e *Error) Cause() error {
	return e.cause
}

func newErr(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Code: string(kind), Message: message, cause: cause}
}

// Validation reports a client input error: bad key length, oversize
// value, malformed TTL, oversize batch, etc. A malformed If-Match is
// reported as PreconditionFailed, not as a validation error.
func Validation(format string, args ...interface{}) *Error {
	return newErr(KindValidation, fmt.Sprintf(format, args...), nil)
}

// Unauthorized reports a failed authentication/authorization check.
func Unauthorized(format string, args ...interface{}) *Error {
	return newErr(KindUnauthorized, fmt.Sprintf(format, args...), nil)
}

// NotFound reports that the addressed item does not exist (or is
// expired, which is observably the same thing).
func NotFound(format string, args ...interface{}) *Error {
	return newErr(KindNotFound, fmt.Sprintf(format, args...), nil)
}

// PreconditionFailed reports that an If-Match / ifMatchVersion
// precondition did not hold. The underlying item, if any, is unchanged.
func PreconditionFailed(format string, args ...interface{}) *Error {
	return newErr(KindPreconditionFailed, fmt.Sprintf(format, args...), nil)
}

// Internal wraps an unexpected backend failure (connection drop, driver
// panic recovered elsewhere, context deadline). cause is retained for
// logging but never rendered into Message.
func Internal(cause error, format string, args ...interface{}) *Error {
	return newErr(KindInternal, fmt.Sprintf(format, args...), cause)
}

// Is reports whether err is an *Error of the given kind, unwrapping
// through any wrapping in between.
func Is(err error, kind Kind) bool {
	var e *Error
	if As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// As is a thin re-export point so call sites don't need to import both
// apperrors and errors just to type-assert; kept here because the
// pattern recurs throughout the service and HTTP edge.
func As(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
