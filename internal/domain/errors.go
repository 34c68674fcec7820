package domain

import "errors"

// Error kinds. Match with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidState       = errors.New("invalid state")
	ErrInvalidOperation   = errors.New("invalid operation")
	ErrConflict           = errors.New("conflict")
	ErrValidation         = errors.New("validation failed")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Error carries a kind and the message shown to the client
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

func NotFound(msg string) error         { return newError(ErrNotFound, msg) }
func Forbidden(msg string) error        { return newError(ErrForbidden, msg) }
func InvalidState(msg string) error     { return newError(ErrInvalidState, msg) }
func InvalidOperation(msg string) error { return newError(ErrInvalidOperation, msg) }
func Conflict(msg string) error         { return newError(ErrConflict, msg) }
func Validation(msg string) error       { return newError(ErrValidation, msg) }

// Message returns the client-facing message of err, or fallback for errors
// that did not originate here.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return fallback
}
