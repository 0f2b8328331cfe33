package domain

import "errors"

// Error kinds. Concrete errors below wrap one of these so callers can
// branch with errors.Is without knowing every specific sentinel.
var (
	ErrNotFound            = errors.New("record not found")
	ErrConflict            = errors.New("conflict")
	ErrInvalidState        = errors.New("invalid state")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("access forbidden")
	ErrInvalidID           = errors.New("invalid id format")
)

// kindError keeps the message of a specific error while matching its kind.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// NewKindError creates a sentinel that reports msg and satisfies errors.Is(err, kind).
func NewKindError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// KindOf reports which error kind err belongs to, or nil if none.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrNotFound, ErrConflict, ErrInvalidState, ErrInvalidInput,
		ErrUpstreamUnavailable, ErrUnauthorized, ErrForbidden, ErrInvalidID,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
