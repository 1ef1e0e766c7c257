// models/errors.go
package models

import "errors"

// ErrorKind is the machine-readable error taxonomy surfaced at the API
// boundary. Handlers map kinds to HTTP status codes; clients branch on
// the kind, never on the message text.
type ErrorKind string

const (
	KindValidation            ErrorKind = "validation_error"
	KindNotAuthorized         ErrorKind = "not_authorized"
	KindInvalidState          ErrorKind = "invalid_state"
	KindConflict              ErrorKind = "conflict"
	KindAlreadyVoted          ErrorKind = "already_voted"
	KindExpired               ErrorKind = "expired"
	KindSignatureMismatch     ErrorKind = "signature_mismatch"
	KindNotFound              ErrorKind = "not_found"
	KindDependencyUnavailable ErrorKind = "dependency_unavailable"
)

type DomainError struct {
	Kind    ErrorKind
	Message string
}

func (e *DomainError) Error() string { return e.Message }

func NewDomainError(kind ErrorKind, message string) *DomainError {
	return &DomainError{Kind: kind, Message: message}
}

func ErrValidation(message string) *DomainError {
	return NewDomainError(KindValidation, message)
}

func ErrNotAuthorized(message string) *DomainError {
	return NewDomainError(KindNotAuthorized, message)
}

func ErrInvalidState(message string) *DomainError {
	return NewDomainError(KindInvalidState, message)
}

func ErrConflict(message string) *DomainError {
	return NewDomainError(KindConflict, message)
}

func ErrAlreadyVoted(message string) *DomainError {
	return NewDomainError(KindAlreadyVoted, message)
}

func ErrExpired(message string) *DomainError {
	return NewDomainError(KindExpired, message)
}

func ErrSignatureMismatch(message string) *DomainError {
	return NewDomainError(KindSignatureMismatch, message)
}

func ErrNotFound(message string) *DomainError {
	return NewDomainError(KindNotFound, message)
}

func ErrDependencyUnavailable(message string) *DomainError {
	return NewDomainError(KindDependencyUnavailable, message)
}

// KindOf extracts the kind from an error, or empty for non-domain errors.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
