// Package apperr carries typed failure kinds from the business packages up to
// the HTTP layer, which decides how each kind is surfaced.
package apperr

import (
	"errors"
	"fmt"
	"syscall"
)

// Kind classifies a failure.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindCollaborator
	KindStorageQuota
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindCollaborator:
		return "collaborator"
	case KindStorageQuota:
		return "storage_quota"
	default:
		return "internal"
	}
}

// Error is a failure with a kind, a user-facing message and an optional
// remediation hint.
type Error struct {
	Kind        Kind
	Message     string
	Remediation string
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Validation reports bad input from the caller.
func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing entity.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Collaborator wraps a failure of an external system (database, blob store, broker).
// A disk-full cause is promoted to KindStorageQuota.
func Collaborator(err error, message, remediation string) *Error {
	if IsDiskFull(err) {
		return StorageQuota(err, message)
	}
	return &Error{Kind: KindCollaborator, Message: message, Remediation: remediation, Err: err}
}

// StorageQuota wraps a failure caused by exhausted storage.
func StorageQuota(err error, message string) *Error {
	return &Error{
		Kind:        KindStorageQuota,
		Message:     message,
		Remediation: "storage is full: free space or use smaller images (upload a file instead of embedding it)",
		Err:         err,
	}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsDiskFull reports whether err was caused by ENOSPC or EDQUOT.
func IsDiskFull(err error) bool {
	return errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EDQUOT)
}
