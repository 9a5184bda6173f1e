package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so cloned errors still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrPartnerNotFound    = New("PARTNER_NOT_FOUND", http.StatusNotFound, "partner not found")
	ErrContractNotFound   = New("CONTRACT_NOT_FOUND", http.StatusNotFound, "contract not found")
	ErrWorkItemNotFound   = New("WORK_ITEM_NOT_FOUND", http.StatusNotFound, "work item not found")
	ErrReportNotFound     = New("REPORT_NOT_FOUND", http.StatusNotFound, "report not found")
	ErrAttachmentNotFound = New("ATTACHMENT_NOT_FOUND", http.StatusNotFound, "attachment not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrStorage            = New("STORAGE_ERROR", http.StatusInternalServerError, "storage failure")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Kind groups error codes into the coarse categories callers branch on.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindStorage    Kind = "storage"
	KindAuth       Kind = "auth"
	KindInternal   Kind = "internal"
)

// KindContextKey is the request context key holding the Kind of a failed request.
const KindContextKey = "error_kind"

// ServerSide reports whether errors of this kind are the server's fault.
func (k Kind) ServerSide() bool {
	return k == KindInternal || k == KindStorage
}

// KindOf classifies any error. Untyped errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return KindInternal
	}
	switch e.Code {
	case ErrValidation.Code:
		return KindValidation
	case ErrConflict.Code:
		return KindConflict
	case ErrStorage.Code:
		return KindStorage
	case ErrUnauthorized.Code, ErrForbidden.Code:
		return KindAuth
	}
	if e.Status == http.StatusNotFound {
		return KindNotFound
	}
	return KindInternal
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Storage wraps an I/O failure as a storage error.
func Storage(err error, message string) *Error {
	return Wrap(err, ErrStorage.Code, ErrStorage.Status, message)
}

// Internal wraps an unexpected failure.
func Internal(err error, message string) *Error {
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, message)
}
