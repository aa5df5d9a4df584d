package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

// Kind classifies an application error for HTTP translation and logging.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindInventory  Kind = "inventory"
	KindConflict   Kind = "conflict"
	KindPayment    Kind = "payment"
	KindInternal   Kind = "internal"
)

// Error represents an application error
type Error struct {
	Kind    Kind   `json:"kind"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error
func New(kind Kind, code int, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

func Validation(message string) *Error {
	return New(KindValidation, http.StatusBadRequest, message, nil)
}

func NotFound(message string) *Error {
	return New(KindNotFound, http.StatusNotFound, message, nil)
}

func Inventory(message string) *Error {
	return New(KindInventory, http.StatusBadRequest, message, nil)
}

func Conflict(message string) *Error {
	return New(KindConflict, http.StatusConflict, message, nil)
}

func Payment(message string, err error) *Error {
	return New(KindPayment, http.StatusBadGateway, message, err)
}

func Internal(message string, err error) *Error {
	return New(KindInternal, http.StatusInternalServerError, message, err)
}

// From translates any error into an *Error. Unknown errors become internal;
// gorm's record-not-found maps to the not-found kind so repository errors can
// bubble up untouched.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound("record not found")
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return Conflict("duplicate record")
	}
	return Internal("Internal server error", err)
}

// IsKind reports whether err is an application error of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}
