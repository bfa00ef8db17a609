// Package apperr defines the error taxonomy shared by services and the HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Sentinel kinds for comparison using errors.Is()
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrConflict        = errors.New("conflict")
	ErrUpstream        = errors.New("upstream failure")
)

// Error carries the kind, the failing operation and optional field-level detail.
type Error struct {
	Op      string            // e.g. "shops.Get"
	Kind    error             // one of the sentinel kinds
	Message string            // safe to show to the caller
	Fields  map[string]string // field -> problem, validation only
	Err     error             // underlying cause, never shown to the caller
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Kind != nil {
		msg = e.Kind.Error()
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+e.Fields[k])
		}
		msg += " (" + strings.Join(parts, ", ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Validation builds a field-level validation error.
func Validation(op string, fields map[string]string) *Error {
	return &Error{Op: op, Kind: ErrValidation, Message: "invalid input", Fields: fields}
}

// NotFound reports a missing entity, e.g. NotFound("shops.Get", "shop").
func NotFound(op, what string) *Error {
	return &Error{Op: op, Kind: ErrNotFound, Message: what + " not found"}
}

func Forbidden(op, message string) *Error {
	return &Error{Op: op, Kind: ErrForbidden, Message: message}
}

func Unauthenticated(op, message string) *Error {
	return &Error{Op: op, Kind: ErrUnauthenticated, Message: message}
}

func Conflict(op, message string) *Error {
	return &Error{Op: op, Kind: ErrConflict, Message: message}
}

// Upstream wraps a storage or collaborator failure. The cause is kept for logs only.
func Upstream(op string, err error) *Error {
	return &Error{Op: op, Kind: ErrUpstream, Message: "internal error", Err: err}
}

// Wrapf wraps an arbitrary error as Upstream unless it already carries a kind.
func Wrapf(op string, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if Kind(err) != nil {
		return err
	}
	return Upstream(op, fmt.Errorf(format+": %w", append(args, err)...))
}

// Kind returns the sentinel kind carried by err, or nil.
func Kind(err error) error {
	for _, k := range []error{ErrValidation, ErrNotFound, ErrForbidden, ErrUnauthenticated, ErrConflict, ErrUpstream} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// HTTPStatus maps an error to its response status code.
func HTTPStatus(err error) int {
	switch Kind(err) {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrForbidden:
		return http.StatusForbidden
	case ErrUnauthenticated:
		return http.StatusUnauthorized
	case ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// KindName is the machine-readable kind used in error payloads.
func KindName(err error) string {
	switch Kind(err) {
	case ErrValidation:
		return "validation"
	case ErrNotFound:
		return "not_found"
	case ErrForbidden:
		return "forbidden"
	case ErrUnauthenticated:
		return "unauthenticated"
	case ErrConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// PublicMessage returns the caller-safe message of err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "internal error"
}

// FieldErrors returns the validation fields of err, if any.
func FieldErrors(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

func IsNotFound(err error) bool  { return errors.Is(err, ErrNotFound) }
func IsForbidden(err error) bool { return errors.Is(err, ErrForbidden) }
