// Package apperr is the error taxonomy shared by the competition services.
// Every error returned across a service boundary is an *Error carrying a
// Kind, a stable machine code and, for validation failures, every offending
// field.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindForbidden
	KindValidation
	KindConflict
	KindCapacity
	KindNotFound
	KindPrecondition
)

var kindNames = map[Kind]string{
	KindInternal:        "Internal",
	KindUnauthenticated: "Unauthenticated",
	KindForbidden:       "Forbidden",
	KindValidation:      "ValidationError",
	KindConflict:        "Conflict",
	KindCapacity:        "CapacityError",
	KindNotFound:        "NotFound",
	KindPrecondition:    "Precondition",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

var kind2http = map[Kind]int{
	KindUnauthenticated: http.StatusUnauthorized,
	KindForbidden:       http.StatusForbidden,
	KindValidation:      http.StatusBadRequest,
	KindConflict:        http.StatusConflict,
	KindCapacity:        http.StatusConflict,
	KindNotFound:        http.StatusNotFound,
	KindPrecondition:    http.StatusPreconditionFailed,
	KindInternal:        http.StatusInternalServerError,
}

// Machine codes.
const (
	CodeInternal            = "Internal"
	CodeUnauthenticated     = "Unauthenticated"
	CodeForbidden           = "Forbidden"
	CodeInvalidCredentials  = "InvalidCredentials"
	CodeTokenExpired        = "TokenExpired"
	CodeValidation          = "ValidationFailed"
	CodeNotFound            = "NotFound"
	CodeCompetitionNotFound = "CompetitionNotFound"
	CodeParticipantNotFound = "ParticipantNotFound"
	CodeTicketNotFound      = "TicketNotFound"
	CodeSlotsExhausted      = "SlotsExhausted"
	CodeParticipantCap      = "ParticipantTicketCapExceeded"
	CodeCompetitionInactive = "CompetitionInactive"
	CodeEntryComplete       = "EntryComplete"
	CodeAlreadySubmitted    = "AlreadySubmitted"
	CodeMarkerCountMismatch = "MarkerCountMismatch"
	CodeInvalidCoordinate   = "InvalidCoordinate"
	CodeInvalidPhone        = "InvalidPhone"
	CodeDuplicateTicket     = "DuplicateTicket"
	CodeAlreadyClosed       = "AlreadyClosed"
	CodeAlreadyLocked       = "AlreadyLocked"
	CodeResultsLocked       = "ResultsLocked"
	CodeCompetitionOpen     = "CompetitionOpen"
	CodeJudgmentPending     = "JudgmentPending"
	CodeParticipantExists   = "ParticipantExists"
	CodeNameMismatch        = "NameMismatch"
)

// FieldError names one offending input field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  []FieldError
	err     error
}

func New(kind Kind, code string, opts ...Option) *Error {
	e := &Error{
		Kind:    kind,
		Code:    code,
		Message: code,
	}

	for _, opt := range opts {
		opt.apply(e)
	}

	return e
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, f.Field+": "+f.Message)
		}
		s += " (" + strings.Join(parts, "; ") + ")"
	}
	if e.err != nil {
		s += fmt.Sprintf(", err: %s", e.err)
	}

	return s
}

func (e *Error) Unwrap() error {
	return e.err
}

func (e *Error) HTTPStatus() int {
	if c, ok := kind2http[e.Kind]; ok {
		return c
	}

	return http.StatusInternalServerError
}

// HasField reports whether a field error with the given code is present.
func (e *Error) HasField(code string) bool {
	for _, f := range e.Fields {
		if f.Code == code {
			return true
		}
	}
	return false
}

// Convert returns err as an *Error, wrapping unknown errors as Internal.
func Convert(err error) *Error {
	var e *Error
	if !errors.As(err, &e) {
		return Internal(err)
	}

	return e
}

// CodeOf returns the machine code of err, or "" when err is nil.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	return Convert(err).Code
}

// KindOf returns the kind of err; nil errors report KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	return Convert(err).Kind
}

func Internal(err error) *Error {
	return New(KindInternal, CodeInternal, WithMessagef("internal error"), WithCause(err))
}

func Unauthenticated(code, format string, args ...any) *Error {
	return New(KindUnauthenticated, code, WithMessagef(format, args...))
}

func Forbidden(format string, args ...any) *Error {
	return New(KindForbidden, CodeForbidden, WithMessagef(format, args...))
}

func NotFound(code, format string, args ...any) *Error {
	return New(KindNotFound, code, WithMessagef(format, args...))
}

func Conflict(code, format string, args ...any) *Error {
	return New(KindConflict, code, WithMessagef(format, args...))
}

func Capacity(code, format string, args ...any) *Error {
	return New(KindCapacity, code, WithMessagef(format, args...))
}

func Precondition(code, format string, args ...any) *Error {
	return New(KindPrecondition, code, WithMessagef(format, args...))
}

type Option interface {
	apply(*Error)
}

type optionFunc func(*Error)

func (f optionFunc) apply(e *Error) {
	f(e)
}

func WithCause(err error) Option {
	return optionFunc(func(e *Error) {
		e.err = err
	})
}

func WithMessagef(format string, args ...any) Option {
	return optionFunc(func(e *Error) {
		e.Message = fmt.Sprintf(format, args...)
	})
}

func WithFields(fields ...FieldError) Option {
	return optionFunc(func(e *Error) {
		e.Fields = append(e.Fields, fields...)
	})
}
