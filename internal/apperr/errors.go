package apperr

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/lib/pq"
)

// Kind identifies a stable error category that callers can branch on.
// The HTTP layer maps kinds to status codes; the core only produces kinds.
type Kind string

const (
	KindInvalidTimezone       Kind = "invalid_timezone"
	KindInvalidDatetime       Kind = "invalid_datetime"
	KindClassNotFound         Kind = "class_not_found"
	KindBookingNotFound       Kind = "booking_not_found"
	KindClassFull             Kind = "class_full"
	KindDuplicateBooking      Kind = "duplicate_booking"
	KindInvalidTimeRange      Kind = "invalid_time_range"
	KindInternalInconsistency Kind = "internal_inconsistency"
	KindTransactionConflict   Kind = "transaction_conflict"
)

// Error carries a kind, a human-readable message and structured details.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]interface{}
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.err
}

// Is matches any *Error of the same kind, so sentinel values below work
// with errors.Is regardless of message or fields.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches an underlying cause to a new error of the given kind.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, err: err}
}

// With adds a structured detail field and returns the error for chaining.
func (e *Error) With(key string, value interface{}) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidTimezone       = New(KindInvalidTimezone, "invalid timezone")
	ErrInvalidDatetime       = New(KindInvalidDatetime, "invalid datetime")
	ErrClassNotFound         = New(KindClassNotFound, "class not found")
	ErrBookingNotFound       = New(KindBookingNotFound, "booking not found")
	ErrClassFull             = New(KindClassFull, "no available slots")
	ErrDuplicateBooking      = New(KindDuplicateBooking, "duplicate booking")
	ErrInvalidTimeRange      = New(KindInvalidTimeRange, "invalid time range")
	ErrInternalInconsistency = New(KindInternalInconsistency, "internal inconsistency")
	ErrTransactionConflict   = New(KindTransactionConflict, "transaction conflict")
)

// KindOf returns the kind of err, or an empty kind for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Postgres error codes that the allocator cares about.
const (
	pqUniqueViolation      = "23505"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqLockNotAvailable     = "55P03"
)

// FromDB translates driver-level failures into stable kinds. Unique
// violations become DuplicateBooking; lock/serialization failures become
// TransactionConflict (safe to retry the whole operation). sql.ErrNoRows is
// passed through untouched because its meaning depends on the query.
func FromDB(err error) error {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return err
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqUniqueViolation:
			return Wrap(KindDuplicateBooking, "duplicate booking", err)
		case pqSerializationFailure, pqDeadlockDetected, pqLockNotAvailable:
			return Wrap(KindTransactionConflict, "transaction conflict, retry the operation", err)
		}
	}
	return err
}

// HTTPStatus maps an error kind to a transport status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidTimezone, KindInvalidDatetime, KindClassFull,
		KindDuplicateBooking, KindInvalidTimeRange:
		return http.StatusBadRequest
	case KindClassNotFound, KindBookingNotFound:
		return http.StatusNotFound
	case KindInternalInconsistency, KindTransactionConflict:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
