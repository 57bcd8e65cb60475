package errors

import (
	// Go internal packages
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/lib/pq"
)

// Error defines a standard application error.
type Error struct {
	Kind    Kind   `json:"kind"`
	Code    Code   `json:"code,omitempty"`
	Message string `json:"message"`
	// Details carries field errors or other client-facing context.
	Details interface{} `json:"details,omitempty"`
	// Wrapped underlying error.
	WrappedErr error `json:"-"`
}

// Error returns the string representation of the error message.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Code != "" {
		b.WriteString(string(e.Code))
		b.WriteString(": ")
	}
	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		b.WriteString(e.Kind.String())
	}
	if e.WrappedErr != nil {
		b.WriteString(": ")
		b.WriteString(e.WrappedErr.Error())
	}
	return b.String()
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.WrappedErr
}

// NewError returns standard go error with given string
func NewError(e string) error {
	return errors.New(e)
}

// Kind defines the kind or class of an error.
type Kind uint8

// Transport agnostic error "kinds"
const (
	Other         Kind = iota // Unclassified error
	Internal                  // Internal error
	Conflict                  // Conflict when an entity already exists
	Invalid                   // Invalid input, validation error etc
	NotFound                  // Entity does not exist
	Unauthorized              // Unauthorized access
	Forbidden                 // Forbidden access
	Unprocessable             // Well-formed input that cannot be applied
)

func (k Kind) String() string {
	switch k {
	case Other:
		return "unclassified error"
	case Internal:
		return "internal error"
	case Conflict:
		return "conflict"
	case Invalid:
		return "invalid input"
	case NotFound:
		return "entity not found"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case Unprocessable:
		return "unprocessable"
	default:
		return "unknown error kind"
	}
}

func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Code is the machine-readable error code returned to API clients.
type Code string

const (
	CodeValidation          Code = "VALIDATION_ERROR"
	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeForbidden           Code = "FORBIDDEN"
	CodeNotFound            Code = "NOT_FOUND"
	CodeConflict            Code = "CONFLICT"
	CodeInternal            Code = "INTERNAL_ERROR"
	CodeProfileIncomplete   Code = "PROFILE_INCOMPLETE"
	CodeRegistrationClosed  Code = "REGISTRATION_CLOSED"
	CodeRegistrationFull    Code = "REGISTRATION_FULL"
	CodeInvalidTeamSize     Code = "INVALID_TEAM_SIZE"
	CodeAlreadyRegistered   Code = "ALREADY_REGISTERED"
	CodeNotRegistered       Code = "NOT_REGISTERED"
	CodePaymentPending      Code = "PAYMENT_PENDING"
	CodeAlreadyPaid         Code = "ALREADY_PAID"
	CodeNoPaymentRequired   Code = "NO_PAYMENT_REQUIRED"
	CodeAmountMismatch      Code = "AMOUNT_MISMATCH"
	CodeNotRefundable       Code = "NOT_REFUNDABLE"
	CodeInvalidSignature    Code = "INVALID_SIGNATURE"
	CodeMissingUserEmail    Code = "MISSING_EMAIL"
	CodeServerMisconfigured Code = "SERVER_MISCONFIGURED"
	CodeRateLimited         Code = "RATE_LIMITED"
	CodeHasRegistrations    Code = "HAS_REGISTRATIONS"
)

// Fields is a set of per-field validation messages.
type Fields map[string]string

// E builds an *Error from any mix of Kind, Code, string message, Fields or
// error arguments.
func E(args ...interface{}) error {
	e := &Error{}
	for _, arg := range args {
		switch arg := arg.(type) {
		case Kind:
			e.Kind = arg
		case Code:
			e.Code = arg
		case Fields:
			e.Details = arg
		case error:
			e.WrappedErr = arg
		case string:
			e.Message = arg
		}
	}
	return e
}

// WithDetails attaches client-facing details to an application error.
func WithDetails(err error, details interface{}) error {
	var appErr *Error
	if errors.As(err, &appErr) {
		appErr.Details = details
		return appErr
	}
	return &Error{Kind: Internal, WrappedErr: err, Details: details}
}

// NewInternalServerError creates a new internal server error
func NewInternalServerError(msg string) error {
	return E(Internal, msg)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(msg string) error {
	return E(NotFound, msg)
}

// NewInvalidParamsError creates a new invalid parameters error
func NewInvalidParamsError(msg string) error {
	return E(Invalid, msg)
}

// NewValidationError creates an invalid-input error carrying field messages
func NewValidationError(fields Fields) error {
	return E(Invalid, CodeValidation, "Invalid request payload", fields)
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(msg string) error {
	return E(Unauthorized, msg)
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(msg string) error {
	return E(Forbidden, msg)
}

// NewConflictError creates a new conflict error
func NewConflictError(msg string) error {
	return E(Conflict, msg)
}

// KindOf reports the Kind of err, or Other when err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Other
}

// CodeOf returns the client code for err, derived from its Kind when unset.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code
	}
	switch KindOf(err) {
	case Invalid, Unprocessable:
		return CodeValidation
	case Unauthorized:
		return CodeUnauthorized
	case Forbidden:
		return CodeForbidden
	case NotFound:
		return CodeNotFound
	case Conflict:
		return CodeConflict
	default:
		return CodeInternal
	}
}

// HTTPStatus maps an error to the HTTP status code it should be answered with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Invalid:
		return http.StatusBadRequest
	case Unprocessable:
		return http.StatusUnprocessableEntity
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Postgres SQLSTATE codes surfaced as client errors
const (
	pgUniqueViolation           = "23505"
	pgForeignKeyViolation       = "23503"
	pgInvalidTextRepresentation = "22P02"
	pgInsufficientPrivilege     = "42501"
)

// FromDB converts a storage error into an application error. Errors that are
// already application errors pass through unchanged.
func FromDB(err error, msg string) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return E(NotFound, msg+": not found", err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgUniqueViolation:
			return E(Conflict, msg+": already exists", err)
		case pgForeignKeyViolation:
			return E(Invalid, msg+": related record does not exist", err)
		case pgInvalidTextRepresentation:
			return E(Invalid, msg+": malformed value", err)
		case pgInsufficientPrivilege:
			return E(Forbidden, msg+": permission denied", err)
		}
	}
	return E(Internal, msg, err)
}

// IsStillReferenced reports whether err is postgres refusing to delete a row
// other rows point at.
func IsStillReferenced(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pgForeignKeyViolation
}

var (
	As = errors.As
	Is = errors.Is
)
