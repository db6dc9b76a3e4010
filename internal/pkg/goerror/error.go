// Package goerror carries the user-facing side of a failure: the message,
// a stable code, extra response fields and the HTTP status they map to.
package goerror

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

var (
	// ErrNotFound indicates that the requested resource could not be found.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict indicates that the request could not be completed due to a conflict.
	ErrConflict = errors.New("resource conflict")
)

// Type classifies errors into high-level buckets used by the application.
type Type int

const (
	// TypeServer represents server-side failures.
	TypeServer Type = iota
	// TypeBusiness represents business rule violations.
	TypeBusiness
	// TypeValidation represents input validation failures.
	TypeValidation
)

func (t Type) String() string {
	switch t {
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Code is a stable identifier clients can switch on. Several codes may share
// one HTTP status.
type Code int

const (
	// CodeInternal represents an internal or unspecified error.
	CodeInternal Code = iota
	// CodeInvalidFormat indicates a request body that cannot be decoded.
	CodeInvalidFormat
	// CodeInvalidInput indicates a well-formed request with invalid values.
	CodeInvalidInput
	// CodeRejected indicates a request refused by a business rule, such as a wrong or expired code.
	CodeRejected
	// CodeTooManyRequest indicates rate limiting; a retry hint may be attached.
	CodeTooManyRequest
	// CodeLockedOut indicates the resource is exhausted and must be requested again.
	CodeLockedOut
)

var codeInfo = map[Code]struct {
	name   string
	status int
}{
	CodeInternal:       {"ERROR_CODE_INTERNAL", http.StatusInternalServerError},
	CodeInvalidFormat:  {"ERROR_CODE_INVALID_FORMAT", http.StatusBadRequest},
	CodeInvalidInput:   {"ERROR_CODE_INVALID_INPUT", http.StatusUnprocessableEntity},
	CodeRejected:       {"ERROR_CODE_REJECTED", http.StatusBadRequest},
	CodeTooManyRequest: {"ERROR_CODE_TOO_MANY_REQUESTS", http.StatusTooManyRequests},
	CodeLockedOut:      {"ERROR_CODE_LOCKED_OUT", http.StatusTooManyRequests},
}

func (c Code) String() string {
	if info, ok := codeInfo[c]; ok {
		return info.name
	}
	return codeInfo[CodeInternal].name
}

// Error wraps an underlying cause with everything the HTTP layer renders.
type Error struct {
	err        error
	msg        string
	errType    Type
	code       Code
	fields     map[string]string
	retryAfter int
}

// Error returns the cause when there is one, so logs show what actually failed.
func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	default:
		return e.errType.String()
	}
}

// String returns a verbose representation of the error for debugging/logging.
func (e *Error) String() string {
	return fmt.Sprintf("Error Type: %s, Code: %s, Message: %s, Underlying Error: %v",
		e.errType, e.code, e.msg, e.err)
}

// Msg returns the user-facing error message, if set.
func (e *Error) Msg() string { return e.msg }

func (e *Error) Type() Type { return e.errType }

func (e *Error) Code() Code { return e.code }

// Fields returns extra key/value pairs rendered next to the message.
func (e *Error) Fields() map[string]string { return e.fields }

// RetryAfter returns the number of seconds a client should wait before retrying.
// Zero means no hint.
func (e *Error) RetryAfter() int { return e.retryAfter }

func (e *Error) Unwrap() error { return e.err }

// StatusCode maps the error code to an HTTP status code.
func (e *Error) StatusCode() int {
	if info, ok := codeInfo[e.code]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// pairs reads kv as key/value pairs; a trailing key without value is dropped.
func pairs(kv []string) map[string]string {
	if len(kv) < 2 {
		return nil
	}
	m := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return m
}

// NewServer creates a server-type error with the provided error.
func NewServer(err error) error {
	return NewServerWithMessage(err, "Internal server error")
}

// NewServerWithMessage creates a server-type error with a custom user-facing message.
func NewServerWithMessage(err error, msg string) error {
	return &Error{err: err, msg: msg, errType: TypeServer, code: CodeInternal}
}

// NewBusiness creates a business-type error with the specified message and code.
func NewBusiness(msg string, code Code) error {
	return &Error{msg: msg, errType: TypeBusiness, code: code}
}

// NewBusinessWithFields creates a business-type error carrying extra response fields.
func NewBusinessWithFields(msg string, code Code, kv ...string) error {
	return &Error{msg: msg, errType: TypeBusiness, code: code, fields: pairs(kv)}
}

// NewTooManyRequest creates a rate limit error with an optional retry hint in seconds.
func NewTooManyRequest(msg string, retryAfter int) error {
	e := &Error{msg: msg, errType: TypeBusiness, code: CodeTooManyRequest}
	if retryAfter > 0 {
		e.retryAfter = retryAfter
		e.fields = map[string]string{"retry_after": strconv.Itoa(retryAfter)}
	}
	return e
}

// NewInvalidInput wraps a validator error, or builds one from field/message pairs.
// An odd number of pairs is treated as a malformed request.
func NewInvalidInput(err error, kv ...string) error {
	if err != nil {
		return &Error{err: err, msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput}
	}
	if len(kv)%2 != 0 {
		return NewInvalidFormat()
	}
	return &Error{msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput, fields: pairs(kv)}
}

// NewInvalidFormat creates a validation error for an invalid request body format.
func NewInvalidFormat(msgs ...string) error {
	msg := "Invalid request body"
	if len(msgs) > 0 {
		msg = msgs[0]
	}
	return &Error{msg: msg, errType: TypeValidation, code: CodeInvalidFormat}
}
