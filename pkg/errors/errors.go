package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors. Every AppError wraps one of them so callers can use
// errors.Is without caring about codes.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")
)

// Codes written into the error envelope.
const (
	CodeNotFound      = "NOT_FOUND"
	CodeAlreadyExists = "ALREADY_EXISTS"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeConflict      = "CONFLICT"
	CodeInternal      = "INTERNAL_ERROR"
)

// InternalMessage is the only message clients see for unexpected failures.
const InternalMessage = "an internal error occurred"

// AppError is an error with a client-facing code, message and HTTP status.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an AppError with an explicit status and code. err is usually
// one of the package sentinels.
func New(status int, code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// NotFound creates a 404 error for the resource identified by id.
func NotFound(resource, id string) *AppError {
	return New(http.StatusNotFound, CodeNotFound, fmt.Sprintf("%s with id %s not found", resource, id), ErrNotFound)
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return New(http.StatusBadRequest, CodeInvalidInput, message, ErrInvalidInput)
}

// Conflict creates a 409 error for a request that clashes with current state.
func Conflict(message string) *AppError {
	return New(http.StatusConflict, CodeConflict, message, ErrConflict)
}

type classification struct {
	sentinel error
	status   int
	code     string
	message  string
}

// Bare sentinels carry no client message of their own. An empty message
// means the error text itself is safe to show.
var classifications = []classification{
	{ErrNotFound, http.StatusNotFound, CodeNotFound, "resource not found"},
	{ErrAlreadyExists, http.StatusConflict, CodeAlreadyExists, "resource already exists"},
	{ErrConflict, http.StatusConflict, CodeConflict, "request conflicts with current state"},
	{ErrInvalidInput, http.StatusBadRequest, CodeInvalidInput, ""},
	{ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized, "authentication required"},
	{ErrForbidden, http.StatusForbidden, CodeForbidden, "insufficient permissions"},
}

// Classify returns the status, code and client-safe message for err. An
// AppError anywhere in the chain wins; otherwise the first matching sentinel
// decides. Anything else is a 500 with a generic message.
func Classify(err error) (status int, code, message string) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status, appErr.Code, appErr.Message
	}

	for _, c := range classifications {
		if errors.Is(err, c.sentinel) {
			msg := c.message
			if msg == "" {
				msg = err.Error()
			}
			return c.status, c.code, msg
		}
	}
	return http.StatusInternalServerError, CodeInternal, InternalMessage
}

// HTTPStatus returns the HTTP status code for err.
func HTTPStatus(err error) int {
	status, _, _ := Classify(err)
	return status
}
