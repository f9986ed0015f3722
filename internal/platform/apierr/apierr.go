package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error carries an HTTP status and a stable code. Upstream marks failures
// reported by an external collaborator; their detail stays server-side.
type Error struct {
	Status   int
	Code     string
	Err      error
	Upstream bool
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func BadRequest(code string, err error) *Error { return New(http.StatusBadRequest, code, err) }
func NotFound(code string, err error) *Error   { return New(http.StatusNotFound, code, err) }
func Internal(err error) *Error                { return New(http.StatusInternalServerError, "internal_error", err) }

// Upstream wraps a failed call to an external collaborator. A known upstream
// status is forwarded; anything else is reported as 502.
func Upstream(code string, status int, err error) *Error {
	if status < 400 || status > 599 {
		status = http.StatusBadGateway
	}
	e := New(status, code, err)
	e.Upstream = true
	return e
}

// From returns err as an *Error, treating anything unrecognised as internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}
