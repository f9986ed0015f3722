package httpx

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxErrorBody = 4000

type HTTPStatusCoder interface {
	HTTPStatusCode() int
}

// HTTPError is a non-2xx response from an upstream service.
type HTTPError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "<nil http error>"
	}
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	return fmt.Sprintf("%s http %d: %s", e.Service, e.StatusCode, msg)
}

func (e *HTTPError) HTTPStatusCode() int { return e.StatusCode }

// StatusOf returns the upstream status carried by err, or 0.
func StatusOf(err error) int {
	var sc HTTPStatusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatusCode()
	}
	return 0
}

// ErrorFromResponse reads a bounded slice of the body into an HTTPError.
func ErrorFromResponse(service string, resp *http.Response) *HTTPError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &HTTPError{Service: service, StatusCode: resp.StatusCode, Body: string(raw)}
}

func IsSuccess(code int) bool {
	return code >= 200 && code <= 299
}
