package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrTransport    = errors.New("request did not reach the server")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("invalid request")
	ErrServer       = errors.New("server error")
	ErrDecode       = errors.New("failed to decode response")
	ErrEncode       = errors.New("failed to encode request body")
	ErrInvalidURL   = errors.New("invalid base url")
)

// Error describes a failed API call.
type Error struct {
	Method     string
	Path       string
	StatusCode int    // 0 when no response was received
	Message    string // server supplied "message", may be empty
	Body       []byte
	Err        error // one of the package sentinels
	cause      error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode == 0 && e.cause != nil:
		return fmt.Sprintf("%s %s: %v: %v", e.Method, e.Path, e.Err, e.cause)
	case e.Message != "":
		return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	}
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

// Message returns the server supplied message carried by err, or "".
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func classifyStatus(code int) error {
	switch code {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return ErrValidation
	default:
		return ErrServer
	}
}
