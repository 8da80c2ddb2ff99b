package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// Status class errors. An *HTTPError matches the one for its status code
// with errors.Is.
var (
	ErrUnauthorized = errors.New("remote: unauthorized")
	ErrForbidden    = errors.New("remote: access forbidden")
	ErrNotFound     = errors.New("remote: resource not found")
	ErrServerError  = errors.New("remote: server error")
)

// ErrInvalidProxyAddress is returned when the SOCKS5 proxy address is not host:port.
var ErrInvalidProxyAddress = errors.New("remote: invalid proxy address format: expected host:port")

// HTTPError reports a non-success HTTP status for a listing or file request.
type HTTPError struct {
	// Method is the request method.
	Method string

	// URL is the requested URL with any userinfo password redacted.
	URL string

	// StatusCode is the response status code.
	StatusCode int

	// Status is the response status line, e.g. "404 Not Found".
	Status string
}

// Error implements error.
func (e *HTTPError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("remote: %s %s: %s", e.Method, e.URL, status)
}

// Is maps the status code onto the status class errors.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrServerError:
		return e.StatusCode >= http.StatusInternalServerError
	default:
		return false
	}
}

// checkStatus returns an *HTTPError for any status outside 2xx.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &HTTPError{
		Method:     resp.Request.Method,
		URL:        resp.Request.URL.Redacted(),
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
	}
}
