package devportal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Static errors for err113 compliance.
var (
	ErrInvalidPageSize = errors.New("page size must be positive")
)

// ErrorKind classifies an Error.
type ErrorKind int

const (
	// KindUser marks client misuse: a missing base URL, an authenticated call before login, an invalid request.
	KindUser ErrorKind = iota + 1
	// KindAuth marks a failure of the login or token endpoints.
	KindAuth
	// KindRemote marks any other non-2xx response.
	KindRemote
)

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindAuth:
		return "auth"
	case KindRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by every client operation.
// Values are never mutated after construction.
type Error struct {
	Kind       ErrorKind
	Path       string
	Message    string
	StatusCode int
	Body       json.RawMessage
	Cause      error
}

// NewUserError creates an error describing client misuse.
func NewUserError(message string) *Error {
	return &Error{
		Kind:       KindUser,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewAuthError creates an error for a failed call to an authentication endpoint.
// The message is optional and annotates the response, e.g. "Missing token".
func NewAuthError(path string, body []byte, message string) *Error {
	return &Error{
		Kind:       KindAuth,
		Path:       path,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
		Body:       cloneBody(body),
	}
}

// NewRemoteError creates an error for a non-2xx response carrying the transport failure as its cause.
func NewRemoteError(path string, body []byte, statusCode int, cause error) *Error {
	return &Error{
		Kind:       KindRemote,
		Path:       path,
		StatusCode: statusCode,
		Body:       cloneBody(body),
		Cause:      cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case KindAuth:
		var sb strings.Builder

		fmt.Fprintf(&sb, "Auth error when calling uri %s.", e.Path)

		if e.Message != "" {
			fmt.Fprintf(&sb, " %s.", e.Message)
		}

		fmt.Fprintf(&sb, " Response: %s", e.responseText())

		return sb.String()
	case KindRemote:
		return fmt.Sprintf("Error when calling uri %s. Response: %s", e.Path, e.responseText())
	default:
		return e.Message
	}
}

// Unwrap returns the underlying transport failure, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Response decodes the response body into a generic JSON value.
// A body that is empty or not JSON yields nil.
func (e *Error) Response() any {
	if len(e.Body) == 0 {
		return nil
	}

	var value any

	err := json.Unmarshal(e.Body, &value)
	if err != nil {
		return nil
	}

	return value
}

func (e *Error) responseText() string {
	if len(e.Body) == 0 || !json.Valid(e.Body) {
		return "[]"
	}

	return string(e.Body)
}

func cloneBody(body []byte) json.RawMessage {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}

	return append(json.RawMessage(nil), body...)
}

// HTTPError is returned by the transport for a final response outside the 2xx range.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsUserError checks if the error is a client misuse error.
func IsUserError(err error) bool {
	return hasKind(err, KindUser)
}

// IsAuthError checks if the error is an authentication endpoint failure.
func IsAuthError(err error) bool {
	return hasKind(err, KindAuth)
}

// IsRemoteError checks if the error is a non-2xx API response.
func IsRemoteError(err error) bool {
	return hasKind(err, KindRemote)
}

// IsUnauthorized checks if the error carries an HTTP 401, either as a typed
// error or as a raw HTTPError re-raised after the refresh budget ran out.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsNotFound checks if the error carries an HTTP 404.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// StatusCode returns the status code carried by err, or 0.
func StatusCode(err error) int {
	apiErr := &Error{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}

	httpErr := &HTTPError{}
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}

	return 0
}

func hasKind(err error, kind ErrorKind) bool {
	apiErr := &Error{}
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}

	return false
}
