// ABOUTME: Error taxonomy for the analysis client: validation, decode, connection and server errors.
// ABOUTME: Provides UserMessage to turn any of them into the text shown in the error banner.
package analysis

import (
	"errors"
	"net/http"
)

// ErrInvalidURL is returned by ValidateURL for input that is not a
// well-formed absolute http(s) URL.
var ErrInvalidURL = errors.New("invalid URL")

// ErrIdleTimeout is the cause recorded when a stream goes quiet for longer
// than the configured idle timeout.
var ErrIdleTimeout = errors.New("stream idle timeout")

const (
	decodeFailureMessage     = "Failed to decode analysis event"
	connectFailureMessage    = "Failed to connect to the analysis service"
	connectionLostMessage    = "Connection to the analysis service was lost"
	idleTimeoutMessage       = "The analysis service stopped sending updates"
	invalidURLMessage        = "Please enter a valid URL"
	reportMissingDataMessage = "report record without data"
)

// DecodeError reports a stream record or response body that could not be
// decoded. Its Error text is deliberately generic; the parse failure is
// available through Unwrap.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string { return decodeFailureMessage }
func (e *DecodeError) Unwrap() error { return e.Cause }

// ConnectionError reports a transport-level failure: dial errors, dropped
// connections and streams that end before a report.
type ConnectionError struct {
	Message string
	Cause   error
}

func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ConnectionError) Unwrap() error { return e.Cause }

// ServerError reports a non-2xx response. Message carries the server's
// structured error text when the body had one.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.StatusCode)
	}
	return e.Message
}

// UserMessage returns the text to show a user for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var decodeErr *DecodeError
	var serverErr *ServerError
	var connErr *ConnectionError

	switch {
	case errors.Is(err, ErrInvalidURL):
		return invalidURLMessage
	case errors.As(err, &decodeErr):
		return decodeErr.Error()
	case errors.As(err, &serverErr):
		return serverErr.Error()
	case errors.As(err, &connErr):
		return connErr.Message
	default:
		return err.Error()
	}
}
