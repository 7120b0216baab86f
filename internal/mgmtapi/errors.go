package mgmtapi

import "fmt"

// ConnectionError reports a failure to reach the management API.
type ConnectionError struct {
	Message string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("management API unreachable: %s", e.Message)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ResponseError reports a non-2xx response, carrying the status code and
// the parsed body so callers can act on it programmatically.
type ResponseError struct {
	StatusCode int
	Body       any
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("management API returned status %d: %v", e.StatusCode, e.Body)
}

// MalformedResponseError reports a 2xx response whose body was not valid
// JSON.
type MalformedResponseError struct {
	Message string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("management API returned a malformed response: %s", e.Message)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
