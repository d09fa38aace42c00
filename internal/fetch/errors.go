package fetch

import "fmt"

// TransportError wraps a network-level failure (connection refused, DNS,
// timeout) for a resource request.
type TransportError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

// Unwrap exposes the underlying transport error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPError reports a non-2xx response for a resource request.
type HTTPError struct {
	URL    string
	Status int
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("fetching %s: unexpected status %d", e.URL, e.Status)
}

// DecodeError reports a 2xx response whose body did not match the expected
// resource schema. Treated as a fetch failure, eligible for stale fallback.
type DecodeError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s: %v", e.URL, e.Err)
}

// Unwrap exposes the underlying decode error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}
