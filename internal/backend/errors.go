package backend

import "fmt"

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	// Message is the "message" field of the JSON error body, if any.
	Message string
	Body    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return "Error: " + e.Message
	}
	return fmt.Sprintf("Error: HTTP %d", e.StatusCode)
}

// IsRetryable reports whether the failure looks transient. Used for log
// fields only; nothing retries.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500
}
