package mailjet

import (
	"fmt"
	"strings"
)

// APIError is returned when Mailjet answers with a non-200 status.
type APIError struct {
	// Body is the raw response body, trimmed.
	Body string

	// Resource is the REST resource that was requested.
	Resource string

	// StatusCode is the HTTP status code.
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mailjet %s: unexpected status %d: %s", e.Resource, e.StatusCode, strings.TrimSpace(e.Body))
}
