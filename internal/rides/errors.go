package rides

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is returned when the API answers with an error status or an
// unsuccessful envelope.
type APIError struct {
	StatusCode int
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	switch {
	case e.StatusCode == 0:
		return fmt.Sprintf("api: %s", e.Message)
	case e.Message == "":
		return fmt.Sprintf("api %s returned status %d", e.Path, e.StatusCode)
	default:
		return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.StatusCode, e.Message)
	}
}

// IsUnauthorized reports whether err means the session token was rejected.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized
}
