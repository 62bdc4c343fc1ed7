package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig means a required credential or collaborator is missing.
	// Fatal for the request and never retried.
	ErrConfig = errors.New("weather provider is not configured")

	// ErrRateLimited means the local call budget is exhausted. No request was sent.
	ErrRateLimited = errors.New("provider rate limit exceeded")

	// ErrNotFound means the provider has no data for the place.
	ErrNotFound = errors.New("no data for requested place")

	// ErrUnavailable means the provider could not be reached, or its circuit is
	// open after repeated failures.
	ErrUnavailable = errors.New("provider temporarily unavailable")
)

// HTTPError is a non-2xx provider response other than 404.
type HTTPError struct {
	Provider string
	Status   int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Provider, e.Status)
}

// SchemaError means a provider response (or the assembled snapshot) did not
// match the expected shape.
type SchemaError struct {
	Provider string
	Details  string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: invalid response: %s", e.Provider, e.Details)
}
