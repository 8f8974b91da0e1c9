package catalog

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound means the catalog has no product for the barcode
	ErrNotFound = errors.New("product not found")
	// ErrUnavailable means the catalog could not be reached after retrying
	ErrUnavailable = errors.New("catalog unavailable")
)

// statusError is a non-2xx catalog response
type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.code, e.status)
}

// isRetryable reports whether a failed attempt is worth repeating:
// transport failures, undecodable bodies, 5xx and 429
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	return !errors.Is(err, ErrNotFound)
}
