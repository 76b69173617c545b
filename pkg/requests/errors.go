package requests

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/datazip-inc/tap-apparel-magic/constants"
)

// StatusError is returned for every non 2xx response
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s failed with status %d: %s", e.URL, e.StatusCode, e.Body)
}

func (e *StatusError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsClientError reports a 4xx other than 429
func (e *StatusError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500 && !e.IsRateLimited()
}

func (e *StatusError) IsServerError() bool {
	return e.StatusCode >= 500
}

// IsRetryable reports whether a failed request may succeed when repeated: network
// failures, 5xx and 429 are, anything else is permanent
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	// per request timeouts are retried; a cancelled sync is not
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, constants.ErrMalformedResponse) || errors.Is(err, constants.ErrNonRetryable) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.IsRateLimited() || statusErr.IsServerError()
	}

	// transport level failure
	return true
}
