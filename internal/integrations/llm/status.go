package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
)

// apiStatusError is a non-2xx reply from the OpenAI-compatible endpoint.
type apiStatusError struct {
	StatusCode int
	Message    string
}

func (e *apiStatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout || code >= 500
}

// isTransient reports whether a failed call is worth one more attempt.
// Caller cancellation and deadline expiry never are.
func isTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *apiStatusError
	if errors.As(err, &statusErr) {
		return retryableStatus(statusErr.StatusCode)
	}
	var sdkErr *anthropic.Error
	if errors.As(err, &sdkErr) {
		return retryableStatus(sdkErr.StatusCode)
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
