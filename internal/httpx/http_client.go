// Package httpx owns the shared client used for calls leaving the process.
package httpx

import (
	"net/http"
	"time"
)

const (
	defaultExternalHTTPTimeout = 90 * time.Second
	minExternalHTTPTimeout     = 5 * time.Second
)

var externalHTTPClient = &http.Client{
	Timeout: defaultExternalHTTPTimeout,
}

// ExternalHTTPClient returns the process-wide client for outbound API calls.
func ExternalHTTPClient() *http.Client {
	return externalHTTPClient
}

// ConfigureExternalHTTPClient sets the client timeout from config. Zero or
// negative keeps the default; values below the floor are raised to it.
func ConfigureExternalHTTPClient(timeoutSeconds int) time.Duration {
	timeout := defaultExternalHTTPTimeout
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	if timeout < minExternalHTTPTimeout {
		timeout = minExternalHTTPTimeout
	}
	externalHTTPClient.Timeout = timeout
	return timeout
}
