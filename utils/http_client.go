package utils

import (
	"net/http"
	"time"
)

// NewHTTPClient returns the shared client for outbound calls.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
	}
}
