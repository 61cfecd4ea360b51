package utils

import (
	"context"
	"errors"
	"net"
	"strings"
)

// --- Sentinel Errors for Categorization ---
var (
	ErrRetriesExhausted = errors.New("request failed after all retries") // Wraps the last underlying error
	ErrFetch            = errors.New("page fetch error")                 // Wraps navigation/HTTP errors from the fetcher
	ErrUnknownStation   = errors.New("station not supported")
	ErrRobotsDisallowed = errors.New("disallowed by robots.txt")
	ErrConfigValidation = errors.New("configuration validation error")
)

// CategorizeError maps an error to a predefined category string for logging/metrics.
func CategorizeError(err error) string {
	if err == nil {
		return "None"
	}

	switch {
	case errors.Is(err, ErrRetriesExhausted):
		underlying := errors.Unwrap(err)
		if underlying != nil {
			if errors.Is(underlying, ErrFetch) {
				return "RetriesExhausted_Fetch"
			}
			errMsg := strings.ToLower(underlying.Error())
			if strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "deadline exceeded") {
				return "RetriesExhausted_Timeout"
			}
			var netErr net.Error
			if errors.As(underlying, &netErr) && netErr.Timeout() {
				return "RetriesExhausted_Timeout"
			}
			return "RetriesExhausted_Other"
		}
		return "RetriesExhausted_Unknown"
	case errors.Is(err, ErrFetch):
		errMsg := err.Error()
		if strings.Contains(errMsg, "status 404") {
			return "Fetch_HTTP404"
		}
		if strings.Contains(errMsg, "status 403") {
			return "Fetch_HTTP403"
		}
		if strings.Contains(errMsg, "status 429") {
			return "Fetch_HTTP429"
		}
		if strings.Contains(errMsg, "status 5") {
			return "Fetch_HTTP5xx"
		}
		return "Fetch_Other"
	case errors.Is(err, ErrUnknownStation):
		return "Station_Unknown"
	case errors.Is(err, ErrRobotsDisallowed):
		return "Policy_Robots"
	case errors.Is(err, ErrConfigValidation):
		return "Config_Validation"
	}

	// --- Fallback checks for common underlying error types/strings ---

	if errors.Is(err, context.Canceled) {
		return "System_ContextCanceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "System_ContextDeadlineExceeded"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "Network_Timeout"
	}
	lowerErrMsg := strings.ToLower(err.Error())
	if strings.Contains(lowerErrMsg, "timeout") {
		return "Network_TimeoutGeneric"
	}
	if strings.Contains(lowerErrMsg, "connection refused") {
		return "Network_ConnectionRefused"
	}
	if strings.Contains(lowerErrMsg, "no such host") {
		return "Network_DNSLookup"
	}
	if strings.Contains(lowerErrMsg, "reset by peer") {
		return "Network_ConnectionReset"
	}

	return "Unknown"
}
