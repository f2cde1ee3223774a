package tracker

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// User-facing failures. Details such as response bodies go to the debug log.
var (
	ErrNotConfigured   = errors.New("tracker is not configured, set tracker.base_url and a token")
	ErrNoProjects      = errors.New("no projects selected, set tracker.projects")
	ErrUnauthorized    = errors.New("invalid token, check your permanent token")
	ErrNotFound        = errors.New("tracker URL or API path may be wrong, check the base URL")
	ErrServer          = errors.New("tracker server error, try again later")
	ErrConnection      = errors.New("connection failed, check your network and tracker URL")
	ErrInvalidResponse = errors.New("invalid response from tracker, try again later")
	ErrRateLimited     = errors.New("rate limited by tracker")
)

const defaultRetryAfter = time.Minute

// errorForStatus maps a non-200 status to one of the sentinel errors.
func errorForStatus(code int) error {
	var base error
	switch {
	case code == http.StatusUnauthorized:
		base = ErrUnauthorized
	case code == http.StatusNotFound:
		base = ErrNotFound
	case code >= 500:
		base = ErrServer
	default:
		base = ErrConnection
	}
	return fmt.Errorf("%w (HTTP %d)", base, code)
}

// rateLimitError reports a 429 with the wait the server asked for.
func rateLimitError(h http.Header) error {
	return fmt.Errorf("%w, retry in %s", ErrRateLimited, retryAfter(h))
}

// retryAfter reads Retry-After in either its seconds or HTTP-date form.
func retryAfter(h http.Header) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return defaultRetryAfter
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at).Round(time.Second); d > 0 {
			return d
		}
		return 0
	}
	return defaultRetryAfter
}
