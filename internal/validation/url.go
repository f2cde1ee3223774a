package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// BaseURLValidator checks the tracker base URL entered by the user.
// Self-hosted trackers commonly live on private networks, so private and
// loopback hosts are accepted unless explicitly disabled.
type BaseURLValidator struct {
	// AllowPrivateHosts permits localhost and private IP addresses
	AllowPrivateHosts bool
	// MaxLength is the maximum allowed URL length
	MaxLength int
}

// NewBaseURLValidator creates a validator suitable for self-hosted trackers
func NewBaseURLValidator() *BaseURLValidator {
	return &BaseURLValidator{
		AllowPrivateHosts: true,
		MaxLength:         2048,
	}
}

// ValidateAndNormalize validates a base URL and returns it without trailing
// slashes, query or fragment, defaulting to https when no scheme is given.
func (v *BaseURLValidator) ValidateAndNormalize(input string) (string, error) {
	input = strings.TrimSpace(input)

	if input == "" {
		return "", fmt.Errorf("URL cannot be empty")
	}
	if v.MaxLength > 0 && len(input) > v.MaxLength {
		return "", fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	}
	if strings.ContainsAny(input, "<>\"'` ") {
		return "", fmt.Errorf("URL contains invalid characters")
	}

	if !strings.Contains(input, "://") {
		input = "https://" + input
	}

	parsedURL, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", fmt.Errorf("URL must use http or https protocol")
	}
	if parsedURL.Host == "" || parsedURL.Hostname() == "" {
		return "", fmt.Errorf("URL must have a valid hostname")
	}
	if parsedURL.User != nil {
		return "", fmt.Errorf("credentials in URL are not permitted, use a token")
	}
	if strings.Contains(parsedURL.Path, "..") {
		return "", fmt.Errorf("directory traversal patterns not allowed in URL path")
	}

	if !v.AllowPrivateHosts {
		hostname := parsedURL.Hostname()
		if isLocalhost(hostname) {
			return "", fmt.Errorf("localhost URLs are not permitted")
		}
		if ip := net.ParseIP(hostname); ip != nil && (ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast()) {
			return "", fmt.Errorf("private IP addresses are not permitted")
		}
	}

	parsedURL.RawQuery = ""
	parsedURL.Fragment = ""
	parsedURL.Path = strings.TrimRight(parsedURL.Path, "/")
	parsedURL.RawPath = ""

	return parsedURL.String(), nil
}

// isLocalhost checks if a hostname refers to localhost
func isLocalhost(hostname string) bool {
	return hostname == "localhost" ||
		hostname == "127.0.0.1" ||
		hostname == "::1" ||
		strings.HasSuffix(hostname, ".localhost")
}
