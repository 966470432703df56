// ABOUTME: URL validation applied before any analysis request reaches the network.
package analysis

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateURL checks that raw is an absolute http or https URL with a host
// and returns it trimmed of surrounding whitespace.
func ValidateURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if !u.IsAbs() || u.Host == "" || u.Hostname() == "" {
		return "", fmt.Errorf("%w: %q is not an absolute URL", ErrInvalidURL, s)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}

	return s, nil
}
