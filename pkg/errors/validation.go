package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// pairRegex matches exchange ticker pairs such as XXBTZUSD or SOLUSD.
var pairRegex = regexp.MustCompile(`^[A-Z0-9]{5,12}$`)

// ValidatePair validates a ticker pair name before it is put into a URL.
func ValidatePair(pair string) error {
	if pair == "" {
		return New(ErrCodeInvalidInput, "ticker pair cannot be empty")
	}
	if !pairRegex.MatchString(pair) {
		return New(ErrCodeInvalidInput, "invalid ticker pair: %q", pair)
	}
	return nil
}

// ValidatePath validates a local file system path taken from configuration.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid characters")
		}
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
