// Package validation checks URL-shaped values from config and event input.
package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// URLValidationError reports which field failed and why.
type URLValidationError struct {
	Field   string
	Message string
	URL     string
}

func (e URLValidationError) Error() string {
	return fmt.Sprintf("%s: %s (url: %s)", e.Field, e.Message, e.URL)
}

// ValidateURL accepts an absolute http(s) URL with a host. requireHTTPS
// rejects plain http. Empty values pass; callers enforce presence.
func ValidateURL(value, field string, requireHTTPS bool) error {
	if value == "" {
		return nil
	}

	parsed, err := url.Parse(value)
	if err != nil {
		return URLValidationError{Field: field, Message: "invalid URL format", URL: value}
	}
	if parsed.Scheme == "" {
		return URLValidationError{Field: field, Message: "URL must include a scheme (http:// or https://)", URL: value}
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return URLValidationError{Field: field, Message: "URL scheme must be http or https", URL: value}
	}
	if parsed.Host == "" {
		return URLValidationError{Field: field, Message: "URL must include a host", URL: value}
	}
	if requireHTTPS && scheme != "https" {
		return URLValidationError{Field: field, Message: "URL must use HTTPS", URL: value}
	}
	return nil
}

// ValidateImageRef accepts what an event cover may point at: an absolute
// http(s) URL, or a root-relative path served by the same site ("/uploads/a.png").
func ValidateImageRef(value, field string) error {
	if value == "" {
		return nil
	}
	if strings.HasPrefix(value, "/") && !strings.HasPrefix(value, "//") {
		parsed, err := url.Parse(value)
		if err != nil || parsed.Scheme != "" || parsed.Host != "" {
			return URLValidationError{Field: field, Message: "invalid path", URL: value}
		}
		if strings.Contains(parsed.Path, "..") {
			return URLValidationError{Field: field, Message: "path must not contain '..'", URL: value}
		}
		return nil
	}
	return ValidateURL(value, field, false)
}

// ValidateOrigin checks a CORS origin: scheme and host only, with no path,
// query or fragment.
func ValidateOrigin(value, field string, requireHTTPS bool) error {
	if err := ValidateURL(value, field, requireHTTPS); err != nil {
		return err
	}
	if value == "" {
		return nil
	}

	parsed, _ := url.Parse(value)
	if parsed.Path != "" && parsed.Path != "/" {
		return URLValidationError{Field: field, Message: "origin must not contain a path", URL: value}
	}
	if parsed.RawQuery != "" {
		return URLValidationError{Field: field, Message: "origin must not contain query parameters", URL: value}
	}
	if parsed.Fragment != "" {
		return URLValidationError{Field: field, Message: "origin must not contain a fragment", URL: value}
	}
	return nil
}
