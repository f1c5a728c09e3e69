package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name         string
		url          string
		requireHTTPS bool
		wantErr      string
	}{
		{"http", "http://example.com", false, ""},
		{"https with path and query", "https://example.com/a/b?x=1#top", false, ""},
		{"https required and given", "https://example.com", true, ""},
		{"port", "https://example.com:8443/path", false, ""},
		{"empty", "", true, ""},
		{"no scheme", "example.com", false, "must include a scheme"},
		{"http when https required", "http://example.com", true, "must use HTTPS"},
		{"ftp", "ftp://example.com", false, "scheme must be http or https"},
		{"javascript", "javascript:alert(1)", false, "scheme must be http or https"},
		{"no host", "https://", false, "must include a host"},
		{"malformed", "ht!tp://example.com", false, "invalid URL format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url, "field", tt.requireHTTPS)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ValidateURL(%q) returned error: %v", tt.url, err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("ValidateURL(%q) = %v, want error containing %q", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestValidateImageRef(t *testing.T) {
	valid := []string{
		"",
		"/uploads/cover.png",
		"/uploads/2025/poster%20final.jpg",
		"https://cdn.example.edu/events/42.jpg",
	}
	for _, v := range valid {
		if err := ValidateImageRef(v, "cover"); err != nil {
			t.Errorf("ValidateImageRef(%q) returned error: %v", v, err)
		}
	}

	invalid := []string{
		"//evil.example.com/x.png",
		"/uploads/../etc/passwd",
		"javascript:alert(1)",
		"data:image/png;base64,AAAA",
		"cover.png",
	}
	for _, v := range invalid {
		if err := ValidateImageRef(v, "cover"); err == nil {
			t.Errorf("ValidateImageRef(%q) should fail", v)
		}
	}
}

func TestValidateOrigin(t *testing.T) {
	tests := []struct {
		origin       string
		requireHTTPS bool
		wantErr      string
	}{
		{"https://events.example.edu", true, ""},
		{"http://localhost:5173", false, ""},
		{"https://events.example.edu/", true, ""},
		{"http://events.example.edu", true, "must use HTTPS"},
		{"https://events.example.edu/app", false, "must not contain a path"},
		{"https://events.example.edu?x=1", false, "query parameters"},
		{"https://events.example.edu#frag", false, "fragment"},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			err := ValidateOrigin(tt.origin, "origin", tt.requireHTTPS)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("got %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestURLValidationErrorFields(t *testing.T) {
	err := ValidateURL("ftp://example.com", "cover", false)

	var verr URLValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected URLValidationError, got %T", err)
	}
	if verr.Field != "cover" || verr.URL != "ftp://example.com" {
		t.Errorf("unexpected error fields: %+v", verr)
	}
}
