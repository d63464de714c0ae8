package urlutil

import "testing"

// TestNormalize tests URL canonicalization.
func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases scheme and host", "HTTP://Example.COM/Path", "http://example.com/Path"},
		{"strips fragment", "http://example.com/page#section", "http://example.com/page"},
		{"strips default http port", "http://example.com:80/page", "http://example.com/page"},
		{"strips default https port", "https://example.com:443/page", "https://example.com/page"},
		{"keeps non-default port", "http://example.com:8080/page", "http://example.com:8080/page"},
		{"strips trailing slash", "http://example.com/page/", "http://example.com/page"},
		{"collapses root path", "http://example.com/", "http://example.com"},
		{"keeps query string", "http://example.com/search?q=go&page=2", "http://example.com/search?q=go&page=2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestNormalizeIdempotent verifies that normalizing an already normalized
// URL is a no-op. The deduplication stores rely on this property.
func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"HTTP://Example.COM:80/Path/#frag",
		"https://sub.example.com:443/a/b/?x=1",
		"http://example.com",
		"http://example.com/page/",
		"not a url at all",
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

// TestIsValid tests URL well-formedness checks.
func TestIsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"plain http", "http://example.com/page", true},
		{"plain https", "https://example.com", true},
		{"javascript scheme", "javascript:void(0)", false},
		{"mailto scheme", "mailto:user@example.com", false},
		{"relative reference", "/just/a/path", false},
		{"missing host", "http:///page", false},
		{"pdf asset", "http://example.com/report.pdf", false},
		{"image asset", "http://example.com/logo.PNG", false},
		{"html page with extension-like query", "http://example.com/page?file=x.pdf", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := IsValid(tt.in); got != tt.want {
				t.Errorf("IsValid(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// TestIsValidLength rejects URLs over the length cap.
func TestIsValidLength(t *testing.T) {
	t.Parallel()

	long := "http://example.com/"
	for len(long) <= maxURLLength {
		long += "x"
	}
	if IsValid(long) {
		t.Error("expected overlong URL to be rejected")
	}
}
