package scope

import "testing"

// TestRootFromSeed tests scope root extraction from seed values.
func TestRootFromSeed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		seed string
		want string
	}{
		{"bare domain", "example.com", "example.com"},
		{"strips scheme", "https://example.com", "example.com"},
		{"strips path", "https://example.com/some/path", "example.com"},
		{"strips port", "example.com:8080", "example.com"},
		{"strips www", "www.example.com", "example.com"},
		{"keeps other subdomains", "https://sub.example.com:8080/x", "sub.example.com"},
		{"everything at once", "https://www.example.com:8080/login", "example.com"},
		{"uppercase host", "HTTPS://WWW.Example.COM", "example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := RootFromSeed(tt.seed); got != tt.want {
				t.Errorf("RootFromSeed(%q) = %q, want %q", tt.seed, got, tt.want)
			}
		})
	}
}

// TestIsCrawlableAutoMode verifies subdomain scoping in auto mode.
// Given seed www.example.com:8080, example.com and api.example.com are
// crawlable while unrelated domains are not.
func TestIsCrawlableAutoMode(t *testing.T) {
	t.Parallel()

	c := New(ModeAuto, "www.example.com:8080", "", nil)

	crawlable := []string{
		"http://example.com/page",
		"https://api.example.com/v1",
		"https://www.example.com",
		"http://deep.api.example.com/x",
	}
	for _, u := range crawlable {
		if !c.IsCrawlable(u) {
			t.Errorf("expected %q to be crawlable", u)
		}
	}

	notCrawlable := []string{
		"http://other.com/page",
		"http://example.com.evil.net",
		"http://notexample.com",
	}
	for _, u := range notCrawlable {
		if c.IsCrawlable(u) {
			t.Errorf("expected %q to not be crawlable", u)
		}
	}
}

// TestIsCrawlableAllMode verifies that all mode crawls everything except
// ignored hosts.
func TestIsCrawlableAllMode(t *testing.T) {
	t.Parallel()

	ignored := map[string]struct{}{"tracker.net": {}}
	c := New(ModeAll, "example.com", "", ignored)

	if !c.IsCrawlable("http://anything.org/page") {
		t.Error("expected unrelated domain to be crawlable in all mode")
	}
	if c.IsCrawlable("http://tracker.net/pixel") {
		t.Error("expected ignored domain to not be crawlable")
	}
	if c.IsCrawlable("http://sub.tracker.net/pixel") {
		t.Error("expected subdomain of ignored domain to not be crawlable")
	}
}

// TestIgnoreWinsOverScope verifies the tie-break: a host inside the scope
// root that is also on the ignore list is never crawlable.
func TestIgnoreWinsOverScope(t *testing.T) {
	t.Parallel()

	ignored := map[string]struct{}{"internal.example.com": {}}
	c := New(ModeAuto, "example.com", "", ignored)

	if c.IsCrawlable("http://internal.example.com/secret") {
		t.Error("ignored host inside scope must not be crawlable")
	}
	if !c.IsIgnored("http://internal.example.com/secret") {
		t.Error("expected host to be reported as ignored")
	}
	if !c.IsCrawlable("http://docs.example.com") {
		t.Error("non-ignored host inside scope must stay crawlable")
	}
}

// TestIsIgnoredWWWInsensitive verifies www. prefixes don't defeat ignore
// matching in either direction.
func TestIsIgnoredWWWInsensitive(t *testing.T) {
	t.Parallel()

	ignored := map[string]struct{}{"ads.example.com": {}}
	c := New(ModeAll, "", "", ignored)

	if !c.IsIgnored("http://www.ads.example.com/banner") {
		t.Error("expected www-prefixed host to match ignore entry")
	}
}

// TestCustomMode verifies explicit scope domains.
func TestCustomMode(t *testing.T) {
	t.Parallel()

	c := New(ModeCustom, "start.example.com", "other.org", nil)

	if c.Root() != "other.org" {
		t.Errorf("Root() = %q, want %q", c.Root(), "other.org")
	}
	if !c.IsCrawlable("http://sub.other.org") {
		t.Error("expected custom scope subdomain to be crawlable")
	}
	if c.IsCrawlable("http://start.example.com") {
		t.Error("seed domain must not be crawlable when custom scope is set")
	}
}
