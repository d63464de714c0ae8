package crawler

import (
	"math/rand/v2"
	"net/http"
)

// userAgents are the browser identities used when header randomization is
// on. A small pool of current desktop and mobile browsers is enough to
// avoid the obvious bot signature without looking like header spam.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Mobile Safari/537.36",
}

// defaultUserAgent identifies the tool honestly when randomization is off.
const defaultUserAgent = "linkextractor/1.0"

// setRequestHeaders fills in the headers for one page fetch. With
// randomize on, the User-Agent is drawn fresh per request so consecutive
// fetches through the same proxy do not share a fingerprint. A non-empty
// custom table replaces the built-in one.
func setRequestHeaders(req *http.Request, randomize bool, custom []string) {
	ua := defaultUserAgent
	if randomize {
		table := userAgents
		if len(custom) > 0 {
			table = custom
		}
		ua = table[rand.IntN(len(table))]
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Connection", "keep-alive")
}
