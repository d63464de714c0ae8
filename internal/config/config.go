package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/ctp-sec/linkextractor/internal/scope"
)

// Default configuration values. These mirror the behavior of typical
// pentest reconnaissance runs: polite enough not to trip rate limits,
// bounded enough not to exhaust memory on large sites.
const (
	// DefaultWorkers is the number of concurrent fetch workers.
	DefaultWorkers = 5

	// MaxWorkers is an internal safety ceiling on the worker count.
	// User-requested counts above this are clamped, not rejected: huge
	// counts would only exhaust file descriptors and OS threads without
	// improving throughput on a network-bound workload.
	MaxWorkers = 256

	// DefaultOutputPath is where extracted links are written.
	DefaultOutputPath = "extracted_links.txt"

	// DefaultTimeout is the per-request fetch timeout. Free proxies are
	// slow, so this is generous relative to direct connections.
	DefaultTimeout = 10 * time.Second

	// DefaultCrawlDelay is the politeness delay between fetches by one
	// worker against the same domain.
	DefaultCrawlDelay = 100 * time.Millisecond

	// DefaultQueueCapacity bounds the URL frontier.
	DefaultQueueCapacity = 10000

	// DefaultMaxPerDomain caps URLs admitted to the frontier per domain.
	DefaultMaxPerDomain = 1000

	// DefaultBackupInterval is how often the full link set is rewritten to
	// disk, independent of the incremental append path.
	DefaultBackupInterval = 5 * time.Minute

	// DefaultMaxBodySize limits how much of a response body is read.
	// 5MB covers any real HTML page while bounding memory per worker.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultProxyAttempts is the number of candidates tried per proxy
	// acquisition before backing off and re-querying the provider.
	DefaultProxyAttempts = 10

	// DefaultProxyRetryDelay is the pause between failed proxy candidates.
	DefaultProxyRetryDelay = 2 * time.Second

	// DefaultTorStartupTimeout is the maximum wait for the embedded Tor
	// daemon to bootstrap when --tor is used.
	DefaultTorStartupTimeout = 3 * time.Minute

	// DefaultProbeURL is the endpoint used to verify proxy liveness. It
	// returns the caller's IP, which also confirms the proxy masks it.
	DefaultProbeURL = "http://httpbin.org/ip"

	// AppName is used for XDG directory paths and the User-Agent.
	AppName = "linkextractor"
)

// DefaultProxyCountries is the default country filter for the proxy
// provider, favoring countries with fast and plentiful free proxies.
var DefaultProxyCountries = []string{"US", "GB", "CA", "FR", "DE"}

// Config holds all options for one extraction run. It is populated from
// CLI flags (optionally pre-seeded from a defaults file), validated once,
// and never modified afterwards.
type Config struct {
	// Seed is the domain or URL the crawl starts from.
	Seed string

	// Workers is the number of concurrent fetch workers. Values above
	// MaxWorkers are clamped during Validate.
	Workers int

	// OutputPath is the file extracted links are appended to.
	OutputPath string

	// RandomHeaders rotates the User-Agent per request when true.
	RandomHeaders bool

	// UserAgents replaces the built-in User-Agent rotation table when
	// non-empty. Only loadable from the defaults file.
	UserAgents []string

	// ScopeMode selects which discovered domains are crawled recursively.
	ScopeMode scope.Mode

	// ScopeDomain is the explicit scope root for scope.ModeCustom.
	ScopeDomain string

	// IgnoreListPath points at a newline-delimited list of domains that
	// are collected but never crawled. Empty means no ignore list.
	IgnoreListPath string

	// IgnoredDomains is the parsed ignore list, populated by Load.
	IgnoredDomains map[string]struct{}

	// UseProxy routes fetches through the rotating proxy pool.
	UseProxy bool

	// ProxyCountries filters provider candidates by country code.
	ProxyCountries []string

	// ProxyListPath, when non-empty, supplies proxies from a local file
	// instead of the free-proxy provider API.
	ProxyListPath string

	// UseTor routes all fetches through an embedded Tor daemon instead of
	// the proxy pool. Mutually exclusive with UseProxy.
	UseTor bool

	// TorStartupTimeout bounds the embedded Tor bootstrap.
	TorStartupTimeout time.Duration

	// MaxLinks stops the crawl once this many unique links are recorded.
	// Zero means unlimited.
	MaxLinks int

	// Verbose enables per-URL debug logging. When false, per-URL errors
	// are suppressed entirely and only the status line is shown.
	Verbose bool

	// Timeout is the per-request fetch timeout.
	Timeout time.Duration

	// CrawlDelay is the politeness delay between same-domain fetches.
	CrawlDelay time.Duration

	// QueueCapacity bounds the frontier queue.
	QueueCapacity int

	// MaxPerDomain caps frontier admissions per domain.
	MaxPerDomain int

	// BackupInterval is the period of the full link-store rewrite.
	BackupInterval time.Duration

	// MaxBodySize caps how many response bytes are read per page.
	MaxBodySize int64

	// DBDir, when non-empty, enables the SQLite crawl database in that
	// directory. SaveToDB is set alongside it.
	DBDir string

	// SaveToDB records every link into the crawl database.
	SaveToDB bool

	// ReportFile, when non-empty, writes a markdown crawl summary there
	// after the run.
	ReportFile string

	// ConfigFilePath is an explicit defaults-file path. Empty means search
	// the standard locations.
	ConfigFilePath string

	// ProbeURL is the endpoint used to test proxy liveness before use.
	ProbeURL string
}

// NewConfig returns a Config populated with defaults. Callers override
// fields from flags and then call Validate.
func NewConfig() *Config {
	return &Config{
		Workers:           DefaultWorkers,
		OutputPath:        DefaultOutputPath,
		ScopeMode:         scope.ModeAll,
		ProxyCountries:    DefaultProxyCountries,
		TorStartupTimeout: DefaultTorStartupTimeout,
		Timeout:           DefaultTimeout,
		CrawlDelay:        DefaultCrawlDelay,
		QueueCapacity:     DefaultQueueCapacity,
		MaxPerDomain:      DefaultMaxPerDomain,
		BackupInterval:    DefaultBackupInterval,
		MaxBodySize:       DefaultMaxBodySize,
		ProbeURL:          DefaultProbeURL,
	}
}

// XDGDataDir returns the default directory for the crawl database,
// following the XDG Base Directory Specification
// (~/.local/share/linkextractor on Linux).
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Validate checks the configuration and applies defensive clamps.
// It returns the first problem found; fixing one error often changes the
// rest, so collecting them would not help the user.
func (c *Config) Validate() error {
	if c.Seed == "" {
		return ErrNoSeed
	}
	if scope.RootFromSeed(c.Seed) == "" {
		return ErrInvalidSeed
	}
	if c.Workers < 1 {
		return ErrInvalidWorkerCount
	}
	if c.Workers > MaxWorkers {
		c.Workers = MaxWorkers
	}
	if c.OutputPath == "" {
		return ErrNoOutputPath
	}
	if c.MaxLinks < 0 {
		return ErrInvalidMaxLinks
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.CrawlDelay < 0 {
		return ErrInvalidDelay
	}
	if c.UseProxy && c.UseTor {
		return ErrConflictingTransports
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = DefaultQueueCapacity
	}
	if c.MaxPerDomain <= 0 {
		c.MaxPerDomain = DefaultMaxPerDomain
	}
	if c.MaxBodySize <= 0 {
		c.MaxBodySize = DefaultMaxBodySize
	}

	c.ProxyCountries = ValidateCountries(c.ProxyCountries)
	return nil
}

// SeedURL returns the seed as a fetchable URL. A bare domain gets the
// https scheme; an explicit scheme is kept as-is.
func (c *Config) SeedURL() string {
	for _, prefix := range []string{"http://", "https://"} {
		if len(c.Seed) > len(prefix) && c.Seed[:len(prefix)] == prefix {
			return c.Seed
		}
	}
	return "https://" + c.Seed
}
