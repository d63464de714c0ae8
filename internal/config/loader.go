package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the defaults-file name searched for in the current
// and home directories.
const DefaultConfigFile = ".linkextractor.yaml"

// ErrConfigNotFound is returned when the defaults file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the optional YAML defaults file. Every field is optional;
// CLI flags always win over values loaded from here.
type File struct {
	// Countries is the default proxy country filter.
	Countries []string `yaml:"countries,omitempty"`

	// UserAgents replaces the built-in User-Agent rotation table.
	UserAgents []string `yaml:"userAgents,omitempty"`

	// CrawlDelay is the default politeness delay (Go duration string).
	CrawlDelay time.Duration `yaml:"crawlDelay,omitempty"`

	// MaxPerDomain is the default per-domain admission cap.
	MaxPerDomain int `yaml:"maxPerDomain,omitempty"`

	// QueueCapacity is the default frontier capacity.
	QueueCapacity int `yaml:"queueCapacity,omitempty"`

	// ProbeURL is the default proxy liveness probe endpoint.
	ProbeURL string `yaml:"probeURL,omitempty"`
}

// LoadConfigFile loads the defaults file from path. It returns
// ErrConfigNotFound if the file does not exist so callers can distinguish
// "no file" (fine when the path was not explicit) from a malformed file
// (always fatal).
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// FindConfigFile resolves the defaults-file location: the explicit path if
// given, otherwise the current directory, otherwise the home directory.
// Returns an empty string when nothing is found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Apply copies values from the defaults file into the config for every
// field the user did not set on the command line. changed reports whether
// a flag was explicitly provided.
func (cf *File) Apply(c *Config, changed func(flag string) bool) {
	if len(cf.Countries) > 0 && !changed("proxy-countries") {
		c.ProxyCountries = cf.Countries
	}
	if cf.CrawlDelay > 0 && !changed("delay") {
		c.CrawlDelay = cf.CrawlDelay
	}
	if cf.MaxPerDomain > 0 && !changed("max-per-domain") {
		c.MaxPerDomain = cf.MaxPerDomain
	}
	if cf.QueueCapacity > 0 && !changed("queue-capacity") {
		c.QueueCapacity = cf.QueueCapacity
	}
	if cf.ProbeURL != "" && !changed("probe-url") {
		c.ProbeURL = cf.ProbeURL
	}
	if len(cf.UserAgents) > 0 {
		c.UserAgents = cf.UserAgents
	}
}
