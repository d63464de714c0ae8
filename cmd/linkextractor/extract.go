package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ctp-sec/linkextractor/internal/config"
	"github.com/ctp-sec/linkextractor/internal/crawler"
	"github.com/ctp-sec/linkextractor/internal/frontier"
	"github.com/ctp-sec/linkextractor/internal/log"
	"github.com/ctp-sec/linkextractor/internal/metrics"
	"github.com/ctp-sec/linkextractor/internal/proxy"
	"github.com/ctp-sec/linkextractor/internal/report"
	"github.com/ctp-sec/linkextractor/internal/scope"
	"github.com/ctp-sec/linkextractor/internal/status"
	"github.com/ctp-sec/linkextractor/internal/store"
	"github.com/ctp-sec/linkextractor/internal/urlutil"
)

// NewExtractCmd creates the extract command.
func NewExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <seed>",
		Short: "Crawl a site and collect every discovered link",
		Long: `Extract starts from the seed URL (or bare domain), fetches each page,
collects every hyperlink, and recursively follows the ones that are in
scope. Links are written to the output file the moment they are found.

Scope control:
  By default every discovered domain is followed. --only-this-domain
  with no value restricts the crawl to the seed's domain and its
  subdomains; with a value it restricts to that domain instead.
  --ignore-domains names a file of domains that are collected but never
  fetched.

Examples:
  # Crawl everything reachable from the seed
  linkextractor extract example.com

  # Stay on the seed's domain, rotate free US/GB proxies
  linkextractor extract --only-this-domain --use-proxy \
    --proxy-countries US,GB example.com

  # Route through an embedded Tor daemon, stop after 500 links
  linkextractor extract --tor --max-links 500 example.com

Defaults file (.linkextractor.yaml) example:
  countries: [US, DE]
  crawlDelay: 250ms
  maxPerDomain: 500`,
		Args: cobra.ExactArgs(1),
		RunE: runExtractCmd,
	}

	cmd.Flags().IntP("threads", "t", config.DefaultWorkers,
		"Number of concurrent fetch workers")
	cmd.Flags().StringP("output", "o", config.DefaultOutputPath,
		"File to write collected links to")
	cmd.Flags().Bool("random-headers", false,
		"Rotate browser User-Agent headers per request")
	cmd.Flags().String("only-this-domain", "",
		"Restrict crawling to one domain (no value: the seed's domain)")
	cmd.Flags().Lookup("only-this-domain").NoOptDefVal = "AUTO"
	cmd.Flags().String("ignore-domains", "",
		"File listing domains to collect but never crawl")
	cmd.Flags().Bool("use-proxy", false,
		"Route fetches through rotating free proxies")
	cmd.Flags().StringSlice("proxy-countries", config.DefaultProxyCountries,
		"Country filter for the proxy provider")
	cmd.Flags().String("proxy-list", "",
		"File of proxies (host:port per line) to use instead of the provider")
	cmd.Flags().Bool("tor", false,
		"Route fetches through an embedded Tor daemon")
	cmd.Flags().Int("max-links", 0,
		"Stop after this many links (0 = unlimited)")
	cmd.Flags().String("db-dir", "",
		"Also record links in a SQLite database under this directory")
	cmd.Flags().Lookup("db-dir").NoOptDefVal = config.XDGDataDir()
	cmd.Flags().String("report", "",
		"Write a markdown crawl report to this file")
	cmd.Flags().StringP("config", "c", "",
		"Defaults file path (default: .linkextractor.yaml in cwd or home)")
	cmd.Flags().Duration("timeout", config.DefaultTimeout,
		"Per-request fetch timeout")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Politeness delay between same-domain fetches")
	cmd.Flags().String("probe-url", config.DefaultProbeURL,
		"Endpoint used to test proxy liveness")
	cmd.Flags().Int("queue-capacity", config.DefaultQueueCapacity,
		"URL frontier capacity")
	cmd.Flags().Int("max-per-domain", config.DefaultMaxPerDomain,
		"Cap on URLs crawled per domain")

	return cmd
}

// runExtractCmd executes the extract command.
func runExtractCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, finishing in-flight fetches...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runExtract(ctx, cmd, cfg, logger)
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Seed = args[0]

	flags := cmd.Flags()
	var err error

	if cfg.Workers, err = flags.GetInt("threads"); err != nil {
		return nil, err
	}
	if cfg.OutputPath, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.RandomHeaders, err = flags.GetBool("random-headers"); err != nil {
		return nil, err
	}
	if cfg.UseProxy, err = flags.GetBool("use-proxy"); err != nil {
		return nil, err
	}
	if cfg.ProxyCountries, err = flags.GetStringSlice("proxy-countries"); err != nil {
		return nil, err
	}
	if cfg.ProxyListPath, err = flags.GetString("proxy-list"); err != nil {
		return nil, err
	}
	if cfg.UseTor, err = flags.GetBool("tor"); err != nil {
		return nil, err
	}
	if cfg.MaxLinks, err = flags.GetInt("max-links"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("report"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.CrawlDelay, err = flags.GetDuration("delay"); err != nil {
		return nil, err
	}
	if cfg.ProbeURL, err = flags.GetString("probe-url"); err != nil {
		return nil, err
	}
	if cfg.QueueCapacity, err = flags.GetInt("queue-capacity"); err != nil {
		return nil, err
	}
	if cfg.MaxPerDomain, err = flags.GetInt("max-per-domain"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	if flags.Changed("only-this-domain") {
		domain, err := flags.GetString("only-this-domain")
		if err != nil {
			return nil, err
		}
		if domain == "AUTO" {
			cfg.ScopeMode = scope.ModeAuto
		} else {
			cfg.ScopeMode = scope.ModeCustom
			cfg.ScopeDomain = domain
		}
	}

	if flags.Changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return nil, err
		}
		cfg.SaveToDB = true
	}

	// Defaults file: explicit path must exist, the default search may
	// come up empty.
	explicit := cfg.ConfigFilePath != ""
	if path := config.FindConfigFile(cfg.ConfigFilePath); path != "" {
		cf, err := config.LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
		cf.Apply(cfg, flags.Changed)
	} else if explicit {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	ignorePath, err := flags.GetString("ignore-domains")
	if err != nil {
		return nil, err
	}
	if ignorePath != "" {
		cfg.IgnoreListPath = ignorePath
		if cfg.IgnoredDomains, err = config.LoadIgnoreList(ignorePath); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// runExtract wires the crawl together and runs it to completion.
func runExtract(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	startedAt := time.Now()
	seed := cfg.SeedURL()

	classifier := scope.New(cfg.ScopeMode, seed, cfg.ScopeDomain, cfg.IgnoredDomains)
	front := frontier.New(cfg.QueueCapacity, cfg.MaxPerDomain)
	collector := metrics.New(front.Len)

	var db *store.DB
	if cfg.SaveToDB {
		var err error
		db, err = store.OpenDB(ctx, cfg.DBDir, seed)
		if err != nil {
			return err
		}
		defer db.Close() //nolint:errcheck // read path is finished by then
		logger.Debug("session database open", "dir", cfg.DBDir, "session", db.SessionID())
	}

	writerOpts := []store.WriterOption{
		store.WithBackupInterval(cfg.BackupInterval),
		store.WithWriterLogger(logger),
	}
	if cfg.MaxLinks > 0 {
		writerOpts = append(writerOpts, store.WithMaxLinks(cfg.MaxLinks))
	}
	if db != nil {
		writerOpts = append(writerOpts, store.WithDB(db))
	}
	writer, err := store.NewWriter(cfg.OutputPath, writerOpts...)
	if err != nil {
		return err
	}
	defer writer.Close() //nolint:errcheck // flushed on every record

	poolOpts := []crawler.PoolOption{crawler.WithPoolLogger(logger)}
	switch {
	case cfg.UseTor:
		tor := proxy.NewTorTransport(
			proxy.WithStartupTimeout(cfg.TorStartupTimeout),
			proxy.WithFetchTimeout(cfg.Timeout),
		)
		logger.Info("starting embedded Tor daemon...")
		if err := tor.Start(ctx); err != nil {
			return err
		}
		defer tor.Stop() //nolint:errcheck // daemon teardown is best effort
		logger.Info("Tor ready", "socks", tor.SocksAddr())
		poolOpts = append(poolOpts, crawler.WithTransportSource(tor))

	case cfg.UseProxy:
		provider, err := buildProvider(cfg)
		if err != nil {
			return err
		}
		manager := proxy.NewManager(provider,
			proxy.WithCountries(cfg.ProxyCountries),
			proxy.WithProbeURL(cfg.ProbeURL),
			proxy.WithAttemptBudget(config.DefaultProxyAttempts),
			proxy.WithRetryDelay(config.DefaultProxyRetryDelay),
			proxy.WithLogger(logger),
		)
		poolOpts = append(poolOpts, crawler.WithTransportSource(manager))
	}

	pool := crawler.NewPool(
		crawler.Config{
			Workers:       cfg.Workers,
			MaxLinks:      cfg.MaxLinks,
			Timeout:       cfg.Timeout,
			CrawlDelay:    cfg.CrawlDelay,
			MaxBody:       cfg.MaxBodySize,
			RandomHeaders: cfg.RandomHeaders,
			UserAgents:    cfg.UserAgents,
		},
		front, classifier, writer, collector,
		poolOpts...,
	)

	if res := front.Enqueue(seed); res != frontier.Admitted {
		return fmt.Errorf("failed to enqueue seed URL %q: %s", seed, res)
	}

	// Background loops: periodic backup always, status line only in
	// clean mode (verbose runs log structured events instead).
	bgCtx, stopBg := context.WithCancel(context.Background())
	var bg sync.WaitGroup

	bg.Add(1)
	go func() {
		defer bg.Done()
		writer.Run(bgCtx)
	}()

	if !cfg.Verbose {
		display := status.New(cmd.ErrOrStderr(), collector)
		bg.Add(1)
		go func() {
			defer bg.Done()
			display.Run(bgCtx)
		}()
	}

	runErr := pool.Run(ctx)
	interrupted := ctx.Err() != nil

	stopBg()
	bg.Wait()

	if runErr != nil {
		return runErr
	}

	summary := &report.Summary{
		Seed:        seed,
		ScopeMode:   cfg.ScopeMode.String(),
		ScopeRoot:   classifier.Root(),
		OutputPath:  cfg.OutputPath,
		StartedAt:   startedAt,
		Duration:    time.Since(startedAt),
		Interrupted: interrupted,
		Stats:       collector.Snapshot(),
	}
	if db != nil {
		summary.SessionID = db.SessionID()
		if recs, err := db.Links(context.Background()); err == nil {
			summary.Domains = report.DomainCounts(recs)
		}
	} else if recs, err := readOutputRecords(cfg.OutputPath); err == nil {
		summary.Domains = report.DomainCounts(recs)
	}

	if err := report.NewTextWriter(cmd.OutOrStdout()).Write(summary); err != nil {
		return err
	}

	if cfg.ReportFile != "" {
		if err := writeMarkdownReport(cfg.ReportFile, summary); err != nil {
			return err
		}
		logger.Info("report written", "path", cfg.ReportFile)
	}
	return nil
}

// buildProvider selects between a local proxy-list file and the free
// provider API.
func buildProvider(cfg *config.Config) (proxy.Provider, error) {
	if cfg.ProxyListPath == "" {
		return proxy.NewHTTPProvider(""), nil
	}

	f, err := os.Open(cfg.ProxyListPath) //nolint:gosec // user-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open proxy list: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	var proxies []proxy.Proxy
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		p, err := proxy.ParseProxy(line)
		if err != nil {
			continue
		}
		proxies = append(proxies, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read proxy list: %w", err)
	}
	if len(proxies) == 0 {
		return nil, fmt.Errorf("proxy list %s contains no usable proxies", cfg.ProxyListPath)
	}
	return &proxy.StaticProvider{Proxies: proxies}, nil
}

// readOutputRecords loads the output file back as bare records so the
// report can aggregate domains without a database.
func readOutputRecords(path string) ([]store.Record, error) {
	f, err := os.Open(path) //nolint:gosec // path was created by this run
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck // read-only file

	var recs []store.Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if u := scanner.Text(); urlutil.IsValid(u) {
			recs = append(recs, store.Record{URL: u})
		}
	}
	return recs, scanner.Err()
}

// writeMarkdownReport writes the markdown summary, creating parent
// directories as needed.
func writeMarkdownReport(path string, summary *report.Summary) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}

	if err := report.NewMarkdownWriter(f).Write(summary); err != nil {
		_ = f.Close() //nolint:errcheck // write error takes precedence
		return err
	}
	return f.Close()
}
