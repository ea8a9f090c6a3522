// Package app wires configuration, storage, oracles and the scanner into the
// components shared by the CLI and the HTTP server.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/phishguard/internal/cache"
	"github.com/dmitrijs2005/phishguard/internal/config"
	"github.com/dmitrijs2005/phishguard/internal/httpapi"
	"github.com/dmitrijs2005/phishguard/internal/lexical"
	"github.com/dmitrijs2005/phishguard/internal/logging"
	"github.com/dmitrijs2005/phishguard/internal/oracle"
	"github.com/dmitrijs2005/phishguard/internal/pagecheck"
	"github.com/dmitrijs2005/phishguard/internal/policy"
	"github.com/dmitrijs2005/phishguard/internal/repositories/kv"
	"github.com/dmitrijs2005/phishguard/internal/scanner"
	"github.com/dmitrijs2005/phishguard/internal/timex"
	"github.com/dmitrijs2005/phishguard/internal/trustlist"
	"github.com/dmitrijs2005/phishguard/internal/typosquat"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	store   kv.Store
	cache   *cache.Store
	scanner *scanner.Scanner
	events  *scanner.ChanNotifier
}

type Option func(*options)

type options struct {
	logOutput io.Writer
	notifier  scanner.Notifier
	clock     timex.Clock
}

// WithLogOutput redirects logs, which go to stderr by default.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

// WithNotifier adds a notifier that receives every scan event alongside the
// buffered event queue.
func WithNotifier(n scanner.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

func WithClock(c timex.Clock) Option {
	return func(o *options) { o.clock = c }
}

func NewApp(ctx context.Context, c *config.Config, opts ...Option) (*App, error) {
	o := options{logOutput: os.Stderr, clock: timex.SystemClock{}}
	for _, opt := range opts {
		opt(&o)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger := logging.New(o.logOutput, c.LogLevel, c.LogFormat)

	trusted := trustlist.Default()
	if c.TrustedFile != "" {
		l, err := trustlist.Load(c.TrustedFile)
		if err != nil {
			return nil, fmt.Errorf("trusted domains: %w", err)
		}
		trusted = l
	}
	logger.Debug(ctx, "trusted domains loaded", "count", trusted.Len())

	store, err := kv.Open(ctx, c.StoreDSN)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	cacheStore := cache.New(store, logger.With("component", "cache"), cache.WithClock(o.clock))

	client := oracle.NewClient(c.APIBaseURL,
		oracle.WithTimeout(c.OracleTimeout),
		oracle.WithRateLimit(c.OracleRate, c.OracleBurst),
	)

	var whois oracle.WhoisOracle = oracle.NewAPIWhois(client)
	if c.WhoisMode == config.WhoisDirect {
		whois = oracle.NewDirectWhois(c.OracleTimeout)
	}

	live := pagecheck.NewHTTPFetcher()
	var fetcher pagecheck.Fetcher = live
	if c.RenderPages {
		fetcher = pagecheck.FallbackFetcher{
			Primary:   &pagecheck.ChromeFetcher{ExecPath: c.ChromePath, Settle: 500 * time.Millisecond},
			Secondary: live,
		}
	}

	var typoOpts []typosquat.Option
	if c.ClosestMatch {
		typoOpts = append(typoOpts, typosquat.WithClosestMatch())
	}

	events := scanner.NewChanNotifier(256)
	var notifier scanner.Notifier = events
	if o.notifier != nil {
		extra := o.notifier
		notifier = scanner.NotifyFunc(func(ctx context.Context, e scanner.Event) {
			events.Notify(ctx, e)
			extra.Notify(ctx, e)
		})
	}

	deps := scanner.Deps{
		Cache:        cacheStore,
		Entitlements: policy.Static(c.TierValue()),
		Lexical:      lexical.NewAnalyzer(logger.With("component", "lexical")),
		Typosquat:    typosquat.New(trusted, typoOpts...),
		DomainAge:    oracle.NewAgeChecker(whois, o.clock, logger.With("component", "whois")),
		Pages:        pagecheck.NewChecker(fetcher, live, logger.With("component", "pagecheck")),
		Whitelist:    oracle.NewWhitelist(trusted, client, logger.With("component", "whitelist")),
		PhishingDB:   oracle.NewPhishingDB(client),
		Notifier:     notifier,
		Clock:        o.clock,
		Logger:       logger.With("component", "scanner"),
	}
	if c.ReportEnabled {
		deps.Reporter = oracle.NewReporter(client)
	}
	if c.SlackWebhookURL != "" {
		deps.Alerter = oracle.NewSlackNotifier(c.SlackWebhookURL, nil, logger.With("component", "slack"))
	}

	return &App{
		config:  c,
		logger:  logger,
		store:   store,
		cache:   cacheStore,
		scanner: scanner.New(deps, scanner.WithLinkConcurrency(c.LinkConcurrency)),
		events:  events,
	}, nil
}

func (app *App) Scanner() *scanner.Scanner { return app.scanner }

func (app *App) Logger() logging.Logger { return app.logger }

func (app *App) Events() *scanner.ChanNotifier { return app.events }

// Sweep purges expired cache entries once.
func (app *App) Sweep(ctx context.Context) (int, error) {
	return app.cache.Sweep(ctx)
}

// Wipe erases all locally stored scan state.
func (app *App) Wipe(ctx context.Context) error {
	app.logger.Info(ctx, "wiping local scan data")
	return app.cache.Wipe(ctx)
}

// StartSweeper purges expired cache entries on the configured interval
// until ctx is cancelled.
func (app *App) StartSweeper(ctx context.Context) {
	app.cache.RunSweeper(ctx, app.config.SweepInterval)
}

// Close waits for background reports and closes the store.
func (app *App) Close() error {
	app.scanner.Wait()
	return app.store.Close()
}

// InitSignalHandler cancels the returned context on SIGINT, SIGTERM or
// SIGQUIT.
func InitSignalHandler(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancelFunc := context.WithCancel(ctx)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
		signal.Stop(sigs)
	}()

	return ctx, cancelFunc
}

// RunServer serves the HTTP API and runs the cache sweeper until a signal
// arrives or the server fails.
func (app *App) RunServer(ctx context.Context) error {
	ctx, cancelFunc := InitSignalHandler(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	handler := httpapi.NewHandler(app.scanner, app.events, app.store, app.logger.With("component", "http"))
	srv := httpapi.NewServer(app.config.ListenAddr, handler.Routes(), app.logger)

	var (
		wg     sync.WaitGroup
		runErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.StartSweeper(ctx)
	}()
	go func() {
		defer wg.Done()
		if err := srv.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			runErr = err
			cancelFunc()
		}
	}()

	wg.Wait()
	return runErr
}
