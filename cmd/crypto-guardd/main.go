package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/haukened/crypto-guard/internal/guard/common/clock"
	"github.com/haukened/crypto-guard/internal/guard/common/log"
	"github.com/haukened/crypto-guard/internal/guard/config"
	"github.com/haukened/crypto-guard/internal/guard/gateways/rpc"
	"github.com/haukened/crypto-guard/internal/guard/gateways/transport"
	"github.com/haukened/crypto-guard/internal/guard/repos/blocklist"
	"github.com/haukened/crypto-guard/internal/guard/repos/blocklist/bloom"
	"github.com/haukened/crypto-guard/internal/guard/repos/blocklist/bolt"
	"github.com/haukened/crypto-guard/internal/guard/repos/refdata"
	"github.com/haukened/crypto-guard/internal/guard/repos/resultcache"
	"github.com/haukened/crypto-guard/internal/guard/services/checker"
	"github.com/haukened/crypto-guard/internal/guard/services/engine"
	"github.com/haukened/crypto-guard/internal/guard/services/walletguard"
)

const (
	version = "0.1.0-dev"
	appName = "crypto-guardd"

	defaultShutdownTimeout = 10 * time.Second
)

// Application holds the wired components of the daemon.
type Application struct {
	config    *config.AppConfig
	clock     clock.Clock
	logger    log.Logger
	store     blocklist.Store
	checker   *checker.Checker
	wallet    walletguard.Dispatcher
	transport *transport.HTTPTransport
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	err = log.Configure(cfg.Env, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"app":            appName,
		"version":        version,
		"env":            cfg.Env,
		"log_level":      cfg.Log.Level,
		"addr":           cfg.HTTP.Addr,
		"reference_file": cfg.Reference.File,
		"blocklist_dir":  cfg.Blocklist.Dir,
		"cache_size":     cfg.Cache.Size,
	}, "Starting Crypto Guard")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := buildApplication(ctx, cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		for sig := range sigChan {
			if sig == syscall.SIGHUP {
				if err := app.Reload(ctx); err != nil {
					log.Error(map[string]any{"error": err}, "Reload failed, keeping current snapshot")
				}
				continue
			}
			log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
			cancel()
			return
		}
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Server failed")
	}

	log.Info(nil, "Crypto Guard stopped gracefully")
}

// buildApplication constructs all components and wires them together.
func buildApplication(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	app := &Application{
		config: cfg,
		clock:  &clock.RealClock{},
		logger: log.GetLogger(),
	}

	if cfg.Blocklist.DB != "" {
		store, err := bolt.New(cfg.Blocklist.DB)
		if err != nil {
			return nil, fmt.Errorf("failed to open blocklist store %s: %w", cfg.Blocklist.DB, err)
		}
		app.store = store
	}

	eng, err := app.buildEngine(ctx)
	if err != nil {
		app.closeStore()
		return nil, fmt.Errorf("failed to build engine: %w", err)
	}

	cache, err := resultcache.New(cfg.Cache.Size)
	if err != nil {
		app.closeStore()
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}
	log.Info(map[string]any{
		"type": "LRU",
		"size": cfg.Cache.Size,
	}, "Result cache configured")

	app.checker, err = checker.New(checker.Options{
		Evaluator: eng,
		Cache:     cache,
		Clock:     app.clock,
		Logger:    app.logger,
	})
	if err != nil {
		app.closeStore()
		return nil, fmt.Errorf("failed to create checker: %w", err)
	}

	if len(cfg.Wallet.Upstream) > 0 {
		wallet, err := buildWallet(cfg.Wallet, app.logger)
		if err != nil {
			app.closeStore()
			return nil, fmt.Errorf("failed to build wallet guard: %w", err)
		}
		app.wallet = wallet
	}

	app.transport = transport.NewHTTPTransport(cfg.HTTP.Addr, app.logger)
	return app, nil
}

// buildEngine loads reference data and blocklists into a fresh engine.
func (app *Application) buildEngine(ctx context.Context) (*engine.Engine, error) {
	cfg := app.config

	tables := refdata.Builtin()
	if cfg.Reference.File != "" {
		var err error
		tables, err = refdata.LoadFile(cfg.Reference.File)
		if err != nil {
			return nil, err
		}
	}
	ref, err := tables.Reference()
	if err != nil {
		return nil, fmt.Errorf("reference data from %s: %w", tables.Source, err)
	}

	loader := &blocklist.Loader{
		Dir:    cfg.Blocklist.Dir,
		Store:  app.store,
		Logger: app.logger,
		Clock:  app.clock,
	}
	rules, err := loader.Load(ctx, tables.Rules(app.logger, app.clock.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to load blocklist: %w", err)
	}
	index := blocklist.NewIndex(rules, bloom.NewFactory(), cfg.Blocklist.FPRate)

	eng, err := engine.New(engine.Options{
		Reference: ref,
		Blocklist: index,
		Scoring:   scoringFromConfig(cfg.Scoring),
	})
	if err != nil {
		return nil, err
	}

	log.Info(map[string]any{
		"reference":       tables.Source,
		"brands":          len(ref.Brands),
		"host_keywords":   len(ref.HostKeywords),
		"path_keywords":   len(ref.PathKeywords),
		"suspicious_tlds": len(ref.SuspiciousTLDs),
		"blocklist_rules": index.Len(),
	}, "Engine snapshot built")
	return eng, nil
}

func buildWallet(cfg config.WalletConfig, logger log.Logger) (walletguard.Dispatcher, error) {
	client, err := rpc.NewClient(rpc.Options{
		Endpoints: cfg.Upstream,
		Timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	guard, err := walletguard.New(client, cfg.BlockedMethods, logger)
	if err != nil {
		return nil, err
	}
	log.Info(map[string]any{
		"upstream":        cfg.Upstream,
		"blocked_methods": cfg.BlockedMethods,
	}, "Wallet guard configured")
	return guard, nil
}

func scoringFromConfig(c config.ScoringConfig) engine.Scoring {
	return engine.Scoring{
		Weights: engine.Weights{
			Punycode:       c.WeightPunycode,
			BrandLookalike: c.WeightBrandLookalike,
			SuspiciousTLD:  c.WeightSuspiciousTLD,
			DeepSubdomain:  c.WeightDeepSubdomain,
			IPLiteral:      c.WeightIPLiteral,
			HostKeyword:    c.WeightHostKeyword,
			PathKeyword:    c.WeightPathKeyword,
			AtSign:         c.WeightAtSign,
		},
		Thresholds: engine.Thresholds{
			Warn:  c.WarnThreshold,
			Block: c.BlockThreshold,
		},
		MaxBrandDistance: c.MaxBrandDistance,
	}
}

// Reload rebuilds the engine from its sources and swaps it in. On failure the
// current snapshot stays in service.
func (app *Application) Reload(ctx context.Context) error {
	eng, err := app.buildEngine(ctx)
	if err != nil {
		return err
	}
	gen, err := app.checker.Swap(eng)
	if err != nil {
		return err
	}
	log.Info(map[string]any{"generation": gen}, "Reload completed")
	return nil
}

// Start brings up the HTTP transport.
func (app *Application) Start(ctx context.Context) error {
	if err := app.transport.Start(ctx, transport.Services{Checker: app.checker, Wallet: app.wallet}); err != nil {
		return fmt.Errorf("failed to start HTTP transport: %w", err)
	}
	log.Info(map[string]any{
		"address":   app.transport.Address(),
		"transport": "HTTP",
		"wallet":    app.wallet != nil,
	}, "Crypto Guard started")
	return nil
}

// Shutdown stops the transport and releases the blocklist store.
func (app *Application) Shutdown() error {
	err := app.transport.Stop()
	app.closeStore()
	return err
}

func (app *Application) closeStore() {
	if app.store == nil {
		return
	}
	if err := app.store.Close(); err != nil {
		log.Warn(map[string]any{"error": err}, "Error closing blocklist store")
	}
	app.store = nil
}

// Run starts the daemon and blocks until ctx is cancelled.
func (app *Application) Run(ctx context.Context) error {
	if err := app.Start(ctx); err != nil {
		app.closeStore()
		return err
	}

	<-ctx.Done()
	log.Info(nil, "Shutdown initiated")

	done := make(chan error, 1)
	go func() { done <- app.Shutdown() }()

	select {
	case err := <-done:
		if err != nil {
			log.Warn(map[string]any{"error": err}, "Error during transport shutdown")
		}
		log.Info(nil, "Graceful shutdown completed")
		return nil
	case <-time.After(defaultShutdownTimeout):
		log.Warn(map[string]any{"timeout": defaultShutdownTimeout}, "Shutdown timeout exceeded")
		return fmt.Errorf("shutdown timeout")
	}
}
