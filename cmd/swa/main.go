package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/legalbox/swa/internal/domain/app"
	"github.com/legalbox/swa/internal/domain/sandbox"
	"github.com/legalbox/swa/internal/infrastructure/config"
	"github.com/legalbox/swa/internal/infrastructure/eventloop"
	"github.com/legalbox/swa/internal/infrastructure/logging"
	"github.com/legalbox/swa/internal/infrastructure/monitoring"
	"github.com/legalbox/swa/internal/infrastructure/server"
	"github.com/legalbox/swa/internal/infrastructure/tracing"
	"github.com/legalbox/swa/internal/providers/document"
	httpclient "github.com/legalbox/swa/internal/providers/http"
	"github.com/legalbox/swa/internal/providers/i18n"
	"github.com/legalbox/swa/internal/providers/location"
	"github.com/legalbox/swa/internal/providers/script"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Flags override environment
	flag.StringVar(&cfg.Server.Port, "port", cfg.Server.Port, "Server port")
	flag.StringVar(&cfg.Page.Path, "page", cfg.Page.Path, "HTML page to serve (blank page when empty)")
	flag.StringVar(&cfg.Page.ModulesDir, "modules", cfg.Page.ModulesDir, "Directory holding module scripts")
	flag.StringVar(&cfg.I18n.Dir, "i18n", cfg.I18n.Dir, "Directory holding language bundles")
	flag.BoolVar(&cfg.Logging.Development, "dev", cfg.Logging.Development, "Development logging")
	flag.Parse()

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("Host stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig) (*logging.Logger, error) {
	logCfg := logging.DefaultConfig()
	if cfg.Development {
		logCfg = logging.DevelopmentConfig()
	}
	if cfg.Level != "" && !cfg.Development {
		logCfg.Level = cfg.Level
	}
	return logging.New(logCfg)
}

func run(cfg *config.Config, logger *logging.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitoring.NewMetrics(registry)

	doc, err := loadPage(cfg.Page.Path, logger)
	if err != nil {
		return err
	}

	catalog := i18n.NewCatalog(cfg.I18n.DefaultLanguage, logger)
	if cfg.I18n.Dir != "" {
		if err := catalog.LoadDir(cfg.I18n.Dir); err != nil {
			return fmt.Errorf("failed to load language bundles: %w", err)
		}
	}

	loc, err := location.New(cfg.Page.URL, logger)
	if err != nil {
		return err
	}

	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = cfg.HTTP.Timeout
	httpCfg.MaxRetries = cfg.HTTP.MaxRetries
	transport := httpclient.NewClient(httpCfg, logger)

	loop := eventloop.New(logger)
	trace := tracing.NewScope()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loopErr := make(chan error, 1)
	go func() { loopErr <- loop.Run(context.Background()) }()

	application := app.New(sandbox.Services{
		Document:  doc,
		Factory:   doc,
		Catalog:   catalog,
		Transport: transport,
		Location:  loc,
		Scheduler: loop,
		Trace:     trace,
		Logger:    logger,
		Metrics:   metrics,
	})

	scriptCfg := script.DefaultConfig()
	scriptCfg.Timeout = cfg.Script.Timeout
	if err := loop.Do(ctx, func() {
		registerModules(application, cfg.Page, scriptCfg, logger)
		application.Run(doc)
		doc.FireLoad()
	}); err != nil {
		return err
	}

	tracer := tracing.New(logger)
	defer tracer.Close()

	srvCfg := server.DefaultConfig()
	srvCfg.Host = cfg.Server.Host
	srvCfg.Port = cfg.Server.Port
	srvCfg.Development = cfg.Logging.Development
	srvCfg.RateLimit = server.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
		Enabled:           cfg.RateLimit.Enabled,
	}
	srv := server.New(srvCfg, server.Deps{
		App:      application,
		Document: doc,
		Loop:     loop,
		Gatherer: registry,
		Tracer:   tracer,
		Trace:    trace,
		Logger:   logger,
		Metrics:  metrics,
	})

	serverErr := make(chan error, 1)
	go func() { serverErr <- srv.Run() }()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down gracefully")
	case runErr = <-serverErr:
	case runErr = <-loopErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown failed", zap.Error(err))
	}
	if err := loop.Do(shutdownCtx, doc.FireUnload); err != nil && !errors.Is(err, eventloop.ErrStopped) {
		logger.Warn("Unload did not complete", zap.Error(err))
	}
	loop.Stop()

	return runErr
}

func loadPage(path string, logger *logging.Logger) (*document.Document, error) {
	if path == "" {
		return document.NewBlank(logger), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer f.Close()

	return document.Parse(f, logger)
}

func registerModules(application *app.Application, page config.PageConfig, scriptCfg script.Config, logger *logging.Logger) {
	if page.ModulesDir == "" {
		return
	}

	sources, err := script.Discover(page.ModulesDir, page.Pattern)
	if err != nil {
		logger.Warn("Module discovery failed", zap.String("dir", page.ModulesDir), zap.Error(err))
		return
	}

	ids := make([]string, 0, len(sources))
	for _, src := range sources {
		application.Register(src.ID, script.Creator(src, scriptCfg, logger))
		ids = append(ids, src.ID)
	}
	logger.Info("Registered modules", zap.String("modules", strings.Join(ids, ",")))
}
