// Package main is the entry point for the service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/jsamuelsen/quote-lifecycle-service/internal/adapters/clients"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/adapters/http"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/adapters/store/dynamo"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/adapters/store/memory"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/adapters/store/sqlstore"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/adapters/token"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/adapters/ws"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/app"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/platform/config"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/platform/logging"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/platform/metrics"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/platform/telemetry"
	"github.com/jsamuelsen/quote-lifecycle-service/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	// Version is the semantic version of the service.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built.
	BuildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// quoteStore is a ports.QuoteStore with connection lifecycle methods.
type quoteStore interface {
	ports.QuoteStore
	Ping(ctx context.Context) error
	Close() error
}

func run(ctx context.Context) error {
	// 1. Determine profile from environment
	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	// 2. Load and validate configuration (fail fast)
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 3. Initialize logging
	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	logging.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
		slog.String("store", cfg.Store.Driver),
	)

	// 4. Initialize telemetry (noop if disabled)
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
		Insecure:     cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	// 5. Metrics and health
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	lifecycleMetrics, err := metrics.NewLifecycle(registry)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	healthRegistry := ports.NewHealthRegistry(cfg.Client.Timeout)

	// 6. Quote store
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Error("closing quote store", slog.Any("error", closeErr))
		}
	}()

	if err := healthRegistry.Register(ports.NewHealthCheck("quote-store", store.Ping)); err != nil {
		return fmt.Errorf("registering store health check: %w", err)
	}

	// 7. Downstream collaborators (ACL pattern)
	var sinks []ports.EventPublisher

	var attachments ports.AttachmentChecker

	if svc := cfg.Services.Notification; svc.Enabled {
		client, err := newDownstreamClient(cfg, svc, logger)
		if err != nil {
			return err
		}

		notifications := acl.NewNotificationClient(client, logger)
		sinks = append(sinks, notifications)

		if err := healthRegistry.Register(notifications); err != nil {
			return fmt.Errorf("registering notification health check: %w", err)
		}
	}

	if svc := cfg.Services.Attachments; svc.Enabled {
		client, err := newDownstreamClient(cfg, svc, logger)
		if err != nil {
			return err
		}

		attachmentClient := acl.NewAttachmentClient(client)
		attachments = attachmentClient

		if err := healthRegistry.Register(attachmentClient); err != nil {
			return fmt.Errorf("registering attachment health check: %w", err)
		}
	}

	var hub *ws.Hub
	if cfg.Events.Enabled {
		hub = ws.NewHub(logger, cfg.Events.AllowedOrigins...)
		sinks = append(sinks, hub)
	}

	// 8. Notifications are delivered asynchronously so transitions never wait on them.
	var (
		publisher ports.EventPublisher
		notifier  *app.Notifier
	)

	if cfg.Notifications.Enabled && len(sinks) > 0 {
		notifier = app.NewNotifier(app.NotifierConfig{
			Sinks:     sinks,
			QueueSize: cfg.Notifications.QueueSize,
			Timeout:   cfg.Notifications.Timeout,
			Metrics:   lifecycleMetrics,
			Logger:    logger,
		})
		publisher = notifier
	}

	// 9. Application layer
	engine := app.NewLifecycleEngine(app.LifecycleEngineConfig{
		Store:          store,
		Tokens:         token.NewGenerator(),
		Attachments:    attachments,
		Publisher:      publisher,
		Metrics:        lifecycleMetrics,
		Logger:         logger,
		SweepBatchSize: cfg.Sweep.BatchSize,
		SweepWorkers:   cfg.Sweep.Workers,
	})

	quoteService := app.NewQuoteService(app.QuoteServiceConfig{
		Store:           store,
		Engine:          engine,
		Logger:          logger,
		DefaultTenant:   cfg.Quotes.DefaultTenant,
		DefaultCurrency: cfg.Quotes.DefaultCurrency,
		ValidityWindow:  cfg.Quotes.ValidityWindow,
		PublicBaseURL:   cfg.Quotes.PublicBaseURL,
	})

	gateway := app.NewClientGateway(app.ClientGatewayConfig{
		Engine:     engine,
		ValidToken: token.Valid,
		Logger:     logger,
	})

	// 10. HTTP server and routes
	server := http.New(&cfg.Server, logger)

	routerCfg := http.RouterConfig{
		ServiceName:   cfg.App.Name,
		AuthConfig:    &cfg.Auth,
		HealthHandler: handlers.NewHealthHandler(healthRegistry, handlers.NewBuildInfo(Version, Commit, BuildTime), registry),
		StaffHandler:  handlers.NewStaffQuoteHandler(quoteService),
		ClientHandler: handlers.NewClientQuoteHandler(gateway),
		Timeout:       http.DefaultRequestTimeout,
	}
	if hub != nil {
		routerCfg.EventStream = hub.Handler()
	}

	http.SetupRouter(server.Engine(), routerCfg)

	// 11. Run until a signal arrives or a component fails. Background
	// delivery outlives the server so in-flight transitions still notify.
	return serve(ctx, logger, server, notifier, hub, sweeper(cfg, engine, logger))
}

func serve(
	ctx context.Context,
	logger *slog.Logger,
	server *http.Server,
	notifier *app.Notifier,
	hub *ws.Hub,
	sweep *app.Sweeper,
) error {
	g, gctx := errgroup.WithContext(ctx)

	background, stopBackground := context.WithCancel(context.WithoutCancel(ctx))
	defer stopBackground()

	streams, stopStreams := context.WithCancel(context.WithoutCancel(ctx))
	defer stopStreams()

	g.Go(func() error {
		defer stopBackground()
		return server.Run(gctx)
	})

	if sweep != nil {
		g.Go(func() error { return sweep.Run(gctx) })
	}

	if notifier != nil {
		g.Go(func() error {
			defer stopStreams()
			return notifier.Run(background)
		})
	} else {
		go func() {
			<-background.Done()
			stopStreams()
		}()
	}

	if hub != nil {
		g.Go(func() error { return hub.Run(streams) })
	}

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("shutdown complete")

	return nil
}

func sweeper(cfg *config.Config, engine *app.LifecycleEngine, logger *slog.Logger) *app.Sweeper {
	if !cfg.Sweep.Enabled {
		return nil
	}

	return app.NewSweeper(engine, cfg.Sweep.Interval, logger)
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (quoteStore, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres, config.StoreDriverSQLite:
		dsn := cfg.Store.Postgres.DSN
		if cfg.Store.Driver == config.StoreDriverSQLite {
			dsn = cfg.Store.SQLite.Path
		}

		store, err := sqlstore.Open(ctx, sqlstore.Options{
			Driver:             cfg.Store.Driver,
			DSN:                dsn,
			MaxOpenConns:       cfg.Store.MaxOpenConns,
			SlowQueryThreshold: cfg.Store.SlowQueryThreshold,
			Logger:             logger,
		})
		if err != nil {
			return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Driver, err)
		}

		return store, nil
	case config.StoreDriverDynamoDB:
		client, err := dynamo.NewClient(ctx, dynamo.ClientOptions{
			Region:          cfg.Store.DynamoDB.Region,
			Endpoint:        cfg.Store.DynamoDB.Endpoint,
			AccessKeyID:     cfg.Store.DynamoDB.AccessKeyID,
			SecretAccessKey: cfg.Store.DynamoDB.SecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("creating dynamodb client: %w", err)
		}

		return dynamo.New(client, dynamo.DefaultTables(cfg.Store.DynamoDB.TablePrefix)), nil
	default:
		logger.Warn("using the in-memory quote store; data is lost on restart")
		return memory.New(), nil
	}
}

func newDownstreamClient(cfg *config.Config, svc config.ServiceEndpointConfig, logger *slog.Logger) (*clients.Client, error) {
	client, err := clients.New(&clients.Config{
		BaseURL:     svc.BaseURL,
		ServiceName: svc.Name,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %w", svc.Name, err)
	}

	return client, nil
}
