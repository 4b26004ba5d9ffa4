package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"

	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	bankfeed "github.com/goliatone/go-bankfeed"
	"github.com/goliatone/go-bankfeed/adapters/gocommand"
	"github.com/goliatone/go-bankfeed/adapters/gojob"
	"github.com/goliatone/go-bankfeed/adapters/gologger"
	"github.com/goliatone/go-bankfeed/core"
	"github.com/goliatone/go-bankfeed/inbound"
	"github.com/goliatone/go-bankfeed/migrations"
	sqlstore "github.com/goliatone/go-bankfeed/store/sql"
	"github.com/goliatone/go-bankfeed/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "bankfeedd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	v, err := loadViper()
	if err != nil {
		return err
	}
	appCfg, err := loadAppConfig(v)
	if err != nil {
		return err
	}

	logger := newSlogLogger()
	_, httpLogger := gologger.ResolveComponent("http", nil, logger)
	_, enrichmentLogger := gologger.ResolveComponent("enrichment", nil, logger)

	client, err := openPersistence(ctx, appCfg.Database)
	if err != nil {
		return err
	}
	defer client.Close()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		return err
	}
	cacheService, err := repositorycache.NewCacheService(repositorycache.DefaultConfig())
	if err != nil {
		return err
	}
	institutions, err := sqlstore.NewCachedInstitutionStore(factory.InstitutionStore(), cacheService)
	if err != nil {
		return err
	}

	jobQueue := gojob.NewMemoryQueue(0)

	registry := core.NewAdapterRegistry()
	engine, err := bankfeed.Setup(bankfeed.DefaultConfig(),
		bankfeed.WithLogger(logger),
		bankfeed.WithConfigProvider(core.NewCfgxConfigProvider(viperRawLoader{v: v})),
		bankfeed.WithRegistry(registry),
		bankfeed.WithInstitutionStore(institutions),
		bankfeed.WithEventSink(loggingEventSink{logger: logger}),
		bankfeed.WithEnqueuer(gojob.NewEnqueuerAdapter(jobQueue)),
	)
	if err != nil {
		return err
	}

	if err := bankfeed.RegisterAdapters(registry, engine.Config(), transport.NewDefaultRegistry()); err != nil {
		return err
	}

	subscriptions, err := gocommand.SubscribeEngine(engine, engine)
	if err != nil {
		return err
	}
	defer subscriptions.Unsubscribe()

	enricher, err := gojob.NewEnrichmentConsumer(
		gojob.NewDequeuerAdapter(jobQueue, gojob.DefaultRetryPolicy()),
		func(ctx context.Context, req gojob.EnrichmentRequest) error {
			enrichmentLogger.WithContext(ctx).Info("enrichment request processed",
				"provider", string(req.Provider),
				"session_id", req.SessionID,
				"accounts", len(req.AccountIDs),
			)
			return nil
		},
	)
	if err != nil {
		return err
	}
	go func() {
		// Run exits when the signal context is cancelled.
		_ = enricher.Run(ctx)
	}()

	facade, err := bankfeed.NewFacade(engine)
	if err != nil {
		return err
	}
	commands := facade.Commands()
	queries := facade.Queries()
	server, err := inbound.NewServer(inbound.Handlers{
		SyncAccounts:     commands.SyncAccounts,
		DeleteConnection: commands.DeleteConnection,
		AccountDetails:   queries.AccountDetails,
		AccountBalance:   queries.AccountBalance,
		Transactions:     queries.Transactions,
		Institutions:     queries.Institutions,
		Health:           queries.Health,
	}, inbound.WithLogger(httpLogger))
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:         appCfg.Server.Addr,
		Handler:      server.Handler(),
		ReadTimeout:  appCfg.Server.ReadTimeout,
		WriteTimeout: appCfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", appCfg.Server.Addr)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), appCfg.Server.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func openPersistence(ctx context.Context, cfg DatabaseConfig) (*persistence.Client, error) {
	var dialect schema.Dialect
	var target string
	switch cfg.Driver {
	case "sqlite3":
		dialect = sqlitedialect.New()
		target = migrations.DialectSQLite
	case "postgres":
		dialect = pgdialect.New()
		target = migrations.DialectPostgres
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	sqlDB, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	client, err := persistence.New(persistenceConfig{cfg: cfg}, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	_, err = migrations.Register(ctx, func(_ context.Context, dialect string, _ string, fsys fs.FS) error {
		if dialect != target {
			return nil
		}
		client.RegisterSQLMigrations(fsys)
		return nil
	}, migrations.WithValidationTargets(target))
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// loggingEventSink records domain events to the structured log. Deployments
// with a real event bus replace this with their own sink.
type loggingEventSink struct {
	logger core.Logger
}

func (s loggingEventSink) Record(ctx context.Context, event core.DomainEvent) error {
	s.logger.WithContext(ctx).Info("domain event",
		"event", event.Name,
		"provider", event.Provider,
		"session_id", event.SessionID,
		"accounts", len(event.AccountIDs),
	)
	return nil
}
