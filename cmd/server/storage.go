package main

import (
	"context"
	"fmt"
	"strings"

	"smartfilter/internal/config"
	"smartfilter/internal/domain"
	"smartfilter/internal/domain/filter"
	"smartfilter/internal/domain/models"
	"smartfilter/internal/infrastructure/cache"
	"smartfilter/internal/infrastructure/metrics"
	"smartfilter/internal/infrastructure/storage/memory"
	"smartfilter/internal/infrastructure/storage/postgres"
	"smartfilter/internal/infrastructure/storage/postgres/filter_repo"
	"smartfilter/internal/metadata"
	"smartfilter/pkg/logger"
)

// backend bundles the compiler with the list services of one storage driver.
type backend struct {
	compiler *filter.Compiler
	registry *metadata.Registry
	listers  map[string]domain.Lister
	pool     *postgres.Pool
	metrics  *metrics.Metrics
	closers  []func()
}

// Close releases the backend resources in reverse order.
func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// newCompiler builds the compiler and attaches metrics when enabled.
func (b *backend) newCompiler(cfg config.Config, schema filter.SchemaIntrospector, log *logger.Logger) *filter.Compiler {
	c := filter.NewCompiler(cfg.FilterSettings(), schema, log)
	if b.metrics != nil {
		c = c.WithObserver(b.metrics)
	}
	return c
}

func (b *backend) register(l interface {
	domain.Lister
	EntityName() string
}) {
	b.listers[l.EntityName()] = l
}

// setupBackend builds the metadata registry, introspector, compiler and
// repositories for the configured storage driver.
func setupBackend(ctx context.Context, cfg config.Config, log *logger.Logger, m *metrics.Metrics) (*backend, error) {
	registry := metadata.NewRegistry()
	for _, model := range models.All() {
		registry.Register(model)
	}

	b := &backend{
		registry: registry,
		listers:  make(map[string]domain.Lister),
		metrics:  m,
	}

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if err := b.setupPostgres(ctx, cfg, log); err != nil {
			b.Close()
			return nil, err
		}
	default:
		b.setupMemory(cfg, log)
	}
	return b, nil
}

func (b *backend) setupMemory(cfg config.Config, log *logger.Logger) {
	b.compiler = b.newCompiler(cfg, metadata.NewStructIntrospector(b.registry), log)

	store := memory.NewStore()
	if cfg.Storage.Seed {
		data := models.DemoData()
		for _, u := range data.Users {
			store.InsertStruct(u)
		}
		for _, c := range data.Categories {
			store.InsertStruct(c)
		}
		for _, p := range data.Posts {
			store.InsertStruct(p)
		}
		for _, c := range data.Comments {
			store.InsertStruct(c)
		}
		log.Infow("memory store seeded", "users", len(data.Users), "posts", len(data.Posts))
	}

	for _, m := range models.All() {
		b.register(domain.NewListService(domain.ListServiceConfig[memory.Record]{
			Repo: memory.NewRepo(store, b.compiler, m),
		}))
	}
}

func (b *backend) setupPostgres(ctx context.Context, cfg config.Config, log *logger.Logger) error {
	poolCfg := postgres.DefaultPoolConfig(cfg.Database.URL)
	poolCfg.MaxConns = cfg.Database.MaxConns
	if cfg.Database.MinConns > 0 {
		poolCfg.MinConns = cfg.Database.MinConns
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	b.pool = pool
	b.closers = append(b.closers, pool.Close)
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool).WithStatementTimeout(cfg.Database.StatementTimeout())

	schema := cache.NewSchemaCache(postgres.NewSchemaIntrospector(txManager), pool.Pool)
	if cfg.Database.ListenSchemaChanges {
		if err := schema.Start(ctx); err != nil {
			return fmt.Errorf("start schema listener: %w", err)
		}
		b.closers = append(b.closers, schema.Stop)
		schema.OnInvalidation(func(channel, payload string) {
			log.Infow("schema cache invalidated", "channel", channel, "table", payload)
			if b.metrics != nil {
				b.metrics.SchemaInvalidated(strings.TrimSpace(payload))
			}
		})
	}

	b.compiler = b.newCompiler(cfg, schema, log)

	logQueries := cfg.Debug.LogQueries
	b.register(domain.NewListService(domain.ListServiceConfig[models.User]{
		Repo: filter_repo.NewRepo[models.User](txManager, b.compiler).WithQueryLogging(logQueries),
	}))
	b.register(domain.NewListService(domain.ListServiceConfig[models.Post]{
		Repo: filter_repo.NewRepo[models.Post](txManager, b.compiler).WithQueryLogging(logQueries),
	}))
	b.register(domain.NewListService(domain.ListServiceConfig[models.Comment]{
		Repo: filter_repo.NewRepo[models.Comment](txManager, b.compiler).WithQueryLogging(logQueries),
	}))
	b.register(domain.NewListService(domain.ListServiceConfig[models.Category]{
		Repo: filter_repo.NewRepo[models.Category](txManager, b.compiler).WithQueryLogging(logQueries),
	}))
	return nil
}
