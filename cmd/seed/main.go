// Package main provides a CLI tool that creates the demo schema and loads the demo data set.
package main

import (
	"context"
	"fmt"
	"os"

	"smartfilter/internal/config"
	"smartfilter/internal/domain/models"
	"smartfilter/internal/infrastructure/cache"
	"smartfilter/internal/infrastructure/storage/postgres"
	"smartfilter/pkg/logger"
)

// schema creates the demo tables. Statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id          UUID PRIMARY KEY,
		name        TEXT NOT NULL,
		email       TEXT NOT NULL UNIQUE,
		age         INTEGER NOT NULL DEFAULT 0,
		is_active   BOOLEAN NOT NULL DEFAULT TRUE,
		salary      NUMERIC(12,2) NOT NULL DEFAULT 0,
		manager_id  UUID REFERENCES users(id),
		password    TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id    UUID PRIMARY KEY,
		name  TEXT NOT NULL,
		slug  TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id            UUID PRIMARY KEY,
		user_id       UUID NOT NULL REFERENCES users(id),
		category_id   UUID REFERENCES categories(id),
		title         TEXT NOT NULL,
		content       TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL DEFAULT 'draft',
		views         INTEGER NOT NULL DEFAULT 0,
		published_at  TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id            UUID PRIMARY KEY,
		post_id       UUID NOT NULL REFERENCES posts(id),
		body          TEXT NOT NULL,
		rating        INTEGER NOT NULL DEFAULT 0,
		author_token  TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_user_id ON posts(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id)`,
}

func main() {
	if err := config.LoadDotEnv(os.Getenv("SMARTFILTER_ENV_FILE")); err != nil {
		fmt.Printf("failed to load env file: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(os.Getenv("SMARTFILTER_CONFIG"))
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	ctx := logger.WithLogger(context.Background(), log)

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Database.URL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool).WithStatementTimeout(cfg.Database.StatementTimeout())

	if err := createSchema(ctx, txManager); err != nil {
		log.Fatalw("failed to create schema", "error", err)
	}
	log.Info("schema ready")

	if os.Getenv("SEED_RESET") == "true" {
		if err := truncate(ctx, txManager); err != nil {
			log.Fatalw("failed to truncate demo tables", "error", err)
		}
		log.Info("demo tables truncated")
	}

	if err := seedDemoData(ctx, txManager, log); err != nil {
		log.Fatalw("failed to seed demo data", "error", err)
	}

	log.Info("seeding completed successfully")
}

func createSchema(ctx context.Context, txManager *postgres.TxManager) error {
	exec := postgres.NewBatchExecutor(txManager)

	return txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		queries := make([]postgres.BatchQuery, 0, len(schema)+1)
		for _, stmt := range schema {
			queries = append(queries, postgres.BatchQuery{SQL: stmt})
		}
		// Running servers drop their cached column lists.
		queries = append(queries, postgres.BatchQuery{
			SQL:  "SELECT pg_notify($1, '')",
			Args: []any{cache.ChannelSchemaChanged},
		})
		return exec.ExecuteBatch(ctx, queries)
	})
}

func truncate(ctx context.Context, txManager *postgres.TxManager) error {
	return txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		_, err := txManager.GetQuerier(ctx).Exec(ctx, "TRUNCATE comments, posts, categories, users")
		return err
	})
}

func seedDemoData(ctx context.Context, txManager *postgres.TxManager, log *logger.Logger) error {
	var existing int64
	err := txManager.ReadOnly(ctx, func(ctx context.Context) error {
		return txManager.GetQuerier(ctx).QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&existing)
	})
	if err != nil {
		return fmt.Errorf("check existing data: %w", err)
	}
	if existing > 0 {
		log.Infow("demo data already present, skipping", "users", existing)
		return nil
	}

	data := models.DemoData()
	inserter := postgres.NewBatchInserter(txManager)

	return txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Managers must exist before their reports.
		users := make([]models.User, 0, len(data.Users))
		for _, u := range data.Users {
			if u.ManagerID == nil {
				users = append(users, u)
			}
		}
		for _, u := range data.Users {
			if u.ManagerID != nil {
				users = append(users, u)
			}
		}

		steps := []struct {
			table string
			copy  func() (int64, error)
		}{
			{"users", func() (int64, error) { return postgres.CopyModels(ctx, inserter, users) }},
			{"categories", func() (int64, error) { return postgres.CopyModels(ctx, inserter, data.Categories) }},
			{"posts", func() (int64, error) { return postgres.CopyModels(ctx, inserter, data.Posts) }},
			{"comments", func() (int64, error) { return postgres.CopyModels(ctx, inserter, data.Comments) }},
		}

		for _, step := range steps {
			n, err := step.copy()
			if err != nil {
				return fmt.Errorf("copy %s: %w", step.table, err)
			}
			log.Infow("table seeded", "table", step.table, "rows", n)
		}
		return nil
	})
}
