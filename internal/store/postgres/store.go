package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/reviewd/internal/domain"
)

// Store owns the connection pool and the table repositories.
type Store struct {
	pool    *pgxpool.Pool
	rules   *RuleRepo
	history *HistoryRepo
}

// New connects to PostgreSQL and ensures the two tables exist.
func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	err = bootstrap(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: bootstrap: %w", err)
	}

	return &Store{
		pool:    pool,
		rules:   NewRuleRepo(pool),
		history: NewHistoryRepo(pool),
	}, nil
}

// bootstrap creates the schema when absent. The service owns exactly these
// two tables; anything else in the database is left alone.
func bootstrap(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS rules (
			user_id   text NOT NULL,
			repo_name text NOT NULL,
			rules     jsonb NOT NULL DEFAULT '[]',
			PRIMARY KEY (user_id, repo_name)
		);
		CREATE TABLE IF NOT EXISTS review_history (
			user_id       text NOT NULL,
			repo_full     text NOT NULL,
			repo_name     text NOT NULL,
			commit_hash   text NOT NULL,
			review_result text NOT NULL,
			created_at    timestamptz NOT NULL,
			PRIMARY KEY (user_id, repo_full)
		);
		CREATE INDEX IF NOT EXISTS review_history_repo_name_idx
			ON review_history (user_id, repo_name, created_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Rules() domain.RuleRepository      { return s.rules }
func (s *Store) History() domain.HistoryRepository { return s.history }
