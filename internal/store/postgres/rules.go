package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/reviewd/internal/domain"
)

type RuleRepo struct {
	pool *pgxpool.Pool
}

func NewRuleRepo(pool *pgxpool.Pool) *RuleRepo {
	return &RuleRepo{pool: pool}
}

func (r *RuleRepo) Get(ctx context.Context, userID, repoName string) (*domain.RuleSet, error) {
	var raw []byte

	err := r.pool.QueryRow(ctx,
		`SELECT rules FROM rules WHERE user_id = $1 AND repo_name = $2`,
		userID, repoName,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("ruleRepo.Get: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ruleRepo.Get: %w", err)
	}

	var rules []string
	err = json.Unmarshal(raw, &rules)
	if err != nil {
		return nil, fmt.Errorf("ruleRepo.Get: decode rules: %w", err)
	}

	return &domain.RuleSet{UserID: userID, RepoName: repoName, Rules: rules}, nil
}

func (r *RuleRepo) Put(ctx context.Context, rs *domain.RuleSet) error {
	raw, err := json.Marshal(rs.Rules)
	if err != nil {
		return fmt.Errorf("ruleRepo.Put: encode rules: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO rules (user_id, repo_name, rules) VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, repo_name) DO UPDATE SET rules = EXCLUDED.rules`,
		rs.UserID, rs.RepoName, raw,
	)
	if err != nil {
		return fmt.Errorf("ruleRepo.Put: %w", err)
	}

	return nil
}
