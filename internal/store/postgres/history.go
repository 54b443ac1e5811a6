package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/reviewd/internal/domain"
)

type HistoryRepo struct {
	pool *pgxpool.Pool
}

func NewHistoryRepo(pool *pgxpool.Pool) *HistoryRepo {
	return &HistoryRepo{pool: pool}
}

func (r *HistoryRepo) GetLast(ctx context.Context, userID, repoFull string) (*domain.ReviewRecord, error) {
	rec := domain.ReviewRecord{UserID: userID, RepoFull: repoFull}

	err := r.pool.QueryRow(ctx,
		`SELECT repo_name, commit_hash, review_result, created_at
		 FROM review_history WHERE user_id = $1 AND repo_full = $2`,
		userID, repoFull,
	).Scan(&rec.RepoName, &rec.CommitHash, &rec.Review, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("historyRepo.GetLast: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("historyRepo.GetLast: %w", err)
	}

	return &rec, nil
}

func (r *HistoryRepo) Upsert(ctx context.Context, rec *domain.ReviewRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO review_history (user_id, repo_full, repo_name, commit_hash, review_result, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, repo_full) DO UPDATE SET
			repo_name = EXCLUDED.repo_name,
			commit_hash = EXCLUDED.commit_hash,
			review_result = EXCLUDED.review_result,
			created_at = EXCLUDED.created_at`,
		rec.UserID, rec.RepoFull, rec.RepoName, rec.CommitHash, rec.Review, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("historyRepo.Upsert: %w", err)
	}

	return nil
}

func (r *HistoryRepo) ListByRepo(ctx context.Context, userID, repoName string, limit int) ([]*domain.ReviewRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT repo_full, repo_name, commit_hash, review_result, created_at
		 FROM review_history
		 WHERE user_id = $1 AND repo_name = $2
		 ORDER BY created_at DESC
		 LIMIT $3`,
		userID, repoName, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("historyRepo.ListByRepo: %w", err)
	}
	defer rows.Close()

	var out []*domain.ReviewRecord
	for rows.Next() {
		rec := domain.ReviewRecord{UserID: userID}
		err = rows.Scan(&rec.RepoFull, &rec.RepoName, &rec.CommitHash, &rec.Review, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("historyRepo.ListByRepo: scan: %w", err)
		}
		out = append(out, &rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("historyRepo.ListByRepo: %w", err)
	}

	return out, nil
}

func (r *HistoryRepo) Delete(ctx context.Context, userID, repoName, commitHash string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM review_history
		 WHERE user_id = $1 AND repo_name = $2 AND commit_hash = $3`,
		userID, repoName, commitHash,
	)
	if err != nil {
		return fmt.Errorf("historyRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("historyRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}
