package v1_test

import (
	"context"

	"github.com/gosuda/reviewd/internal/domain"
	"github.com/gosuda/reviewd/internal/pipeline"
)

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	rules   domain.RuleRepository
	history domain.HistoryRepository
}

func (m *mockDataStore) Rules() domain.RuleRepository      { return m.rules }
func (m *mockDataStore) History() domain.HistoryRepository { return m.history }

// ---------------------------------------------------------------------------
// Mock RuleRepository
// ---------------------------------------------------------------------------

type mockRuleRepo struct {
	getFunc func(ctx context.Context, userID, repoName string) (*domain.RuleSet, error)
	putFunc func(ctx context.Context, rs *domain.RuleSet) error
}

func (m *mockRuleRepo) Get(ctx context.Context, userID, repoName string) (*domain.RuleSet, error) {
	return m.getFunc(ctx, userID, repoName)
}

func (m *mockRuleRepo) Put(ctx context.Context, rs *domain.RuleSet) error {
	return m.putFunc(ctx, rs)
}

// ---------------------------------------------------------------------------
// Mock HistoryRepository
// ---------------------------------------------------------------------------

type mockHistoryRepo struct {
	getLastFunc    func(ctx context.Context, userID, repoFull string) (*domain.ReviewRecord, error)
	upsertFunc     func(ctx context.Context, rec *domain.ReviewRecord) error
	listByRepoFunc func(ctx context.Context, userID, repoName string, limit int) ([]*domain.ReviewRecord, error)
	deleteFunc     func(ctx context.Context, userID, repoName, commitHash string) error
}

func (m *mockHistoryRepo) GetLast(ctx context.Context, userID, repoFull string) (*domain.ReviewRecord, error) {
	return m.getLastFunc(ctx, userID, repoFull)
}

func (m *mockHistoryRepo) Upsert(ctx context.Context, rec *domain.ReviewRecord) error {
	return m.upsertFunc(ctx, rec)
}

func (m *mockHistoryRepo) ListByRepo(ctx context.Context, userID, repoName string, limit int) ([]*domain.ReviewRecord, error) {
	return m.listByRepoFunc(ctx, userID, repoName, limit)
}

func (m *mockHistoryRepo) Delete(ctx context.Context, userID, repoName, commitHash string) error {
	return m.deleteFunc(ctx, userID, repoName, commitHash)
}

// ---------------------------------------------------------------------------
// Mock SessionValidator
// ---------------------------------------------------------------------------

type mockSessionValidator struct {
	validateFunc func(id string) error
}

func (m *mockSessionValidator) Validate(id string) error {
	return m.validateFunc(id)
}

// ---------------------------------------------------------------------------
// Mock ReviewRunner
// ---------------------------------------------------------------------------

type mockReviewRunner struct {
	runFunc func(ctx context.Context, req pipeline.RunRequest) error
}

func (m *mockReviewRunner) Run(ctx context.Context, req pipeline.RunRequest) error {
	return m.runFunc(ctx, req)
}
