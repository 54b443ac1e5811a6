package pipeline_test

import (
	"context"
	"fmt"

	"github.com/gosuda/reviewd/internal/domain"
	"github.com/gosuda/reviewd/internal/github"
	"github.com/gosuda/reviewd/internal/llm"
)

// ---------------------------------------------------------------------------
// Mock HistoryRepository
// ---------------------------------------------------------------------------

type mockHistoryRepo struct {
	getLastFunc func(ctx context.Context, userID, repoFull string) (*domain.ReviewRecord, error)
	upsertFunc  func(ctx context.Context, rec *domain.ReviewRecord) error

	upserts []*domain.ReviewRecord
}

func (m *mockHistoryRepo) GetLast(ctx context.Context, userID, repoFull string) (*domain.ReviewRecord, error) {
	if m.getLastFunc != nil {
		return m.getLastFunc(ctx, userID, repoFull)
	}
	return nil, fmt.Errorf("mock: %w", domain.ErrNotFound)
}

func (m *mockHistoryRepo) Upsert(ctx context.Context, rec *domain.ReviewRecord) error {
	m.upserts = append(m.upserts, rec)
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, rec)
	}
	return nil
}

func (m *mockHistoryRepo) ListByRepo(context.Context, string, string, int) ([]*domain.ReviewRecord, error) {
	return nil, nil
}

func (m *mockHistoryRepo) Delete(context.Context, string, string, string) error {
	return fmt.Errorf("mock: %w", domain.ErrNotFound)
}

// ---------------------------------------------------------------------------
// Mock RuleRepository
// ---------------------------------------------------------------------------

type mockRuleRepo struct {
	getFunc func(ctx context.Context, userID, repoName string) (*domain.RuleSet, error)
}

func (m *mockRuleRepo) Get(ctx context.Context, userID, repoName string) (*domain.RuleSet, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, userID, repoName)
	}
	return nil, fmt.Errorf("mock: %w", domain.ErrNotFound)
}

func (m *mockRuleRepo) Put(context.Context, *domain.RuleSet) error { return nil }

// ---------------------------------------------------------------------------
// Mock Reviewer
// ---------------------------------------------------------------------------

type mockReviewer struct {
	reviewFunc func(ctx context.Context, req llm.ReviewRequest) (string, error)

	calls []llm.ReviewRequest
}

func (m *mockReviewer) Review(ctx context.Context, req llm.ReviewRequest) (string, error) {
	m.calls = append(m.calls, req)
	if m.reviewFunc != nil {
		return m.reviewFunc(ctx, req)
	}
	return `{"summary":{"overallQuality":"good"}}`, nil
}

// ---------------------------------------------------------------------------
// Mock FileFetcher
// ---------------------------------------------------------------------------

type mockFetcher struct {
	events []github.Event
}

func (m *mockFetcher) Fetch(context.Context, string, string, string) <-chan github.Event {
	out := make(chan github.Event, len(m.events))
	for _, ev := range m.events {
		out <- ev
	}
	close(out)
	return out
}
