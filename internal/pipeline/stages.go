package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gosuda/reviewd/internal/domain"
	"github.com/gosuda/reviewd/internal/llm"
)

// Reviewer is the slice of the inference client the graph needs.
type Reviewer interface {
	Review(ctx context.Context, req llm.ReviewRequest) (string, error)
}

// historyChecker is the entry stage. When the stored commit hash for this
// (user, owner/repo@branch) equals the incoming one, it terminates the run
// with the skip sentinel as the review payload.
type historyChecker struct {
	history domain.HistoryRepository
}

func (s *historyChecker) Name() string { return domain.AgentHistoryChecker }

func (s *historyChecker) Run(ctx context.Context, state *domain.PipelineState) (StageResult, error) {
	last, err := s.history.GetLast(ctx, state.UserID, state.RepoFull())
	if errors.Is(err, domain.ErrNotFound) {
		return StageResult{}, nil
	}
	if err != nil {
		return StageResult{}, fmt.Errorf("history check: %w", err)
	}

	if last.CommitHash == state.CommitSHA {
		sentinel := domain.SkipSentinel
		return StageResult{
			Patch: Patch{
				Review: &sentinel,
				Logs:   []string{"History: No changes - skipping."},
			},
			Terminate: true,
		}, nil
	}

	return StageResult{}, nil
}

// reviewAgent loads the active rule list and makes the single inference call.
// Inference failures are not caught here; they propagate to the triggering
// call's boundary.
type reviewAgent struct {
	rules    domain.RuleRepository
	reviewer Reviewer
}

func (s *reviewAgent) Name() string { return domain.AgentReviewAgent }

func (s *reviewAgent) Run(ctx context.Context, state *domain.PipelineState) (StageResult, error) {
	var rules []string
	rs, err := s.rules.Get(ctx, state.UserID, state.Repo)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return StageResult{}, fmt.Errorf("load rules: %w", err)
	}
	if rs != nil {
		rules = rs.Rules
	}

	review, err := s.reviewer.Review(ctx, llm.ReviewRequest{
		Owner:  state.Owner,
		Repo:   state.Repo,
		Branch: state.Branch,
		Rules:  rules,
		Files:  state.Files,
	})
	if err != nil {
		return StageResult{}, err
	}

	return StageResult{
		Patch: Patch{
			Review: &review,
			Rules:  rules,
			Logs:   []string{"Detailed code review completed."},
		},
	}, nil
}

// publisher insert-or-replaces the history row for this run. Always reached
// after a non-skip review, never on the skip branch.
type publisher struct {
	history domain.HistoryRepository
}

func (s *publisher) Name() string { return domain.AgentPublisher }

func (s *publisher) Run(ctx context.Context, state *domain.PipelineState) (StageResult, error) {
	rec := &domain.ReviewRecord{
		UserID:     state.UserID,
		RepoFull:   state.RepoFull(),
		RepoName:   state.Repo,
		CommitHash: state.CommitSHA,
		Review:     state.Review,
		CreatedAt:  time.Now(),
	}

	err := s.history.Upsert(ctx, rec)
	if err != nil {
		return StageResult{}, fmt.Errorf("save review: %w", err)
	}

	return StageResult{
		Patch: Patch{
			Logs: []string{"Saved to history."},
		},
	}, nil
}
