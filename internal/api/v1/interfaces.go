package v1

import (
	"context"

	"github.com/gosuda/reviewd/internal/domain"
	"github.com/gosuda/reviewd/internal/pipeline"
)

// DataStore is the slice of the persistence layer the API handlers need.
type DataStore interface {
	Rules() domain.RuleRepository
	History() domain.HistoryRepository
}

// SessionValidator checks that a session id refers to an open channel.
type SessionValidator interface {
	Validate(id string) error
}

// ReviewRunner executes one full review run against an open session.
type ReviewRunner interface {
	Run(ctx context.Context, req pipeline.RunRequest) error
}
