package server

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	v1 "github.com/gosuda/reviewd/internal/api/v1"
	"github.com/gosuda/reviewd/internal/domain"
	"github.com/gosuda/reviewd/internal/pipeline"
)

// DataStore mirrors v1.DataStore so the composition root depends on the
// server package alone.
type DataStore interface {
	Rules() domain.RuleRepository
	History() domain.HistoryRepository
}

// SessionManager is the slice of the session registry the routes need.
type SessionManager interface {
	Validate(id string) error
}

// ReviewRunner executes one review run.
type ReviewRunner interface {
	Run(ctx context.Context, req pipeline.RunRequest) error
}

func registerAPIRoutes(api huma.API, deps Deps) {
	v1.RegisterReviewRoutes(api, deps.Sessions, deps.Runner)
	v1.RegisterRuleRoutes(api, deps.Store)
	v1.RegisterHistoryRoutes(api, deps.Store)
}
