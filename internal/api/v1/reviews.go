package v1

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/reviewd/internal/domain"
	"github.com/gosuda/reviewd/internal/pipeline"
)

type TriggerReviewInput struct {
	Body struct {
		UserID    string `json:"user_id" minLength:"1" doc:"Requesting user id"`
		Repo      string `json:"repo" minLength:"1" doc:"Repository as owner/name"`
		Branch    string `json:"branch,omitempty" doc:"Branch to review (default main)"`
		SessionID string `json:"session_id" minLength:"1" doc:"Open streaming session id"`
	}
}

type TriggerReviewOutput struct {
	Body struct {
		Success bool   `json:"success"`
		Error   string `json:"error,omitempty"`
	}
}

// RegisterReviewRoutes wires the triggering endpoint. The response is
// informational; the substantive result travels over the session's streaming
// channel.
func RegisterReviewRoutes(api huma.API, sessions SessionValidator, runner ReviewRunner) {
	huma.Register(api, huma.Operation{
		OperationID: "trigger-review",
		Method:      http.MethodPost,
		Path:        "/review",
		Summary:     "Start a review run against an open session",
		Tags:        []string{"Reviews"},
	}, func(ctx context.Context, input *TriggerReviewInput) (*TriggerReviewOutput, error) {
		if err := sessions.Validate(input.Body.SessionID); err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				return nil, huma.Error400BadRequest("no active session channel found")
			}
			return nil, huma.Error500InternalServerError("session lookup failed", err)
		}

		owner, repo, ok := strings.Cut(input.Body.Repo, "/")
		if !ok || owner == "" || repo == "" {
			return nil, huma.Error400BadRequest("repo must be owner/name")
		}

		branch := input.Body.Branch
		if branch == "" {
			branch = "main"
		}

		log.Info().
			Str("repo", input.Body.Repo).
			Str("branch", branch).
			Str("user_id", input.Body.UserID).
			Str("session_id", input.Body.SessionID).
			Msg("review requested")

		// A client dropping this request must not cancel the run: in-flight
		// fetch and inference work runs to completion, and the history write
		// still lands if the run reaches the publish stage.
		runCtx := context.WithoutCancel(ctx)

		out := &TriggerReviewOutput{}
		err := runner.Run(runCtx, pipeline.RunRequest{
			UserID:    input.Body.UserID,
			Owner:     owner,
			Repo:      repo,
			Branch:    branch,
			SessionID: input.Body.SessionID,
		})
		if err != nil {
			out.Body.Success = false
			out.Body.Error = err.Error()
			return out, nil
		}

		out.Body.Success = true
		return out, nil
	})
}
