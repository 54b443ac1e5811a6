package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/reviewd/internal/domain"
	"github.com/gosuda/reviewd/internal/github"
	"github.com/gosuda/reviewd/internal/notify"
	"github.com/gosuda/reviewd/internal/session"
)

// FileFetcher is the slice of the hosting client the runner needs.
type FileFetcher interface {
	Fetch(ctx context.Context, owner, repo, branch string) <-chan github.Event
}

// Runner executes one full review run per triggering request: incremental
// file fetch, then the workflow graph, narrating both over the session's
// channel and driving its checkpoints.
type Runner struct {
	fetcher  FileFetcher
	graph    *Graph
	sessions *session.Manager
	notifier notify.Notifier
}

func NewRunner(fetcher FileFetcher, graph *Graph, sessions *session.Manager, notifier notify.Notifier) *Runner {
	return &Runner{
		fetcher:  fetcher,
		graph:    graph,
		sessions: sessions,
		notifier: notifier,
	}
}

// RunRequest identifies the branch to review and the session to narrate to.
type RunRequest struct {
	UserID    string
	Owner     string
	Repo      string
	Branch    string
	SessionID string
}

// Run drives a complete review. On any fatal error the session receives a
// single error frame, the erroring checkpoint is marked, and the channel is
// closed; on success the client sees review (when produced) then done. The
// returned error mirrors what went over the channel so the triggering call
// can answer with it.
func (r *Runner) Run(ctx context.Context, req RunRequest) error {
	runID := uuid.New()
	sid := req.SessionID

	logger := log.With().
		Stringer("run_id", runID).
		Str("session_id", sid).
		Str("repo", req.Owner+"/"+req.Repo).
		Str("branch", req.Branch).
		Logger()
	logger.Info().Msg("review run started")

	r.sessions.UpdateCheckpoint(sid, domain.AgentHistoryChecker, domain.CheckpointInProgress,
		"Fetching repository information...")

	result, err := r.fetchFiles(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("fetch failed")
		r.fail(sid, err)
		return err
	}

	r.sessions.UpdateCheckpoint(sid, domain.AgentHistoryChecker, domain.CheckpointCompleted,
		fmt.Sprintf("Found %d files to review", len(result.Files)))

	state := domain.PipelineState{
		UserID:    req.UserID,
		Owner:     req.Owner,
		Repo:      req.Repo,
		Branch:    req.Branch,
		Files:     result.Files,
		CommitSHA: result.SHA,
	}

	final, err := r.graph.Run(ctx, state, r.hooks(sid))
	if err != nil {
		logger.Error().Err(err).Msg("pipeline failed")
		r.fail(sid, err)
		return err
	}

	if final.Review != "" {
		r.sessions.Review(sid, final.Review)
	}
	r.sessions.Done(sid)

	logger.Info().Bool("skipped", final.Skipped()).Msg("review run completed")

	if !final.Skipped() {
		// Best effort; a notification failure never fails the run.
		if err := r.notifier.ReviewPublished(ctx, final.UserID, final.RepoFull(), final.CommitSHA); err != nil {
			logger.Warn().Err(err).Msg("completion notification failed")
		}
	}

	return nil
}

// fetchFiles drains the fetch event stream, relaying narration, and returns
// the terminal file batch. All narration is delivered before the graph runs.
func (r *Runner) fetchFiles(ctx context.Context, req RunRequest) (*github.Result, error) {
	var result *github.Result

	for ev := range r.fetcher.Fetch(ctx, req.Owner, req.Repo, req.Branch) {
		switch {
		case ev.Err != nil:
			return nil, ev.Err
		case ev.Result != nil:
			result = ev.Result
		default:
			r.sessions.Log(req.SessionID, ev.Log)
		}
	}

	if result == nil {
		return nil, fmt.Errorf("pipeline.Runner: fetch ended without a file batch")
	}

	return result, nil
}

// hooks maps graph stage boundaries onto checkpoint transitions. The
// history_checker checkpoint is driven around the fetch instead, so its
// stage boundary is deliberately silent here.
func (r *Runner) hooks(sid string) Hooks {
	return Hooks{
		OnStageStart: func(stage string) {
			switch stage {
			case domain.AgentReviewAgent:
				r.sessions.UpdateCheckpoint(sid, stage, domain.CheckpointInProgress,
					"AI analyzing code quality and architecture...")
			case domain.AgentPublisher:
				r.sessions.UpdateCheckpoint(sid, stage, domain.CheckpointInProgress,
					"Saving results...")
			}
		},
		OnStageEnd: func(stage string) {
			switch stage {
			case domain.AgentReviewAgent:
				r.sessions.UpdateCheckpoint(sid, stage, domain.CheckpointCompleted,
					"Analysis complete - generating final report")
			case domain.AgentPublisher:
				r.sessions.UpdateCheckpoint(sid, stage, domain.CheckpointCompleted,
					"Review saved successfully")
			}
		},
		OnLog: func(line string) {
			r.sessions.Log(sid, line)
		},
	}
}

// fail marks whichever checkpoint is in progress as errored and closes the
// channel with a terminal error frame.
func (r *Runner) fail(sid string, err error) {
	r.sessions.ErrorCheckpoint(sid, err.Error())
	r.sessions.Fail(sid, err.Error())
}
