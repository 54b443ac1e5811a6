package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/reviewd/internal/domain"
	"github.com/gosuda/reviewd/internal/github"
	"github.com/gosuda/reviewd/internal/llm"
	"github.com/gosuda/reviewd/internal/pipeline"
	"github.com/gosuda/reviewd/internal/session"
)

type recordingNotifier struct {
	published []string
}

func (n *recordingNotifier) ReviewPublished(_ context.Context, _, repoFull, commitHash string) error {
	n.published = append(n.published, repoFull+"#"+commitHash)
	return nil
}

// threeFileFetch mimics a successful incremental fetch of three small files.
func threeFileFetch() *mockFetcher {
	return &mockFetcher{events: []github.Event{
		{Log: "Getting branch SHA..."},
		{Log: "Getting file tree..."},
		{Log: "Found 3 code files. Fetching..."},
		{Log: "Fetching file 1/3..."},
		{Log: "Fetching file 3/3..."},
		{Log: "Fetched 3 files."},
		{Result: &github.Result{SHA: "abc123", Files: []domain.FetchedFile{
			{Path: "a.py", Content: "print('a')", Encoding: "text"},
			{Path: "b.js", Content: "var b", Encoding: "text"},
			{Path: "c.md", Content: "# c", Encoding: "text"},
		}}},
	}}
}

// drainFrames collects every frame left on a finished session's channel.
func drainFrames(t *testing.T, s *session.Session) []map[string]any {
	t.Helper()

	var frames []map[string]any
	for b := range s.Events() {
		var frame map[string]any
		require.NoError(t, json.Unmarshal(b, &frame))
		frames = append(frames, frame)
	}
	return frames
}

func frameTypes(frames []map[string]any) []string {
	types := make([]string, len(frames))
	for i, f := range frames {
		types[i] = f["type"].(string)
	}
	return types
}

// ---------------------------------------------------------------------------
// End-to-end scenario: fresh repository, custom rule, three files.
// ---------------------------------------------------------------------------

func TestRunner_FreshRepository(t *testing.T) {
	t.Parallel()

	history := &mockHistoryRepo{}
	rules := &mockRuleRepo{
		getFunc: func(context.Context, string, string) (*domain.RuleSet, error) {
			return &domain.RuleSet{Rules: []string{"no console logging"}}, nil
		},
	}
	reviewer := &mockReviewer{}
	notifier := &recordingNotifier{}
	sessions := session.NewManager()
	runner := pipeline.NewRunner(
		threeFileFetch(),
		pipeline.New(history, rules, reviewer),
		sessions,
		notifier,
	)

	s := sessions.Open()
	err := runner.Run(context.Background(), pipeline.RunRequest{
		UserID: "u1", Owner: "acme", Repo: "widgets", Branch: "main", SessionID: s.ID,
	})
	require.NoError(t, err)

	require.Len(t, reviewer.calls, 1, "exactly one inference call")
	require.Len(t, history.upserts, 1, "exactly one new history row")
	assert.Equal(t, "abc123", history.upserts[0].CommitHash)

	frames := drainFrames(t, s)
	types := frameTypes(frames)

	assert.Equal(t, "init", types[0])
	assert.Equal(t, []string{"review", "done"}, types[len(types)-2:],
		"exactly one review then one done at the end of the stream")

	var reviews, dones, errs, logs int
	for _, ft := range types {
		switch ft {
		case "review":
			reviews++
		case "done":
			dones++
		case "error":
			errs++
		case "log":
			logs++
		}
	}
	assert.Equal(t, 1, reviews)
	assert.Equal(t, 1, dones)
	assert.Equal(t, 0, errs)
	assert.GreaterOrEqual(t, logs, 6, "fetch narration plus graph narration")

	assert.Equal(t, []string{"acme/widgets@main#abc123"}, notifier.published)

	// Channel is torn down; the session id is gone.
	assert.ErrorIs(t, sessions.Validate(s.ID), domain.ErrSessionNotFound)
}

// checkpointUpdates extracts (agent, status) pairs from progress frames.
func checkpointUpdates(frames []map[string]any) []string {
	var out []string
	for _, f := range frames {
		if f["type"] != "progress" {
			continue
		}
		cp := f["checkpoint"].(map[string]any)
		out = append(out, fmt.Sprintf("%s:%s", cp["agent"], cp["status"]))
	}
	return out
}

func TestRunner_CheckpointSequence(t *testing.T) {
	t.Parallel()

	sessions := session.NewManager()
	runner := pipeline.NewRunner(
		threeFileFetch(),
		pipeline.New(&mockHistoryRepo{}, &mockRuleRepo{}, &mockReviewer{}),
		sessions,
		&recordingNotifier{},
	)

	s := sessions.Open()
	require.NoError(t, runner.Run(context.Background(), pipeline.RunRequest{
		UserID: "u1", Owner: "acme", Repo: "widgets", Branch: "main", SessionID: s.ID,
	}))

	assert.Equal(t, []string{
		"history_checker:in-progress",
		"history_checker:completed",
		"review_agent:in-progress",
		"review_agent:completed",
		"publisher:in-progress",
		"publisher:completed",
	}, checkpointUpdates(drainFrames(t, s)))
}

// ---------------------------------------------------------------------------
// End-to-end scenario: unchanged commit, dedup skip.
// ---------------------------------------------------------------------------

func TestRunner_SkipOnUnchangedCommit(t *testing.T) {
	t.Parallel()

	history := &mockHistoryRepo{
		getLastFunc: func(context.Context, string, string) (*domain.ReviewRecord, error) {
			return &domain.ReviewRecord{CommitHash: "abc123", Review: "old"}, nil
		},
	}
	reviewer := &mockReviewer{}
	notifier := &recordingNotifier{}
	sessions := session.NewManager()
	runner := pipeline.NewRunner(
		threeFileFetch(),
		pipeline.New(history, &mockRuleRepo{}, reviewer),
		sessions,
		notifier,
	)

	s := sessions.Open()
	err := runner.Run(context.Background(), pipeline.RunRequest{
		UserID: "u1", Owner: "acme", Repo: "widgets", Branch: "main", SessionID: s.ID,
	})
	require.NoError(t, err)

	assert.Empty(t, reviewer.calls, "zero inference calls on dedup")
	assert.Empty(t, history.upserts, "history row untouched on dedup")
	assert.Empty(t, notifier.published, "no notification for a skipped run")

	frames := drainFrames(t, s)
	var reviewText string
	for _, f := range frames {
		if f["type"] == "review" {
			reviewText = f["review"].(string)
		}
	}
	assert.Equal(t, domain.SkipSentinel, reviewText)
	assert.Equal(t, "done", frames[len(frames)-1]["type"])
}

// ---------------------------------------------------------------------------
// Fatal paths
// ---------------------------------------------------------------------------

func TestRunner_BranchNotFound(t *testing.T) {
	t.Parallel()

	fetcher := &mockFetcher{events: []github.Event{
		{Log: "Getting branch SHA..."},
		{Err: fmt.Errorf("github: %w", domain.ErrBranchNotFound)},
	}}
	reviewer := &mockReviewer{}
	sessions := session.NewManager()
	runner := pipeline.NewRunner(
		fetcher,
		pipeline.New(&mockHistoryRepo{}, &mockRuleRepo{}, reviewer),
		sessions,
		&recordingNotifier{},
	)

	s := sessions.Open()
	err := runner.Run(context.Background(), pipeline.RunRequest{
		UserID: "u1", Owner: "acme", Repo: "widgets", Branch: "gone", SessionID: s.ID,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBranchNotFound)
	assert.Empty(t, reviewer.calls, "graph must not start after a fetch failure")

	frames := drainFrames(t, s)
	last := frames[len(frames)-1]
	assert.Equal(t, "error", last["type"])

	// The checkpoint that was actually running carries the error.
	updates := checkpointUpdates(frames)
	assert.Contains(t, updates, "history_checker:error")

	assert.ErrorIs(t, sessions.Validate(s.ID), domain.ErrSessionNotFound)
}

func TestRunner_InferenceFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("model overloaded")
	reviewer := &mockReviewer{
		reviewFunc: func(context.Context, llm.ReviewRequest) (string, error) { return "", boom },
	}

	history := &mockHistoryRepo{}
	sessions := session.NewManager()
	runner := pipeline.NewRunner(
		threeFileFetch(),
		pipeline.New(history, &mockRuleRepo{}, reviewer),
		sessions,
		&recordingNotifier{},
	)

	s := sessions.Open()
	err := runner.Run(context.Background(), pipeline.RunRequest{
		UserID: "u1", Owner: "acme", Repo: "widgets", Branch: "main", SessionID: s.ID,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, history.upserts, "publish must not run after a failed review")

	frames := drainFrames(t, s)
	assert.Equal(t, "error", frames[len(frames)-1]["type"])
	assert.Contains(t, checkpointUpdates(frames), "review_agent:error")
}

// TestRunner_DisconnectedClientDoesNotAbortWork verifies that a client
// disconnect only stops progress reporting: the run completes and the
// history write still lands.
func TestRunner_DisconnectedClientDoesNotAbortWork(t *testing.T) {
	t.Parallel()

	history := &mockHistoryRepo{}
	reviewer := &mockReviewer{}
	sessions := session.NewManager()
	runner := pipeline.NewRunner(
		threeFileFetch(),
		pipeline.New(history, &mockRuleRepo{}, reviewer),
		sessions,
		&recordingNotifier{},
	)

	s := sessions.Open()
	sessions.Close(s.ID) // client went away before triggering finished

	err := runner.Run(context.Background(), pipeline.RunRequest{
		UserID: "u1", Owner: "acme", Repo: "widgets", Branch: "main", SessionID: s.ID,
	})
	require.NoError(t, err)

	assert.Len(t, reviewer.calls, 1)
	assert.Len(t, history.upserts, 1, "publish side effect still occurs")
}
