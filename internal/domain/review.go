package domain

import (
	"context"
	"time"
)

// SkipSentinel is the review payload delivered when the branch tip has not
// moved since the last recorded review.
const SkipSentinel = "SKIPPED: No changes since last review."

// FetchedFile is a single reviewable file pulled from the hosting provider.
type FetchedFile struct {
	Path     string `json:"filename"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"` // always "text" for now
}

// PipelineState is the record threaded through the review pipeline. Stages
// receive the current value and return a patch; the executor merges patches
// into a superseding copy, so no stage mutates a value another stage reads.
type PipelineState struct {
	UserID    string
	Owner     string
	Repo      string
	Branch    string
	Files     []FetchedFile
	CommitSHA string
	Rules     []string
	Review    string
	Logs      []string
}

// RepoFull returns the composite history key portion for this state,
// e.g. "acme/widgets@main".
func (s *PipelineState) RepoFull() string {
	return s.Owner + "/" + s.Repo + "@" + s.Branch
}

// Skipped reports whether the pipeline terminated on the dedup branch.
func (s *PipelineState) Skipped() bool {
	return s.Review == SkipSentinel
}

// ReviewRecord is a persisted review result, one live row per
// (user, owner/repo@branch) key.
type ReviewRecord struct {
	UserID     string    `json:"-"`
	RepoFull   string    `json:"-"`
	RepoName   string    `json:"-"`
	CommitHash string    `json:"commitHash"`
	Review     string    `json:"review"`
	CreatedAt  time.Time `json:"timestamp"`
}

// RuleSet is the ordered list of custom review rules a user stored for one
// repository short name.
type RuleSet struct {
	UserID   string
	RepoName string
	Rules    []string
}

type RuleRepository interface {
	// Get returns the stored rules, or ErrNotFound when the user has never
	// saved rules for this repository.
	Get(ctx context.Context, userID, repoName string) (*RuleSet, error)

	// Put atomically replaces the full rule list for (user, repo).
	Put(ctx context.Context, rs *RuleSet) error
}

type HistoryRepository interface {
	// GetLast returns the live row for (user, repoFull), or ErrNotFound.
	GetLast(ctx context.Context, userID, repoFull string) (*ReviewRecord, error)

	// Upsert inserts or replaces the row for (user, repoFull).
	Upsert(ctx context.Context, rec *ReviewRecord) error

	// ListByRepo returns records for the exact repository short name,
	// newest first.
	ListByRepo(ctx context.Context, userID, repoName string, limit int) ([]*ReviewRecord, error)

	// Delete removes at most one row matched by (user, repoName, commit).
	// Returns ErrNotFound when nothing matched.
	Delete(ctx context.Context, userID, repoName, commitHash string) error
}
