package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gosuda/reviewd/internal/domain"
)

func TestPipelineState_RepoFull(t *testing.T) {
	t.Parallel()

	s := domain.PipelineState{Owner: "acme", Repo: "widgets", Branch: "main"}
	assert.Equal(t, "acme/widgets@main", s.RepoFull())
}

func TestPipelineState_Skipped(t *testing.T) {
	t.Parallel()

	s := domain.PipelineState{}
	assert.False(t, s.Skipped())

	s.Review = domain.SkipSentinel
	assert.True(t, s.Skipped())

	// A genuine review that merely mentions the sentinel text is not a skip.
	s.Review = "The file logger.go prints SKIPPED: No changes since last review. on startup"
	assert.False(t, s.Skipped())
}
