package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/reviewd/internal/domain"
)

// ---------------------------------------------------------------------------
// NewProgress — initial snapshot shape.
// ---------------------------------------------------------------------------

func TestNewProgress_InitialShape(t *testing.T) {
	t.Parallel()

	p := domain.NewProgress()

	assert.Equal(t, 0, p.CurrentStep)
	assert.Equal(t, 6, p.TotalSteps)
	assert.Len(t, p.Plan, 6)
	require.Len(t, p.Checkpoints, 4)

	wantAgents := []string{
		domain.AgentPlanner,
		domain.AgentHistoryChecker,
		domain.AgentReviewAgent,
		domain.AgentPublisher,
	}
	for i, cp := range p.Checkpoints {
		assert.Equal(t, wantAgents[i], cp.Agent)
	}

	// Planner starts pre-completed, the rest pending.
	assert.Equal(t, domain.CheckpointCompleted, p.Checkpoints[0].Status)
	for _, cp := range p.Checkpoints[1:] {
		assert.Equal(t, domain.CheckpointPending, cp.Status)
		assert.Nil(t, cp.StartTime)
		assert.Nil(t, cp.EndTime)
	}
}

// ---------------------------------------------------------------------------
// Transition — timestamp and step-counter rules.
// ---------------------------------------------------------------------------

func TestProgress_Transition(t *testing.T) {
	t.Parallel()

	t.Run("in_progress_stamps_start_and_advances_step", func(t *testing.T) {
		t.Parallel()

		p := domain.NewProgress()
		cp := p.Transition(domain.AgentHistoryChecker, domain.CheckpointInProgress, "checking")

		require.NotNil(t, cp)
		assert.Equal(t, domain.CheckpointInProgress, cp.Status)
		assert.NotNil(t, cp.StartTime)
		assert.Nil(t, cp.EndTime)
		assert.Equal(t, "checking", cp.Details)
		assert.Equal(t, 1, p.CurrentStep)
	})

	t.Run("completed_stamps_end_without_advancing", func(t *testing.T) {
		t.Parallel()

		p := domain.NewProgress()
		p.Transition(domain.AgentHistoryChecker, domain.CheckpointInProgress, "")
		cp := p.Transition(domain.AgentHistoryChecker, domain.CheckpointCompleted, "")

		require.NotNil(t, cp)
		assert.NotNil(t, cp.EndTime)
		assert.Equal(t, 1, p.CurrentStep)
	})

	t.Run("empty_details_keeps_existing", func(t *testing.T) {
		t.Parallel()

		p := domain.NewProgress()
		before := p.Checkpoint(domain.AgentReviewAgent).Details
		cp := p.Transition(domain.AgentReviewAgent, domain.CheckpointInProgress, "")

		require.NotNil(t, cp)
		assert.Equal(t, before, cp.Details)
	})

	t.Run("unknown_agent_is_nil", func(t *testing.T) {
		t.Parallel()

		p := domain.NewProgress()
		assert.Nil(t, p.Transition("archaeologist", domain.CheckpointInProgress, ""))
		assert.Equal(t, 0, p.CurrentStep)
	})
}

// TestProgress_CurrentStepCountsInProgressTransitions verifies the core
// invariant: CurrentStep equals the number of checkpoints that have ever
// entered in-progress, and never decreases.
func TestProgress_CurrentStepCountsInProgressTransitions(t *testing.T) {
	t.Parallel()

	p := domain.NewProgress()

	steps := []struct {
		agent  string
		status domain.CheckpointStatus
		want   int
	}{
		{domain.AgentHistoryChecker, domain.CheckpointInProgress, 1},
		{domain.AgentHistoryChecker, domain.CheckpointCompleted, 1},
		{domain.AgentReviewAgent, domain.CheckpointInProgress, 2},
		{domain.AgentReviewAgent, domain.CheckpointCompleted, 2},
		{domain.AgentPublisher, domain.CheckpointInProgress, 3},
		{domain.AgentPublisher, domain.CheckpointCompleted, 3},
	}

	last := 0
	for _, s := range steps {
		p.Transition(s.agent, s.status, "")
		assert.Equal(t, s.want, p.CurrentStep)
		assert.GreaterOrEqual(t, p.CurrentStep, last)
		last = p.CurrentStep
	}
}

// ---------------------------------------------------------------------------
// InProgress — error attribution target.
// ---------------------------------------------------------------------------

func TestProgress_InProgress(t *testing.T) {
	t.Parallel()

	p := domain.NewProgress()
	assert.Nil(t, p.InProgress())

	p.Transition(domain.AgentReviewAgent, domain.CheckpointInProgress, "")
	cp := p.InProgress()
	require.NotNil(t, cp)
	assert.Equal(t, domain.AgentReviewAgent, cp.Agent)

	p.Transition(domain.AgentReviewAgent, domain.CheckpointError, "boom")
	assert.Nil(t, p.InProgress())
}
