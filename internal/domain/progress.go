package domain

import "time"

// CheckpointStatus tracks one named stage in a session's progress.
type CheckpointStatus string

const (
	CheckpointPending    CheckpointStatus = "pending"
	CheckpointInProgress CheckpointStatus = "in-progress"
	CheckpointCompleted  CheckpointStatus = "completed"
	CheckpointError      CheckpointStatus = "error"
)

// Agent names of the four fixed checkpoints, in pipeline order.
const (
	AgentPlanner        = "planner"
	AgentHistoryChecker = "history_checker"
	AgentReviewAgent    = "review_agent"
	AgentPublisher      = "publisher"
)

// Checkpoint is one of the four fixed progress entries. The set never grows
// or shrinks after session creation; only status, timestamps and details
// change.
type Checkpoint struct {
	Agent       string           `json:"agent"`
	Status      CheckpointStatus `json:"status"`
	StartTime   *time.Time       `json:"startTime,omitempty"`
	EndTime     *time.Time       `json:"endTime,omitempty"`
	Description string           `json:"description"`
	Details     string           `json:"details,omitempty"`
}

// Progress is the per-session progress snapshot pushed to the client on every
// checkpoint transition.
type Progress struct {
	Plan        []string      `json:"plan"`
	CurrentStep int           `json:"currentStep"`
	TotalSteps  int           `json:"totalSteps"`
	Checkpoints []*Checkpoint `json:"checkpoints"`
}

// NewProgress builds the initial snapshot: the planner checkpoint is
// pre-completed, the other three are pending. TotalSteps counts the
// descriptive plan entries, not the checkpoints.
func NewProgress() *Progress {
	return &Progress{
		Plan: []string{
			"Initialize review session",
			"Check commit history for changes",
			"Analyze repository structure",
			"Deep code analysis with AI",
			"Generate comprehensive report",
			"Save results to database",
		},
		CurrentStep: 0,
		TotalSteps:  6,
		Checkpoints: []*Checkpoint{
			{
				Agent:       AgentPlanner,
				Status:      CheckpointCompleted,
				Description: "Review plan created",
				Details:     "Generated analysis roadmap with 6 key stages",
			},
			{
				Agent:       AgentHistoryChecker,
				Status:      CheckpointPending,
				Description: "Checking for repository changes",
				Details:     "Comparing with previous review commits",
			},
			{
				Agent:       AgentReviewAgent,
				Status:      CheckpointPending,
				Description: "AI code analysis in progress",
				Details:     "Deep analysis of code quality, bugs, and architecture",
			},
			{
				Agent:       AgentPublisher,
				Status:      CheckpointPending,
				Description: "Finalizing and saving results",
				Details:     "Storing review results and generating final report",
			},
		},
	}
}

// Checkpoint returns the checkpoint with the given agent name, or nil.
func (p *Progress) Checkpoint(agent string) *Checkpoint {
	for _, cp := range p.Checkpoints {
		if cp.Agent == agent {
			return cp
		}
	}
	return nil
}

// Transition applies a status change to the named checkpoint. Entering
// in-progress stamps StartTime and advances CurrentStep; entering completed
// stamps EndTime. Returns the mutated checkpoint, or nil when the agent name
// is unknown.
func (p *Progress) Transition(agent string, status CheckpointStatus, details string) *Checkpoint {
	cp := p.Checkpoint(agent)
	if cp == nil {
		return nil
	}

	cp.Status = status

	now := time.Now()
	switch status {
	case CheckpointInProgress:
		cp.StartTime = &now
		p.CurrentStep++
	case CheckpointCompleted:
		cp.EndTime = &now
	}

	if details != "" {
		cp.Details = details
	}

	return cp
}

// InProgress returns the checkpoint currently in progress, or nil. Used to
// attribute a fatal error to whichever stage was actually running.
func (p *Progress) InProgress() *Checkpoint {
	for _, cp := range p.Checkpoints {
		if cp.Status == CheckpointInProgress {
			return cp
		}
	}
	return nil
}
