// Package pipeline drives the fixed three-stage review workflow:
// history check -> review -> publish, with a single conditional edge that
// terminates early when the branch tip was already reviewed.
package pipeline

import (
	"context"
	"fmt"

	"github.com/gosuda/reviewd/internal/domain"
)

// Patch is the partial state update a stage returns. Nil/zero fields leave
// the current value untouched; Logs are appended.
type Patch struct {
	Review *string
	Rules  []string
	Logs   []string
}

// StageResult carries a stage's patch and whether execution should stop after
// merging it. An explicit flag, so the executor never has to sniff the review
// text for a sentinel substring to pick the next edge.
type StageResult struct {
	Patch     Patch
	Terminate bool
}

// Stage is one node of the workflow graph.
type Stage interface {
	Name() string
	Run(ctx context.Context, state *domain.PipelineState) (StageResult, error)
}

// Hooks observe graph execution. All fields are optional.
type Hooks struct {
	// OnStageStart fires before a stage runs.
	OnStageStart func(stage string)
	// OnStageEnd fires after a stage ran without error.
	OnStageEnd func(stage string)
	// OnLog fires once per narration line a stage appended.
	OnLog func(line string)
}

func (h Hooks) stageStart(stage string) {
	if h.OnStageStart != nil {
		h.OnStageStart(stage)
	}
}

func (h Hooks) stageEnd(stage string) {
	if h.OnStageEnd != nil {
		h.OnStageEnd(stage)
	}
}

func (h Hooks) log(line string) {
	if h.OnLog != nil {
		h.OnLog(line)
	}
}

// Graph is the compiled workflow. The topology is fixed; Run executes it once
// against a fresh state. No partial graph state survives a crash: the run is
// simply retried from the top, which is safe because the first stage
// re-checks the commit hash.
type Graph struct {
	stages []Stage
}

// New compiles the graph over the given collaborators.
func New(history domain.HistoryRepository, rules domain.RuleRepository, reviewer Reviewer) *Graph {
	return &Graph{
		stages: []Stage{
			&historyChecker{history: history},
			&reviewAgent{rules: rules, reviewer: reviewer},
			&publisher{history: history},
		},
	}
}

// Run executes the stages in order, merging each stage's patch into a
// superseding copy of the state. Stage errors propagate unwrapped in meaning:
// the caller owns the fatal-error protocol.
func (g *Graph) Run(ctx context.Context, state domain.PipelineState, hooks Hooks) (domain.PipelineState, error) {
	for _, stage := range g.stages {
		hooks.stageStart(stage.Name())

		result, err := stage.Run(ctx, &state)
		if err != nil {
			return state, fmt.Errorf("pipeline.Graph.Run: stage %s: %w", stage.Name(), err)
		}

		state = merge(state, result.Patch, hooks)
		hooks.stageEnd(stage.Name())

		if result.Terminate {
			break
		}
	}

	return state, nil
}

// merge applies a patch to a copy of the state. The Logs slice is re-sliced
// append-only; earlier stages never observe later mutations.
func merge(state domain.PipelineState, patch Patch, hooks Hooks) domain.PipelineState {
	next := state

	if patch.Review != nil {
		next.Review = *patch.Review
	}
	if patch.Rules != nil {
		next.Rules = patch.Rules
	}
	if len(patch.Logs) > 0 {
		next.Logs = append(next.Logs[:len(next.Logs):len(next.Logs)], patch.Logs...)
		for _, line := range patch.Logs {
			hooks.log(line)
		}
	}

	return next
}
