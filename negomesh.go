// Package negomesh provides a high-level façade over the run scheduler and
// turn state machine for rehearsing negotiations against simulated
// counterparties. Most applications interact with this package by:
//  1. Creating a NegoMesh via New() with a turn generator (Anthropic, OpenAI
//     or the deterministic mock)
//  2. Launching a batch with Simulate()
//  3. Draining clarification questions via NextQuestion()/AnswerQuestion()
//     until every run is terminal
//
// The façade delegates orchestration to runner.Runner while keeping setup
// and usage ergonomics concise. All defaults are safe for local development
// and testing; production deployments typically supply an LLM-backed
// generator, a curated strategy pool and a structured logger.
package negomesh

import (
	"context"
	"time"

	"github.com/hupe1980/negomesh/core"
	"github.com/hupe1980/negomesh/logging"
	"github.com/hupe1980/negomesh/question"
	"github.com/hupe1980/negomesh/runner"
	"github.com/hupe1980/negomesh/strategy"
	"github.com/hupe1980/negomesh/trace"
)

// Options configures the NegoMesh instance.
type Options struct {
	// MaxParallelRuns bounds simultaneous run execution. Paused runs hold no
	// slot, so a large batch with a small bound still drains fully.
	MaxParallelRuns int

	// MaxBatchRuns caps the number of runs accepted per Simulate call.
	MaxBatchRuns int

	// MaxRetries is the number of additional generation attempts before the
	// fallback turn is used.
	MaxRetries int

	// Evaluator grades each round; defaults to the deterministic numeric
	// evaluator, which also backs up any injected evaluator on error.
	Evaluator core.OutcomeEvaluator

	// Summarizer digests completed runs. Optional.
	Summarizer core.Summarizer

	// Recorder receives all traces (defaults to an in-memory store).
	Recorder core.TraceRecorder

	// Strategies is the suggestion pool (defaults to the built-in pool).
	Strategies *strategy.Registry

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger

	// PauseTimeout bounds how long a paused run waits for an answer before
	// resolving with its latest outcome. Zero waits indefinitely.
	PauseTimeout time.Duration
}

// BatchRequest re-exports the runner's batch description.
type BatchRequest = runner.BatchRequest

// NegoMesh is the high-level façade aggregating the scheduler and its
// collaborators.
type NegoMesh struct {
	opts   Options
	runner *runner.Runner
}

// New creates a NegoMesh around a turn generator with optional overrides.
// Any unset collaborator is initialized with an in-memory implementation.
func New(gen core.TurnGenerator, optFns ...func(o *Options)) *NegoMesh {
	opts := Options{
		MaxParallelRuns: 4,
		MaxBatchRuns:    20,
		MaxRetries:      2,
		Recorder:        trace.NewInMemoryStore(),
		Strategies:      strategy.DefaultPool(),
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	r := runner.New(gen, func(o *runner.Options) {
		o.MaxParallelRuns = opts.MaxParallelRuns
		o.MaxBatchRuns = opts.MaxBatchRuns
		o.MaxRetries = opts.MaxRetries
		o.Evaluator = opts.Evaluator
		o.Summarizer = opts.Summarizer
		o.Recorder = opts.Recorder
		o.Strategies = opts.Strategies
		o.Logger = opts.Logger
		o.PauseTimeout = opts.PauseTimeout
	})

	return &NegoMesh{opts: opts, runner: r}
}

// Simulate executes a batch of runs over the case, returning when every run
// is completed, failed, or paused on a clarification question.
func (m *NegoMesh) Simulate(ctx context.Context, c *core.CaseSnapshot, req BatchRequest) ([]*core.Run, error) {
	return m.runner.Simulate(ctx, c, req)
}

// NextQuestion returns the oldest unanswered clarification for the session
// plus queue length and remaining budget; the question is nil when none is
// waiting.
func (m *NegoMesh) NextQuestion(sessionID string) (*question.PendingQuestion, int, int) {
	return m.runner.NextQuestion(sessionID)
}

// AnswerQuestion answers a run's outstanding clarification and resumes it,
// blocking until the run is terminal or paused again.
func (m *NegoMesh) AnswerQuestion(ctx context.Context, runID, questionID, answer string) (*core.Run, error) {
	return m.runner.AnswerQuestion(ctx, runID, questionID, answer)
}

// Run returns a copy of the run's current state.
func (m *NegoMesh) Run(runID string) (*core.Run, error) {
	return m.runner.GetRun(runID)
}

// Trace returns the audit bundle recorded for the run.
func (m *NegoMesh) Trace(runID string) (*core.TraceBundle, error) {
	return m.runner.GetTrace(runID)
}

// RemainingBudget reports the session's unconsumed clarification budget.
func (m *NegoMesh) RemainingBudget(sessionID string) int {
	return m.runner.RemainingBudget(sessionID)
}
