package runner

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/negomesh/core"
	"github.com/hupe1980/negomesh/engine"
	"github.com/hupe1980/negomesh/logging"
	"github.com/hupe1980/negomesh/question"
	"github.com/hupe1980/negomesh/strategy"
	"github.com/hupe1980/negomesh/trace"
)

// GenericPersonaID is assigned when a case carries no persona distribution.
const GenericPersonaID = "GENERIC"

// Options holds dependency and configuration overrides passed to New().
type Options struct {
	// MaxParallelRuns bounds how many runs execute simultaneously. A paused
	// run holds no slot.
	MaxParallelRuns int
	// MaxBatchRuns is the largest accepted batch size.
	MaxBatchRuns int
	// MaxRetries is forwarded to the turn state machine.
	MaxRetries int
	// Evaluator grades rounds; defaults to the deterministic numeric one.
	Evaluator core.OutcomeEvaluator
	// Summarizer digests completed runs. Optional.
	Summarizer core.Summarizer
	// Recorder receives all traces. Defaults to the in-memory store.
	Recorder core.TraceRecorder
	// Strategies is the suggestion pool. Defaults to the built-in pool.
	Strategies *strategy.Registry
	// Logger for scheduler diagnostics.
	Logger logging.Logger
	// PauseTimeout bounds how long a run may wait on an unanswered
	// clarification before it is resolved with its latest outcome and the
	// reserved budget is released. Zero waits indefinitely.
	PauseTimeout time.Duration
}

// BatchRequest describes one simulation batch over a case.
type BatchRequest struct {
	// RunCount is the number of runs to execute; values below 1 run once.
	RunCount int
	// MaxTurns caps the turn loop of each run.
	MaxTurns int
	// MaxQuestions is the clarification budget shared by the whole batch.
	MaxQuestions int
	// SessionID groups the batch; generated when empty.
	SessionID string
}

type runEntry struct {
	mu  sync.Mutex
	run *core.Run
}

type sessionEntry struct {
	caseSnap *core.CaseSnapshot
}

// Runner schedules simulation runs with bounded parallelism. Public methods
// are safe for concurrent use.
type Runner struct {
	machine    *engine.Machine
	questions  *question.Controller
	strategies *strategy.Registry
	recorder   core.TraceRecorder
	logger     logging.Logger

	maxParallel  int
	maxBatch     int
	pauseTimeout time.Duration
	slots        chan struct{}

	mu       sync.RWMutex
	runs     map[string]*runEntry
	sessions map[string]*sessionEntry
}

// New constructs a Runner around a turn generator with optional overrides.
func New(gen core.TurnGenerator, optFns ...func(o *Options)) *Runner {
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
	if opts.MaxParallelRuns < 1 {
		opts.MaxParallelRuns = 1
	}
	if opts.MaxBatchRuns < 1 {
		opts.MaxBatchRuns = 1
	}

	questions := question.NewController()
	machine := engine.New(gen, questions, func(o *engine.Options) {
		if opts.Evaluator != nil {
			o.Evaluator = opts.Evaluator
		}
		o.Summarizer = opts.Summarizer
		o.Recorder = opts.Recorder
		o.Logger = opts.Logger
		o.MaxRetries = opts.MaxRetries
	})

	return &Runner{
		machine:      machine,
		questions:    questions,
		strategies:   opts.Strategies,
		recorder:     opts.Recorder,
		logger:       opts.Logger,
		maxParallel:  opts.MaxParallelRuns,
		maxBatch:     opts.MaxBatchRuns,
		pauseTimeout: opts.PauseTimeout,
		slots:        make(chan struct{}, opts.MaxParallelRuns),
		runs:         make(map[string]*runEntry),
		sessions:     make(map[string]*sessionEntry),
	}
}

// Simulate executes a batch of runs over the case and returns when every run
// is terminal or paused on a clarification question. The returned runs are
// ordered by seed offset. Paused runs continue via AnswerQuestion.
func (r *Runner) Simulate(ctx context.Context, c *core.CaseSnapshot, req BatchRequest) ([]*core.Run, error) {
	if c == nil {
		return nil, fmt.Errorf("case snapshot is required")
	}
	runCount := req.RunCount
	if runCount < 1 {
		runCount = 1
	}
	if runCount > r.maxBatch {
		return nil, fmt.Errorf("%d runs requested, limit %d: %w", runCount, r.maxBatch, ErrCapacityExceeded)
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	r.questions.OpenSession(sessionID, req.MaxQuestions)

	batchCase := c.Clone()
	r.mu.Lock()
	r.sessions[sessionID] = &sessionEntry{caseSnap: batchCase}
	r.mu.Unlock()

	base := baseSeed(c.CaseID)
	maxTurns := req.MaxTurns
	if maxTurns < 1 {
		maxTurns = 1
	}

	entries := make([]*runEntry, runCount)
	var wg sync.WaitGroup
	for offset := 0; offset < runCount; offset++ {
		seed := base + int64(offset)
		run := &core.Run{
			RunID:     uuid.NewString(),
			CaseID:    c.CaseID,
			SessionID: sessionID,
			Seed:      seed,
			PersonaID: samplePersona(batchCase, seed),
			Status:    core.RunRunning,
			Outcome:   core.OutcomeNeutral,
			MaxTurns:  maxTurns,
		}
		entry := &runEntry{run: run}
		entries[offset] = entry
		r.mu.Lock()
		r.runs[run.RunID] = entry
		r.mu.Unlock()

		suggestions := r.strategies.Sample(seed, batchCase.Domain, strategy.DefaultSampleSize)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.acquireSlot(ctx); err != nil {
				entry.mu.Lock()
				run.Status = core.RunFailed
				entry.mu.Unlock()
				return
			}
			defer r.releaseSlot()

			entry.mu.Lock()
			defer entry.mu.Unlock()

			began := time.Now()
			if err := r.machine.Execute(ctx, batchCase, run, suggestions); err != nil {
				r.logger.Error("run execution failed", "run_id", run.RunID, "error", err.Error())
				return
			}
			r.logRunDone(run, began)
			r.scheduleExpiry(entry)
		}()
	}
	wg.Wait()

	// The arena keeps the live runs; callers get detached snapshots so the
	// expiry timer and later resumes cannot race with their reads.
	runs := make([]*core.Run, runCount)
	for i, entry := range entries {
		entry.mu.Lock()
		runs[i] = snapshotRun(entry.run)
		entry.mu.Unlock()
	}
	return runs, nil
}

// NextQuestion returns the oldest unanswered clarification for the session,
// along with the queue length and remaining budget. The question is nil when
// the queue is empty.
func (r *Runner) NextQuestion(sessionID string) (*question.PendingQuestion, int, int) {
	return r.questions.Next(sessionID)
}

// AnswerQuestion consumes one unit of budget, makes the answer visible to
// subsequent generator calls of the batch, and resumes the paused run. It
// blocks until the resumed run is terminal or paused again, re-acquiring a
// scheduler slot like any other run.
func (r *Runner) AnswerQuestion(ctx context.Context, runID, questionID, answer string) (*core.Run, error) {
	r.mu.RLock()
	entry, ok := r.runs[runID]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("run %q: %w", runID, ErrRunNotFound)
	}

	if pending := r.questions.PendingForRun(runID); pending == nil || pending.QuestionID != questionID {
		return nil, fmt.Errorf("question %q: %w", questionID, ErrQuestionMismatch)
	}

	// Hold a slot and the run before consuming anything: a failed
	// acquisition must leave the question answerable on retry.
	if err := r.acquireSlot(ctx); err != nil {
		return nil, err
	}
	defer r.releaseSlot()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	run := entry.run
	if run.PendingQuestionID != questionID {
		return nil, fmt.Errorf("question %q: %w", questionID, ErrQuestionMismatch)
	}
	if run.Status != core.RunPaused {
		return nil, fmt.Errorf("run %q: %w", runID, ErrRunNotPaused)
	}

	answered, err := r.questions.Answer(questionID)
	if err != nil {
		if errors.Is(err, question.ErrNotFound) {
			return nil, fmt.Errorf("question %q: %w", questionID, ErrQuestionMismatch)
		}
		return nil, err
	}

	batchCase := r.recordClarification(answered.SessionID, answered.QuestionText, answer)

	began := time.Now()
	if err := r.machine.Execute(ctx, batchCase, run, nil); err != nil {
		return nil, err
	}
	r.logRunDone(run, began)
	r.scheduleExpiry(entry)

	return snapshotRun(run), nil
}

// GetRun returns a copy of the run's current state.
func (r *Runner) GetRun(runID string) (*core.Run, error) {
	r.mu.RLock()
	entry, ok := r.runs[runID]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("run %q: %w", runID, ErrRunNotFound)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return snapshotRun(entry.run), nil
}

// GetTrace returns the audit bundle recorded for the run.
func (r *Runner) GetTrace(runID string) (*core.TraceBundle, error) {
	r.mu.RLock()
	_, ok := r.runs[runID]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("run %q: %w", runID, ErrRunNotFound)
	}
	return r.recorder.Bundle(runID)
}

// RemainingBudget reports the session's unconsumed clarification budget.
func (r *Runner) RemainingBudget(sessionID string) int {
	return r.questions.Remaining(sessionID)
}

func (r *Runner) acquireSlot(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case r.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) releaseSlot() { <-r.slots }

// recordClarification publishes the answered question on a fresh case clone.
// Runs starting or resuming afterwards see it; turns already in flight keep
// the snapshot they started with.
func (r *Runner) recordClarification(sessionID, questionText, answer string) *core.CaseSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[sessionID]
	if !ok {
		sess = &sessionEntry{caseSnap: &core.CaseSnapshot{}}
		r.sessions[sessionID] = sess
	}
	updated := sess.caseSnap.Clone()
	updated.Clarifications = append(updated.Clarifications, core.Clarification{
		Question: questionText,
		Answer:   answer,
	})
	sess.caseSnap = updated
	return updated
}

// scheduleExpiry arms the pause timeout for a run that just paused. When it
// fires before an answer arrives, the question's reservation is released and
// the run resolves with the outcome it held at pause time. Callers must hold
// the entry lock.
func (r *Runner) scheduleExpiry(entry *runEntry) {
	if r.pauseTimeout <= 0 || entry.run.Status != core.RunPaused {
		return
	}
	run := entry.run
	questionID := run.PendingQuestionID

	time.AfterFunc(r.pauseTimeout, func() {
		entry.mu.Lock()
		defer entry.mu.Unlock()

		if run.Status != core.RunPaused || run.PendingQuestionID != questionID {
			return
		}
		if _, err := r.questions.Expire(questionID); err != nil {
			return
		}

		run.Status = core.RunCompleted
		run.PendingQuestionID = ""
		run.Pause = nil

		// The recorded pause state is stale now that the run is terminal.
		if bundle, err := r.recorder.Bundle(run.RunID); err == nil {
			rt := bundle.RunTrace
			rt.PauseState = nil
			r.recorder.SetRunTrace(run.RunID, rt)
		}
		r.logger.Info("paused run expired", "run_id", run.RunID, "question_id", questionID)
	})
}

func (r *Runner) logRunDone(run *core.Run, began time.Time) {
	if sim, ok := r.logger.(*logging.SimLogger); ok && run.Terminal() {
		sim.WithRun(run.SessionID, run.RunID).LogRunCompleted(string(run.Outcome), len(run.Turns), run.ErrorCount, time.Since(began))
	}
}

func snapshotRun(run *core.Run) *core.Run {
	clone := *run
	clone.Turns = append([]core.Turn(nil), run.Turns...)
	if run.Pause != nil {
		pause := *run.Pause
		pause.Conversation = append([]core.Message(nil), run.Pause.Conversation...)
		clone.Pause = &pause
	}
	if run.Summary != nil {
		summary := *run.Summary
		clone.Summary = &summary
	}
	return &clone
}

// baseSeed derives a deterministic batch seed from the case id: the uuid's
// integer value mod 2^31 when the id parses, else the leading bits of its
// sha256 digest.
func baseSeed(caseID string) int64 {
	if id, err := uuid.Parse(caseID); err == nil {
		n := new(big.Int).SetBytes(id[:])
		return n.Mod(n, big.NewInt(1<<31)).Int64()
	}
	digest := sha256.Sum256([]byte(caseID))
	return int64(binary.BigEndian.Uint32(digest[:4]))
}

// samplePersona draws from the case's weighted persona distribution with the
// run's seed; cases without a distribution get the generic persona.
func samplePersona(c *core.CaseSnapshot, seed int64) string {
	dist := c.Assumptions.PersonaDistribution
	if len(dist) == 0 {
		return GenericPersonaID
	}

	total := 0.0
	for _, pw := range dist {
		if pw.Weight > 0 {
			total += pw.Weight
		}
	}
	if total <= 0 {
		return dist[0].PersonaID
	}

	rng := rand.New(rand.NewSource(seed))
	target := rng.Float64() * total
	for _, pw := range dist {
		if pw.Weight <= 0 {
			continue
		}
		target -= pw.Weight
		if target <= 0 {
			return pw.PersonaID
		}
	}
	return dist[len(dist)-1].PersonaID
}
