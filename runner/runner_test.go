package runner

import (
	"context"
	"testing"
	"time"

	"github.com/hupe1980/negomesh/core"
	"github.com/hupe1980/negomesh/generator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func salaryCase() *core.CaseSnapshot {
	return &core.CaseSnapshot{
		CaseID: "case-salary",
		Topic:  "base salary negotiation",
		Domain: core.DomainJobOfferComp,
		Issues: []core.Issue{{IssueID: "salary", Name: "Base salary", Direction: core.DirectionMaximize}},
		Objectives: core.Objectives{
			Target:       core.ObjectiveValue{Type: core.ObjectiveSingleValue, Value: 140000},
			Reservation:  core.ObjectiveValue{Type: core.ObjectiveSingleValue, Value: 120000},
			IssueWeights: map[string]float64{"salary": 1.0},
		},
	}
}

// askingGenerator issues ASK_INFO on the opening user turn until a
// clarification is visible, then plays plain offer turns. Counterparty turns
// never carry numbers, so runs grade NEUTRAL and finish at max turns.
type askingGenerator struct{}

func (askingGenerator) Generate(_ context.Context, req core.GenerateRequest) (*core.GenerationResult, error) {
	var raw string
	switch {
	case req.Role == core.RoleUser && len(req.History) == 0 && len(req.Case.Clarifications) == 0:
		raw = `{"message_text": "What is the hiring deadline?", "action": {"type": "ASK_INFO", "payload": {"question": "What is the hiring deadline?"}}}`
	case req.Role == core.RoleUser:
		raw = `{"message_text": "I propose we settle on my terms.", "action": {"type": "PROPOSE_OFFER", "payload": {}}}`
	default:
		raw = `{"message_text": "Here is a counteroffer within my constraints.", "action": {"type": "COUNTER_OFFER", "payload": {}}}`
	}
	out, _ := generator.ParseTurnOutput(raw)
	return &core.GenerationResult{RawOutput: raw, Output: out}, nil
}

func TestSimulateBatchCompletes(t *testing.T) {
	r := New(generator.NewMockGenerator())

	runs, err := r.Simulate(context.Background(), salaryCase(), BatchRequest{
		RunCount: 5,
		MaxTurns: 4,
	})
	require.NoError(t, err)
	require.Len(t, runs, 5)

	for i, run := range runs {
		assert.Equal(t, core.RunCompleted, run.Status)
		assert.Equal(t, core.OutcomeNeutral, run.Outcome)
		assert.Len(t, run.Turns, 4)
		assert.Equal(t, runs[0].SessionID, run.SessionID)
		assert.Equal(t, runs[0].Seed+int64(i), run.Seed)
		assert.Equal(t, GenericPersonaID, run.PersonaID)
	}
}

func TestSimulateSeedsAreDeterministic(t *testing.T) {
	r := New(generator.NewMockGenerator())

	first, err := r.Simulate(context.Background(), salaryCase(), BatchRequest{RunCount: 3, MaxTurns: 2})
	require.NoError(t, err)
	second, err := r.Simulate(context.Background(), salaryCase(), BatchRequest{RunCount: 3, MaxTurns: 2})
	require.NoError(t, err)

	for i := range first {
		assert.Equal(t, first[i].Seed, second[i].Seed)
		assert.NotEqual(t, first[i].RunID, second[i].RunID)
	}
}

func TestSimulateRejectsOversizedBatch(t *testing.T) {
	r := New(generator.NewMockGenerator(), func(o *Options) {
		o.MaxBatchRuns = 2
	})

	_, err := r.Simulate(context.Background(), salaryCase(), BatchRequest{RunCount: 3, MaxTurns: 2})
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestSimulateSharedBudgetAllowsOnePause(t *testing.T) {
	r := New(askingGenerator{}, func(o *Options) {
		o.MaxParallelRuns = 2
	})

	runs, err := r.Simulate(context.Background(), salaryCase(), BatchRequest{
		RunCount:     5,
		MaxTurns:     4,
		MaxQuestions: 1,
	})
	require.NoError(t, err)

	var paused, completed int
	var pausedRun *core.Run
	for _, run := range runs {
		switch run.Status {
		case core.RunPaused:
			paused++
			pausedRun = run
		case core.RunCompleted:
			completed++
			// Suppressed ASK_INFO proceeds as a regular offer turn.
			assert.Equal(t, core.ActionProposeOffer, run.Turns[0].Action.Type)
		}
	}
	assert.Equal(t, 1, paused)
	assert.Equal(t, 4, completed)

	sessionID := runs[0].SessionID
	pending, queueLen, remaining := r.NextQuestion(sessionID)
	require.NotNil(t, pending)
	assert.Equal(t, pausedRun.RunID, pending.RunID)
	assert.Equal(t, pausedRun.PendingQuestionID, pending.QuestionID)
	assert.Equal(t, 1, queueLen)
	assert.Equal(t, 1, remaining)
}

func TestAnswerQuestionResumesRun(t *testing.T) {
	r := New(askingGenerator{})

	runs, err := r.Simulate(context.Background(), salaryCase(), BatchRequest{
		RunCount:     1,
		MaxTurns:     2,
		MaxQuestions: 1,
	})
	require.NoError(t, err)
	require.Equal(t, core.RunPaused, runs[0].Status)

	sessionID := runs[0].SessionID
	pending, _, _ := r.NextQuestion(sessionID)
	require.NotNil(t, pending)

	resumed, err := r.AnswerQuestion(context.Background(), pending.RunID, pending.QuestionID, "End of the quarter.")
	require.NoError(t, err)

	assert.Equal(t, core.RunCompleted, resumed.Status)
	require.Len(t, resumed.Turns, 2)
	assert.Equal(t, 1, resumed.Turns[0].TurnIndex)
	assert.Equal(t, "I propose we settle on my terms.", resumed.Turns[0].MessageText)
	assert.Equal(t, 0, r.RemainingBudget(sessionID))

	next, queueLen, _ := r.NextQuestion(sessionID)
	assert.Nil(t, next)
	assert.Zero(t, queueLen)
}

func TestAnswerQuestionValidation(t *testing.T) {
	r := New(askingGenerator{})

	runs, err := r.Simulate(context.Background(), salaryCase(), BatchRequest{
		RunCount:     1,
		MaxTurns:     2,
		MaxQuestions: 1,
	})
	require.NoError(t, err)
	pending, _, _ := r.NextQuestion(runs[0].SessionID)
	require.NotNil(t, pending)

	_, err = r.AnswerQuestion(context.Background(), "no-such-run", pending.QuestionID, "answer")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = r.AnswerQuestion(context.Background(), pending.RunID, "no-such-question", "answer")
	assert.ErrorIs(t, err, ErrQuestionMismatch)

	// Answering twice: the second attempt no longer matches anything.
	_, err = r.AnswerQuestion(context.Background(), pending.RunID, pending.QuestionID, "answer")
	require.NoError(t, err)
	_, err = r.AnswerQuestion(context.Background(), pending.RunID, pending.QuestionID, "again")
	assert.ErrorIs(t, err, ErrQuestionMismatch)
}

func TestGetRunAndTrace(t *testing.T) {
	r := New(generator.NewMockGenerator())

	runs, err := r.Simulate(context.Background(), salaryCase(), BatchRequest{RunCount: 1, MaxTurns: 2})
	require.NoError(t, err)

	got, err := r.GetRun(runs[0].RunID)
	require.NoError(t, err)
	assert.Equal(t, runs[0].RunID, got.RunID)

	// The returned run is a copy.
	got.Turns[0].MessageText = "mutated"
	again, err := r.GetRun(runs[0].RunID)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", again.Turns[0].MessageText)

	bundle, err := r.GetTrace(runs[0].RunID)
	require.NoError(t, err)
	assert.Len(t, bundle.TurnTraces, 2)
	assert.NotEmpty(t, bundle.AgentCallTraces)
	assert.Equal(t, runs[0].Seed, bundle.RunTrace.Seed)

	_, err = r.GetRun("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, err = r.GetTrace("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestSimulateSamplesPersonas(t *testing.T) {
	c := salaryCase()
	c.Assumptions.PersonaDistribution = []core.PersonaWeight{
		{PersonaID: "TOUGH", Weight: 0.5},
		{PersonaID: "COLLABORATIVE", Weight: 0.5},
	}

	r := New(generator.NewMockGenerator())
	runs, err := r.Simulate(context.Background(), c, BatchRequest{RunCount: 6, MaxTurns: 2})
	require.NoError(t, err)

	valid := map[string]bool{"TOUGH": true, "COLLABORATIVE": true}
	for _, run := range runs {
		assert.True(t, valid[run.PersonaID], "unexpected persona %s", run.PersonaID)
	}
}

func TestPausedRunExpiresAfterTimeout(t *testing.T) {
	r := New(askingGenerator{}, func(o *Options) {
		o.PauseTimeout = 20 * time.Millisecond
	})

	runs, err := r.Simulate(context.Background(), salaryCase(), BatchRequest{
		RunCount:     1,
		MaxTurns:     2,
		MaxQuestions: 1,
	})
	require.NoError(t, err)
	require.Equal(t, core.RunPaused, runs[0].Status)
	sessionID := runs[0].SessionID

	assert.Eventually(t, func() bool {
		got, err := r.GetRun(runs[0].RunID)
		return err == nil && got.Status == core.RunCompleted
	}, time.Second, 10*time.Millisecond)

	// The reservation is released, not consumed.
	assert.Equal(t, 1, r.RemainingBudget(sessionID))
	pending, queueLen, _ := r.NextQuestion(sessionID)
	assert.Nil(t, pending)
	assert.Zero(t, queueLen)

	// The stale question can no longer be answered.
	_, err = r.AnswerQuestion(context.Background(), runs[0].RunID, runs[0].PendingQuestionID, "too late")
	assert.ErrorIs(t, err, ErrQuestionMismatch)
}

func TestSimulateReturnsDetachedSnapshots(t *testing.T) {
	r := New(askingGenerator{}, func(o *Options) {
		o.PauseTimeout = 20 * time.Millisecond
	})

	runs, err := r.Simulate(context.Background(), salaryCase(), BatchRequest{
		RunCount:     1,
		MaxTurns:     2,
		MaxQuestions: 1,
	})
	require.NoError(t, err)
	require.Equal(t, core.RunPaused, runs[0].Status)

	// The batch result is decoupled from the arena: polling it while the
	// expiry timer resolves the live run must stay race-free and keep
	// showing the state at return time.
	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		assert.Equal(t, core.RunPaused, runs[0].Status)
		time.Sleep(5 * time.Millisecond)
	}

	got, err := r.GetRun(runs[0].RunID)
	require.NoError(t, err)
	assert.Equal(t, core.RunCompleted, got.Status)
}

func TestAnswerQuestionKeepsQuestionOnSlotFailure(t *testing.T) {
	r := New(askingGenerator{})

	runs, err := r.Simulate(context.Background(), salaryCase(), BatchRequest{
		RunCount:     1,
		MaxTurns:     2,
		MaxQuestions: 1,
	})
	require.NoError(t, err)
	require.Equal(t, core.RunPaused, runs[0].Status)
	sessionID := runs[0].SessionID

	pending, _, _ := r.NextQuestion(sessionID)
	require.NotNil(t, pending)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.AnswerQuestion(cancelled, pending.RunID, pending.QuestionID, "lost answer")
	require.ErrorIs(t, err, context.Canceled)

	// Nothing was consumed: the question is still queued, the budget intact,
	// and a retry with a healthy context resumes the run.
	stillPending, queueLen, remaining := r.NextQuestion(sessionID)
	require.NotNil(t, stillPending)
	assert.Equal(t, pending.QuestionID, stillPending.QuestionID)
	assert.Equal(t, 1, queueLen)
	assert.Equal(t, 1, remaining)

	resumed, err := r.AnswerQuestion(context.Background(), pending.RunID, pending.QuestionID, "retried answer")
	require.NoError(t, err)
	assert.Equal(t, core.RunCompleted, resumed.Status)
	assert.Equal(t, 0, r.RemainingBudget(sessionID))
}

func TestExpiredRunTraceDropsPauseState(t *testing.T) {
	r := New(askingGenerator{}, func(o *Options) {
		o.PauseTimeout = 20 * time.Millisecond
	})

	runs, err := r.Simulate(context.Background(), salaryCase(), BatchRequest{
		RunCount:     1,
		MaxTurns:     2,
		MaxQuestions: 1,
	})
	require.NoError(t, err)
	require.Equal(t, core.RunPaused, runs[0].Status)

	bundle, err := r.GetTrace(runs[0].RunID)
	require.NoError(t, err)
	require.NotNil(t, bundle.RunTrace.PauseState)

	assert.Eventually(t, func() bool {
		got, err := r.GetRun(runs[0].RunID)
		return err == nil && got.Status == core.RunCompleted
	}, time.Second, 10*time.Millisecond)

	bundle, err = r.GetTrace(runs[0].RunID)
	require.NoError(t, err)
	assert.Nil(t, bundle.RunTrace.PauseState)
	assert.Equal(t, runs[0].Seed, bundle.RunTrace.Seed)
}
