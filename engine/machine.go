package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/negomesh/core"
	"github.com/hupe1980/negomesh/generator"
	"github.com/hupe1980/negomesh/logging"
	"github.com/hupe1980/negomesh/outcome"
	"github.com/hupe1980/negomesh/question"
	"github.com/hupe1980/negomesh/trace"
)

const (
	userAgentName         = "UserProxy"
	counterpartyAgentName = "Counterparty"
	worldAgentName        = "WorldAgent"
)

// Options holds dependency and configuration overrides passed to New().
type Options struct {
	// Evaluator grades conversations after each counterparty turn. Defaults
	// to the deterministic numeric evaluator; an LLM-backed evaluator can be
	// injected and the numeric one remains the fallback on its errors.
	Evaluator core.OutcomeEvaluator
	// Summarizer digests completed runs. Optional.
	Summarizer core.Summarizer
	// Recorder receives every generator call and run snapshot.
	Recorder core.TraceRecorder
	// Logger for turn-level diagnostics.
	Logger logging.Logger
	// MaxRetries is the number of additional generation attempts after a
	// failed one before the fallback turn is used.
	MaxRetries int
}

// Machine executes runs turn by turn. A single Machine is shared by all runs
// of a runner; per-run state lives in the Run itself, so methods are safe for
// concurrent use across distinct runs.
type Machine struct {
	gen          core.TurnGenerator
	evaluator    core.OutcomeEvaluator
	fallbackEval core.OutcomeEvaluator
	summarizer   core.Summarizer
	questions    *question.Controller
	recorder     core.TraceRecorder
	logger       logging.Logger
	maxRetries   int
}

// New constructs a Machine with optional overrides.
func New(gen core.TurnGenerator, questions *question.Controller, optFns ...func(o *Options)) *Machine {
	opts := Options{
		Evaluator:  outcome.NewEvaluator(),
		Recorder:   trace.NewInMemoryStore(),
		Logger:     logging.NoOpLogger{},
		MaxRetries: 2,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Machine{
		gen:          gen,
		evaluator:    opts.Evaluator,
		fallbackEval: outcome.NewEvaluator(),
		summarizer:   opts.Summarizer,
		questions:    questions,
		recorder:     opts.Recorder,
		logger:       opts.Logger,
		maxRetries:   opts.MaxRetries,
	}
}

// Recorder exposes the trace recorder the machine writes to.
func (m *Machine) Recorder() core.TraceRecorder { return m.recorder }

// Execute advances the run until it pauses on a clarification question or
// reaches a terminal state. A paused run is resumed by calling Execute again
// once its question is answered; the machine restores the pause snapshot and
// regenerates the asking turn with the new clarification visible. Completed
// turns are never rewound.
func (m *Machine) Execute(ctx context.Context, c *core.CaseSnapshot, run *core.Run, suggestions []core.StrategySuggestion) error {
	conversation := []core.Message{}
	latest := core.OutcomeNeutral
	roundUserTurn := -1
	start := 1

	if run.Pause != nil {
		conversation = run.Pause.Conversation
		if run.Pause.LatestOutcome != "" {
			latest = run.Pause.LatestOutcome
		}
		roundUserTurn = run.Pause.RoundUserTurn
		start = run.Pause.NextTurnIndex
		if len(run.Pause.Suggestions) > 0 {
			suggestions = run.Pause.Suggestions
		}
		run.Pause = nil
		run.PendingQuestionID = ""
	}
	run.Status = core.RunRunning

	if run.MaxTurns < 1 {
		run.MaxTurns = 1
	}

	for turnIndex := start; turnIndex <= run.MaxTurns; turnIndex++ {
		speaker := core.RoleCounterparty
		if turnIndex%2 == 1 {
			speaker = core.RoleUser
		}

		req := core.GenerateRequest{
			Case:            c,
			Role:            speaker,
			History:         conversation,
			Suggestions:     suggestions,
			BudgetRemaining: m.questions.Remaining(run.SessionID),
		}
		out, raw, err := m.generate(ctx, c, run, speaker, turnIndex, req)
		if err != nil {
			run.Status = core.RunFailed
			m.snapshot(run, nil)
			return fmt.Errorf("run %s turn %d: %w", run.RunID, turnIndex, err)
		}

		if out.Action.Type == core.ActionAskInfo {
			if text := questionText(out); text != "" {
				questionID, qerr := m.questions.Enqueue(question.PendingQuestion{
					RunID:        run.RunID,
					SessionID:    run.SessionID,
					CaseID:       run.CaseID,
					QuestionText: text,
					AskedBy:      speaker,
					TurnIndex:    turnIndex,
				})
				if qerr == nil {
					m.pause(run, questionID, conversation, latest, roundUserTurn, turnIndex, suggestions)
					return nil
				}
				m.logger.Debug("clarification suppressed", "run_id", run.RunID, "reason", qerr.Error())
			}
			out = suppressAskInfo(speaker, out, raw)
		}

		conversation = append(conversation, core.Message{Speaker: speaker, Text: out.MessageText})
		turn := core.Turn{
			TurnIndex:           turnIndex,
			Speaker:             speaker,
			MessageText:         out.MessageText,
			Action:              out.Action,
			Outcome:             latest,
			StrategySuggestions: suggestions,
			UsedStrategies:      out.UsedStrategies,
		}

		if speaker == core.RoleUser {
			run.Turns = append(run.Turns, turn)
			roundUserTurn = len(run.Turns) - 1
			continue
		}

		latest = m.evaluate(ctx, c, run, conversation)
		if roundUserTurn >= 0 {
			run.Turns[roundUserTurn].Outcome = latest
			roundUserTurn = -1
		}
		turn.Outcome = latest
		run.Turns = append(run.Turns, turn)

		if latest.Terminal() {
			break
		}
	}

	run.Outcome = latest
	run.UserUtility = core.UtilityFromOutcome(latest)
	run.Status = core.RunCompleted

	if m.summarizer != nil {
		summary, err := m.summarizer.Summarize(ctx, conversation)
		if err != nil {
			m.logger.Warn("run summary failed", "run_id", run.RunID, "error", err.Error())
		} else {
			run.Summary = summary
		}
	}

	m.snapshot(run, nil)
	return nil
}

// generate runs the retry loop for one turn. Every attempt, including failed
// ones, is appended to the trace. When all attempts fail the fallback turn is
// used and the run's error count is incremented.
func (m *Machine) generate(ctx context.Context, c *core.CaseSnapshot, run *core.Run, speaker core.Role, turnIndex int, req core.GenerateRequest) (core.TurnOutput, string, error) {
	name := userAgentName
	if speaker == core.RoleCounterparty {
		name = counterpartyAgentName
	}

	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return core.TurnOutput{}, "", err
		}

		began := time.Now()
		res, err := m.gen.Generate(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return core.TurnOutput{}, "", ctx.Err()
			}
			m.recorder.AppendCall(run.RunID, core.AgentCallTrace{
				AgentName:        name,
				RawOutput:        "GENERATOR_ERROR: " + err.Error(),
				ValidationResult: core.Failed(err.Error()),
				Timestamp:        time.Now().UTC(),
			})
			m.logGeneratorCall(speaker, turnIndex, time.Since(began), false, err)
			continue
		}

		output, validation := generator.ParseTurnOutput(res.RawOutput)
		m.recorder.AppendCall(run.RunID, core.AgentCallTrace{
			AgentName:        name,
			PromptVariables:  res.PromptVariables,
			RawOutput:        res.RawOutput,
			ParsedOutput:     generator.ParsedMap(res.RawOutput),
			ValidationResult: validation,
			Timestamp:        time.Now().UTC(),
		})
		m.logGeneratorCall(speaker, turnIndex, time.Since(began), validation.Status == core.ValidationPass, nil)

		if validation.Status == core.ValidationPass {
			return output, res.RawOutput, nil
		}
	}

	run.ErrorCount++
	return m.fallbackTurn(c, speaker), "", nil
}

// fallbackTurn builds the deterministic turn used when generation keeps
// failing, so a run always makes progress.
func (m *Machine) fallbackTurn(c *core.CaseSnapshot, speaker core.Role) core.TurnOutput {
	if speaker == core.RoleUser {
		return core.TurnOutput{
			MessageText: fmt.Sprintf("I'm looking to reach %s on this offer and can explain why it makes sense.",
				generator.ObjectiveSummary(c.Objectives.Target)),
			Action: core.Action{Type: core.ActionProposeOffer, Payload: map[string]any{}},
		}
	}
	return core.TurnOutput{
		MessageText: "Thanks for outlining your goal. I need to balance this with internal constraints; here is a realistic counteroffer.",
		Action:      core.Action{Type: core.ActionCounterOffer, Payload: map[string]any{}},
	}
}

// suppressAskInfo converts an ASK_INFO turn into a regular offer turn when
// the clarification budget cannot be reserved. The raw output is rewritten
// in place so parsed and raw views stay consistent; the message text is kept.
func suppressAskInfo(speaker core.Role, out core.TurnOutput, raw string) core.TurnOutput {
	override := core.ActionProposeOffer
	if speaker == core.RoleCounterparty {
		override = core.ActionCounterOffer
	}
	if raw != "" {
		if rewritten, validation := generator.ParseTurnOutput(generator.OverrideAction(raw, override)); validation.Status == core.ValidationPass {
			return rewritten
		}
	}
	out.Action = core.Action{Type: override, Payload: map[string]any{}}
	return out
}

// pause records the resumable snapshot and suspends the run. The asking turn
// is not appended; it regenerates on resume with the clarification answered.
func (m *Machine) pause(run *core.Run, questionID string, conversation []core.Message, latest core.Outcome, roundUserTurn, nextTurnIndex int, suggestions []core.StrategySuggestion) {
	run.Status = core.RunPaused
	run.Outcome = latest
	run.UserUtility = core.UtilityFromOutcome(latest)
	run.PendingQuestionID = questionID
	run.Pause = &core.PauseState{
		Conversation:  append([]core.Message(nil), conversation...),
		LatestOutcome: latest,
		RoundUserTurn: roundUserTurn,
		NextTurnIndex: nextTurnIndex,
		Suggestions:   suggestions,
	}

	if sim, ok := m.logger.(*logging.SimLogger); ok {
		sim.WithRun(run.SessionID, run.RunID).LogRunPaused(questionID, nextTurnIndex, m.questions.Remaining(run.SessionID))
	} else {
		m.logger.Info("run paused on clarification", "run_id", run.RunID, "question_id", questionID)
	}

	m.snapshot(run, run.Pause)
}

// evaluate grades the conversation after a counterparty turn. Errors from an
// injected evaluator fall back to the deterministic numeric one so a run
// never loses its outcome.
func (m *Machine) evaluate(ctx context.Context, c *core.CaseSnapshot, run *core.Run, conversation []core.Message) core.Outcome {
	eval, err := m.evaluator.Evaluate(ctx, c, conversation)
	if err != nil || eval == nil || eval.Outcome == "" || eval.Outcome == core.OutcomeUndetermined {
		if err != nil {
			m.logger.Warn("outcome evaluation failed, using numeric fallback", "run_id", run.RunID, "error", err.Error())
		}
		eval, _ = m.fallbackEval.Evaluate(ctx, c, conversation)
	}

	m.recorder.AppendCall(run.RunID, core.AgentCallTrace{
		AgentName:        worldAgentName,
		RawOutput:        eval.RawOutput,
		ParsedOutput:     map[string]any{"outcome": string(eval.Outcome), "reason": eval.Reason},
		ValidationResult: core.Passed(),
		Timestamp:        time.Now().UTC(),
	})
	return eval.Outcome
}

// snapshot flushes the run-level view to the recorder.
func (m *Machine) snapshot(run *core.Run, pause *core.PauseState) {
	m.recorder.RecordTurns(run.RunID, run.Turns)
	m.recorder.SetRunTrace(run.RunID, core.RunTrace{
		Seed:         run.Seed,
		SessionID:    run.SessionID,
		PersonaID:    run.PersonaID,
		MaxQuestions: m.questions.MaxQuestions(run.SessionID),
		Suggestions:  lastSuggestions(run),
		PauseState:   pause,
	})
}

func lastSuggestions(run *core.Run) []core.StrategySuggestion {
	if run.Pause != nil {
		return run.Pause.Suggestions
	}
	if len(run.Turns) > 0 {
		return run.Turns[len(run.Turns)-1].StrategySuggestions
	}
	return nil
}

func (m *Machine) logGeneratorCall(speaker core.Role, turnIndex int, dur time.Duration, valid bool, err error) {
	if sim, ok := m.logger.(*logging.SimLogger); ok {
		sim.LogGeneratorCall(string(speaker), turnIndex, dur, valid, err)
		return
	}
	if err != nil || !valid {
		m.logger.Warn("generator call failed", "speaker", string(speaker), "turn_index", turnIndex)
	}
}

// questionText extracts the clarification question from the action payload,
// falling back to the message text.
func questionText(out core.TurnOutput) string {
	if q, ok := out.Action.Payload["question"].(string); ok {
		if text := strings.TrimSpace(q); text != "" {
			return text
		}
	}
	return strings.TrimSpace(out.MessageText)
}
