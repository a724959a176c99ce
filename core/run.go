package core

// Role identifies the speaking side of a turn and the perspective a generator
// call is made from.
type Role string

const (
	RoleUser         Role = "USER"
	RoleCounterparty Role = "COUNTERPARTY"
)

// RunStatus is the lifecycle state of a simulation run.
//
// Transitions: RUNNING -> {PAUSED, COMPLETED, FAILED}, PAUSED -> RUNNING.
// COMPLETED and FAILED are terminal.
type RunStatus string

const (
	RunRunning   RunStatus = "RUNNING"
	RunPaused    RunStatus = "PAUSED"
	RunCompleted RunStatus = "COMPLETED"
	RunFailed    RunStatus = "FAILED"
)

// Outcome grades a round (and, transitively, a run) against the user's
// objectives.
type Outcome string

const (
	OutcomePass         Outcome = "PASS"
	OutcomeNeutral      Outcome = "NEUTRAL"
	OutcomeFail         Outcome = "FAIL"
	OutcomeUndetermined Outcome = "UNDETERMINED"
)

// Terminal reports whether the outcome ends a run before max turns.
func (o Outcome) Terminal() bool { return o == OutcomePass || o == OutcomeFail }

// UtilityFromOutcome maps an outcome to the scalar user utility recorded on
// completed runs.
func UtilityFromOutcome(o Outcome) float64 {
	switch o {
	case OutcomePass:
		return 1.0
	case OutcomeFail:
		return 0.0
	default:
		return 0.5
	}
}

// Message is one entry of a run's conversation transcript.
type Message struct {
	Speaker Role   `json:"speaker"`
	Text    string `json:"text"`
}

// StrategySuggestion is one strategy offered (not mandated) to a generator
// for a run.
type StrategySuggestion struct {
	StrategyID string `json:"strategy_id"`
	Name       string `json:"name"`
	Summary    string `json:"summary"`
	Category   string `json:"category,omitempty"`
	Goal       string `json:"goal,omitempty"`
}

// Turn is a single role's message plus structured action within a run.
// Turns are append only and never mutated after creation, except for the
// round outcome backfill onto the USER turn once the COUNTERPARTY replies.
type Turn struct {
	TurnIndex           int                  `json:"turn_index"`
	Speaker             Role                 `json:"speaker"`
	MessageText         string               `json:"message_text"`
	Action              Action               `json:"action"`
	Outcome             Outcome              `json:"outcome"`
	StrategySuggestions []StrategySuggestion `json:"strategy_suggestions,omitempty"`
	UsedStrategies      []string             `json:"used_strategies,omitempty"`
}

// PauseState is the serializable snapshot taken when a run pauses on an
// ASK_INFO action. Resumption restores it and continues from NextTurnIndex;
// already completed turns are never rewound.
type PauseState struct {
	Conversation  []Message            `json:"conversation"`
	LatestOutcome Outcome              `json:"latest_outcome"`
	RoundUserTurn int                  `json:"round_user_turn"` // index into Run.Turns; -1 when no round is open
	NextTurnIndex int                  `json:"next_turn_index"`
	Suggestions   []StrategySuggestion `json:"strategy_suggestions,omitempty"`
}

// Summary is the run digest produced by the Summarizer collaborator.
type Summary struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points,omitempty"`
}

// Run is one simulated negotiation instance. It is created by the scheduler
// and mutated only by its own state machine.
type Run struct {
	RunID             string     `json:"run_id"`
	CaseID            string     `json:"case_id"`
	SessionID         string     `json:"session_id"`
	Seed              int64      `json:"seed"`
	PersonaID         string     `json:"persona_id"`
	Turns             []Turn     `json:"turns"`
	Status            RunStatus  `json:"status"`
	Outcome           Outcome    `json:"outcome"`
	UserUtility       float64    `json:"user_utility"`
	Summary           *Summary   `json:"summary,omitempty"`
	ErrorCount        int        `json:"error_count"`
	PendingQuestionID string     `json:"pending_question_id,omitempty"`
	MaxTurns          int        `json:"max_turns"`
	Pause             *PauseState `json:"pause_state,omitempty"`
}

// Terminal reports whether the run reached a final state.
func (r *Run) Terminal() bool { return r.Status == RunCompleted || r.Status == RunFailed }
