package core

import "time"

// ValidationStatus marks whether a generator call produced structurally valid
// output.
type ValidationStatus string

const (
	ValidationPass ValidationStatus = "PASS"
	ValidationFail ValidationStatus = "FAIL"
)

// ValidationResult records the validation verdict for one generator call.
type ValidationResult struct {
	Status ValidationStatus `json:"status"`
	Reason string           `json:"reason,omitempty"`
}

// Passed builds a passing validation result.
func Passed() ValidationResult { return ValidationResult{Status: ValidationPass} }

// Failed builds a failing validation result with a reason.
func Failed(reason string) ValidationResult {
	return ValidationResult{Status: ValidationFail, Reason: reason}
}

// AgentCallTrace captures one generator invocation: its inputs, raw and
// parsed output, and the validation verdict. Immutable once written; failed
// and retried attempts are traced individually.
type AgentCallTrace struct {
	AgentName        string           `json:"agent_name"`
	PromptVariables  map[string]any   `json:"prompt_variables,omitempty"`
	RawOutput        string           `json:"raw_output"`
	ParsedOutput     map[string]any   `json:"parsed_output,omitempty"`
	ValidationResult ValidationResult `json:"validation_result"`
	Timestamp        time.Time        `json:"timestamp"`
}

// RunTrace carries the per-run reproduction inputs: seeding, session,
// strategy suggestions, and the pause snapshot if the run is suspended.
type RunTrace struct {
	Seed         int64                `json:"seed"`
	SessionID    string               `json:"session_id"`
	PersonaID    string               `json:"persona_id"`
	MaxQuestions int                  `json:"max_questions"`
	Suggestions  []StrategySuggestion `json:"strategy_suggestions,omitempty"`
	PauseState   *PauseState          `json:"pause_state,omitempty"`
}

// TraceBundle is the complete audit record of one run.
type TraceBundle struct {
	RunTrace        RunTrace         `json:"run_trace"`
	TurnTraces      []Turn           `json:"turn_traces"`
	AgentCallTraces []AgentCallTrace `json:"agent_call_traces"`
}

// TraceRecorder is the append-only audit log observed by the state machine.
// AppendCall is invoked once per generator call (including failed attempts);
// RecordTurns and SetRunTrace snapshot the run-level view whenever the run
// pauses or terminates.
type TraceRecorder interface {
	AppendCall(runID string, trace AgentCallTrace)
	RecordTurns(runID string, turns []Turn)
	SetRunTrace(runID string, rt RunTrace)
	Bundle(runID string) (*TraceBundle, error)
}
