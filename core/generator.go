package core

import "context"

// GenerateRequest is the normalized input for one role-play turn.
type GenerateRequest struct {
	Case            *CaseSnapshot
	Role            Role
	History         []Message
	Suggestions     []StrategySuggestion
	BudgetRemaining int
}

// TurnOutput is the structured payload a turn generator must produce.
type TurnOutput struct {
	MessageText    string   `json:"message_text"`
	Action         Action   `json:"action"`
	UsedStrategies []string `json:"used_strategies,omitempty"`
}

// GenerationResult bundles a generator's parsed output with the raw text and
// the prompt variables that produced it, so every call can be traced and
// replayed without re-invoking the backend.
type GenerationResult struct {
	RawOutput       string
	Output          TurnOutput
	PromptVariables map[string]any
}

// TurnGenerator produces the next message for a role given the case, the
// conversation so far, optional strategy suggestions, and the remaining
// clarification budget. Implementations are opaque; the orchestration layer
// validates and retries their output.
type TurnGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerationResult, error)
}

// Evaluation is the judged outcome of a completed round.
type Evaluation struct {
	Outcome   Outcome
	Reason    string
	RawOutput string
}

// OutcomeEvaluator grades the conversation against the case objectives after
// each completed COUNTERPARTY turn.
type OutcomeEvaluator interface {
	Evaluate(ctx context.Context, c *CaseSnapshot, history []Message) (*Evaluation, error)
}

// Summarizer produces a digest of a completed run.
type Summarizer interface {
	Summarize(ctx context.Context, history []Message) (*Summary, error)
}
