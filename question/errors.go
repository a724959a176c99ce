package question

import "fmt"

var (
	// ErrBudgetExhausted is returned by Enqueue when the session has no
	// clarification budget left (including capacity reserved by questions
	// that are still awaiting an answer). Callers fall back to a
	// non-pausing turn instead of treating this as a failure.
	ErrBudgetExhausted = fmt.Errorf("question budget exhausted")

	// ErrNotFound is returned when answering a question id that was already
	// answered or never existed.
	ErrNotFound = fmt.Errorf("question not found")

	// ErrQuestionPending is returned when a run that already has an
	// outstanding question tries to enqueue another one.
	ErrQuestionPending = fmt.Errorf("run already has a pending question")

	// ErrSessionUnknown is returned for operations on a session that was
	// never opened.
	ErrSessionUnknown = fmt.Errorf("session unknown")
)
