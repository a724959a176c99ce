// Package outcome implements the deterministic offer evaluator. It grades
// the latest counterparty message against the user's target and reservation
// values without calling a model, and doubles as the fallback evaluator when
// an LLM-backed one fails.
package outcome
