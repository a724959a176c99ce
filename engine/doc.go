// Package engine implements the per-run turn state machine. It owns the
// turn-by-turn progression of a single negotiation run: alternating speakers,
// validation and retry of generator output, clarification pauses, outcome
// evaluation with round backfill, and termination. Scheduling across runs is
// the runner package's job; the machine never blocks on anything but its own
// generator and evaluator calls.
package engine
