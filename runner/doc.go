// Package runner implements the core orchestration layer for NegoMesh.
//
// The Runner is the central coordination hub for simulation batches. It fans
// a case out into N seeded runs, bounds how many execute in parallel, owns
// the synchronized run arena, and drives the pause/answer/resume cycle for
// clarification questions. The per-run turn logic lives in the engine
// package; the runner only schedules.
//
// # Responsibilities (abridged)
//   - Batch admission and per-run seed/persona derivation
//   - Bounded parallel execution with slot reacquisition on resume
//   - Run arena lookup (status, traces) by run id
//   - Clarification queue access for the session owner
//
// See runner.go for the operational implementation details.
package runner
