// Package trace provides the append-only audit store for simulation runs.
// Every generator call, turn, and pause snapshot is recorded here keyed by
// run id, so a completed or paused run can be replayed and inspected after
// the fact.
package trace
