// Package core contains the shared data model and collaborator interfaces of
// the negotiation rehearsal engine: case snapshots, runs and turns, the closed
// action/outcome enums, trace types, and the TurnGenerator / OutcomeEvaluator /
// Summarizer contracts implemented by opaque generation backends.
package core
