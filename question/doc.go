// Package question implements the clarification queue and the shared
// per-session question budget. Runs that issue ASK_INFO enqueue here and
// pause; answering dequeues exactly once and frees the owning run to resume.
// The budget is shared across all runs of a session, which makes the queue a
// backpressure mechanism limiting total human interruptions per batch.
package question
