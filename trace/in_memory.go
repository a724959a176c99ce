package trace

import (
	"fmt"
	"sync"

	"github.com/hupe1980/negomesh/core"
)

// ErrNotFound is returned by Bundle for a run id that was never recorded.
var ErrNotFound = fmt.Errorf("trace not found")

// Compile-time check that InMemoryStore satisfies the recorder contract.
var _ core.TraceRecorder = (*InMemoryStore)(nil)

// InMemoryStore is a thread-safe in-memory TraceRecorder. Agent call traces
// are strictly appended; turn and run traces are replaced wholesale on each
// snapshot. Reads return deep copies so callers can never mutate the store.
type InMemoryStore struct {
	mu      sync.RWMutex
	bundles map[string]*core.TraceBundle
}

// NewInMemoryStore creates an empty trace store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{bundles: make(map[string]*core.TraceBundle)}
}

func (s *InMemoryStore) bundleLocked(runID string) *core.TraceBundle {
	b, ok := s.bundles[runID]
	if !ok {
		b = &core.TraceBundle{}
		s.bundles[runID] = b
	}
	return b
}

// AppendCall records one generator invocation for the run.
func (s *InMemoryStore) AppendCall(runID string, trace core.AgentCallTrace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bundleLocked(runID)
	b.AgentCallTraces = append(b.AgentCallTraces, trace)
}

// RecordTurns replaces the run's turn snapshot with the given turns.
func (s *InMemoryStore) RecordTurns(runID string, turns []core.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bundleLocked(runID)
	b.TurnTraces = append([]core.Turn(nil), turns...)
}

// SetRunTrace replaces the run-level trace metadata.
func (s *InMemoryStore) SetRunTrace(runID string, rt core.RunTrace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bundleLocked(runID)
	b.RunTrace = rt
}

// Bundle returns a copy of the full audit record for the run.
func (s *InMemoryStore) Bundle(runID string) (*core.TraceBundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bundles[runID]
	if !ok {
		return nil, fmt.Errorf("run %q: %w", runID, ErrNotFound)
	}

	out := &core.TraceBundle{
		RunTrace:        b.RunTrace,
		TurnTraces:      append([]core.Turn(nil), b.TurnTraces...),
		AgentCallTraces: append([]core.AgentCallTrace(nil), b.AgentCallTraces...),
	}
	if b.RunTrace.PauseState != nil {
		ps := *b.RunTrace.PauseState
		ps.Conversation = append([]core.Message(nil), b.RunTrace.PauseState.Conversation...)
		out.RunTrace.PauseState = &ps
	}
	return out, nil
}
