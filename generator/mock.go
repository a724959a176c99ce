package generator

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/negomesh/core"
)

// Compile-time check that MockGenerator satisfies the generator contract.
var _ core.TurnGenerator = (*MockGenerator)(nil)

type mockStep struct {
	raw string
	err error
}

// MockGenerator is a deterministic in-memory TurnGenerator for tests and
// examples. Scripted raw outputs are consumed per role in order; once a
// role's script is exhausted it synthesizes a plain offer turn so runs can
// always finish.
type MockGenerator struct {
	mu      sync.Mutex
	scripts map[core.Role][]mockStep
}

// NewMockGenerator constructs an empty mock.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{scripts: make(map[core.Role][]mockStep)}
}

// Script appends a canned raw output for the role. Returns the mock for
// chaining.
func (m *MockGenerator) Script(role core.Role, raw string) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[role] = append(m.scripts[role], mockStep{raw: raw})
	return m
}

// Fail appends a generation error for the role, consumed like a scripted
// output. Used to exercise retry handling.
func (m *MockGenerator) Fail(role core.Role, err error) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[role] = append(m.scripts[role], mockStep{err: err})
	return m
}

// Generate implements core.TurnGenerator.
func (m *MockGenerator) Generate(_ context.Context, req core.GenerateRequest) (*core.GenerationResult, error) {
	m.mu.Lock()
	var step mockStep
	if queue := m.scripts[req.Role]; len(queue) > 0 {
		step = queue[0]
		m.scripts[req.Role] = queue[1:]
	} else {
		step = mockStep{raw: m.synthesize(req)}
	}
	m.mu.Unlock()

	if step.err != nil {
		return nil, step.err
	}

	output, _ := ParseTurnOutput(step.raw)
	return &core.GenerationResult{
		RawOutput:       step.raw,
		Output:          output,
		PromptVariables: PromptVariables(req),
	}, nil
}

func (m *MockGenerator) synthesize(req core.GenerateRequest) string {
	action := core.ActionProposeOffer
	text := fmt.Sprintf("My position on %s stands; I propose we settle at my stated terms.", req.Case.Topic)
	if req.Role == core.RoleCounterparty {
		action = core.ActionCounterOffer
		text = "I hear you; here is a counteroffer that works within my constraints."
	}
	return fmt.Sprintf(`{"message_text": %q, "action": {"type": %q, "payload": {}}, "used_strategies": []}`, text, action)
}
