package trace

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/negomesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundleUnknownRun(t *testing.T) {
	s := NewInMemoryStore()
	_, err := s.Bundle("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAppendCallPreservesOrder(t *testing.T) {
	s := NewInMemoryStore()
	for i := 0; i < 3; i++ {
		s.AppendCall("run-1", core.AgentCallTrace{
			AgentName: fmt.Sprintf("call-%d", i),
			Timestamp: time.Now().UTC(),
		})
	}

	b, err := s.Bundle("run-1")
	require.NoError(t, err)
	require.Len(t, b.AgentCallTraces, 3)
	assert.Equal(t, "call-0", b.AgentCallTraces[0].AgentName)
	assert.Equal(t, "call-2", b.AgentCallTraces[2].AgentName)
}

func TestFailedAttemptsAreKept(t *testing.T) {
	s := NewInMemoryStore()
	s.AppendCall("run-1", core.AgentCallTrace{AgentName: "user_agent", ValidationResult: core.Failed("invalid action")})
	s.AppendCall("run-1", core.AgentCallTrace{AgentName: "user_agent", ValidationResult: core.Passed()})

	b, err := s.Bundle("run-1")
	require.NoError(t, err)
	require.Len(t, b.AgentCallTraces, 2)
	assert.Equal(t, core.ValidationFail, b.AgentCallTraces[0].ValidationResult.Status)
	assert.Equal(t, core.ValidationPass, b.AgentCallTraces[1].ValidationResult.Status)
}

func TestBundleReturnsCopies(t *testing.T) {
	s := NewInMemoryStore()
	s.RecordTurns("run-1", []core.Turn{{TurnIndex: 1, Speaker: core.RoleUser}})
	s.SetRunTrace("run-1", core.RunTrace{
		Seed: 42,
		PauseState: &core.PauseState{
			Conversation: []core.Message{{Speaker: core.RoleUser, Text: "hello"}},
		},
	})

	b1, err := s.Bundle("run-1")
	require.NoError(t, err)
	b1.TurnTraces[0].Speaker = core.RoleCounterparty
	b1.RunTrace.PauseState.Conversation[0].Text = "mutated"

	b2, err := s.Bundle("run-1")
	require.NoError(t, err)
	assert.Equal(t, core.RoleUser, b2.TurnTraces[0].Speaker)
	assert.Equal(t, "hello", b2.RunTrace.PauseState.Conversation[0].Text)
}

func TestConcurrentAppends(t *testing.T) {
	s := NewInMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(runID string) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				s.AppendCall(runID, core.AgentCallTrace{AgentName: "agent"})
			}
		}(fmt.Sprintf("run-%d", i%2))
	}
	wg.Wait()

	total := 0
	for _, runID := range []string{"run-0", "run-1"} {
		b, err := s.Bundle(runID)
		require.NoError(t, err)
		total += len(b.AgentCallTraces)
	}
	assert.Equal(t, 200, total)
}
