package generator

import (
	"context"
	"fmt"
	"testing"

	"github.com/hupe1980/negomesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTurnOutput(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   core.TurnOutput
		passes bool
	}{
		{
			name: "plain json",
			raw:  `{"message_text": "I propose 150k.", "action": {"type": "PROPOSE_OFFER", "payload": {}}, "used_strategies": ["anchoring_high"]}`,
			want: core.TurnOutput{
				MessageText:    "I propose 150k.",
				Action:         core.Action{Type: core.ActionProposeOffer, Payload: map[string]any{}},
				UsedStrategies: []string{"anchoring_high"},
			},
			passes: true,
		},
		{
			name: "fenced json with prose",
			raw:  "Here is my turn:\n```json\n{\"message_text\": \"What is the band?\", \"action\": {\"type\": \"ActionType.ASK_INFO\", \"payload\": {\"question\": \"What is the band?\"}}}\n```",
			want: core.TurnOutput{
				MessageText: "What is the band?",
				Action: core.Action{
					Type:    core.ActionAskInfo,
					Payload: map[string]any{"question": "What is the band?"},
				},
			},
			passes: true,
		},
		{
			name:   "not json",
			raw:    "I just want to say something",
			passes: false,
		},
		{
			name:   "empty message",
			raw:    `{"message_text": "", "action": {"type": "ACCEPT"}}`,
			passes: false,
		},
		{
			name:   "unknown action",
			raw:    `{"message_text": "hmm", "action": {"type": "SHRUG"}}`,
			passes: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, validation := ParseTurnOutput(tt.raw)
			if tt.passes {
				require.Equal(t, core.ValidationPass, validation.Status, validation.Reason)
				assert.Equal(t, tt.want, got)
			} else {
				assert.Equal(t, core.ValidationFail, validation.Status)
				assert.NotEmpty(t, validation.Reason)
			}
		})
	}
}

func TestOverrideAction(t *testing.T) {
	raw := `{"message_text": "Could you share the band?", "action": {"type": "ASK_INFO", "payload": {"question": "band?"}}}`

	overridden := OverrideAction(raw, core.ActionProposeOffer)
	out, validation := ParseTurnOutput(overridden)
	require.Equal(t, core.ValidationPass, validation.Status)
	assert.Equal(t, core.ActionProposeOffer, out.Action.Type)
	assert.Empty(t, out.Action.Payload)
	assert.Equal(t, "Could you share the band?", out.MessageText)
}

func TestParsedMap(t *testing.T) {
	m := ParsedMap("```json\n{\"message_text\": \"hi\"}\n```")
	require.NotNil(t, m)
	assert.Equal(t, "hi", m["message_text"])

	assert.Nil(t, ParsedMap("no json here"))
}

func TestMockGeneratorScriptsAndSynthesis(t *testing.T) {
	mock := NewMockGenerator().
		Script(core.RoleUser, `{"message_text": "scripted", "action": {"type": "PROPOSE_OFFER"}}`).
		Fail(core.RoleUser, fmt.Errorf("backend down"))

	req := core.GenerateRequest{
		Case: &core.CaseSnapshot{CaseID: "c", Topic: "salary"},
		Role: core.RoleUser,
	}

	res, err := mock.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "scripted", res.Output.MessageText)

	_, err = mock.Generate(context.Background(), req)
	assert.Error(t, err)

	// Script exhausted: synthesized output must still validate.
	res, err = mock.Generate(context.Background(), req)
	require.NoError(t, err)
	_, validation := ParseTurnOutput(res.RawOutput)
	assert.Equal(t, core.ValidationPass, validation.Status)

	req.Role = core.RoleCounterparty
	res, err = mock.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, core.ActionCounterOffer, res.Output.Action.Type)
}
