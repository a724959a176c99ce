package generator

import (
	"strings"

	"github.com/hupe1980/negomesh/core"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ExtractJSON strips markdown fences and surrounding prose from raw model
// output, returning the outermost JSON object. Models frequently wrap their
// JSON in ```json fences or add a leading sentence; both are tolerated.
func ExtractJSON(raw string) string {
	text := strings.TrimSpace(raw)
	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			return text[start : end+1]
		}
	}
	return text
}

// ParseTurnOutput parses raw generator output into a TurnOutput and reports
// whether it is structurally valid. Parsing is lenient: fenced or prose-
// wrapped JSON is accepted, the action type is normalized from loose
// spellings, and unknown fields are ignored. Validation fails when the
// message text is empty or the action type is outside the closed set.
func ParseTurnOutput(raw string) (core.TurnOutput, core.ValidationResult) {
	body := ExtractJSON(raw)
	if !gjson.Valid(body) {
		return core.TurnOutput{}, core.Failed("output is not valid JSON")
	}

	var out core.TurnOutput
	out.MessageText = strings.TrimSpace(gjson.Get(body, "message_text").String())
	out.Action.Type = core.NormalizeActionType(gjson.Get(body, "action.type").String())

	if payload := gjson.Get(body, "action.payload"); payload.IsObject() {
		if m, ok := payload.Value().(map[string]any); ok {
			out.Action.Payload = m
		}
	}
	gjson.Get(body, "used_strategies").ForEach(func(_, value gjson.Result) bool {
		out.UsedStrategies = append(out.UsedStrategies, value.String())
		return true
	})

	if out.MessageText == "" {
		return out, core.Failed("message_text is empty")
	}
	if !out.Action.Type.Valid() {
		return out, core.Failed("unknown action type " + string(out.Action.Type))
	}
	return out, core.Passed()
}

// OverrideAction rewrites the action type inside raw generator output,
// clearing the payload. Used when an ASK_INFO turn must proceed as a regular
// offer because the clarification budget is exhausted. The original text is
// returned unchanged when it cannot be rewritten.
func OverrideAction(raw string, t core.ActionType) string {
	body := ExtractJSON(raw)
	updated, err := sjson.Set(body, "action.type", string(t))
	if err != nil {
		return raw
	}
	updated, err = sjson.Set(updated, "action.payload", map[string]any{})
	if err != nil {
		return raw
	}
	return updated
}

// ParsedMap returns the parsed output as a generic map for tracing. Returns
// nil when the raw text holds no valid JSON object.
func ParsedMap(raw string) map[string]any {
	body := ExtractJSON(raw)
	if !gjson.Valid(body) {
		return nil
	}
	if m, ok := gjson.Parse(body).Value().(map[string]any); ok {
		return m
	}
	return nil
}
