package generator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hupe1980/negomesh/core"
)

// SystemPrompt builds the role-play instructions for one turn. Both provider
// adapters share it so runs are comparable across backends.
func SystemPrompt(req core.GenerateRequest) string {
	var b strings.Builder

	switch req.Role {
	case core.RoleUser:
		b.WriteString("You play the USER side of a negotiation rehearsal. Pursue the user's objectives.\n")
	default:
		b.WriteString("You play the COUNTERPARTY side of a negotiation rehearsal. Respond realistically within your constraints.\n")
	}

	c := req.Case
	fmt.Fprintf(&b, "\nTopic: %s\nDomain: %s\n", c.Topic, c.Domain)
	fmt.Fprintf(&b, "\nIssues:\n%s\n", issuesTable(c.IssuesFor(req.Role)))

	if req.Role == core.RoleUser {
		fmt.Fprintf(&b, "\nTarget: %s\nReservation: %s\n",
			objectiveSummary(c.Objectives.Target),
			objectiveSummary(c.Objectives.Reservation))
		fmt.Fprintf(&b, "\nParameters:\n%s\n", parametersTable(c.Parameters))
	} else {
		fmt.Fprintf(&b, "\nWhat the user assumes about you:\n%s\n", counterpartySummary(c.Assumptions))
	}

	fmt.Fprintf(&b, "\nClarifications answered so far:\n%s\n", clarificationsText(c.Clarifications))

	if len(req.Suggestions) > 0 {
		fmt.Fprintf(&b, "\nStrategy suggestions (optional, pick at most one or two):\n%s\n", SuggestionsText(req.Suggestions))
	}

	fmt.Fprintf(&b, "\nYou may ask the human for clarification at most %d more time(s) via the ASK_INFO action.\n", req.BudgetRemaining)

	b.WriteString(`
Respond with a single JSON object, no prose outside it:
{"message_text": "...", "action": {"type": "<ACTION_TYPE>", "payload": {}}, "used_strategies": []}
Valid action types: ASK_INFO, PROPOSE_OFFER, COUNTER_OFFER, ACCEPT, REJECT, CONCEDE, TRADE, PROPOSE_PACKAGE, REQUEST_CRITERIA, SUMMARIZE_VALIDATE, DEFER_AND_SCHEDULE, ESCALATE_TO_DECIDER, WALK_AWAY, TIMEOUT_END.
For ASK_INFO put the question into payload.question.`)

	return b.String()
}

// PromptVariables captures the inputs of a generator call for tracing.
func PromptVariables(req core.GenerateRequest) map[string]any {
	vars := map[string]any{
		"role":                      string(req.Role),
		"case_id":                   req.Case.CaseID,
		"topic":                     req.Case.Topic,
		"conversation_len":          len(req.History),
		"ask_info_budget_remaining": req.BudgetRemaining,
	}
	if len(req.Suggestions) > 0 {
		vars["strategy_suggestions"] = SuggestionsText(req.Suggestions)
	}
	if req.Role == core.RoleUser {
		vars["target_summary"] = objectiveSummary(req.Case.Objectives.Target)
		vars["reservation_summary"] = objectiveSummary(req.Case.Objectives.Reservation)
	}
	return vars
}

// SuggestionsText renders strategy suggestions as a prompt-friendly list.
func SuggestionsText(suggestions []core.StrategySuggestion) string {
	if len(suggestions) == 0 {
		return "None"
	}
	lines := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		line := fmt.Sprintf("- %s: %s. %s", s.StrategyID, s.Name, s.Summary)
		if s.Category != "" {
			line += " Category: " + s.Category + "."
		}
		if s.Goal != "" {
			line += " Goal: " + s.Goal + "."
		}
		lines = append(lines, strings.TrimSpace(line))
	}
	return strings.Join(lines, "\n")
}

func issuesTable(issues []core.Issue) string {
	if len(issues) == 0 {
		return "None"
	}
	rows := []string{"issue_id | name | direction | unit | bounds"}
	for _, issue := range issues {
		bounds := ""
		if issue.Bounds != nil {
			bounds = fmt.Sprintf("%s..%s", floatOrEmpty(issue.Bounds.Min), floatOrEmpty(issue.Bounds.Max))
		}
		rows = append(rows, fmt.Sprintf("%s | %s | %s | %s | %s",
			issue.IssueID, issue.Name, issue.Direction, issue.Unit, bounds))
	}
	return strings.Join(rows, "\n")
}

func parametersTable(params []core.Parameter) string {
	if len(params) == 0 {
		return "None"
	}
	rows := []string{"param_id | label | class | disclosure | value | issue_id"}
	for _, p := range params {
		rows = append(rows, fmt.Sprintf("%s | %s | %s | %s | %s | %s",
			p.ParamID, p.Label, p.Class, p.Disclosure, p.Value, p.IssueID))
	}
	return strings.Join(rows, "\n")
}

func counterpartySummary(a core.CounterpartyAssumptions) string {
	var lines []string
	keys := make([]string, 0, len(a.Calibration))
	for k := range a.Calibration {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := a.Calibration[k]; v != "" && v != "unknown" {
			lines = append(lines, fmt.Sprintf("- %s: %s", k, v))
		}
	}
	if a.Notes != "" {
		lines = append(lines, "notes: "+a.Notes)
	}
	if len(lines) == 0 {
		return "None"
	}
	return strings.Join(lines, "\n")
}

func clarificationsText(clarifications []core.Clarification) string {
	var lines []string
	for _, c := range clarifications {
		if c.Question == "" || c.Answer == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("- Q: %s\n  A: %s", c.Question, c.Answer))
	}
	if len(lines) == 0 {
		return "None"
	}
	return strings.Join(lines, "\n")
}

func objectiveSummary(o core.ObjectiveValue) string {
	switch o.Type {
	case core.ObjectiveSingleValue:
		return trimFloat(o.Value)
	case core.ObjectiveOfferVector:
		keys := make([]string, 0, len(o.Vector))
		for k := range o.Vector {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", k, trimFloat(o.Vector[k])))
		}
		if len(parts) == 0 {
			return "{}"
		}
		return strings.Join(parts, ", ")
	default:
		return "unspecified"
	}
}

// ObjectiveSummary renders the user's target in prompt form. Exported for the
// fallback message that anchors on the target value.
func ObjectiveSummary(o core.ObjectiveValue) string { return objectiveSummary(o) }

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func floatOrEmpty(v *float64) string {
	if v == nil {
		return ""
	}
	return trimFloat(*v)
}
