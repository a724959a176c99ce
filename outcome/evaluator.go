package outcome

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/hupe1980/negomesh/core"
)

// numberPattern matches integers and decimals with optional thousands
// separators, e.g. "140,000" or "2500.50".
var numberPattern = regexp.MustCompile(`[-+]?\d[\d,]*(?:\.\d+)?`)

// Compile-time check that Evaluator satisfies the evaluator contract.
var _ core.OutcomeEvaluator = (*Evaluator)(nil)

// Evaluator grades conversations numerically. It reads the most favorable
// number from the latest counterparty message and compares it against the
// user's target and reservation on the primary issue:
//
//	MAXIMIZE: value >= target is PASS, value >= reservation is NEUTRAL,
//	below reservation is FAIL. MINIMIZE mirrors with <=.
//
// Conversations without a counterparty number, and cases without a numeric
// target, grade NEUTRAL.
type Evaluator struct{}

// NewEvaluator constructs the numeric evaluator.
func NewEvaluator() *Evaluator { return &Evaluator{} }

// Evaluate implements core.OutcomeEvaluator.
func (e *Evaluator) Evaluate(_ context.Context, c *core.CaseSnapshot, conversation []core.Message) (*core.Evaluation, error) {
	result := e.evaluate(c, conversation)
	return &core.Evaluation{Outcome: result, Reason: "numeric comparison against objectives"}, nil
}

func (e *Evaluator) evaluate(c *core.CaseSnapshot, conversation []core.Message) core.Outcome {
	latest := latestCounterpartyText(conversation)
	if latest == "" {
		return core.OutcomeNeutral
	}

	target, reservation, hasReservation, direction := desiredValues(c)
	if target == nil {
		return core.OutcomeNeutral
	}

	value, ok := extractOfferValue(latest, direction)
	if !ok {
		return core.OutcomeNeutral
	}

	if direction == core.DirectionMinimize {
		switch {
		case value <= *target:
			return core.OutcomePass
		case hasReservation && value <= reservation:
			return core.OutcomeNeutral
		default:
			return core.OutcomeFail
		}
	}
	switch {
	case value >= *target:
		return core.OutcomePass
	case hasReservation && value >= reservation:
		return core.OutcomeNeutral
	default:
		return core.OutcomeFail
	}
}

func latestCounterpartyText(conversation []core.Message) string {
	for i := len(conversation) - 1; i >= 0; i-- {
		if conversation[i].Speaker == core.RoleCounterparty {
			return conversation[i].Text
		}
	}
	return ""
}

// desiredValues resolves target and reservation for the user's primary issue.
// Direction follows the first user issue, defaulting to MAXIMIZE.
func desiredValues(c *core.CaseSnapshot) (target *float64, reservation float64, hasReservation bool, direction core.IssueDirection) {
	direction = core.DirectionMaximize
	issues := c.IssuesFor(core.RoleUser)
	if len(issues) > 0 {
		direction = issues[0].Direction
	}

	issueID := ""
	if primary := c.PrimaryIssue(); primary != nil {
		issueID = primary.IssueID
	}

	if v, ok := c.Objectives.Target.Resolve(issueID); ok {
		target = &v
	}
	reservation, hasReservation = c.Objectives.Reservation.Resolve(issueID)
	return target, reservation, hasReservation, direction
}

// extractOfferValue picks the number most favorable to the user from the
// text: the maximum when maximizing, the minimum when minimizing.
func extractOfferValue(text string, direction core.IssueDirection) (float64, bool) {
	var values []float64
	for _, raw := range numberPattern.FindAllString(text, -1) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
		if err != nil {
			continue
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return 0, false
	}

	best := values[0]
	for _, v := range values[1:] {
		if direction == core.DirectionMinimize {
			if v < best {
				best = v
			}
		} else if v > best {
			best = v
		}
	}
	return best, true
}
