package core

import "strings"

// ActionType classifies the structured action a role attaches to a turn.
// The set is closed; generator output carrying anything else fails validation.
type ActionType string

const (
	ActionAskInfo           ActionType = "ASK_INFO"
	ActionProposeOffer      ActionType = "PROPOSE_OFFER"
	ActionCounterOffer      ActionType = "COUNTER_OFFER"
	ActionAccept            ActionType = "ACCEPT"
	ActionReject            ActionType = "REJECT"
	ActionConcede           ActionType = "CONCEDE"
	ActionTrade             ActionType = "TRADE"
	ActionProposePackage    ActionType = "PROPOSE_PACKAGE"
	ActionRequestCriteria   ActionType = "REQUEST_CRITERIA"
	ActionSummarizeValidate ActionType = "SUMMARIZE_VALIDATE"
	ActionDeferAndSchedule  ActionType = "DEFER_AND_SCHEDULE"
	ActionEscalateToDecider ActionType = "ESCALATE_TO_DECIDER"
	ActionWalkAway          ActionType = "WALK_AWAY"
	ActionTimeoutEnd        ActionType = "TIMEOUT_END"
)

var actionTypes = map[ActionType]struct{}{
	ActionAskInfo:           {},
	ActionProposeOffer:      {},
	ActionCounterOffer:      {},
	ActionAccept:            {},
	ActionReject:            {},
	ActionConcede:           {},
	ActionTrade:             {},
	ActionProposePackage:    {},
	ActionRequestCriteria:   {},
	ActionSummarizeValidate: {},
	ActionDeferAndSchedule:  {},
	ActionEscalateToDecider: {},
	ActionWalkAway:          {},
	ActionTimeoutEnd:        {},
}

// Valid reports whether t belongs to the closed action type set.
func (t ActionType) Valid() bool {
	_, ok := actionTypes[t]
	return ok
}

// NormalizeActionType maps loose generator spellings such as
// "ActionType.ASK_INFO" or "ask_info" onto the canonical enum value.
// The result may still be invalid; callers must check Valid().
func NormalizeActionType(raw string) ActionType {
	text := strings.TrimSpace(raw)
	if i := strings.LastIndex(text, "."); i >= 0 {
		text = text[i+1:]
	}
	return ActionType(strings.ToUpper(text))
}

// Action is the structured action attached to a turn's message.
type Action struct {
	Type    ActionType     `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}
