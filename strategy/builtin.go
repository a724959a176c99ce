package strategy

import "github.com/hupe1980/negomesh/core"

// DefaultPool returns a registry preloaded with a small set of widely
// applicable negotiation strategies. It is used by examples and as the
// fallback when no YAML pool is supplied.
func DefaultPool() *Registry {
	return NewRegistry(
		Strategy{
			StrategyID: "anchoring_high",
			Name:       "Ambitious anchor",
			Category:   "opening",
			Summary:    "Open with an ambitious but defensible number to shift the bargaining range.",
			Goal:       "Set the reference point before the counterparty does.",
			PreferredActions: []core.ActionType{
				core.ActionProposeOffer,
			},
		},
		Strategy{
			StrategyID: "objective_criteria",
			Name:       "Objective criteria",
			Category:   "framing",
			Summary:    "Justify positions with market data, benchmarks, or published standards.",
			Goal:       "Move the discussion from positions to verifiable facts.",
			PreferredActions: []core.ActionType{
				core.ActionRequestCriteria,
			},
		},
		Strategy{
			StrategyID: "calibrated_questions",
			Name:       "Calibrated questions",
			Category:   "discovery",
			Summary:    "Ask open how/what questions to surface the counterparty's constraints.",
			Goal:       "Learn the other side's real limits before conceding.",
			PreferredActions: []core.ActionType{
				core.ActionAskInfo,
			},
		},
		Strategy{
			StrategyID: "package_trade",
			Name:       "Package trade",
			Category:   "value_creation",
			Summary:    "Bundle several issues and trade low-priority ones for high-priority gains.",
			Goal:       "Expand the deal instead of splitting a single number.",
			PreferredActions: []core.ActionType{
				core.ActionProposePackage,
				core.ActionTrade,
			},
		},
		Strategy{
			StrategyID: "counteranchor_range",
			Name:       "Counteranchor with range",
			Category:   "response",
			Summary:    "Answer an aggressive anchor with a bounded counteroffer range.",
			Goal:       "Neutralize the anchor without conceding the midpoint.",
			PreferredActions: []core.ActionType{
				core.ActionCounterOffer,
			},
		},
		Strategy{
			StrategyID: "summarize_validate",
			Name:       "Summarize and validate",
			Category:   "process",
			Summary:    "Restate agreed points and open items to lock in progress.",
			Goal:       "Prevent backsliding on terms already settled.",
			PreferredActions: []core.ActionType{
				core.ActionSummarizeValidate,
			},
		},
	)
}
