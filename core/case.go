package core

// Domain labels the negotiation scenario family of a case.
type Domain string

const (
	DomainGeneral           Domain = "GENERAL"
	DomainJobOfferComp      Domain = "JOB_OFFER_COMP"
	DomainRentHousing       Domain = "RENT_HOUSING"
	DomainProcurementVendor Domain = "PROCUREMENT_VENDOR"
	DomainServicesContract  Domain = "SERVICES_CONTRACTOR"
)

// Channel is the communication medium assumed by the role play.
type Channel string

const (
	ChannelUnspecified Channel = "UNSPECIFIED"
	ChannelInPerson    Channel = "IN_PERSON"
	ChannelEmail       Channel = "EMAIL"
	ChannelDM          Channel = "DM"
)

// IssueDirection states which numeric extreme favors the user on an issue.
type IssueDirection string

const (
	DirectionMaximize IssueDirection = "MAXIMIZE"
	DirectionMinimize IssueDirection = "MINIMIZE"
)

// IssueBounds optionally constrains the plausible value range of an issue.
type IssueBounds struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Issue is a single negotiable dimension of the case.
type Issue struct {
	IssueID   string         `json:"issue_id"`
	Name      string         `json:"name"`
	Direction IssueDirection `json:"direction"`
	Unit      string         `json:"unit,omitempty"`
	Bounds    *IssueBounds   `json:"bounds,omitempty"`
}

// ObjectiveType distinguishes scalar objectives from per-issue offer vectors.
type ObjectiveType string

const (
	ObjectiveSingleValue ObjectiveType = "SINGLE_VALUE"
	ObjectiveOfferVector ObjectiveType = "OFFER_VECTOR"
)

// ObjectiveValue is a tagged variant holding either a single numeric value or
// a per-issue vector.
type ObjectiveValue struct {
	Type   ObjectiveType      `json:"type"`
	Value  float64            `json:"value,omitempty"`
	Vector map[string]float64 `json:"vector,omitempty"`
}

// Resolve returns the objective value for the given issue, or false when the
// objective does not cover it.
func (o ObjectiveValue) Resolve(issueID string) (float64, bool) {
	switch o.Type {
	case ObjectiveSingleValue:
		return o.Value, true
	case ObjectiveOfferVector:
		v, ok := o.Vector[issueID]
		return v, ok
	default:
		return 0, false
	}
}

// Objectives captures the user's target and reservation positions plus the
// relative importance of each issue.
type Objectives struct {
	Target       ObjectiveValue     `json:"target"`
	Reservation  ObjectiveValue     `json:"reservation"`
	IssueWeights map[string]float64 `json:"issue_weights,omitempty"`
}

// ParameterClass states how strictly a case parameter binds the user side.
type ParameterClass string

const (
	ParamNonNegotiable ParameterClass = "NON_NEGOTIABLE"
	ParamRevisable     ParameterClass = "REVISABLE"
	ParamPreference    ParameterClass = "PREFERENCE"
)

// ParameterDisclosure controls whether a parameter may be revealed in play.
type ParameterDisclosure string

const (
	DisclosurePrivate     ParameterDisclosure = "PRIVATE"
	DisclosureShareable   ParameterDisclosure = "SHAREABLE"
	DisclosureConditional ParameterDisclosure = "CONDITIONAL"
)

// Parameter is a fixed fact or constraint of the user's situation.
type Parameter struct {
	ParamID    string              `json:"param_id"`
	Label      string              `json:"label"`
	Value      string              `json:"value"`
	Class      ParameterClass      `json:"class"`
	Disclosure ParameterDisclosure `json:"disclosure"`
	IssueID    string              `json:"issue_id,omitempty"`
}

// Clarification is an answered (or still open) intake question whose answer
// becomes visible to all generator calls of the batch.
type Clarification struct {
	Question string `json:"question"`
	Answer   string `json:"answer,omitempty"`
}

// PersonaWeight assigns a sampling weight to a counterparty persona.
type PersonaWeight struct {
	PersonaID string  `json:"persona_id"`
	Weight    float64 `json:"weight"`
}

// CounterpartyAssumptions describes what the user believes about the other
// side, including the persona distribution runs are sampled from.
type CounterpartyAssumptions struct {
	Calibration         map[string]string `json:"calibration,omitempty"`
	PersonaDistribution []PersonaWeight   `json:"persona_distribution,omitempty"`
	Notes               string            `json:"notes,omitempty"`
}

// CaseSnapshot is the immutable-per-revision description of a negotiation.
// The engine treats it as read only; it clones the snapshot per batch and
// appends clarifications only to its own copy.
type CaseSnapshot struct {
	CaseID             string                  `json:"case_id"`
	Revision           int                     `json:"revision"`
	Topic              string                  `json:"topic"`
	Domain             Domain                  `json:"domain"`
	Channel            Channel                 `json:"channel"`
	Issues             []Issue                 `json:"issues,omitempty"`
	UserIssues         []Issue                 `json:"user_issues,omitempty"`
	CounterpartyIssues []Issue                 `json:"counterparty_issues,omitempty"`
	Objectives         Objectives              `json:"objectives"`
	Parameters         []Parameter             `json:"parameters,omitempty"`
	Assumptions        CounterpartyAssumptions `json:"counterparty_assumptions,omitempty"`
	Clarifications     []Clarification         `json:"clarifications,omitempty"`
	StrategyPool       []string                `json:"strategy_pool,omitempty"`
}

// IssuesFor returns the issue frame visible to the given role, falling back
// to the shared issue list when no per-party override exists.
func (c *CaseSnapshot) IssuesFor(role Role) []Issue {
	switch role {
	case RoleUser:
		if len(c.UserIssues) > 0 {
			return c.UserIssues
		}
	case RoleCounterparty:
		if len(c.CounterpartyIssues) > 0 {
			return c.CounterpartyIssues
		}
	}
	return c.Issues
}

// PrimaryIssue returns the user issue with the highest objective weight, or
// nil when the case declares no issues.
func (c *CaseSnapshot) PrimaryIssue() *Issue {
	issues := c.IssuesFor(RoleUser)
	if len(issues) == 0 {
		return nil
	}
	best := 0
	bestWeight := c.Objectives.IssueWeights[issues[0].IssueID]
	for i := 1; i < len(issues); i++ {
		if w := c.Objectives.IssueWeights[issues[i].IssueID]; w > bestWeight {
			best, bestWeight = i, w
		}
	}
	return &issues[best]
}

// Clone returns a deep copy of the snapshot safe for independent mutation.
func (c *CaseSnapshot) Clone() *CaseSnapshot {
	clone := *c
	clone.Issues = append([]Issue(nil), c.Issues...)
	clone.UserIssues = append([]Issue(nil), c.UserIssues...)
	clone.CounterpartyIssues = append([]Issue(nil), c.CounterpartyIssues...)
	clone.Parameters = append([]Parameter(nil), c.Parameters...)
	clone.Clarifications = append([]Clarification(nil), c.Clarifications...)
	clone.StrategyPool = append([]string(nil), c.StrategyPool...)
	clone.Assumptions.PersonaDistribution = append([]PersonaWeight(nil), c.Assumptions.PersonaDistribution...)
	if c.Assumptions.Calibration != nil {
		clone.Assumptions.Calibration = make(map[string]string, len(c.Assumptions.Calibration))
		for k, v := range c.Assumptions.Calibration {
			clone.Assumptions.Calibration[k] = v
		}
	}
	if c.Objectives.IssueWeights != nil {
		clone.Objectives.IssueWeights = make(map[string]float64, len(c.Objectives.IssueWeights))
		for k, v := range c.Objectives.IssueWeights {
			clone.Objectives.IssueWeights[k] = v
		}
	}
	return &clone
}
