// pdp/model/decision.go
package model

// CheckOutcome is the tagged result of one step in a precedence chain.
type CheckOutcome int

const (
	// OutcomeFallthrough defers to the next step in the chain.
	OutcomeFallthrough CheckOutcome = iota
	// OutcomeGranted short-circuits the chain with access allowed.
	OutcomeGranted
	// OutcomeSilentDeny short-circuits with "return placeholder data": the
	// caller gets false without a security failure.
	OutcomeSilentDeny
)

func (o CheckOutcome) String() string {
	switch o {
	case OutcomeGranted:
		return "granted"
	case OutcomeSilentDeny:
		return "silent_deny"
	default:
		return "fallthrough"
	}
}

// AccessDecision is the service-level record of a completed check, consumed
// by the audit trail and the HTTP surface.
type AccessDecision struct {
	Check          string `json:"check"`
	Granted        bool   `json:"granted"`
	Silent         bool   `json:"silent,omitempty"`
	SubscriptionID int    `json:"subscription_id,omitempty"`
	Reason         string `json:"reason,omitempty"`
}
