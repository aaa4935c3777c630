// api/audit/model.go
package audit

import "time"

// AccessLog records one completed access decision.
type AccessLog struct {
	Timestamp      time.Time `json:"timestamp"`
	UID            int       `json:"uid"`
	PID            int       `json:"pid"`
	Package        string    `json:"package,omitempty"`
	SubscriptionID int       `json:"subscription_id,omitempty"`
	Check          string    `json:"check"`
	Granted        bool      `json:"granted"`
	Silent         bool      `json:"silent,omitempty"`
}

// FactChange records a mutation of the fact store: grants, app-op modes,
// subscription state.
type FactChange struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	Key       string    `json:"key"`
	Detail    string    `json:"detail,omitempty"`
}
