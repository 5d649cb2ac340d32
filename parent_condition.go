package flagkit

import "github.com/flagkit/flagkit/internal/condition"

// Prerequisite gates a rule or feature on another feature's value
// (spec §3, §4.4). Gate true turns a mismatch into a blocking
// feature-level failure; gate false is a local rule skip.
type Prerequisite struct {
	ID        string         `json:"id"`
	Condition condition.Base `json:"condition"`
	Gate      bool           `json:"gate"`
}
