package domain

// RiskResult is the engine's sole output.
//
// Level, Reason and Details form the contract consumed by callers. Host,
// Score and Findings are diagnostics: Findings may be non-empty even when
// Level is RiskOK, while Details is always empty at that level.
type RiskResult struct {
	Level   RiskLevel `json:"level"`
	Reason  string    `json:"reason"`
	Details []string  `json:"details"`

	Host     string    `json:"host,omitempty"`
	Score    int       `json:"score"`
	Findings []Finding `json:"findings,omitempty"`
}

// IsBlocked reports whether the caller must interpose a blocking page.
func (r RiskResult) IsBlocked() bool { return r.Level == RiskBlock }
