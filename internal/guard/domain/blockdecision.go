package domain

// BlockDecision is the blocklist's answer for one host. The zero value
// means no rule matched.
type BlockDecision struct {
	Blocked     bool
	MatchedRule string
	Source      string
	Kind        BlockRuleKind
}

func (d BlockDecision) IsBlocked() bool { return d.Blocked }

// EmptyDecision is the not-blocked answer.
func EmptyDecision() BlockDecision { return BlockDecision{} }
