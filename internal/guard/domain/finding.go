package domain

// CheckID identifies one heuristic in the rule battery.
type CheckID string

const (
	CheckPunycode       CheckID = "punycode"
	CheckBrandLookalike CheckID = "brand_lookalike"
	CheckSuspiciousTLD  CheckID = "suspicious_tld"
	CheckDeepSubdomain  CheckID = "deep_subdomain"
	CheckIPLiteral      CheckID = "ip_literal"
	CheckHostKeyword    CheckID = "host_keyword"
	CheckPathKeyword    CheckID = "path_keyword"
	CheckAtSign         CheckID = "at_sign"
)

// Finding is one heuristic's contribution to the risk score.
type Finding struct {
	Check  CheckID `json:"check"`
	Weight int     `json:"weight"`
	Reason string  `json:"reason"`
}

// Reasons returns the reasons of findings in order.
func Reasons(findings []Finding) []string {
	out := make([]string, 0, len(findings))
	for _, f := range findings {
		out = append(out, f.Reason)
	}
	return out
}
