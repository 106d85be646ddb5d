package engine

import "github.com/haukened/crypto-guard/internal/guard/domain"

const (
	reasonKnownMalicious = "Known malicious domain"
	reasonHighRisk       = "High-risk phishing indicators detected"
	reasonSuspicious     = "Suspicious indicators detected"
	reasonClean          = "No strong phishing indicators found"
	reasonUnparseable    = "Could not safely parse URL"

	detailBlocklisted = "Domain appears on Crypto Guard blocklist"
	detailInvalidURL  = "URL structure is invalid"
)

// Decide maps an Evaluation to a RiskResult. A hard block wins over any
// score; otherwise the score is compared against th.Block, then th.Warn.
func Decide(ev Evaluation, th Thresholds) domain.RiskResult {
	res := domain.RiskResult{
		Host:     ev.Host,
		Score:    ev.Score,
		Findings: ev.Findings,
	}
	switch {
	case ev.HardBlocked:
		res.Level = domain.RiskBlock
		res.Reason = ev.HardBlockReason
		if res.Reason == "" {
			res.Reason = reasonKnownMalicious
		}
		res.Details = []string{detailBlocklisted}
	case ev.Score >= th.Block:
		res.Level = domain.RiskBlock
		res.Reason = reasonHighRisk
		res.Details = domain.Reasons(ev.Findings)
	case ev.Score >= th.Warn:
		res.Level = domain.RiskWarn
		res.Reason = reasonSuspicious
		res.Details = domain.Reasons(ev.Findings)
	default:
		res.Level = domain.RiskOK
		res.Reason = reasonClean
		res.Details = []string{}
	}
	return res
}

// DecideUnparseable is the result for input the normalizer rejected.
func DecideUnparseable() domain.RiskResult {
	return domain.RiskResult{
		Level:   domain.RiskWarn,
		Reason:  reasonUnparseable,
		Details: []string{detailInvalidURL},
	}
}
