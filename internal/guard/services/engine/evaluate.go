package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/haukened/crypto-guard/internal/guard/common/utils"
	"github.com/haukened/crypto-guard/internal/guard/domain"
)

// maxLabels is the deepest host not reported as a deep subdomain structure.
const maxLabels = 3

const (
	reasonPunycode      = "Punycode / IDN domain (often used to mimic legit brands)"
	reasonBrandFormat   = "Domain looks like %s (possible typo-squat)"
	reasonTLDFormat     = "Suspicious top-level domain: .%s"
	reasonDeepSubdomain = "Unusually deep subdomain structure"
	reasonIPLiteral     = "Raw IP address used instead of normal domain"
	reasonHostKeyword   = "Suspicious marketing / promo keywords in domain name"
	reasonPathKeyword   = "Suspicious promotional / airdrop keywords in URL path"
	reasonAtSign        = `URL contains "@" which can hide the real destination`
)

// Blocklist decides whether a host is on the hard blocklist.
// *blocklist.Index satisfies it.
type Blocklist interface {
	Decide(host string) domain.BlockDecision
}

// Evaluation is the raw output of the rule battery, before mapping to a level.
type Evaluation struct {
	Host            string
	Score           int
	Findings        []domain.Finding
	HardBlocked     bool
	HardBlockReason string
	Match           domain.BlockDecision
}

// check inspects one aspect of a parsed URL. It reports at most one finding.
type check func(e *Engine, p domain.ParsedURL, raw string) (domain.Finding, bool)

// battery is the fixed evaluation order; Details follow it.
var battery = []check{
	checkPunycode,
	checkBrandLookalike,
	checkSuspiciousTLD,
	checkDeepSubdomain,
	checkIPLiteral,
	checkHostKeyword,
	checkPathKeyword,
	checkAtSign,
}

// Score runs the blocklist lookup and then the rule battery over p. raw is
// the caller's original input, needed by checks that look at characters the
// parser strips.
func (e *Engine) Score(p domain.ParsedURL, raw string) Evaluation {
	ev := Evaluation{Host: p.Host}
	if d := e.blocklist.Decide(p.Host); d.Blocked {
		ev.HardBlocked = true
		ev.HardBlockReason = reasonKnownMalicious
		ev.Match = d
		return ev
	}
	for _, c := range battery {
		f, ok := c(e, p, raw)
		if !ok {
			continue
		}
		ev.Score += f.Weight
		ev.Findings = append(ev.Findings, f)
	}
	return ev
}

func finding(id domain.CheckID, weight int, reason string) (domain.Finding, bool) {
	return domain.Finding{Check: id, Weight: weight, Reason: reason}, true
}

func checkPunycode(e *Engine, p domain.ParsedURL, _ string) (domain.Finding, bool) {
	if !strings.HasPrefix(p.Host, "xn--") {
		return domain.Finding{}, false
	}
	return finding(domain.CheckPunycode, e.scoring.Weights.Punycode, reasonPunycode)
}

func checkBrandLookalike(e *Engine, p domain.ParsedURL, _ string) (domain.Finding, bool) {
	brand, dist := e.closestBrand(p.Host)
	if dist <= 0 || dist > e.scoring.MaxBrandDistance {
		return domain.Finding{}, false
	}
	return finding(domain.CheckBrandLookalike, e.scoring.Weights.BrandLookalike, fmt.Sprintf(reasonBrandFormat, brand))
}

// closestBrand returns the brand whose last two labels are nearest to the
// host's last two labels. Ties keep the earliest brand.
func (e *Engine) closestBrand(host string) (string, int) {
	main := utils.LastLabels(host, 2)
	best, bestDist := "", math.MaxInt
	for _, b := range e.brandMains {
		d := EditDistance(main, b)
		if d < bestDist {
			best, bestDist = b, d
		}
	}
	return best, bestDist
}

func checkSuspiciousTLD(e *Engine, p domain.ParsedURL, _ string) (domain.Finding, bool) {
	if p.TLD == "" {
		return domain.Finding{}, false
	}
	if _, ok := e.tlds[p.TLD]; !ok {
		return domain.Finding{}, false
	}
	return finding(domain.CheckSuspiciousTLD, e.scoring.Weights.SuspiciousTLD, fmt.Sprintf(reasonTLDFormat, p.TLD))
}

func checkDeepSubdomain(e *Engine, p domain.ParsedURL, _ string) (domain.Finding, bool) {
	if p.Depth() <= maxLabels {
		return domain.Finding{}, false
	}
	return finding(domain.CheckDeepSubdomain, e.scoring.Weights.DeepSubdomain, reasonDeepSubdomain)
}

func checkIPLiteral(e *Engine, p domain.ParsedURL, _ string) (domain.Finding, bool) {
	if !p.IsIPLiteral {
		return domain.Finding{}, false
	}
	return finding(domain.CheckIPLiteral, e.scoring.Weights.IPLiteral, reasonIPLiteral)
}

func checkHostKeyword(e *Engine, p domain.ParsedURL, _ string) (domain.Finding, bool) {
	if !containsAny(p.Host, e.ref.HostKeywords) {
		return domain.Finding{}, false
	}
	return finding(domain.CheckHostKeyword, e.scoring.Weights.HostKeyword, reasonHostKeyword)
}

func checkPathKeyword(e *Engine, p domain.ParsedURL, _ string) (domain.Finding, bool) {
	if !containsAny(p.Target(), e.ref.PathKeywords) {
		return domain.Finding{}, false
	}
	return finding(domain.CheckPathKeyword, e.scoring.Weights.PathKeyword, reasonPathKeyword)
}

func checkAtSign(e *Engine, p domain.ParsedURL, raw string) (domain.Finding, bool) {
	if !strings.Contains(raw, "@") {
		return domain.Finding{}, false
	}
	for _, b := range e.ref.Brands {
		if strings.HasSuffix(p.Host, b) {
			return domain.Finding{}, false
		}
	}
	return finding(domain.CheckAtSign, e.scoring.Weights.AtSign, reasonAtSign)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
