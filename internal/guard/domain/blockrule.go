package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// BlockRuleKind selects how a blocklist entry matches hosts. Exact entries
// cover the name and its "www." form; suffix entries cover the name and
// every subdomain below it.
type BlockRuleKind uint8

const (
	BlockRuleExact BlockRuleKind = iota
	BlockRuleSuffix
)

var kindNames = [...]string{
	BlockRuleExact:  "exact",
	BlockRuleSuffix: "suffix",
}

func (k BlockRuleKind) valid() bool { return int(k) < len(kindNames) }

func (k BlockRuleKind) String() string {
	if k.valid() {
		return kindNames[k]
	}
	return fmt.Sprintf("BlockRuleKind(%d)", k)
}

// ParseBlockRuleKind is the inverse of String, ignoring case and surrounding
// space.
func ParseBlockRuleKind(s string) (BlockRuleKind, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == want {
			return BlockRuleKind(k), nil
		}
	}
	return 0, fmt.Errorf("unsupported BlockRuleKind: %q", s)
}

var (
	errRuleNoName   = errors.New("rule name must not be empty")
	errRuleNoSource = errors.New("rule source must not be empty")
	errRuleNoTime   = errors.New("rule addedAt must be set")
)

// BlockRule is one known-malicious host entry. Name is canonical: lower
// case, no trailing dot.
type BlockRule struct {
	Name    string
	Kind    BlockRuleKind
	Source  string    // "builtin", a reference file or a list file path
	AddedAt time.Time // when the entry was ingested
}

func NewBlockRule(name string, kind BlockRuleKind, source string, addedAt time.Time) (BlockRule, error) {
	r := BlockRule{Name: strings.TrimSpace(name), Kind: kind, Source: strings.TrimSpace(source), AddedAt: addedAt}
	if err := r.Validate(); err != nil {
		return BlockRule{}, err
	}
	return r, nil
}

func NewExactBlockRule(name, source string, addedAt time.Time) (BlockRule, error) {
	return NewBlockRule(name, BlockRuleExact, source, addedAt)
}

func NewSuffixBlockRule(name, source string, addedAt time.Time) (BlockRule, error) {
	return NewBlockRule(name, BlockRuleSuffix, source, addedAt)
}

// Validate rejects rules that could never have come out of a parser.
func (r BlockRule) Validate() error {
	switch {
	case r.Name == "":
		return errRuleNoName
	case r.Name != strings.ToLower(r.Name):
		return fmt.Errorf("rule name %q must be lower-case", r.Name)
	case r.Source == "":
		return errRuleNoSource
	case r.AddedAt.IsZero():
		return errRuleNoTime
	case !r.Kind.valid():
		return fmt.Errorf("unsupported BlockRuleKind: %d", r.Kind)
	}
	return nil
}

func (r BlockRule) IsExact() bool { return r.Kind == BlockRuleExact }
func (r BlockRule) IsSuffix() bool { return r.Kind == BlockRuleSuffix }

// Decision is the blocked verdict attributed to r.
func (r BlockRule) Decision() BlockDecision {
	return BlockDecision{Blocked: true, MatchedRule: r.Name, Source: r.Source, Kind: r.Kind}
}
