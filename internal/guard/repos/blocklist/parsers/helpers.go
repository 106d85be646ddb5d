package parsers

import (
	"bufio"
	"io"
	"strings"
	"time"
	"unicode"

	logpkg "github.com/haukened/crypto-guard/internal/guard/common/log"
	"github.com/haukened/crypto-guard/internal/guard/common/utils"
	"github.com/haukened/crypto-guard/internal/guard/domain"
)

// ruleKindFromRaw decides the BlockRuleKind based on the raw, uncanonicalized input.
// Returns BlockRuleSuffix if the name begins with "*." or ".", otherwise BlockRuleExact.
func ruleKindFromRaw(raw string) domain.BlockRuleKind {
	if strings.HasPrefix(raw, "*.") || strings.HasPrefix(raw, ".") {
		return domain.BlockRuleSuffix
	}
	return domain.BlockRuleExact
}

// isValidHostname checks whether name can be a blocklist entry:
//   - at most 253 characters
//   - at least two labels
//   - every label between 1 and 63 characters
//   - the first label starts with a letter or digit
func isValidHostname(name string) bool {
	if len(name) == 0 || len(name) > 253 {
		return false
	}
	labels := strings.Split(name, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if len(label) > 63 || len(label) == 0 {
			return false
		}
	}
	r := []rune(labels[0])
	return isAlphaNumeric(r[0])
}

// normalizeHostname trims whitespace, removes any leading "*." or "."
// marker and returns the canonical host.
func normalizeHostname(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "*.")
	name = strings.TrimPrefix(name, ".")
	return utils.CanonicalHost(name)
}

func isAlphaNumeric(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// eachLine calls fn with the 1-based number and comment-free, trimmed text
// of every line that carries content. A leading byte order mark is dropped.
func eachLine(r io.Reader, fn func(n int, text string)) error {
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		text := sc.Text()
		if n == 1 {
			text = strings.TrimPrefix(text, "\uFEFF")
		}
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		if text = strings.TrimSpace(text); text != "" {
			fn(n, text)
		}
	}
	return sc.Err()
}

// ruleSink de-duplicates by name and kind, preserving first-seen order.
type ruleSink struct {
	source string
	now    time.Time
	logger logpkg.Logger
	seen   map[string]struct{}
	out    []domain.BlockRule
}

func newRuleSink(source string, now time.Time, logger logpkg.Logger) *ruleSink {
	return &ruleSink{
		source: source,
		now:    now,
		logger: logger,
		seen:   make(map[string]struct{}),
		out:    make([]domain.BlockRule, 0, 64),
	}
}

// add validates and records one raw entry with the given kind.
func (s *ruleSink) add(line int, raw string, kind domain.BlockRuleKind) {
	name := normalizeHostname(raw)
	if !isValidHostname(name) {
		s.logger.Debug(map[string]any{"line": line, "raw": raw, "name": name}, "skip_invalid_hostname")
		return
	}
	key := name + "|" + kind.String()
	if _, ok := s.seen[key]; ok {
		s.logger.Debug(map[string]any{"line": line, "name": name, "kind": kind.String()}, "skip_duplicate")
		return
	}
	rule, err := domain.NewBlockRule(name, kind, s.source, s.now)
	if err != nil {
		s.logger.Debug(map[string]any{"line": line, "name": name, "kind": kind.String(), "error": err.Error()}, "skip_constructor_error")
		return
	}
	s.seen[key] = struct{}{}
	s.out = append(s.out, rule)
	s.logger.Debug(map[string]any{"line": line, "name": rule.Name, "kind": rule.Kind.String()}, "emit_rule")
}
