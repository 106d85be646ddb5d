package parsers

import (
	"io"
	"strings"
	"time"

	logpkg "github.com/haukened/crypto-guard/internal/guard/common/log"
	"github.com/haukened/crypto-guard/internal/guard/domain"
)

// ParsePlainList parses a newline-delimited list of hosts into BlockRule values.
// Default is exact; a leading "*." or "." marks a suffix rule.
//
// Behavior:
// - Supports comments starting with '#' (inline or whole-line)
// - Trims surrounding whitespace and removes trailing dots
// - Skips empty lines and invalid hostnames
// - De-duplicates by name and kind while preserving first-seen order
// - Each rule is attributed to source and timestamped with now
func ParsePlainList(r io.Reader, source string, logger logpkg.Logger, now time.Time) ([]domain.BlockRule, error) {
	sink := newRuleSink(source, now, logger)
	err := eachLine(r, func(n int, text string) {
		sink.add(n, text, ruleKindFromRaw(text))
	})
	if err != nil {
		logger.Warn(map[string]any{"source": source, "error": err.Error()}, "plain_list_read_failed")
		return nil, err
	}
	logger.Debug(map[string]any{"source": source, "count": len(sink.out)}, "plain_list_parsed")
	return sink.out, nil
}

// ParseEntries applies the plain-list rules to an in-memory slice, as found
// in a reference data file or the built-in table. The entry index is
// reported as the line number in debug logs.
func ParseEntries(entries []string, source string, logger logpkg.Logger, now time.Time) []domain.BlockRule {
	sink := newRuleSink(source, now, logger)
	for i, e := range entries {
		s := strings.TrimSpace(e)
		if s == "" {
			continue
		}
		sink.add(i+1, s, ruleKindFromRaw(s))
	}
	return sink.out
}
