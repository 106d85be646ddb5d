package parsers

import (
	"io"
	"strings"
	"time"

	logpkg "github.com/haukened/crypto-guard/internal/guard/common/log"
	"github.com/haukened/crypto-guard/internal/guard/domain"
)

// ParseHostsFile reads a hosts-format blocklist ("0.0.0.0 evil.example
// other.example") and emits an exact rule for every name after the address.
// Wildcards and names with a leading dot have no meaning in a hosts file and
// are skipped.
func ParseHostsFile(r io.Reader, source string, logger logpkg.Logger, now time.Time) ([]domain.BlockRule, error) {
	sink := newRuleSink(source, now, logger)
	err := eachLine(r, func(n int, text string) {
		names := strings.Fields(text)[1:]
		for _, raw := range names {
			if raw[0] == '.' || strings.ContainsRune(raw, '*') {
				logger.Debug(map[string]any{"line": n, "raw": raw}, "hosts_skip_pattern")
				continue
			}
			sink.add(n, raw, domain.BlockRuleExact)
		}
	})
	if err != nil {
		logger.Warn(map[string]any{"source": source, "error": err.Error()}, "hosts_read_failed")
		return nil, err
	}
	logger.Debug(map[string]any{"source": source, "count": len(sink.out)}, "hosts_parsed")
	return sink.out, nil
}
