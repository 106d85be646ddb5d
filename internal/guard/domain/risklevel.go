package domain

import (
	"fmt"
	"strings"
)

// RiskLevel is the engine's discrete decision for a URL.
type RiskLevel uint8

const (
	// RiskOK means no action is needed.
	RiskOK RiskLevel = iota
	// RiskWarn asks the caller to show a non-blocking advisory.
	RiskWarn
	// RiskBlock asks the caller to show a blocking interstitial.
	RiskBlock
)

// String returns the wire name of the level.
func (l RiskLevel) String() string {
	switch l {
	case RiskOK:
		return "ok"
	case RiskWarn:
		return "warn"
	case RiskBlock:
		return "block"
	default:
		return fmt.Sprintf("RiskLevel(%d)", l)
	}
}

// IsValid reports whether l is one of the defined levels.
func (l RiskLevel) IsValid() bool { return l <= RiskBlock }

// ParseRiskLevel converts "ok", "warn" or "block" (case-insensitive) into a RiskLevel.
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ok":
		return RiskOK, nil
	case "warn":
		return RiskWarn, nil
	case "block":
		return RiskBlock, nil
	default:
		return 0, fmt.Errorf("unsupported RiskLevel: %q", s)
	}
}

// MarshalText renders the level by name.
func (l RiskLevel) MarshalText() ([]byte, error) {
	if !l.IsValid() {
		return nil, fmt.Errorf("invalid RiskLevel: %d", l)
	}
	return []byte(l.String()), nil
}

// UnmarshalText parses a level name.
func (l *RiskLevel) UnmarshalText(b []byte) error {
	v, err := ParseRiskLevel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}
