package engine

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"

	"github.com/haukened/crypto-guard/internal/guard/common/utils"
	"github.com/haukened/crypto-guard/internal/guard/domain"
)

// ErrUnparseable is the sentinel behind every ParseError.
var ErrUnparseable = errors.New("url is not a well-formed absolute URL")

// ParseError reports why a raw URL could not be normalized.
type ParseError struct {
	Raw    string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %q: %s: %v", e.Raw, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse %q: %s", e.Raw, e.Reason)
}

// Is makes errors.Is(err, ErrUnparseable) hold for every ParseError.
func (e *ParseError) Is(target error) bool { return target == ErrUnparseable }

func (e *ParseError) Unwrap() error { return e.Err }

// Parse normalizes raw into a ParsedURL. It is purely syntactic: no DNS, no
// network. Only absolute URLs with a scheme and a host are accepted.
func Parse(raw string) (domain.ParsedURL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return domain.ParsedURL{}, &ParseError{Raw: raw, Reason: "malformed", Err: err}
	}
	if u.Scheme == "" {
		return domain.ParsedURL{}, &ParseError{Raw: raw, Reason: "missing scheme"}
	}
	if u.Opaque != "" {
		return domain.ParsedURL{}, &ParseError{Raw: raw, Reason: "not a hierarchical URL"}
	}

	if !utf8.ValidString(u.Hostname()) {
		return domain.ParsedURL{}, &ParseError{Raw: raw, Reason: "host is not valid UTF-8"}
	}
	host := utils.CanonicalHost(u.Hostname())
	if host == "" {
		return domain.ParsedURL{}, &ParseError{Raw: raw, Reason: "missing host"}
	}
	if !isASCII(host) {
		// Browsers navigate to the punycode form; evaluate that.
		ascii, err := idna.Punycode.ToASCII(host)
		if err != nil || ascii == "" {
			return domain.ParsedURL{}, &ParseError{Raw: raw, Reason: "invalid internationalized host", Err: err}
		}
		host = strings.ToLower(ascii)
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	query := ""
	if u.RawQuery != "" {
		query = "?" + u.RawQuery
	}

	labels := strings.Split(host, ".")
	p := domain.ParsedURL{
		Host:        host,
		Path:        strings.ToLower(path),
		Query:       strings.ToLower(query),
		Raw:         raw,
		Labels:      labels,
		IsIPLiteral: isIPv4Literal(labels),
		UnicodeHost: host,
	}
	if len(labels) >= 2 {
		p.TLD = labels[len(labels)-1]
	}
	if !p.IsIPLiteral {
		p.Apex = utils.GetApexDomain(host)
	}
	if strings.Contains(host, "xn--") {
		if uni, err := idna.Punycode.ToUnicode(host); err == nil {
			p.UnicodeHost = uni
		}
	}
	return p, nil
}

// isIPv4Literal reports exactly four labels made only of digits.
func isIPv4Literal(labels []string) bool {
	if len(labels) != 4 {
		return false
	}
	for _, l := range labels {
		if l == "" {
			return false
		}
		for i := 0; i < len(l); i++ {
			if l[i] < '0' || l[i] > '9' {
				return false
			}
		}
	}
	return true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
