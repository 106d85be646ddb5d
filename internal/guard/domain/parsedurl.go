package domain

// ParsedURL is the normalized view of a candidate URL. Host, Path and Query
// are lower-cased; Raw is the input exactly as the caller supplied it.
// The derived fields are computed once by the normalizer.
type ParsedURL struct {
	Host  string // canonical host, no port, no trailing dot
	Path  string // escaped path, "/" when empty
	Query string // "?" + raw query, or empty
	Raw   string

	Labels      []string // Host split on dots
	TLD         string   // last label when Host has at least two labels
	IsIPLiteral bool     // exactly four all-digit labels
	Apex        string   // public-suffix registrable domain, diagnostics only
	UnicodeHost string   // IDNA display form of Host, diagnostics only
}

// Target returns the searchable path+query string.
func (p ParsedURL) Target() string {
	return p.Path + p.Query
}

// Depth returns the number of dot-separated labels in Host.
func (p ParsedURL) Depth() int {
	return len(p.Labels)
}
