package utils

import "strings"

// CanonicalHost returns a hostname in canonical form:
// - Lowercased
// - Trimmed of surrounding whitespace
// - No trailing dot, so "example.com." and "example.com" compare equal.
func CanonicalHost(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ToLower(name)
	for strings.HasSuffix(name, ".") {
		name = strings.TrimSuffix(name, ".")
	}
	return name
}

// LastLabels returns the final n dot-separated labels of host joined by
// dots. Hosts with n or fewer labels are returned unchanged.
func LastLabels(host string, n int) string {
	if n <= 0 {
		return ""
	}
	labels := strings.Split(host, ".")
	if len(labels) <= n {
		return host
	}
	return strings.Join(labels[len(labels)-n:], ".")
}
