package manifest

import "strings"

// NormalizeSuffix makes sure a suffix starts with ".", so "pdf" and ".pdf"
// select the same links.
func NormalizeSuffix(s string) string {
	if strings.HasPrefix(s, ".") {
		return s
	}
	return "." + s
}

// NormalizeSuffixes normalizes every suffix, keeping order and duplicates.
func NormalizeSuffixes(suffixes []string) []string {
	out := make([]string, len(suffixes))
	for i, s := range suffixes {
		out[i] = NormalizeSuffix(s)
	}
	return out
}
