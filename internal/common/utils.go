package common

import "strings"

// FirstNonEmpty returns the first value that is not blank after trimming.
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// JoinNonEmpty joins the non-blank values with sep, skipping a value equal to
// the one before it.
func JoinNonEmpty(sep string, vals ...string) string {
	parts := make([]string, 0, len(vals))
	for _, v := range vals {
		s := strings.TrimSpace(v)
		if s == "" || (len(parts) > 0 && parts[len(parts)-1] == s) {
			continue
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, sep)
}
