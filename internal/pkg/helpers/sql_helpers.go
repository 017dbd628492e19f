package helpers

import "strings"

// NullableString trims s and returns nil when nothing is left,
// so empty form fields are stored as NULL.
func NullableString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// LikePattern escapes LIKE wildcards in a user search term and wraps it in %...%
func LikePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(term)) + "%"
}
