package tasks

import (
	"strings"
	"unicode/utf8"

	"taskflow/models"
)

const maxTagLength = 50

// NormalizeTags trims each name, drops empties and collapses duplicates
// keeping the first occurrence. Case is preserved.
func NormalizeTags(names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if utf8.RuneCountInString(n) > maxTagLength {
			return nil, models.ValidationError("Tag names must be at most %d characters", maxTagLength)
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out, nil
}
