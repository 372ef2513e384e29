// Package strings holds small string helpers shared by config parsing.
package strings

import (
	"strings"
)

// SplitList splits a separated list such as "a, b,,a" into its distinct,
// trimmed, non-empty elements in first-seen order. An empty input yields nil.
func SplitList(s, sep string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return dedupeAndTrim(strings.Split(s, sep))
}

func dedupeAndTrim(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
