// Package utils contains general helpers shared across the documentation generator.
package utils

import (
	"strings"
)

// DeduplicatePatterns removes duplicate patterns from a slice while preserving order.
// The first occurrence of each unique pattern is kept.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if _, exists := encounteredPatterns[pattern]; !exists {
			encounteredPatterns[pattern] = struct{}{}
			result = append(result, pattern)
		}
	}
	return result
}

// MergePatterns concatenates pattern groups, dropping blanks and duplicates.
func MergePatterns(groups ...[]string) []string {
	var combined []string
	for _, group := range groups {
		for _, pattern := range group {
			trimmedPattern := strings.TrimSpace(pattern)
			if trimmedPattern == "" {
				continue
			}
			combined = append(combined, trimmedPattern)
		}
	}
	return DeduplicatePatterns(combined)
}
