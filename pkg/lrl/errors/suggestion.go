package errors

import (
	"fmt"
	"strings"
)

// SuggestFieldName suggests possible condition field names when an unknown
// field is referenced. It uses Levenshtein distance to find similar names.
func SuggestFieldName(unknown string, validFields []string) string {
	if len(validFields) == 0 {
		return ""
	}

	// Find the closest match
	minDistance := 1000
	var bestMatch string

	for _, field := range validFields {
		dist := levenshteinDistance(unknown, field)
		if dist < minDistance {
			minDistance = dist
			bestMatch = field
		}
	}

	// Only suggest if the distance is reasonable (< 5 edits)
	if minDistance < 5 {
		return fmt.Sprintf("Did you mean '%s'?", bestMatch)
	}

	// If no close match, suggest a few common fields
	if len(validFields) > 5 {
		return fmt.Sprintf("Valid fields include: %s, ...", strings.Join(validFields[:5], ", "))
	}
	return fmt.Sprintf("Valid fields: %s", strings.Join(validFields, ", "))
}

// SuggestCompareOp suggests valid comparison operators for a condition field.
func SuggestCompareOp(field string) string {
	switch field {
	case "type":
		return "Valid operators for 'type': eq, ne"
	case "cond":
		return "Valid operators for 'cond': not, or, and"
	default:
		return "Valid operators: eq, ne, gt, lt, ge, le"
	}
}

// SuggestOpKind suggests valid operation names when an unknown operation
// is specified.
func SuggestOpKind(unknown string, validOps []string) string {
	if len(validOps) == 0 {
		return ""
	}

	// Find the closest match
	minDistance := 1000
	var bestMatch string

	for _, op := range validOps {
		dist := levenshteinDistance(unknown, op)
		if dist < minDistance {
			minDistance = dist
			bestMatch = op
		}
	}

	// Only suggest if the distance is reasonable
	if minDistance < 5 {
		return fmt.Sprintf("Did you mean '%s'?", bestMatch)
	}

	return fmt.Sprintf("Valid operations: %s", strings.Join(validOps, ", "))
}

// SuggestMissingKey suggests adding a required key to a rule.
func SuggestMissingKey(key string, exampleValue string) string {
	if exampleValue != "" {
		return fmt.Sprintf("Add '%s: %s' to the rule", key, exampleValue)
	}
	return fmt.Sprintf("Add '%s' key to the rule", key)
}

// levenshteinDistance computes the Levenshtein distance between two strings.
// This is used for finding similar field/operation names for suggestions.
func levenshteinDistance(s1, s2 string) int {
	if s1 == s2 {
		return 0
	}

	len1 := len(s1)
	len2 := len(s2)

	// Create distance matrix
	matrix := make([][]int, len1+1)
	for i := range matrix {
		matrix[i] = make([]int, len2+1)
	}

	// Initialize first column and row
	for i := 0; i <= len1; i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len2; j++ {
		matrix[0][j] = j
	}

	// Compute distances
	for i := 1; i <= len1; i++ {
		for j := 1; j <= len2; j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}

			matrix[i][j] = min(
				matrix[i-1][j]+1,      // Deletion
				matrix[i][j-1]+1,      // Insertion
				matrix[i-1][j-1]+cost, // Substitution
			)
		}
	}

	return matrix[len1][len2]
}
