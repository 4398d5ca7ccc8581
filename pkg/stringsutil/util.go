// Package stringsutil holds small string-slice helpers shared by the config
// layers.
package stringsutil

import "strings"

// RemoveEmptyStrings drops empty elements, preserving order.
func RemoveEmptyStrings(slice []string) []string {
	var result []string
	for _, s := range slice {
		if s != "" {
			result = append(result, s)
		}
	}
	return result
}

// SplitCSV splits a comma-separated value, trimming whitespace and dropping
// empty elements. An empty input yields nil.
func SplitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return RemoveEmptyStrings(parts)
}
