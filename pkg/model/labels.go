package model

import (
	"strings"
	"unicode"
)

// DefaultLabeler converts a payload name such as "duration_minutes" or
// "assistantName" into a label ("Duration Minutes", "Assistant Name").
func DefaultLabeler(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})
	parts := make([]string, 0, len(words))
	for _, word := range words {
		for _, piece := range splitCamel(word) {
			parts = append(parts, titleCase(piece))
		}
	}
	return strings.Join(parts, " ")
}

func splitCamel(word string) []string {
	runes := []rune(word)
	var (
		out   []string
		start int
	)
	for i := 1; i < len(runes); i++ {
		if unicode.IsLower(runes[i-1]) && unicode.IsUpper(runes[i]) {
			out = append(out, string(runes[start:i]))
			start = i
		}
	}
	return append(out, string(runes[start:]))
}

func titleCase(word string) string {
	if word == "" {
		return ""
	}
	lower := []rune(strings.ToLower(word))
	lower[0] = unicode.ToUpper(lower[0])
	return string(lower)
}
