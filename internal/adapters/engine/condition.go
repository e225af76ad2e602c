package engine

import (
	"regexp"
	"strings"
)

var containsPattern = regexp.MustCompile(`^contains\(\s*'([^']*)'\s*\)$`)

// evaluateCondition interprets the rule grammar: the literal "true" always
// passes, contains('term') is a case-insensitive substring test against
// the current input text, and anything else evaluates to false.
func evaluateCondition(condition, inputText string) bool {
	condition = strings.TrimSpace(condition)
	if condition == "true" {
		return true
	}

	if match := containsPattern.FindStringSubmatch(condition); match != nil {
		term := strings.ToLower(match[1])
		return term != "" && strings.Contains(strings.ToLower(inputText), term)
	}

	return false
}
