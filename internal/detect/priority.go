package detect

import (
	"strings"

	"digest/internal/models"
)

// Keyword families for priority extraction, most severe first. The
// first family with a match wins, so "critical but low impact" still
// resolves to critical.
var (
	criticalWords = []string{"critical", "urgent", "emergency", "blocker", "show-stopper", "showstopper"}
	highWords     = []string{"high", "important", "asap", "priority"}
	lowWords      = []string{"low", "minor", "cosmetic", "nice to have"}
)

// Priority infers the priority level from message text.
// Defaults to medium when no signal word is present.
func Priority(text string) models.IssuePriority {
	lower := strings.ToLower(text)

	if containsAny(lower, criticalWords) {
		return models.IssuePriorityCritical
	}
	if containsAny(lower, highWords) {
		return models.IssuePriorityHigh
	}
	if containsAny(lower, lowWords) {
		return models.IssuePriorityLow
	}
	return models.IssuePriorityMedium
}

func containsAny(lower string, words []string) bool {
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
