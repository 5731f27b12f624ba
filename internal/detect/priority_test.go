package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"digest/internal/models"
)

func TestPriority(t *testing.T) {
	tests := []struct {
		text     string
		expected models.IssuePriority
	}{
		// Critical signals
		{"Critical system failure", models.IssuePriorityCritical},
		{"This is urgent, production is down", models.IssuePriorityCritical},
		{"Emergency in the lab", models.IssuePriorityCritical},
		{"Release blocker found", models.IssuePriorityCritical},
		{"That's a show-stopper", models.IssuePriorityCritical},

		// High signals
		{"High impact on customers", models.IssuePriorityHigh},
		{"Important: the build is red", models.IssuePriorityHigh},
		{"Need this fixed asap", models.IssuePriorityHigh},

		// Low signals
		{"Minor cosmetic problem", models.IssuePriorityLow},
		{"Would be nice to have eventually", models.IssuePriorityLow},

		// Default
		{"Regular bug report", models.IssuePriorityMedium},
		{"The dashboard renders twice", models.IssuePriorityMedium},
		{"", models.IssuePriorityMedium},

		// Precedence: first matching family wins
		{"Critical but low impact for most users", models.IssuePriorityCritical},
		{"high priority, not urgent", models.IssuePriorityCritical},
		{"important but minor", models.IssuePriorityHigh},

		// Case insensitivity
		{"URGENT FIX NEEDED", models.IssuePriorityCritical},
		{"MINOR tweak", models.IssuePriorityLow},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.expected, Priority(tt.text))
		})
	}
}

func TestPriorityDeterministic(t *testing.T) {
	text := "urgent and minor at once"
	first := Priority(text)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Priority(text))
	}
}
