// Package detect classifies chat messages as technical issues using
// fixed keyword heuristics. All functions are pure and total: any
// string in, including empty, yields a result without error.
package detect

import (
	"strings"

	"digest/internal/models"
)

// patternFamily binds one issue type to its trigger substrings.
// Families are independent: a message can match any number of them.
type patternFamily struct {
	issueType models.IssueType
	patterns  []string
}

// issuePatterns is checked in order so detected tags come out in a
// stable sequence. Patterns are matched case-insensitively as plain
// substrings.
var issuePatterns = []patternFamily{
	{models.IssueTypeBug, []string{"bug", "bugs", "buggy", "defect", "error", "broken"}},
	{models.IssueTypeFailure, []string{"failure", "failed", "failing", "fails", "crash", "crashed", "crashing"}},
	{models.IssueTypeProblem, []string{"problem", "problems", "issue", "issues", "trouble", "wrong"}},
	{models.IssueTypeMalfunction, []string{"malfunction", "not working", "doesn't work", "stopped working"}},
	{models.IssueTypePerformance, []string{"slow", "performance", "lag", "timeout", "bottleneck"}},
	{models.IssueTypeCritical, []string{"critical", "urgent", "emergency", "blocker", "show-stopper", "showstopper"}},
	{models.IssueTypeRegression, []string{"regression", "broke", "used to work", "was working"}},
	{models.IssueTypeHardware, []string{"hardware issue", "pcb", "component failure", "short circuit", "thermal"}},
	{models.IssueTypeFirmware, []string{"firmware bug", "software issue", "code problem", "logic error"}},
}

// Classify returns the issue-type tags whose keyword family matches the
// text. Returns nil when nothing matches.
func Classify(text string) []models.IssueType {
	lower := strings.ToLower(text)

	var detected []models.IssueType
	for _, family := range issuePatterns {
		for _, p := range family.patterns {
			if strings.Contains(lower, p) {
				detected = append(detected, family.issueType)
				break
			}
		}
	}
	return detected
}
