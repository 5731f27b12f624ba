package detect

import "digest/internal/models"

// Detect scans a batch of messages and returns a candidate issue for
// every message whose text matches at least one issue-keyword family.
// Candidates come back in input order. This is a pure transform:
// persisting candidates is the caller's job.
func Detect(messages []models.Message) []models.CandidateIssue {
	var candidates []models.CandidateIssue

	for _, msg := range messages {
		types := Classify(msg.Text)
		if len(types) == 0 {
			continue
		}

		candidates = append(candidates, models.CandidateIssue{
			Title:        Title(msg.Text, DefaultTitleLength),
			OriginalText: msg.Text,
			Channel:      msg.Channel,
			Reporter:     msg.User,
			Timestamp:    msg.TS,
			MessageTS:    msg.TS,
			Types:        types,
			Priority:     Priority(msg.Text),
			Tags:         types,
		})
	}
	return candidates
}
