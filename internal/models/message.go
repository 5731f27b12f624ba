package models

// Message is a chat message as supplied by the message-source glue.
// TS is the platform timestamp: numeric seconds, decimals allowed
// (e.g. "1700000000.000100").
type Message struct {
	Text    string `json:"text"`
	User    string `json:"user"`
	Channel string `json:"channel"`
	TS      string `json:"ts"`
}

// CandidateIssue is detector output prior to persistence: all issue
// fields except identity and lifecycle metadata.
type CandidateIssue struct {
	Title        string        `json:"title"`
	OriginalText string        `json:"original_text"`
	Channel      string        `json:"channel"`
	Reporter     string        `json:"reporter"`
	Timestamp    string        `json:"timestamp"`
	MessageTS    string        `json:"message_ts"`
	Types        []IssueType   `json:"types"`
	Priority     IssuePriority `json:"priority"`
	Tags         []IssueType   `json:"tags"`
}
