package models

import "time"

// IssueStatus represents the lifecycle state of an issue.
type IssueStatus string

const (
	IssueStatusOpen          IssueStatus = "open"
	IssueStatusInvestigating IssueStatus = "investigating"
	IssueStatusResolved      IssueStatus = "resolved"
	IssueStatusClosed        IssueStatus = "closed"
)

// Statuses lists all issue statuses in workflow order.
func Statuses() []IssueStatus {
	return []IssueStatus{IssueStatusOpen, IssueStatusInvestigating, IssueStatusResolved, IssueStatusClosed}
}

// ParseStatus validates a status string, reporting whether it names a
// known issue status.
func ParseStatus(s string) (IssueStatus, bool) {
	for _, status := range Statuses() {
		if IssueStatus(s) == status {
			return status, true
		}
	}
	return "", false
}

// IssuePriority represents the urgency of an issue.
type IssuePriority string

const (
	IssuePriorityCritical IssuePriority = "critical"
	IssuePriorityHigh     IssuePriority = "high"
	IssuePriorityMedium   IssuePriority = "medium"
	IssuePriorityLow      IssuePriority = "low"
)

// Priorities lists all priorities from most to least severe.
func Priorities() []IssuePriority {
	return []IssuePriority{IssuePriorityCritical, IssuePriorityHigh, IssuePriorityMedium, IssuePriorityLow}
}

// IssueType is a keyword-detected classification tag. Tags are additive:
// a single message may carry any number of them.
type IssueType string

const (
	IssueTypeBug         IssueType = "bug"
	IssueTypeFailure     IssueType = "failure"
	IssueTypeProblem     IssueType = "problem"
	IssueTypeMalfunction IssueType = "malfunction"
	IssueTypePerformance IssueType = "performance"
	IssueTypeCritical    IssueType = "critical"
	IssueTypeRegression  IssueType = "regression"
	IssueTypeHardware    IssueType = "hardware"
	IssueTypeFirmware    IssueType = "firmware"
)

// StatusChange is one entry in an issue's append-only status history.
// PreviousStatus is empty on the seed entry written at creation.
type StatusChange struct {
	Status         IssueStatus `json:"status"`
	Timestamp      time.Time   `json:"timestamp"`
	User           string      `json:"user"`
	PreviousStatus IssueStatus `json:"previous_status,omitempty"`
}

// RelatedMessage is a follow-up message attached to an issue thread.
type RelatedMessage struct {
	Text      string    `json:"text"`
	User      string    `json:"user"`
	Channel   string    `json:"channel"`
	Timestamp string    `json:"timestamp"`
	MessageTS string    `json:"message_ts"`
	AddedAt   time.Time `json:"added_at"`
}

// Issue is a tracked technical issue derived from a chat message.
// Its ID is a content fingerprint, so re-creating an issue from an
// identical message silently replaces the existing record.
type Issue struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	OriginalText    string           `json:"original_text"`
	Channel         string           `json:"channel"`
	Reporter        string           `json:"reporter"`
	Timestamp       string           `json:"timestamp"`
	MessageTS       string           `json:"message_ts"`
	Status          IssueStatus      `json:"status"`
	Priority        IssuePriority    `json:"priority"`
	Tags            []IssueType      `json:"tags"`
	RelatedMessages []RelatedMessage `json:"related_messages"`
	StatusHistory   []StatusChange   `json:"status_history"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Stats aggregates a user's issue set.
type Stats struct {
	Total          int                   `json:"total"`
	Open           int                   `json:"open"`
	Investigating  int                   `json:"investigating"`
	Resolved       int                   `json:"resolved"`
	Closed         int                   `json:"closed"`
	ByPriority     map[IssuePriority]int `json:"by_priority"`
	RecentActivity int                   `json:"recent_activity"`
}
