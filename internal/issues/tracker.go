// Package issues manages the lifecycle of tracked issues: creation
// from detector candidates, status transitions with full history,
// related-message threads, search, and aggregate statistics.
package issues

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"digest/internal/models"
	"digest/internal/store"
)

// Tracker owns all per-user issue operations on top of the file store.
// Every mutation ends with a best-effort save.
type Tracker struct {
	store *store.FileStore
	log   *slog.Logger
	now   func() time.Time
}

// New creates a Tracker. A nil logger falls back to slog.Default.
func New(s *store.FileStore, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{store: s, log: logger, now: time.Now}
}

// persist saves the store, logging (not returning) any failure. The
// in-memory state stays authoritative until the next successful save.
func (t *Tracker) persist() {
	if err := t.store.Save(); err != nil {
		t.log.Warn("could not save issues", "path", t.store.Path(), "error", err)
	}
}

// Create records a new issue from a detector candidate and returns its
// fingerprint id. An existing issue with the same fingerprint is
// silently replaced, history included.
func (t *Tracker) Create(user string, c models.CandidateIssue) string {
	u := t.store.User(user)
	if u.Issues == nil {
		u.Issues = make(map[string]*models.Issue)
	}

	id := store.Fingerprint(c.OriginalText, c.Channel, c.Timestamp)
	now := t.now()

	priority := c.Priority
	if priority == "" {
		priority = models.IssuePriorityMedium
	}
	tags := c.Tags
	if tags == nil {
		tags = []models.IssueType{}
	}

	u.Issues[id] = &models.Issue{
		ID:              id,
		Title:           c.Title,
		OriginalText:    c.OriginalText,
		Channel:         c.Channel,
		Reporter:        c.Reporter,
		Timestamp:       c.Timestamp,
		MessageTS:       c.MessageTS,
		Status:          models.IssueStatusOpen,
		Priority:        priority,
		Tags:            tags,
		RelatedMessages: []models.RelatedMessage{},
		StatusHistory: []models.StatusChange{
			{Status: models.IssueStatusOpen, Timestamp: now, User: user},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	t.persist()
	return id
}

// Get returns the issue with the given id, or false if unknown.
func (t *Tracker) Get(user, id string) (*models.Issue, bool) {
	issue, ok := t.store.User(user).Issues[id]
	return issue, ok
}

// List returns all of a user's issues keyed by id. A non-empty status
// restricts the result to issues currently in that status. The map is
// a fresh copy but the issues are the stored records themselves;
// mutate them only through Tracker methods or changes bypass the
// status history and are not persisted.
func (t *Tracker) List(user string, status models.IssueStatus) map[string]*models.Issue {
	result := make(map[string]*models.Issue)
	for id, issue := range t.store.User(user).Issues {
		if status != "" && issue.Status != status {
			continue
		}
		result[id] = issue
	}
	return result
}

// UpdateStatus moves an issue to newStatus, appending a history entry
// that records who made the change and what the previous status was.
// Transitions are unconditional; moving to the current status is still
// recorded. Returns false if the issue does not exist.
func (t *Tracker) UpdateStatus(user, id string, newStatus models.IssueStatus, updatedBy string) bool {
	issue, ok := t.store.User(user).Issues[id]
	if !ok {
		return false
	}

	if updatedBy == "" {
		updatedBy = user
	}
	now := t.now()
	previous := issue.Status

	issue.Status = newStatus
	issue.UpdatedAt = now
	issue.StatusHistory = append(issue.StatusHistory, models.StatusChange{
		Status:         newStatus,
		Timestamp:      now,
		User:           updatedBy,
		PreviousStatus: previous,
	})

	t.persist()
	return true
}

// AddRelatedMessage appends a follow-up message to an issue's thread.
// Returns false if the issue does not exist.
func (t *Tracker) AddRelatedMessage(user, id string, msg models.Message) bool {
	issue, ok := t.store.User(user).Issues[id]
	if !ok {
		return false
	}

	now := t.now()
	issue.RelatedMessages = append(issue.RelatedMessages, models.RelatedMessage{
		Text:      msg.Text,
		User:      msg.User,
		Channel:   msg.Channel,
		Timestamp: msg.TS,
		MessageTS: msg.TS,
		AddedAt:   now,
	})
	issue.UpdatedAt = now

	t.persist()
	return true
}

// Search returns issues whose title, description, or original text
// contains the query, case-insensitively. Results are ordered most
// recently updated first; ties break by issue id for determinism.
func (t *Tracker) Search(user, query string) []*models.Issue {
	q := strings.ToLower(query)

	var results []*models.Issue
	for _, issue := range t.store.User(user).Issues {
		haystack := strings.ToLower(issue.Title + " " + issue.Description + " " + issue.OriginalText)
		if strings.Contains(haystack, q) {
			results = append(results, issue)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if !results[i].UpdatedAt.Equal(results[j].UpdatedAt) {
			return results[i].UpdatedAt.After(results[j].UpdatedAt)
		}
		return results[i].ID < results[j].ID
	})
	return results
}

// Statistics aggregates a user's issues by status and priority.
// RecentActivity counts issues updated within the last 24 hours; issues
// without a usable updated_at are simply excluded from that count.
func (t *Tracker) Statistics(user string) models.Stats {
	stats := models.Stats{
		ByPriority: map[models.IssuePriority]int{
			models.IssuePriorityCritical: 0,
			models.IssuePriorityHigh:     0,
			models.IssuePriorityMedium:   0,
			models.IssuePriorityLow:      0,
		},
	}

	cutoff := t.now().Add(-24 * time.Hour)

	for _, issue := range t.store.User(user).Issues {
		stats.Total++

		switch issue.Status {
		case models.IssueStatusOpen:
			stats.Open++
		case models.IssueStatusInvestigating:
			stats.Investigating++
		case models.IssueStatusResolved:
			stats.Resolved++
		case models.IssueStatusClosed:
			stats.Closed++
		}

		if _, ok := stats.ByPriority[issue.Priority]; ok {
			stats.ByPriority[issue.Priority]++
		}

		if !issue.UpdatedAt.IsZero() && issue.UpdatedAt.After(cutoff) {
			stats.RecentActivity++
		}
	}
	return stats
}
