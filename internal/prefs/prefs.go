// Package prefs manages per-user digest preferences: a custom system
// prompt for the summarizer, custom filter keywords, and the default
// look-back window.
package prefs

import (
	"log/slog"

	"digest/internal/store"
)

// DefaultHours is the look-back window used when a user has not set one.
const DefaultHours = 24

// Manager reads and writes scalar user preferences on the file store.
type Manager struct {
	store *store.FileStore
	log   *slog.Logger
}

// New creates a Manager. A nil logger falls back to slog.Default.
func New(s *store.FileStore, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: s, log: logger}
}

func (m *Manager) persist() {
	if err := m.store.Save(); err != nil {
		m.log.Warn("could not save preferences", "path", m.store.Path(), "error", err)
	}
}

// SetPrompt stores a custom summarizer prompt for the user.
func (m *Manager) SetPrompt(user, prompt string) {
	m.store.User(user).CustomPrompt = prompt
	m.persist()
}

// Prompt returns the user's custom prompt, empty if unset.
func (m *Manager) Prompt(user string) string {
	return m.store.User(user).CustomPrompt
}

// SetKeywords stores the user's digest filter keywords.
func (m *Manager) SetKeywords(user string, keywords []string) {
	m.store.User(user).Keywords = keywords
	m.persist()
}

// Keywords returns the user's filter keywords, nil if unset.
func (m *Manager) Keywords(user string) []string {
	return m.store.User(user).Keywords
}

// SetHours stores the user's default look-back window.
func (m *Manager) SetHours(user string, hours int) {
	m.store.User(user).DefaultHours = hours
	m.persist()
}

// Hours returns the user's look-back window, DefaultHours if unset.
func (m *Manager) Hours(user string) int {
	if h := m.store.User(user).DefaultHours; h > 0 {
		return h
	}
	return DefaultHours
}

// Clear drops every stored setting for the user, projects and issues
// included.
func (m *Manager) Clear(user string) {
	m.store.Reset(user)
	m.persist()
}
