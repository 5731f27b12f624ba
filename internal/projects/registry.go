// Package projects manages named channel/keyword groupings used to
// scope digests and issue detection.
package projects

import (
	"log/slog"
	"time"

	"digest/internal/models"
	"digest/internal/store"
)

// Registry owns all per-user project operations on top of the file
// store. Every mutation ends with a best-effort save.
type Registry struct {
	store *store.FileStore
	log   *slog.Logger
	now   func() time.Time
}

// New creates a Registry. A nil logger falls back to slog.Default.
func New(s *store.FileStore, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{store: s, log: logger, now: time.Now}
}

func (r *Registry) persist() {
	if err := r.store.Save(); err != nil {
		r.log.Warn("could not save projects", "path", r.store.Path(), "error", err)
	}
}

// Create registers a project. A project with the same name is replaced
// outright: last write wins, no merge. Channels are stored as given,
// duplicates and all; nil keywords become an empty list.
func (r *Registry) Create(user, name string, channels, keywords []string) {
	u := r.store.User(user)
	if u.Projects == nil {
		u.Projects = make(map[string]*models.Project)
	}
	if keywords == nil {
		keywords = []string{}
	}

	u.Projects[name] = &models.Project{
		Name:      name,
		Channels:  channels,
		Keywords:  keywords,
		Active:    true,
		CreatedAt: r.now(),
	}
	r.persist()
}

// Get returns the named project, or false if unknown.
func (r *Registry) Get(user, name string) (*models.Project, bool) {
	p, ok := r.store.User(user).Projects[name]
	if ok && p.Name == "" {
		p.Name = name
	}
	return p, ok
}

// List returns all of a user's projects keyed by name.
func (r *Registry) List(user string) map[string]*models.Project {
	result := make(map[string]*models.Project)
	for name, p := range r.store.User(user).Projects {
		if p.Name == "" {
			p.Name = name
		}
		result[name] = p
	}
	return result
}

// UpdateChannels replaces a project's channel list. Returns false if
// the project does not exist.
func (r *Registry) UpdateChannels(user, name string, channels []string) bool {
	p, ok := r.store.User(user).Projects[name]
	if !ok {
		return false
	}
	p.Channels = channels
	r.persist()
	return true
}

// UpdateKeywords replaces a project's keyword list. Returns false if
// the project does not exist.
func (r *Registry) UpdateKeywords(user, name string, keywords []string) bool {
	p, ok := r.store.User(user).Projects[name]
	if !ok {
		return false
	}
	p.Keywords = keywords
	r.persist()
	return true
}

// ToggleActive flips the project's active flag and returns the new
// state. The second result distinguishes "no such project" from a
// project that is now inactive.
func (r *Registry) ToggleActive(user, name string) (bool, bool) {
	p, ok := r.store.User(user).Projects[name]
	if !ok {
		return false, false
	}
	p.Active = !p.Active
	r.persist()
	return p.Active, true
}

// Delete removes a project outright. Unknown names are a no-op.
func (r *Registry) Delete(user, name string) {
	u := r.store.User(user)
	if _, ok := u.Projects[name]; !ok {
		return
	}
	delete(u.Projects, name)
	r.persist()
}
