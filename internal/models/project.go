package models

import "time"

// Project is a named grouping of channels and keywords used to scope
// digests and issue detection. Channels are kept in the order given and
// are not deduplicated; empty keywords means "match everything".
type Project struct {
	Name      string    `json:"-"`
	Channels  []string  `json:"channels"`
	Keywords  []string  `json:"keywords"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
