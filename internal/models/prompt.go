package models

import (
	"strings"
	"time"
)

// Prompt is a named, versioned text template stored in the vault.
// Placeholders use the {{name}} form and are filled in at render time.
type Prompt struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Content        string          `json:"content"`
	Tags           []string        `json:"tags,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	CurrentVersion int             `json:"current_version"`
	Versions       []VersionRecord `json:"versions,omitempty"`
}

// VersionRecord is an immutable snapshot of prompt content taken before an
// edit (or revert) was applied. Version numbers start at 1 and only grow.
type VersionRecord struct {
	Version   int       `json:"version"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// HasTag reports whether the prompt carries the given tag (case-insensitive).
func (p *Prompt) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// HasAllTags reports whether the prompt's tag set is a superset of tags.
func (p *Prompt) HasAllTags(tags []string) bool {
	for _, t := range tags {
		if !p.HasTag(t) {
			return false
		}
	}
	return true
}

// Version returns the snapshot for the given version number, or nil if the
// prompt never had that version.
func (p *Prompt) Version(n int) *VersionRecord {
	for i := range p.Versions {
		if p.Versions[i].Version == n {
			return &p.Versions[i]
		}
	}
	return nil
}
