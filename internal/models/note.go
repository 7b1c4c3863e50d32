// Package models defines the domain types for journal reflection.
package models

import "time"

// Note represents a parsed Markdown file in the vault.
type Note struct {
	Path        string                 `json:"path"`
	Content     []byte                 `json:"-"`
	Body        string                 `json:"body"`
	Frontmatter map[string]interface{} `json:"frontmatter,omitempty"`
	Title       string                 `json:"title,omitempty"`
	Checksum    string                 `json:"checksum"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LinkRef is a single outgoing reference discovered in note content, in
// encounter order. Target may carry a #subpath suffix (heading or ^block).
type LinkRef struct {
	Target  string `json:"target"`
	Display string `json:"display,omitempty"`
	Embed   bool   `json:"embed"`
}
