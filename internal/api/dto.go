package api

import (
	"time"

	"github.com/ebullient/obsidian-journal-reflect/internal/generate"
)

// ReflectRequest is the request body for generating a reflection.
type ReflectRequest struct {
	// Path is the vault-relative note path.
	Path string `json:"path"`
	// Text is the live editor content; when empty the stored note body is used.
	Text string `json:"text,omitempty"`
	// Prompt selects a configured prompt slot; empty means the default.
	Prompt string `json:"prompt,omitempty"`
	// Apply, when true, appends the formatted result to the note on disk.
	Apply bool `json:"apply,omitempty"`
}

// ReflectResponse is the generated reflection.
type ReflectResponse struct {
	Result  *generate.Result `json:"result"`
	Applied bool             `json:"applied"`
}

// PromptInfo describes one configured prompt slot.
type PromptInfo struct {
	Key            string `json:"key"`
	Label          string `json:"label"`
	PromptFile     string `json:"prompt_file,omitempty"`
	CalloutHeading string `json:"callout_heading,omitempty"`
}

// PromptListResponse wraps the configured prompt slots.
type PromptListResponse struct {
	Prompts []PromptInfo `json:"prompts"`
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes"`
	Total int            `json:"total"`
}

// NoteDetail is a full note response.
type NoteDetail struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Content string `json:"content"`
}
