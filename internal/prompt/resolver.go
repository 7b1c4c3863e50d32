package prompt

import (
	"fmt"
	"log/slog"

	"github.com/ebullient/obsidian-journal-reflect/internal/parser"
	"github.com/ebullient/obsidian-journal-reflect/internal/pattern"
)

// FileReader is the slice of vault access the resolver needs.
type FileReader interface {
	Read(path string) ([]byte, error)
	Exists(path string) bool
}

// Notifier surfaces user-visible warnings (missing prompt files). May be nil.
type Notifier interface {
	Notify(msg string)
}

// Resolver walks the prompt override chain for a note.
type Resolver struct {
	files  FileReader
	slots  map[string]Slot
	notify Notifier
}

// NewResolver creates a resolver over the configured prompt slots.
func NewResolver(files FileReader, slots map[string]Slot, notify Notifier) *Resolver {
	return &Resolver{files: files, slots: slots, notify: notify}
}

// Resolve produces the instructions and parameters for the given note
// frontmatter and prompt key. Resolution order, first hit wins:
//
//  1. frontmatter "prompt" (inline instruction text)
//  2. frontmatter "prompt-file" (vault-relative path)
//  3. the slot's configured prompt file
//  4. the built-in default instruction
//
// A referenced file that cannot be read produces a notice and falls through
// to the next tier; Resolve never fails.
func (r *Resolver) Resolve(fm map[string]interface{}, promptKey string) *Resolved {
	strategies := []func() *Resolved{
		func() *Resolved { return r.fromInlineFrontmatter(fm, promptKey) },
		func() *Resolved { return r.fromFrontmatterFile(fm, promptKey) },
		func() *Resolved { return r.fromSlotFile(promptKey) },
	}
	for _, try := range strategies {
		if res := try(); res != nil {
			return res
		}
	}
	return &Resolved{Text: DefaultInstruction}
}

func (r *Resolver) fromInlineFrontmatter(fm map[string]interface{}, promptKey string) *Resolved {
	if fm == nil {
		return nil
	}
	text := stringOrMapValue(fm["prompt"], promptKey)
	if text == "" {
		return nil
	}
	return &Resolved{Text: text}
}

func (r *Resolver) fromFrontmatterFile(fm map[string]interface{}, promptKey string) *Resolved {
	if fm == nil {
		return nil
	}
	path := stringOrMapValue(fm["prompt-file"], promptKey)
	if path == "" {
		return nil
	}
	return r.readPromptFile(path)
}

func (r *Resolver) fromSlotFile(promptKey string) *Resolved {
	slot, ok := r.slots[promptKey]
	if !ok || slot.PromptFile == "" {
		return nil
	}
	return r.readPromptFile(slot.PromptFile)
}

// readPromptFile reads a prompt definition file: its frontmatter carries
// generation parameters, its body is the instruction text. Returns nil
// (fall through) when the file cannot be read or yields no text.
func (r *Resolver) readPromptFile(path string) *Resolved {
	data, err := r.files.Read(path)
	if err != nil {
		r.warn(fmt.Sprintf("prompt file not found: %s", path))
		return nil
	}
	parsed, err := parser.Parse(data)
	if err != nil {
		r.warn(fmt.Sprintf("prompt file unreadable: %s", path))
		return nil
	}
	if parsed.Body == "" {
		r.warn(fmt.Sprintf("prompt file has no instruction text: %s", path))
		return nil
	}

	res := &Resolved{
		Text:       parsed.Body,
		SourcePath: path,
	}
	applyFrontmatterParams(res, parsed.Frontmatter)
	return res
}

// applyFrontmatterParams extracts generation parameters, treating values
// that fail their constraint as absent rather than errors.
func applyFrontmatterParams(res *Resolved, fm map[string]interface{}) {
	if fm == nil {
		return
	}
	if m, ok := fm["model"].(string); ok {
		res.Model = m
	}
	if n := intValue(fm, "num_ctx"); n != nil && *n > 0 {
		res.NumCtx = n
	}
	if f := floatValue(fm, "temperature", "temp"); f != nil && *f >= 0 {
		res.Temperature = f
	}
	if f := floatValue(fm, "top_p", "topP", "top-p"); f != nil && *f > 0 {
		res.TopP = f
	}
	if f := floatValue(fm, "repeat_penalty", "repeatPenalty", "repeat-penalty"); f != nil && *f > 0 {
		res.RepeatPenalty = f
	}
	if b, ok := boolValue(fm, "isContinuous", "is_continuous", "is-continuous", "continuous"); ok {
		res.IsContinuous = b
	}
	if b, ok := boolValue(fm, "includeLinks", "include_links", "include-links"); ok {
		res.IncludeLinks = b
	}
	if v, ok := lookup(fm, "excludePatterns", "exclude_patterns", "exclude-patterns"); ok {
		res.ExcludePatterns = pattern.CompileList(patternStrings(v))
	}
}

func (r *Resolver) warn(msg string) {
	slog.Warn("prompt: " + msg)
	if r.notify != nil {
		r.notify.Notify(msg)
	}
}
