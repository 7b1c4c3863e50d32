// Package expand splices the content of linked and embedded notes into a
// document as nested callout quotes, bounded by depth and a cycle guard.
package expand

import (
	"log/slog"
	"path"
	"regexp"
	"strings"

	"github.com/ebullient/obsidian-journal-reflect/internal/parser"
	"github.com/ebullient/obsidian-journal-reflect/internal/pattern"
	"github.com/ebullient/obsidian-journal-reflect/internal/quote"
)

// MaxDepth bounds embedding regardless of graph shape.
const MaxDepth = 2

// EmbedCalloutType tags spliced-in linked content.
const EmbedCalloutType = "embedded-note"

// FileReader is the slice of vault access the expander needs.
type FileReader interface {
	Read(path string) ([]byte, error)
	Exists(path string) bool
}

// NameResolver resolves a bare link name to a vault path ("" when unknown).
type NameResolver interface {
	FindByName(name string) (string, error)
}

// Expander walks outgoing references and appends their quoted content.
type Expander struct {
	files  FileReader
	names  NameResolver
	global []*regexp.Regexp
}

// New creates an expander. globalPatterns are the vault-wide link exclusion
// patterns; per-prompt patterns are passed to Expand.
func New(files FileReader, names NameResolver, globalPatterns []*regexp.Regexp) *Expander {
	return &Expander{files: files, names: names, global: globalPatterns}
}

// Expand appends the quoted content of notes referenced from text. Embeds
// are always followed; plain wikilinks only when includeLinks is true.
// extraPatterns are merged with the global exclusion set; a reference whose
// canonical form "[display](target)" matches any pattern is skipped. Read
// failures for individual links are logged and skipped, never fatal.
func (e *Expander) Expand(notePath, text string, includeLinks bool, extraPatterns []*regexp.Regexp) string {
	patterns := make([]*regexp.Regexp, 0, len(e.global)+len(extraPatterns))
	patterns = append(patterns, e.global...)
	patterns = append(patterns, extraPatterns...)

	visited := map[string]struct{}{}
	return e.expand(notePath, text, includeLinks, patterns, 0, visited)
}

func (e *Expander) expand(notePath, text string, includeLinks bool, patterns []*regexp.Regexp, depth int, visited map[string]struct{}) string {
	if depth >= MaxDepth || notePath == "" {
		return text
	}
	visited[notePath] = struct{}{}

	out := text
	processed := map[string]struct{}{}

	for _, ref := range parser.ExtractRefs(text) {
		if !ref.Embed && !includeLinks {
			continue
		}

		display := ref.Display
		if display == "" {
			display = ref.Target
		}
		// Patterns are matched against the rendered link form and against
		// the bare display text.
		if pattern.MatchAny(patterns, "["+display+"]("+ref.Target+")") || pattern.MatchAny(patterns, display) {
			continue
		}
		if _, dup := processed[ref.Target]; dup {
			continue
		}
		processed[ref.Target] = struct{}{}

		lr := parser.ParseLinkRef(ref.Target)
		resolved := e.resolve(lr.Path, notePath)
		if resolved == "" {
			slog.Debug("expand: unresolved link", slog.String("target", ref.Target), slog.String("from", notePath))
			continue
		}
		if _, seen := visited[resolved]; seen {
			continue
		}

		data, err := e.files.Read(resolved)
		if err != nil {
			slog.Warn("expand: read failed", slog.String("path", resolved), slog.String("error", err.Error()))
			continue
		}
		parsed, err := parser.Parse(data)
		if err != nil {
			slog.Warn("expand: parse failed", slog.String("path", resolved), slog.String("error", err.Error()))
			continue
		}

		content := parsed.Body
		if lr.Subpath != "" {
			var ok bool
			if id, isBlock := strings.CutPrefix(lr.Subpath, "^"); isBlock {
				content, ok = parser.BlockLine(content, id)
			} else {
				content, ok = parser.HeadingSection(content, lr.Subpath)
			}
			if !ok {
				slog.Warn("expand: subpath not found", slog.String("target", ref.Target))
				continue
			}
			content = strings.TrimSpace(content)
		}

		expanded := e.expand(resolved, content, includeLinks, patterns, depth+1, visited)
		out += "\n\n" + quote.FormatEmbed(expanded, ref.Target, depth, EmbedCalloutType)
	}

	return out
}

// resolve maps a raw link path to a concrete vault path: relative to the
// source note's directory first, then the vault root, then a vault-wide
// name lookup. An empty raw path (e.g. [[#Heading]]) refers to the source
// note itself.
func (e *Expander) resolve(raw, fromPath string) string {
	if raw == "" {
		return fromPath
	}
	name := strings.TrimSuffix(raw, ".md") + ".md"

	if dir := path.Dir(fromPath); dir != "." && dir != "" {
		if rel := path.Join(dir, name); e.files.Exists(rel) {
			return rel
		}
	}
	if e.files.Exists(name) {
		return name
	}
	if e.names != nil {
		if p, err := e.names.FindByName(raw); err == nil && p != "" {
			return p
		}
	}
	return ""
}
