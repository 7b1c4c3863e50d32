// Package parser extracts frontmatter, wikilink references, and headings
// from Markdown content.
package parser

import (
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ebullient/obsidian-journal-reflect/internal/models"
)

var (
	wikilinkRe = regexp.MustCompile(`(!?)\[\[(.*?)\]\]`)
	headingRe  = regexp.MustCompile(`^(#{1,6})\s+(.*?)\s*#*\s*$`)
	blockIDRe  = regexp.MustCompile(`\s*\^([A-Za-z0-9-]+)\s*$`)
)

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]interface{}
	Body        string
	Refs        []models.LinkRef
	Title       string
}

// LinkRef is the parsed form of a raw link target: a path and an optional
// #subpath (heading name, or ^block identifier).
type LinkRef struct {
	Path    string
	Subpath string
}

// Parse extracts frontmatter, body, and outgoing references from raw
// Markdown bytes.
func Parse(data []byte) (*Result, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	return &Result{
		Frontmatter: fm,
		Body:        body,
		Refs:        ExtractRefs(body),
		Title:       deriveTitle(fm, body),
	}, nil
}

// ParseLinkRef splits raw link text at the first '#'. When no '#' is
// present, Subpath is empty and Path is the whole input.
func ParseLinkRef(link string) LinkRef {
	if i := strings.Index(link, "#"); i >= 0 {
		return LinkRef{Path: link[:i], Subpath: link[i+1:]}
	}
	return LinkRef{Path: link}
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (map[string]interface{}, string, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), nil
	}

	// Find end delimiter.
	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing delimiter — treat everything as body.
		return nil, string(data), nil
	}

	yamlBlock := rest[:idx]
	// Body starts after closing delimiter line.
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]interface{}
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML — return body only, no error.
		return nil, string(data), nil
	}

	return fm, body, nil
}

// ExtractRefs returns outgoing wikilink references in encounter order.
// Embeds (![[...]]) keep their marker, aliases ([[target|alias]]) populate
// Display. Duplicate targets are preserved; the expander decides what to
// skip.
func ExtractRefs(body string) []models.LinkRef {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	var out []models.LinkRef
	for _, m := range matches {
		raw := m[2]
		target := raw
		display := ""
		if i := strings.Index(raw, "|"); i >= 0 {
			target = raw[:i]
			display = strings.TrimSpace(raw[i+1:])
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		out = append(out, models.LinkRef{
			Target:  target,
			Display: display,
			Embed:   m[1] == "!",
		})
	}
	return out
}

// HeadingSection returns the section of body under the heading whose text
// matches name (case-insensitive): from just after the heading line to the
// start of the next heading of equal or shallower level, or end of input.
// The bool result reports whether the heading was found.
func HeadingSection(body, name string) (string, bool) {
	lines := strings.Split(body, "\n")
	want := strings.ToLower(strings.TrimSpace(name))

	start := -1
	level := 0
	for i, line := range lines {
		m := headingRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if start < 0 {
			if strings.ToLower(strings.TrimSpace(m[2])) == want {
				start = i + 1
				level = len(m[1])
			}
			continue
		}
		if len(m[1]) <= level {
			return strings.Join(lines[start:i], "\n"), true
		}
	}
	if start < 0 {
		return "", false
	}
	return strings.Join(lines[start:], "\n"), true
}

// BlockLine returns the single line carrying the given ^block identifier,
// with the trailing marker stripped. The bool result reports whether the
// block was found.
func BlockLine(body, id string) (string, bool) {
	for _, line := range strings.Split(body, "\n") {
		m := blockIDRe.FindStringSubmatch(line)
		if m != nil && m[1] == id {
			return strings.TrimRight(blockIDRe.ReplaceAllString(line, ""), " \t"), true
		}
	}
	return "", false
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]interface{}, body string) string {
	if fm != nil {
		if t, ok := fm["title"]; ok {
			if s, ok := t.(string); ok && s != "" {
				return s
			}
		}
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
