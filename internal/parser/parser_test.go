package parser

import (
	"testing"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Morning\nprompt: Reflect on this\n---\n# Morning\nBody text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "Morning" {
		t.Errorf("title = %q, want %q", r.Title, "Morning")
	}
	if r.Frontmatter["prompt"] != "Reflect on this" {
		t.Errorf("frontmatter prompt = %v", r.Frontmatter["prompt"])
	}
	if r.Body != "# Morning\nBody text.\n" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	input := []byte("# Just a heading\nSome text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter, got %v", r.Frontmatter)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q, want %q", r.Title, "Just a heading")
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	input := []byte("---\n: invalid: yaml: {{{\n---\nBody\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Invalid YAML falls back to treating everything as body.
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter on invalid YAML")
	}
}

func TestParseLinkRef(t *testing.T) {
	r := ParseLinkRef("notes/daily")
	if r.Path != "notes/daily" || r.Subpath != "" {
		t.Errorf("ParseLinkRef = %+v", r)
	}

	r = ParseLinkRef("a#b")
	if r.Path != "a" || r.Subpath != "b" {
		t.Errorf("ParseLinkRef = %+v, want path a subpath b", r)
	}

	r = ParseLinkRef("a#^block1")
	if r.Path != "a" || r.Subpath != "^block1" {
		t.Errorf("ParseLinkRef = %+v", r)
	}

	// Only the first '#' splits.
	r = ParseLinkRef("a#b#c")
	if r.Path != "a" || r.Subpath != "b#c" {
		t.Errorf("ParseLinkRef = %+v", r)
	}
}

func TestExtractRefs_Order(t *testing.T) {
	body := "See [[Note A]] then ![[Note B]] then [[Note C|alias]]."
	refs := ExtractRefs(body)
	if len(refs) != 3 {
		t.Fatalf("len(refs) = %d, want 3", len(refs))
	}
	if refs[0].Target != "Note A" || refs[0].Embed {
		t.Errorf("refs[0] = %+v", refs[0])
	}
	if refs[1].Target != "Note B" || !refs[1].Embed {
		t.Errorf("refs[1] = %+v", refs[1])
	}
	if refs[2].Target != "Note C" || refs[2].Display != "alias" {
		t.Errorf("refs[2] = %+v", refs[2])
	}
}

func TestExtractRefs_DuplicatesPreserved(t *testing.T) {
	refs := ExtractRefs("[[A]] and [[A]] again")
	if len(refs) != 2 {
		t.Errorf("len(refs) = %d, want 2 (dedup is the expander's job)", len(refs))
	}
}

func TestExtractRefs_EmptyTarget(t *testing.T) {
	refs := ExtractRefs("see [[ ]] and [[|alias]]")
	if len(refs) != 0 {
		t.Errorf("expected no refs, got %v", refs)
	}
}

func TestHeadingSection_Basic(t *testing.T) {
	body := "intro\n## One\nalpha\nbeta\n## Two\ngamma\n"
	sec, ok := HeadingSection(body, "One")
	if !ok {
		t.Fatal("heading not found")
	}
	if sec != "alpha\nbeta" {
		t.Errorf("section = %q", sec)
	}
}

func TestHeadingSection_DeeperHeadingsIncluded(t *testing.T) {
	body := "## One\nalpha\n### Sub\nbeta\n## Two\ngamma"
	sec, ok := HeadingSection(body, "one")
	if !ok {
		t.Fatal("heading not found (case-insensitive match expected)")
	}
	if sec != "alpha\n### Sub\nbeta" {
		t.Errorf("section = %q", sec)
	}
}

func TestHeadingSection_RunsToEOF(t *testing.T) {
	sec, ok := HeadingSection("# Last\ntail", "Last")
	if !ok || sec != "tail" {
		t.Errorf("section = %q, ok = %v", sec, ok)
	}
}

func TestHeadingSection_NotFound(t *testing.T) {
	if _, ok := HeadingSection("plain text", "Missing"); ok {
		t.Error("expected not found")
	}
}

func TestBlockLine(t *testing.T) {
	body := "one\nimportant fact ^fact1\nthree"
	line, ok := BlockLine(body, "fact1")
	if !ok {
		t.Fatal("block not found")
	}
	if line != "important fact" {
		t.Errorf("line = %q", line)
	}

	if _, ok := BlockLine(body, "nope"); ok {
		t.Error("expected missing block to report not found")
	}
}
