package quote

import "testing"

func TestFormatBlockquote(t *testing.T) {
	got := FormatBlockquote("line1\nline2", "")
	want := "> line1\n> line2"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatBlockquote_WithHeading(t *testing.T) {
	got := FormatBlockquote("answer", "[!assistant]+ Reflection")
	want := "> [!assistant]+ Reflection\n> answer"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatBlockquote_Empty(t *testing.T) {
	if got := FormatBlockquote("", ""); got != "" {
		t.Errorf("empty input should produce empty output, got %q", got)
	}
}

func TestFormatEmbed_DepthZero(t *testing.T) {
	got := FormatEmbed("line1\nline2", "Note A", 0, "quote")
	want := "> [!quote] Note A\n> line1\n> line2"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatEmbed_NestedDepth(t *testing.T) {
	got := FormatEmbed("x", "B", 1, "embedded-note")
	want := ">> [!embedded-note] B\n>> x"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatEmbed_EmptyBody(t *testing.T) {
	got := FormatEmbed("", "Empty", 0, "embedded-note")
	want := "> [!embedded-note] Empty"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
