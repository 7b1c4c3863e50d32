// Package quote renders text as Markdown blockquotes and callout embeds.
package quote

import "strings"

// FormatBlockquote prefixes every line of text with "> ". If heading is
// non-empty it becomes the first quoted line, ahead of the body. Used for
// generated answers inserted back into a note.
func FormatBlockquote(text, heading string) string {
	var lines []string
	if heading != "" {
		lines = append(lines, "> "+heading)
	}
	if text != "" {
		for _, line := range strings.Split(text, "\n") {
			lines = append(lines, "> "+line)
		}
	}
	return strings.Join(lines, "\n")
}

// FormatEmbed quotes text at the given nesting depth under a callout header
// naming the link target. Every line gets depth+1 '>' markers, so nesting
// depth is visible in the rendered note.
func FormatEmbed(text, target string, depth int, calloutType string) string {
	prefix := strings.Repeat(">", depth+1) + " "

	lines := []string{prefix + "[!" + calloutType + "] " + target}
	if text != "" {
		for _, line := range strings.Split(text, "\n") {
			lines = append(lines, prefix+line)
		}
	}
	return strings.Join(lines, "\n")
}
