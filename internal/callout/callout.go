// Package callout removes excluded callout blocks from Markdown text.
//
// Generated answers are inserted into notes as callouts (e.g. [!assistant]);
// filtering them out of the document before the next generation keeps the
// model from being fed its own prior output.
package callout

import (
	"regexp"
	"strings"
)

var headerRe = regexp.MustCompile(`^\[!([^\]\s]+)\]`)

// scanState tracks exclusion while walking lines. skipDepth is the quote
// depth of the currently excluded callout (0 = not excluding); prevBlank
// records whether the previous line inside the excluded region was blank,
// which is what allows a sibling callout header to resume normal scanning.
type scanState struct {
	skipDepth int
	prevBlank bool
}

// Filter removes every line belonging to a callout whose type is in
// excludedTypes (case-insensitive). Nested callouts inside an excluded one
// are dropped with it; sibling content at the same depth is dropped unless
// a blank line separates it from the excluded block and it opens a new
// callout. Returns text unchanged when excludedTypes is empty.
func Filter(text string, excludedTypes []string) string {
	excluded := make(map[string]struct{}, len(excludedTypes))
	for _, t := range excludedTypes {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			excluded[t] = struct{}{}
		}
	}
	if len(excluded) == 0 {
		return text
	}

	var kept []string
	st := scanState{}

	for _, line := range strings.Split(text, "\n") {
		depth, rest := quoteDepth(line)
		blank := strings.TrimSpace(rest) == ""

		if st.skipDepth > 0 {
			switch {
			case depth < st.skipDepth:
				// Left the excluded callout entirely.
				st = scanState{}
			case depth > st.skipDepth:
				continue
			default:
				if _, isHeader := headerType(rest); st.prevBlank && isHeader {
					// Blank-separated sibling header: resume scanning,
					// letting the header open its own (possibly excluded)
					// callout below.
					st = scanState{}
				} else {
					st.prevBlank = blank
					continue
				}
			}
		}

		if typ, ok := headerType(rest); ok && depth > 0 {
			if _, drop := excluded[typ]; drop {
				st = scanState{skipDepth: depth}
				continue
			}
		}
		kept = append(kept, line)
	}

	return strings.Join(kept, "\n")
}

// SplitTypes parses a newline-delimited excluded-types setting into a list.
func SplitTypes(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, "\n") {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// quoteDepth counts leading '>' markers, tolerating spaces between them,
// and returns the remaining content after the markers.
func quoteDepth(line string) (int, string) {
	depth := 0
	i := 0
	for i < len(line) {
		switch line[i] {
		case '>':
			depth++
			i++
		case ' ', '\t':
			// Spaces only continue the marker run when another '>' follows.
			j := i
			for j < len(line) && (line[j] == ' ' || line[j] == '\t') {
				j++
			}
			if j < len(line) && line[j] == '>' {
				i = j
				continue
			}
			return depth, line[j:]
		default:
			return depth, line[i:]
		}
	}
	return depth, ""
}

// headerType returns the lower-cased callout type if rest opens a callout.
func headerType(rest string) (string, bool) {
	m := headerRe.FindStringSubmatch(rest)
	if m == nil {
		return "", false
	}
	return strings.ToLower(m[1]), true
}
