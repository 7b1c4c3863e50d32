// Package pattern compiles user-supplied exclusion patterns into regexps.
package pattern

import (
	"log/slog"
	"regexp"
	"strings"
)

// Compile turns newline-delimited pattern text into compiled matchers.
// Blank entries are ignored. A pattern that fails to compile is skipped
// with a warning; compilation never fails as a whole.
func Compile(raw string) []*regexp.Regexp {
	if raw == "" {
		return nil
	}
	return CompileList(strings.Split(raw, "\n"))
}

// CompileList compiles an explicit list of pattern strings under the same
// rules as Compile.
func CompileList(patterns []string) []*regexp.Regexp {
	var out []*regexp.Regexp
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		re, err := regexp.Compile(p)
		if err != nil {
			slog.Warn("pattern: skipping invalid exclude pattern",
				slog.String("pattern", p),
				slog.String("error", err.Error()))
			continue
		}
		out = append(out, re)
	}
	return out
}

// MatchAny reports whether any compiled pattern matches s.
func MatchAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
