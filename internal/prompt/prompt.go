// Package prompt resolves the instructions and generation parameters for a
// journal reflection, layering note frontmatter over prompt files over
// configured defaults.
package prompt

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultKey is the built-in prompt slot that always exists.
const DefaultKey = "reflection"

// DefaultInstruction is the fallback when no tier of the override chain
// produces instruction text.
const DefaultInstruction = "You are a thoughtful journaling companion. " +
	"Read the entry below and reply with a short reflection that helps the " +
	"writer notice patterns and explore their own thinking. Ask at most one " +
	"question. Do not give advice unless the entry asks for it."

// Slot is a configured logical prompt, keyed by a stable name in settings.
type Slot struct {
	Label string `yaml:"label" json:"label"`
	// PromptFile is a vault-relative path to a prompt definition file.
	PromptFile string `yaml:"prompt_file" json:"prompt_file,omitempty"`
	// CalloutHeading decorates generated output inserted into the note,
	// e.g. "[!assistant]+ Reflection".
	CalloutHeading string `yaml:"callout_heading" json:"callout_heading,omitempty"`
	// ExcludeCalloutTypes is a newline-delimited list of callout types to
	// strip from the document before it is sent to the model.
	ExcludeCalloutTypes string `yaml:"exclude_callout_types" json:"exclude_callout_types,omitempty"`
}

// Resolved is the immutable outcome of prompt resolution for one request.
type Resolved struct {
	// Text is the system instruction; never empty.
	Text string
	// SourcePath is the prompt file the text came from, when any. It is the
	// stable key for continuation state.
	SourcePath string

	Model         string
	NumCtx        *int
	Temperature   *float64
	TopP          *float64
	RepeatPenalty *float64
	IsContinuous  bool
	IncludeLinks  bool
	// ExcludePatterns are additional link-exclusion patterns scoped to this
	// prompt, merged with the global set during expansion.
	ExcludePatterns []*regexp.Regexp
}

// ContinuationKey returns the conversation-store key for a note using this
// prompt: the prompt file when known, otherwise the logical prompt key.
func (r *Resolved) ContinuationKey(notePath, promptKey string) string {
	src := r.SourcePath
	if src == "" {
		src = promptKey
	}
	return notePath + "::" + src
}

// stringOrMapValue handles the string-or-mapping frontmatter shape: a plain
// string applies to every prompt key, a mapping selects by key.
func stringOrMapValue(v interface{}, key string) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]interface{}:
		if s, ok := t[key].(string); ok {
			return s
		}
	}
	return ""
}

// lookup returns the first value present under any of the given keys.
func lookup(fm map[string]interface{}, keys ...string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := fm[k]; ok {
			return v, true
		}
	}
	return nil, false
}

// floatValue leniently coerces a frontmatter value to float64, accepting
// numeric-looking strings. Returns nil when absent or unparseable.
func floatValue(fm map[string]interface{}, keys ...string) *float64 {
	v, ok := lookup(fm, keys...)
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case float64:
		return &t
	case int:
		f := float64(t)
		return &f
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return &f
		}
	}
	return nil
}

// intValue leniently coerces a frontmatter value to int.
func intValue(fm map[string]interface{}, keys ...string) *int {
	if f := floatValue(fm, keys...); f != nil {
		n := int(*f)
		return &n
	}
	return nil
}

// boolValue leniently coerces a frontmatter value to bool, accepting the
// strings "true"/"false".
func boolValue(fm map[string]interface{}, keys ...string) (bool, bool) {
	v, ok := lookup(fm, keys...)
	if !ok {
		return false, false
	}
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
			return b, true
		}
	}
	return false, false
}

// patternStrings normalises an excludePatterns value (newline-delimited
// string or list) into a flat list of pattern strings.
func patternStrings(v interface{}) []string {
	switch t := v.(type) {
	case string:
		return strings.Split(t, "\n")
	case []interface{}:
		var out []string
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
