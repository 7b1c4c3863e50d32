// Package generate orchestrates a journal reflection: prompt resolution,
// link expansion, callout filtering, and the inference call.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ebullient/obsidian-journal-reflect/internal/apperr"
	"github.com/ebullient/obsidian-journal-reflect/internal/callout"
	"github.com/ebullient/obsidian-journal-reflect/internal/convo"
	"github.com/ebullient/obsidian-journal-reflect/internal/expand"
	"github.com/ebullient/obsidian-journal-reflect/internal/ollama"
	"github.com/ebullient/obsidian-journal-reflect/internal/parser"
	"github.com/ebullient/obsidian-journal-reflect/internal/prompt"
	"github.com/ebullient/obsidian-journal-reflect/internal/quote"
	"github.com/ebullient/obsidian-journal-reflect/internal/storage"
)

// InferenceClient is the boundary to the Ollama server.
type InferenceClient interface {
	CheckConnection(ctx context.Context) bool
	Generate(ctx context.Context, req ollama.GenerateRequest) (*ollama.GenerateResponse, error)
}

// Notifier surfaces user-visible messages. May be nil.
type Notifier interface {
	Notify(msg string)
}

// Settings are the generation-relevant parts of the app configuration.
type Settings struct {
	ServerURL    string
	DefaultModel string
}

// Result is a completed reflection, ready for the caller to insert.
type Result struct {
	Text           string `json:"text"`
	PromptKey      string `json:"prompt_key"`
	CalloutHeading string `json:"callout_heading,omitempty"`
}

// Service composes the engine components behind a single Generate call.
type Service struct {
	store    storage.Provider
	slots    map[string]prompt.Slot
	resolver *prompt.Resolver
	expander *expand.Expander
	convo    *convo.Store
	client   InferenceClient
	settings Settings
	notify   Notifier
}

// NewService wires the orchestrator.
func NewService(store storage.Provider, slots map[string]prompt.Slot, resolver *prompt.Resolver,
	expander *expand.Expander, convoStore *convo.Store, client InferenceClient,
	settings Settings, notify Notifier) *Service {
	return &Service{
		store:    store,
		slots:    slots,
		resolver: resolver,
		expander: expander,
		convo:    convoStore,
		client:   client,
		settings: settings,
		notify:   notify,
	}
}

// Slots returns the configured prompt slots (built-in default included).
func (s *Service) Slots() map[string]prompt.Slot {
	return s.slots
}

// Generate runs a reflection over the note at notePath. When editorText is
// empty the note body (frontmatter stripped) is used. Every failure path
// notifies the user and returns a sentinel error; nothing panics.
func (s *Service) Generate(ctx context.Context, notePath, editorText, promptKey string) (*Result, error) {
	if promptKey == "" {
		promptKey = prompt.DefaultKey
	}
	slot, ok := s.slots[promptKey]
	if !ok {
		s.warn(fmt.Sprintf("unknown prompt %q", promptKey))
		return nil, apperr.ErrUnknownPrompt
	}

	data, err := s.store.Read(notePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.warn(fmt.Sprintf("note not found: %s", notePath))
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	parsed, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}

	text := editorText
	if text == "" {
		text = parsed.Body
	}

	resolved := s.resolver.Resolve(parsed.Frontmatter, promptKey)

	expanded := s.expander.Expand(notePath, text, resolved.IncludeLinks, resolved.ExcludePatterns)
	filtered := callout.Filter(expanded, callout.SplitTypes(slot.ExcludeCalloutTypes))

	if strings.TrimSpace(filtered) == "" {
		s.warn("nothing to reflect on after filtering")
		return nil, apperr.ErrEmptyDocument
	}

	model := resolved.Model
	if model == "" {
		model = s.settings.DefaultModel
	}
	if model == "" {
		s.warn("no model configured; set ollama.model or a prompt-file model")
		return nil, apperr.ErrNoModel
	}
	if s.settings.ServerURL == "" {
		s.warn("no inference server configured; set ollama.url")
		return nil, apperr.ErrNoServer
	}
	if !s.client.CheckConnection(ctx) {
		s.warn(fmt.Sprintf("inference server unreachable: %s", s.settings.ServerURL))
		return nil, apperr.ErrUnreachable
	}

	var priorTokens []int
	key := resolved.ContinuationKey(notePath, promptKey)
	if resolved.IsContinuous {
		priorTokens, _ = s.convo.Get(key)
	}

	resp, err := s.client.Generate(ctx, ollama.GenerateRequest{
		Model:   model,
		System:  resolved.Text,
		Prompt:  filtered,
		Context: priorTokens,
		Options: ollama.Options{
			NumCtx:        resolved.NumCtx,
			Temperature:   resolved.Temperature,
			TopP:          resolved.TopP,
			RepeatPenalty: resolved.RepeatPenalty,
		},
	})
	if err != nil {
		s.warn("generation failed: " + err.Error())
		return nil, err
	}

	if resolved.IsContinuous {
		s.convo.Put(key, resp.Context)
	}

	slog.Info("generation completed",
		slog.String("path", notePath),
		slog.String("prompt", promptKey),
		slog.String("model", model),
		slog.Int("response_chars", len(resp.Response)))

	return &Result{
		Text:           strings.TrimSpace(resp.Response),
		PromptKey:      promptKey,
		CalloutHeading: slot.CalloutHeading,
	}, nil
}

// FormatResult renders a result as the blockquote spliced into a note.
func FormatResult(res *Result) string {
	return quote.FormatBlockquote(res.Text, res.CalloutHeading)
}

// Apply appends the formatted result to the note, separated by a blank
// line, and writes it back atomically.
func (s *Service) Apply(notePath string, res *Result) error {
	data, err := s.store.Read(notePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	content := strings.TrimRight(string(data), "\n") + "\n\n" + FormatResult(res) + "\n"
	return s.store.Write(notePath, []byte(content))
}

func (s *Service) warn(msg string) {
	slog.Warn("generate: " + msg)
	if s.notify != nil {
		s.notify.Notify(msg)
	}
}
