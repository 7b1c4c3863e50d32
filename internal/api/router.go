package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ebullient/obsidian-journal-reflect/internal/generate"
	"github.com/ebullient/obsidian-journal-reflect/internal/index"
	"github.com/ebullient/obsidian-journal-reflect/internal/storage"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *generate.Service, idx index.NoteIndex, store storage.Provider,
	events EventPublisher, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, idx, store, events)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Reflection.
	r.Post("/reflect", h.Reflect)
	r.Get("/prompts", h.ListPrompts)

	// Vault catalog.
	r.Get("/notes", h.ListNotes)
	r.Get("/notes/*", h.GetNote)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
