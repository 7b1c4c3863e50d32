package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ebullient/obsidian-journal-reflect/internal/apperr"
	"github.com/ebullient/obsidian-journal-reflect/internal/generate"
	"github.com/ebullient/obsidian-journal-reflect/internal/index"
	"github.com/ebullient/obsidian-journal-reflect/internal/storage"
)

// EventPublisher announces generation lifecycle events. May be nil.
type EventPublisher interface {
	PublishGenerationStarted(path, promptKey string)
	PublishGenerationCompleted(path, promptKey string)
}

// Handler holds API route handlers.
type Handler struct {
	svc    *generate.Service
	idx    index.NoteIndex
	store  storage.Provider
	events EventPublisher
}

// NewHandler creates a new Handler.
func NewHandler(svc *generate.Service, idx index.NoteIndex, store storage.Provider, events EventPublisher) *Handler {
	return &Handler{svc: svc, idx: idx, store: store, events: events}
}

// notePath extracts the note path from the URL (everything after /api/notes/).
// Supports encoded slashes from clients (e.g. journal%2Ftoday.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Reflect handles POST /api/reflect: resolve the prompt, expand links,
// filter callouts, and run the inference call. With "apply": true the
// formatted result is also appended to the note on disk.
func (h *Handler) Reflect(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req ReflectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}

	if h.events != nil {
		h.events.PublishGenerationStarted(req.Path, req.Prompt)
	}

	res, err := h.svc.Generate(r.Context(), req.Path, req.Text, req.Prompt)
	if err != nil {
		h.writeGenerateError(w, req.Path, err)
		return
	}

	applied := false
	if req.Apply {
		if err := h.svc.Apply(req.Path, res); err != nil {
			slog.Error("apply failed", slog.String("path", req.Path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("failed to write note"))
			return
		}
		applied = true
	}

	if h.events != nil {
		h.events.PublishGenerationCompleted(req.Path, res.PromptKey)
	}
	writeJSON(w, http.StatusOK, ReflectResponse{Result: res, Applied: applied})
}

func (h *Handler) writeGenerateError(w http.ResponseWriter, path string, err error) {
	switch {
	case errors.Is(err, apperr.ErrUnknownPrompt):
		writeJSON(w, http.StatusBadRequest, errorBody("unknown prompt"))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("note not found"))
	case errors.Is(err, apperr.ErrEmptyDocument):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody("nothing to reflect on after filtering"))
	case errors.Is(err, apperr.ErrNoModel):
		writeJSON(w, http.StatusConflict, errorBody("no model configured"))
	case errors.Is(err, apperr.ErrNoServer):
		writeJSON(w, http.StatusConflict, errorBody("no inference server configured"))
	case errors.Is(err, apperr.ErrUnreachable):
		writeJSON(w, http.StatusServiceUnavailable, errorBody("inference server unreachable"))
	default:
		slog.Error("reflect failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListPrompts handles GET /api/prompts.
func (h *Handler) ListPrompts(w http.ResponseWriter, r *http.Request) {
	slots := h.svc.Slots()
	prompts := make([]PromptInfo, 0, len(slots))
	for key, slot := range slots {
		prompts = append(prompts, PromptInfo{
			Key:            key,
			Label:          slot.Label,
			PromptFile:     slot.PromptFile,
			CalloutHeading: slot.CalloutHeading,
		})
	}
	sort.Slice(prompts, func(i, j int) bool { return prompts[i].Key < prompts[j].Key })
	writeJSON(w, http.StatusOK, PromptListResponse{Prompts: prompts})
}

// ListNotes handles GET /api/notes.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	rows, total, err := h.idx.ListNotes(limit, offset)
	if err != nil {
		slog.Error("list notes failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	notes := make([]NoteListItem, 0, len(rows))
	for _, row := range rows {
		notes = append(notes, NoteListItem{
			Path:      row.Path,
			Title:     row.Title,
			UpdatedAt: row.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: total})
}

// GetNote handles GET /api/notes/*.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	data, err := h.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get note failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}

	title := ""
	if row, err := h.idx.GetNote(path); err == nil && row != nil {
		title = row.Title
	}
	writeJSON(w, http.StatusOK, NoteDetail{Path: path, Title: title, Content: string(data)})
}
