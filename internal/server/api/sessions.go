package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ayusman/padam/internal/store"
)

// SessionHandler serves detection sessions and their events.
type SessionHandler struct {
	store *store.Store
}

// NewSessionHandler creates a SessionHandler with the given store.
func NewSessionHandler(s *store.Store) *SessionHandler {
	return &SessionHandler{store: s}
}

// ServeHTTP routes /api/sessions, /api/sessions/{id} and
// /api/sessions/{id}/events.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r, "/api/sessions")

	switch {
	case len(parts) == 0:
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.list(w, r)
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, parts[0])
		case http.MethodDelete:
			h.delete(w, r, parts[0])
		default:
			methodNotAllowed(w)
		}
	case len(parts) == 2 && parts[1] == "events":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.events(w, r, parts[0])
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type sessionResponse struct {
	ID         string  `json:"id"`
	Preset     string  `json:"preset"`
	StartedAt  string  `json:"started_at"`
	EndedAt    string  `json:"ended_at,omitempty"`
	Calibrated bool    `json:"calibrated"`
	Height     float64 `json:"height"`
	Events     int     `json:"events"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

type eventResponse struct {
	ID         string  `json:"id"`
	Move       string  `json:"move"`
	FrameIndex int     `json:"frame_index"`
	FPS        float64 `json:"fps"`
	Detector   string  `json:"detector"`
	CreatedAt  string  `json:"created_at"`
}

type sessionEventsResponse struct {
	SessionID string          `json:"session_id"`
	Events    []eventResponse `json:"events"`
	Counts    map[string]int  `json:"counts"`
}

func toSessionResponse(s *store.Session) sessionResponse {
	resp := sessionResponse{
		ID:         s.ID,
		Preset:     s.Preset,
		StartedAt:  s.StartedAt.Format(timeFormat),
		Calibrated: s.Calibrated,
		Height:     s.Height,
		Events:     s.Events,
	}
	if s.EndedAt != nil {
		resp.EndedAt = s.EndedAt.Format(timeFormat)
	}
	return resp
}

func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	sessions, err := h.store.Sessions().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	response := listSessionsResponse{Sessions: make([]sessionResponse, 0, len(sessions))}
	for _, s := range sessions {
		response.Sessions = append(response.Sessions, toSessionResponse(s))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	sess, err := h.store.Sessions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Sessions().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) events(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.store.Sessions().GetByID(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	events, err := h.store.Events().ListBySession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}
	counts, err := h.store.Events().CountsByMove(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count events")
		return
	}

	response := sessionEventsResponse{
		SessionID: id,
		Events:    make([]eventResponse, 0, len(events)),
		Counts:    counts,
	}
	for _, e := range events {
		response.Events = append(response.Events, eventResponse{
			ID:         e.ID,
			Move:       e.Move,
			FrameIndex: e.FrameIndex,
			FPS:        e.FPS,
			Detector:   e.Detector,
			CreatedAt:  e.CreatedAt.Format(timeFormat),
		})
	}
	writeJSON(w, http.StatusOK, response)
}
