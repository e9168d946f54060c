package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/padam/internal/config"
	"github.com/ayusman/padam/internal/gesture"
	"github.com/ayusman/padam/internal/store"
)

// ProfileHandler handles HTTP requests for tuning profiles.
type ProfileHandler struct {
	store *store.Store
}

// NewProfileHandler creates a ProfileHandler with the given store.
func NewProfileHandler(s *store.Store) *ProfileHandler {
	return &ProfileHandler{store: s}
}

// ServeHTTP routes /api/profiles and /api/profiles/{id}.
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r, "/api/profiles")

	switch len(parts) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			methodNotAllowed(w)
		}
	case 1:
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, parts[0])
		case http.MethodPut:
			h.update(w, r, parts[0])
		case http.MethodDelete:
			h.delete(w, r, parts[0])
		default:
			methodNotAllowed(w)
		}
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type profileRequest struct {
	Name   string          `json:"name"`
	Tuning json.RawMessage `json:"tuning"`
}

type profileResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Tuning    json.RawMessage `json:"tuning"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

type listProfilesResponse struct {
	Profiles []profileResponse `json:"profiles"`
}

func toProfileResponse(p *store.Profile) profileResponse {
	tuning := p.Tuning
	if len(tuning) == 0 {
		tuning = json.RawMessage("{}")
	}
	return profileResponse{
		ID:        p.ID,
		Name:      p.Name,
		Tuning:    tuning,
		CreatedAt: p.CreatedAt.Format(timeFormat),
		UpdatedAt: p.UpdatedAt.Format(timeFormat),
	}
}

// checkTuning parses and validates tuning JSON the same way a tuning file
// is checked.
func checkTuning(raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	t, err := config.ParseTuning(raw)
	if err != nil {
		return err
	}
	if err := t.Validate(); err != nil {
		return err
	}
	_, err = t.Config(gesture.DefaultConfig().Preset)
	return err
}

func (h *ProfileHandler) list(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.Profiles().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list profiles")
		return
	}

	response := listProfilesResponse{Profiles: make([]profileResponse, 0, len(profiles))}
	for _, p := range profiles {
		response.Profiles = append(response.Profiles, toProfileResponse(p))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *ProfileHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get profile")
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

func (h *ProfileHandler) create(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := checkTuning(req.Tuning); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.store.Profiles().GetByName(req.Name); err == nil {
		writeError(w, http.StatusConflict, "Profile name already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "Failed to check existing profile")
		return
	}

	p := &store.Profile{Name: req.Name, Tuning: req.Tuning}
	if err := h.store.Profiles().Create(p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create profile")
		return
	}
	writeJSON(w, http.StatusCreated, toProfileResponse(p))
}

func (h *ProfileHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.store.Profiles().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get profile")
		return
	}

	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Tuning != nil {
		if err := checkTuning(req.Tuning); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		p.Tuning = req.Tuning
	}
	if req.Name != "" {
		p.Name = req.Name
	}

	if err := h.store.Profiles().Update(p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(p))
}

func (h *ProfileHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Profiles().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete profile")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
