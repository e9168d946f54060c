package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/padam/internal/gesture"
	"github.com/ayusman/padam/internal/plugin"
	"github.com/ayusman/padam/internal/store"
)

// PluginLookup resolves plugins by name. *plugin.Manager implements it.
type PluginLookup interface {
	Get(name string) (*plugin.Plugin, error)
}

// BindingHandler handles HTTP requests for move bindings.
type BindingHandler struct {
	store   *store.Store
	plugins PluginLookup
}

// NewBindingHandler creates a BindingHandler. When plugins is nil the
// plugin and action names are not checked against discovered plugins.
func NewBindingHandler(s *store.Store, plugins PluginLookup) *BindingHandler {
	return &BindingHandler{store: s, plugins: plugins}
}

// ServeHTTP routes /api/bindings and /api/bindings/{id}.
func (h *BindingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r, "/api/bindings")

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
		id := parts[0]
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, id)
		case http.MethodPut:
			h.update(w, r, id)
		case http.MethodDelete:
			h.delete(w, r, id)
		default:
			methodNotAllowed(w)
		}
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type bindingRequest struct {
	Move       string          `json:"move"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    *bool           `json:"enabled"`
}

type bindingResponse struct {
	ID         string          `json:"id"`
	Move       string          `json:"move"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  string          `json:"created_at"`
}

type listBindingsResponse struct {
	Bindings []bindingResponse `json:"bindings"`
}

func toBindingResponse(b *store.Binding) bindingResponse {
	config := b.Config
	if len(config) == 0 {
		config = json.RawMessage("{}")
	}
	return bindingResponse{
		ID:         b.ID,
		Move:       b.Move,
		PluginName: b.PluginName,
		ActionName: b.ActionName,
		Config:     config,
		Enabled:    b.Enabled,
		CreatedAt:  b.CreatedAt.Format(timeFormat),
	}
}

func (h *BindingHandler) list(w http.ResponseWriter, r *http.Request) {
	bindings, err := h.store.Bindings().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bindings")
		return
	}

	response := listBindingsResponse{Bindings: make([]bindingResponse, 0, len(bindings))}
	for _, b := range bindings {
		response.Bindings = append(response.Bindings, toBindingResponse(b))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *BindingHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	b, err := h.store.Bindings().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Binding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get binding")
		return
	}
	writeJSON(w, http.StatusOK, toBindingResponse(b))
}

// validate checks the move and, when plugins are known, that the plugin
// exists and offers the action. It returns a client-facing message.
func (h *BindingHandler) validate(b *store.Binding) string {
	if !gesture.Move(b.Move).Valid() {
		return "Unknown move: " + b.Move
	}
	if b.PluginName == "" {
		return "plugin_name is required"
	}
	if b.ActionName == "" {
		return "action_name is required"
	}
	if h.plugins == nil {
		return ""
	}
	p, err := h.plugins.Get(b.PluginName)
	if err != nil {
		return "Plugin not found: " + b.PluginName
	}
	if !p.Manifest.Supports(b.ActionName) {
		return "Plugin " + b.PluginName + " has no action " + b.ActionName
	}
	return ""
}

func (h *BindingHandler) create(w http.ResponseWriter, r *http.Request) {
	var req bindingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Move == "" {
		writeError(w, http.StatusBadRequest, "move is required")
		return
	}

	b := &store.Binding{
		Move:       req.Move,
		PluginName: req.PluginName,
		ActionName: req.ActionName,
		Config:     req.Config,
		Enabled:    req.Enabled == nil || *req.Enabled,
	}
	if msg := h.validate(b); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	existing, err := h.store.Bindings().GetByMove(b.Move)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check existing binding")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "Move is already bound")
		return
	}

	if err := h.store.Bindings().Create(b); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create binding")
		return
	}
	writeJSON(w, http.StatusCreated, toBindingResponse(b))
}

func (h *BindingHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	b, err := h.store.Bindings().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Binding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get binding")
		return
	}

	var req bindingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Move != "" && req.Move != b.Move {
		existing, err := h.store.Bindings().GetByMove(req.Move)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to check existing binding")
			return
		}
		if existing != nil {
			writeError(w, http.StatusConflict, "Move is already bound")
			return
		}
		b.Move = req.Move
	}
	if req.PluginName != "" {
		b.PluginName = req.PluginName
	}
	if req.ActionName != "" {
		b.ActionName = req.ActionName
	}
	if req.Config != nil {
		b.Config = req.Config
	}
	if req.Enabled != nil {
		b.Enabled = *req.Enabled
	}
	if msg := h.validate(b); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.store.Bindings().Update(b); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update binding")
		return
	}
	writeJSON(w, http.StatusOK, toBindingResponse(b))
}

func (h *BindingHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Bindings().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Binding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete binding")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
