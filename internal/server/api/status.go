package api

import (
	"net/http"
	"time"

	"github.com/ayusman/padam/internal/gesture"
)

// PipelineStatus describes the running detection pipeline.
type PipelineStatus struct {
	Enabled   bool           `json:"enabled"`
	Running   bool           `json:"running"`
	Active    bool           `json:"active"`
	SessionID string         `json:"session_id,omitempty"`
	Engine    gesture.Status `json:"engine"`
}

// Controller is the part of the application the status endpoints drive.
type Controller interface {
	Enabled() bool
	SetEnabled(enabled bool) error
	Status() PipelineStatus
}

// StatusHandler serves GET /api/status.
type StatusHandler struct {
	ctl   Controller
	start time.Time
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(ctl Controller) *StatusHandler {
	return &StatusHandler{ctl: ctl, start: time.Now()}
}

type statusResponse struct {
	Uptime string `json:"uptime"`
	PipelineStatus
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Uptime:         time.Since(h.start).Round(time.Second).String(),
		PipelineStatus: h.ctl.Status(),
	})
}

// EnabledHandler serves GET and PUT /api/enabled.
type EnabledHandler struct {
	ctl Controller
}

// NewEnabledHandler creates an EnabledHandler.
func NewEnabledHandler(ctl Controller) *EnabledHandler {
	return &EnabledHandler{ctl: ctl}
}

type enabledBody struct {
	Enabled *bool `json:"enabled"`
}

func (h *EnabledHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		on := h.ctl.Enabled()
		writeJSON(w, http.StatusOK, enabledBody{Enabled: &on})
	case http.MethodPut:
		var req enabledBody
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Enabled == nil {
			writeError(w, http.StatusBadRequest, "enabled is required")
			return
		}
		if err := h.ctl.SetEnabled(*req.Enabled); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to update detection state: "+err.Error())
			return
		}
		on := h.ctl.Enabled()
		writeJSON(w, http.StatusOK, enabledBody{Enabled: &on})
	default:
		methodNotAllowed(w)
	}
}
