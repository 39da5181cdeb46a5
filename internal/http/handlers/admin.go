package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/homequest-ai/lead-assistant/internal/leadarchive"
	"github.com/homequest-ai/lead-assistant/pkg/logging"
)

// CRMPinger verifies external CRM connectivity.
type CRMPinger interface {
	Ping(ctx context.Context) ([]string, error)
}

// RetrievalController exposes the retrieval service's operational surface.
type RetrievalController interface {
	Loaded() bool
	Reset()
}

// AdminHandler serves operational endpoints: CRM connectivity, retrieval
// state, and the lead archive.
type AdminHandler struct {
	crm       CRMPinger
	retrieval RetrievalController
	archive   leadarchive.Repository
	logger    *logging.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(crm CRMPinger, retrieval RetrievalController, archive leadarchive.Repository, logger *logging.Logger) *AdminHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminHandler{
		crm:       crm,
		retrieval: retrieval,
		archive:   archive,
		logger:    logger,
	}
}

// PingCRM handles GET /admin/crm/ping requests.
func (h *AdminHandler) PingCRM(w http.ResponseWriter, r *http.Request) {
	properties, err := h.crm.Ping(r.Context())
	if err != nil {
		h.logger.Error("crm ping failed", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":            "ok",
		"sample_properties": properties,
	})
}

// RetrievalStatus handles GET /admin/retrieval requests.
func (h *AdminHandler) RetrievalStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"loaded": h.retrieval.Loaded()})
}

// ResetRetrieval handles POST /admin/retrieval/reset requests. Clears a
// soft-disabled retrieval service so the next query retries the load.
func (h *AdminHandler) ResetRetrieval(w http.ResponseWriter, r *http.Request) {
	h.retrieval.Reset()
	h.logger.Info("retrieval state reset")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "reset"})
}

// ListSessionLeads handles GET /admin/sessions/{sessionID}/leads requests.
func (h *AdminHandler) ListSessionLeads(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "missing session_id", http.StatusBadRequest)
		return
	}

	leads, err := h.archive.ListBySession(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("failed to list archived leads", "error", err, "session_id", sessionID)
		http.Error(w, "failed to list leads", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"leads": leads,
		"count": len(leads),
	})
}
