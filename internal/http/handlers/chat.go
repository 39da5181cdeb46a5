// Package handlers exposes the chat and admin HTTP endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/homequest-ai/lead-assistant/internal/chat"
	"github.com/homequest-ai/lead-assistant/pkg/logging"
)

// TurnProcessor handles one chat turn.
type TurnProcessor interface {
	HandleTurn(ctx context.Context, req chat.TurnRequest) (chat.TurnResult, error)
}

// ChatHandler handles HTTP requests for the chat endpoint.
type ChatHandler struct {
	processor TurnProcessor
	logger    *logging.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(processor TurnProcessor, logger *logging.Logger) *ChatHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ChatHandler{
		processor: processor,
		logger:    logger,
	}
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Budget    string `json:"budget"`
	Message   string `json:"message"`
}

// HandleChat handles POST /chat requests.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode chat request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	result, err := h.processor.HandleTurn(r.Context(), chat.TurnRequest{
		SessionID: req.SessionID,
		Name:      req.Name,
		Email:     req.Email,
		Budget:    req.Budget,
		Message:   req.Message,
	})
	if err != nil {
		// The orchestrator still returns a usable result on internal
		// failures; log and serve it.
		h.logger.Error("chat turn degraded", "session_id", result.SessionID, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
