package handlers

import (
	"encoding/json"
	"net/http"

	"hackathonwallah/http/response"
	"hackathonwallah/logger"
	"hackathonwallah/models"
	"hackathonwallah/utils"
)

// GetDLQMessages retrieves unresolved DLQ messages
// GET /api/admin/dlq/messages?limit=50
func (h *Handler) GetDLQMessages(w http.ResponseWriter, r *http.Request) {
	limit := utils.ParseLimit(r, 50, 500)

	messages, err := h.DeadLetters.List(r.Context(), limit)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	if messages == nil {
		messages = []models.DeadLetter{}
	}

	response.SuccessResponse(w, http.StatusOK, "DLQ messages retrieved", map[string]interface{}{
		"count":    len(messages),
		"messages": messages,
	})
}

// RetryDLQMessage replays a specific DLQ message
// POST /api/admin/dlq/messages/{id}/retry
func (h *Handler) RetryDLQMessage(w http.ResponseWriter, r *http.Request) {
	messageID, ok := uuidParam(w, r, "id", "message")
	if !ok {
		return
	}

	if err := h.DeadLetters.Retry(r.Context(), messageID); err != nil {
		logger.Error("Error retrying DLQ message %s: %v", messageID, err)
		response.Error(w, r, err)
		return
	}

	response.SuccessResponse(w, http.StatusOK, "Message replayed", map[string]interface{}{
		"messageId": messageID,
	})
}

// ResolveDLQMessage marks a DLQ message as resolved
// POST /api/admin/dlq/messages/{id}/resolve
func (h *Handler) ResolveDLQMessage(w http.ResponseWriter, r *http.Request) {
	messageID, ok := uuidParam(w, r, "id", "message")
	if !ok {
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	// the body is optional
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := h.DeadLetters.Resolve(r.Context(), messageID, req.Notes); err != nil {
		response.Error(w, r, err)
		return
	}

	response.SuccessResponse(w, http.StatusOK, "Message marked as resolved", map[string]interface{}{
		"messageId": messageID,
	})
}

// GetDLQStats retrieves statistics about DLQ messages
// GET /api/admin/dlq/stats
func (h *Handler) GetDLQStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.DeadLetters.Stats(r.Context())
	if err != nil {
		response.Error(w, r, err)
		return
	}

	response.SuccessResponse(w, http.StatusOK, "DLQ statistics", stats)
}
