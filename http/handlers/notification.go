package handlers

import (
	"net/http"

	"hackathonwallah/http/response"
	"hackathonwallah/models"
	"hackathonwallah/services"
	"hackathonwallah/utils"
)

// ListNotifications returns the caller's latest notifications
// GET /api/notifications?limit=25
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	limit := utils.ParseLimit(r, services.DefaultNotificationLimit, services.MaxNotificationLimit)
	list, err := h.Notifications.List(r.Context(), user.ID, limit)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	if list == nil {
		list = []models.Notification{}
	}
	response.SuccessResponse(w, http.StatusOK, "", list)
}

// MarkNotificationRead flags one notification as read
// PATCH /api/notifications/{id}/read
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "notification")
	if !ok {
		return
	}
	if err := h.Notifications.MarkRead(r.Context(), id, user.ID); err != nil {
		response.Error(w, r, err)
		return
	}
	response.SuccessResponse(w, http.StatusOK, "Notification marked as read", map[string]string{"id": id})
}
