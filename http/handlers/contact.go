package handlers

import (
	"net/http"

	"hackathonwallah/http/response"
	"hackathonwallah/services"
	"hackathonwallah/utils"
)

// SubmitContact stores a contact-form message
// POST /api/contacts
func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	var req services.ContactRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.Error(w, r, err)
		return
	}
	c, err := h.Contacts.Submit(r.Context(), req)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.SuccessResponse(w, http.StatusCreated, services.ContactAcknowledgement, map[string]string{"id": c.ID})
}
