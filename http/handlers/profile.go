package handlers

import (
	"net/http"

	"hackathonwallah/http/response"
	"hackathonwallah/models"
	"hackathonwallah/utils"
)

// GetProfile returns the caller's profile and what is missing from it
// GET /api/profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	view, err := h.Profiles.Get(r.Context(), user.ID)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.SuccessResponse(w, http.StatusOK, "", view)
}

// UpdateProfile patches the caller's profile
// PATCH /api/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in models.ProfileUpdate
	if err := utils.DecodeJSONRequest(r, &in); err != nil {
		response.Error(w, r, err)
		return
	}
	view, err := h.Profiles.Update(r.Context(), user.ID, in)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.SuccessResponse(w, http.StatusOK, "Profile updated", view)
}
