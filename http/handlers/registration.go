package handlers

import (
	"net/http"

	"hackathonwallah/http/response"
	"hackathonwallah/services"
	"hackathonwallah/utils"
)

// Register signs the caller's team up for a hackathon
// POST /api/hackathons/{id}/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "hackathon")
	if !ok {
		return
	}
	var req services.RegistrationRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.Error(w, r, err)
		return
	}
	p, err := h.Registrations.Register(r.Context(), user, id, req)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.SuccessResponse(w, http.StatusCreated, "Registration received. Complete the payment to confirm your spot.", p)
}

// GetRegistration returns the caller's registration and its stage
// GET /api/hackathons/{id}/registration
func (h *Handler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "hackathon")
	if !ok {
		return
	}
	view, err := h.Registrations.Get(r.Context(), user, id)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.SuccessResponse(w, http.StatusOK, "", view)
}

// SubmitProject records the team's project link
// POST /api/hackathons/{id}/submission
func (h *Handler) SubmitProject(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id", "hackathon")
	if !ok {
		return
	}
	var req services.SubmissionRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.Error(w, r, err)
		return
	}
	p, err := h.Registrations.Submit(r.Context(), user, id, req)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.SuccessResponse(w, http.StatusOK, "Submission saved", p)
}
