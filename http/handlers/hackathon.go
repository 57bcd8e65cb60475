package handlers

import (
	"net/http"
	"strings"

	"hackathonwallah/http/response"
	"hackathonwallah/models"
	"hackathonwallah/utils"

	"github.com/go-chi/chi"
)

// ListHackathons returns the catalog
// GET /api/hackathons?status=published,ongoing&themes=ai,web&search=term
func (h *Handler) ListHackathons(w http.ResponseWriter, r *http.Request) {
	list, err := h.Catalog.List(r.Context(), utils.ParseHackathonFilter(r))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	if list == nil {
		list = []models.Hackathon{}
	}
	response.SuccessResponse(w, http.StatusOK, "", list)
}

// GetHackathon returns one hackathon
// GET /api/hackathons/{id}
func (h *Handler) GetHackathon(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id", "hackathon")
	if !ok {
		return
	}
	hk, err := h.Catalog.Get(r.Context(), id)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.SuccessResponse(w, http.StatusOK, "", hk)
}

// GetHackathonBySlug returns one hackathon by its slug
// GET /api/hackathons/slug/{slug}
func (h *Handler) GetHackathonBySlug(w http.ResponseWriter, r *http.Request) {
	hk, err := h.Catalog.GetBySlug(r.Context(), strings.TrimSpace(chi.URLParam(r, "slug")))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.SuccessResponse(w, http.StatusOK, "", hk)
}

// CreateHackathon adds a hackathon to the catalog
// POST /api/admin/hackathons
func (h *Handler) CreateHackathon(w http.ResponseWriter, r *http.Request) {
	var in models.HackathonInput
	if err := utils.DecodeJSONRequest(r, &in); err != nil {
		response.Error(w, r, err)
		return
	}
	hk, err := h.Catalog.Create(r.Context(), in)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.SuccessResponse(w, http.StatusCreated, "Hackathon created", hk)
}

// UpdateHackathon patches a hackathon
// PATCH /api/admin/hackathons/{id}
func (h *Handler) UpdateHackathon(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id", "hackathon")
	if !ok {
		return
	}
	var in models.HackathonInput
	if err := utils.DecodeJSONRequest(r, &in); err != nil {
		response.Error(w, r, err)
		return
	}
	hk, err := h.Catalog.Update(r.Context(), id, in)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.SuccessResponse(w, http.StatusOK, "Hackathon updated", hk)
}

// DeleteHackathon removes a hackathon
// DELETE /api/admin/hackathons/{id}
func (h *Handler) DeleteHackathon(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id", "hackathon")
	if !ok {
		return
	}
	if err := h.Catalog.Delete(r.Context(), id); err != nil {
		response.Error(w, r, err)
		return
	}
	response.SuccessResponse(w, http.StatusOK, "Hackathon deleted", map[string]string{"id": id})
}
