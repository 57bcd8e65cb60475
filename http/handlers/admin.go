package handlers

import (
	"net/http"

	"hackathonwallah/http/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportRoster downloads a hackathon's participants as a spreadsheet
// GET /api/admin/hackathons/{id}/participants.xlsx
func (h *Handler) ExportRoster(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id", "hackathon")
	if !ok {
		return
	}
	data, name, err := h.Roster.Export(r.Context(), id)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.SendFile(w, xlsxContentType, name, data)
}
