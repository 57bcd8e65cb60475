package handlers

import (
	"io"
	"net/http"

	"hackathonwallah/errors"
	"hackathonwallah/http/response"

	"github.com/go-chi/chi"
)

const maxWebhookBody = 1 << 20

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		return nil, errors.E(errors.Invalid, "Unable to read request body", err)
	}
	return body, nil
}

// PaymentWebhook receives gateway callbacks. Signatures are checked
// against the raw body, so it is read before any decoding.
// POST /api/webhooks/{gateway}
func (h *Handler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	if err := h.Webhooks.Handle(r.Context(), chi.URLParam(r, "gateway"), body, r.Header); err != nil {
		response.Error(w, r, err)
		return
	}
	response.SendJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// ClerkWebhook syncs identity-provider users
// POST /api/webhooks/clerk
func (h *Handler) ClerkWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	event, err := h.UserSync.Handle(r.Context(), body, r.Header)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.SendJSON(w, http.StatusOK, map[string]interface{}{"received": true, "event": event})
}
