package handlers

import (
	"net/http"
	"strings"

	"hackathonwallah/errors"
	"hackathonwallah/http/response"
	"hackathonwallah/services"
	"hackathonwallah/utils"

	"github.com/go-chi/chi"
)

// CreateOrder opens a gateway checkout for a pending registration
// POST /api/payments/create-order
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req services.CreateOrderRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.Error(w, r, err)
		return
	}
	res, err := h.Payments.CreateOrder(r.Context(), user, req)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	status := http.StatusCreated
	if res.Reused {
		status = http.StatusOK
	}
	response.SuccessResponse(w, status, "Payment order ready", res)
}

// VerifyPayment polls the gateway for an order and applies its state
// POST /api/payments/verify
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		OrderID string `json:"orderId"`
	}
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.Error(w, r, err)
		return
	}
	req.OrderID = strings.TrimSpace(req.OrderID)
	if req.OrderID == "" {
		response.Error(w, r, errors.NewValidationError(errors.Fields{"orderId": "is required"}))
		return
	}
	res, err := h.Payments.Verify(r.Context(), user, req.OrderID)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.SuccessResponse(w, http.StatusOK, "", res)
}

// DownloadReceipt returns the PDF receipt of a settled payment
// GET /api/payments/{orderId}/receipt
func (h *Handler) DownloadReceipt(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	data, name, err := h.Payments.Receipt(r.Context(), user, chi.URLParam(r, "orderId"))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.SendFile(w, "application/pdf", name, data)
}

// RecordRefund marks a settled payment refunded
// POST /api/admin/payments/refund
func (h *Handler) RecordRefund(w http.ResponseWriter, r *http.Request) {
	var req services.RefundRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		response.Error(w, r, err)
		return
	}
	p, err := h.Payments.RecordRefund(r.Context(), req)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.SuccessResponse(w, http.StatusOK, "Refund recorded", p)
}
