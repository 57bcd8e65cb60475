package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"hackathonwallah/errors"
	"hackathonwallah/logger"
	"hackathonwallah/models"
	"hackathonwallah/services/gateway"
	"hackathonwallah/utils"

	"github.com/shopspring/decimal"
)

// CreateOrderRequest opens a checkout for a participant.
type CreateOrderRequest struct {
	ParticipantID string `json:"participantId"`
	ReturnURL     string `json:"returnUrl,omitempty"`
	NotifyURL     string `json:"notifyUrl,omitempty"`
}

// CreateOrderResult is what the client needs to open the checkout widget.
type CreateOrderResult struct {
	OrderID          string          `json:"orderId"`
	PaymentSessionID string          `json:"paymentSessionId"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Gateway          string          `json:"gateway"`
	CheckoutKey      string          `json:"checkoutKey,omitempty"`
	Reused           bool            `json:"reused"`
}

// VerifyResult reports a payment's state after polling the gateway.
type VerifyResult struct {
	OrderID           string                          `json:"orderId"`
	Status            models.PaymentStatus            `json:"status"`
	ParticipantStatus models.ParticipantPaymentStatus `json:"participantStatus"`
}

// RefundRequest records a refund issued from the gateway dashboard.
type RefundRequest struct {
	PaymentID string          `json:"paymentId"`
	RefundID  string          `json:"refundId"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason,omitempty"`
}

// PaymentService creates gateway orders and reconciles their outcome with
// registrations.
type PaymentService struct {
	appURL       string
	gateway      gateway.Gateway
	payments     PaymentStore
	participants ParticipantStore
	hackathons   HackathonStore
	users        UserStore
	notifier     Notifier

	bus          EventBus
	paymentTopic string
	alerter      AdminAlerter

	now func() time.Time
}

// PaymentDeps groups the collaborators of a PaymentService. Bus and
// Alerter are optional.
type PaymentDeps struct {
	AppURL       string
	Gateway      gateway.Gateway
	Payments     PaymentStore
	Participants ParticipantStore
	Hackathons   HackathonStore
	Users        UserStore
	Notifier     Notifier
	Bus          EventBus
	PaymentTopic string
	Alerter      AdminAlerter
}

func NewPaymentService(d PaymentDeps) *PaymentService {
	return &PaymentService{
		appURL:       strings.TrimRight(d.AppURL, "/"),
		gateway:      d.Gateway,
		payments:     d.Payments,
		participants: d.Participants,
		hackathons:   d.Hackathons,
		users:        d.Users,
		notifier:     d.Notifier,
		bus:          d.Bus,
		paymentTopic: d.PaymentTopic,
		alerter:      d.Alerter,
		now:          time.Now,
	}
}

// GatewayName is the active provider.
func (s *PaymentService) GatewayName() string {
	return s.gateway.Name()
}

// CreateOrder opens a gateway checkout for the caller's registration, or
// returns the checkout that is still open.
func (s *PaymentService) CreateOrder(ctx context.Context, user *models.User, req CreateOrderRequest) (*CreateOrderResult, error) {
	req.ParticipantID = strings.TrimSpace(req.ParticipantID)
	v := utils.NewValidator()
	v.Check(req.ParticipantID != "", "participantId", "is required")
	if v.Valid() {
		v.UUID("participantId", req.ParticipantID)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	p, err := s.participants.GetByID(ctx, req.ParticipantID)
	if err != nil {
		return nil, err
	}
	if p.UserID != user.ID {
		return nil, errors.NewForbiddenError("This registration belongs to another user")
	}
	if p.PaymentStatus == models.ParticipantPaid {
		return nil, errors.E(errors.Conflict, errors.CodeAlreadyPaid, "This registration is already paid")
	}

	h, err := s.hackathons.GetByID(ctx, p.HackathonID)
	if err != nil {
		return nil, err
	}
	if !h.RequiresPayment() {
		return nil, errors.E(errors.Invalid, errors.CodeNoPaymentRequired, "This hackathon has no registration fee")
	}

	active, err := s.payments.GetActiveForParticipant(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if active != nil && active.PaymentSessionID != "" {
		logger.Debug("Reusing open order %s for participant %s", active.OrderID, p.ID)
		checkoutKey, _ := active.GatewayResponse["checkout_key"].(string)
		return &CreateOrderResult{
			OrderID:          active.OrderID,
			PaymentSessionID: active.PaymentSessionID,
			Amount:           active.Amount,
			Currency:         active.Currency,
			Gateway:          active.Gateway,
			CheckoutKey:      checkoutKey,
			Reused:           true,
		}, nil
	}

	orderID := fmt.Sprintf("order_%s_%d", shortID(p.ID), s.now().UnixMilli())
	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = fmt.Sprintf("%s/payments/%s/return?order_id=%s", s.appURL, s.gateway.Name(), url.QueryEscape(orderID))
	}
	notifyURL := req.NotifyURL
	if notifyURL == "" {
		notifyURL = fmt.Sprintf("%s/api/webhooks/%s", s.appURL, s.gateway.Name())
	}
	amount := h.RegistrationFee.Round(2)

	order, err := s.gateway.CreateOrder(ctx, gateway.OrderRequest{
		OrderID:       orderID,
		ParticipantID: p.ID,
		Amount:        amount,
		Currency:      models.CurrencyINR,
		Note:          "Registration fee for " + h.Title,
		CustomerID:    user.ID,
		CustomerName:  user.Name,
		CustomerEmail: user.Email,
		CustomerPhone: user.Phone,
		ReturnURL:     returnURL,
		NotifyURL:     notifyURL,
	})
	if err != nil {
		logger.Error("Gateway order creation failed for participant %s: %v", p.ID, err)
		if errors.KindOf(err) != errors.Other {
			return nil, err
		}
		return nil, errors.E(errors.Internal, "Unable to create payment order", err)
	}

	raw := models.JSONMap{}
	for k, v := range order.Raw {
		raw[k] = v
	}
	if order.CheckoutKey != "" {
		raw["checkout_key"] = order.CheckoutKey
	}

	payment, err := s.payments.Create(ctx, &models.Payment{
		ParticipantID:    p.ID,
		UserID:           user.ID,
		HackathonID:      h.ID,
		OrderID:          order.OrderID,
		Amount:           amount,
		Currency:         models.CurrencyINR,
		Status:           models.PaymentInitiated,
		PaymentSessionID: order.SessionID,
		Gateway:          s.gateway.Name(),
		GatewayResponse:  raw,
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(map[string]interface{}{"order_id": payment.OrderID, "participant_id": p.ID, "gateway": payment.Gateway}).
		Info("Payment order created for %s", amount.StringFixed(2))

	s.notifier.Dispatch(ctx, user.ID, TemplatePaymentSessionCreated, TemplateData{
		Name:           user.Name,
		HackathonTitle: h.Title,
		Amount:         amount.StringFixed(2),
		OrderID:        payment.OrderID,
		ActionURL:      "/hackathons/" + h.Slug,
	})

	return &CreateOrderResult{
		OrderID:          payment.OrderID,
		PaymentSessionID: payment.PaymentSessionID,
		Amount:           payment.Amount,
		Currency:         payment.Currency,
		Gateway:          payment.Gateway,
		CheckoutKey:      order.CheckoutKey,
	}, nil
}

// Verify polls the gateway for the caller's order and reconciles it.
func (s *PaymentService) Verify(ctx context.Context, user *models.User, orderID string) (*VerifyResult, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, errors.NewValidationError(errors.Fields{"orderId": "is required"})
	}

	payment, err := s.payments.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if payment.UserID != user.ID {
		return nil, errors.NewForbiddenError("This payment belongs to another user")
	}

	status, err := s.gateway.FetchOrder(ctx, orderID)
	if err != nil {
		logger.Error("Gateway fetch failed for order %s: %v", orderID, err)
		if errors.KindOf(err) != errors.Other {
			return nil, err
		}
		return nil, errors.E(errors.Internal, "Unable to verify payment", err)
	}

	res, err := s.Reconcile(ctx, *status)
	if err != nil {
		return nil, err
	}

	participant := res.Participant
	if participant == nil {
		if participant, err = s.participants.GetByID(ctx, res.Payment.ParticipantID); err != nil {
			return nil, err
		}
	}
	return &VerifyResult{
		OrderID:           res.Payment.OrderID,
		Status:            res.Payment.Status,
		ParticipantStatus: participant.PaymentStatus,
	}, nil
}

// Reconcile applies a gateway-reported order state. It is shared by
// verify polling and webhooks and is idempotent per order: side effects
// run only when the state actually moved.
func (s *PaymentService) Reconcile(ctx context.Context, st gateway.OrderStatus) (*models.PaymentUpdateResult, error) {
	payment, err := s.payments.GetByOrderID(ctx, st.OrderID)
	if err != nil {
		return nil, err
	}
	log := logger.WithFields(map[string]interface{}{"order_id": st.OrderID, "gateway": payment.Gateway})

	if st.Status == models.PaymentSuccess && st.Amount != nil && !st.Amount.Round(2).Equal(payment.Amount.Round(2)) {
		log.Error("Amount mismatch: gateway reported %s, expected %s", st.Amount.StringFixed(2), payment.Amount.StringFixed(2))
		return nil, errors.WithDetails(
			errors.E(errors.Invalid, errors.CodeAmountMismatch, "Paid amount does not match the registration fee"),
			map[string]interface{}{"expected": payment.Amount.StringFixed(2), "received": st.Amount.StringFixed(2)})
	}

	response := models.JSONMap{}
	for k, v := range st.Raw {
		response[k] = v
	}
	response["last_status"] = st.RawStatus
	response["reconciled_at"] = s.now().UTC().Format(time.RFC3339)

	res, err := s.payments.ApplyGatewayUpdate(ctx, models.PaymentUpdate{
		OrderID:         st.OrderID,
		Status:          st.Status,
		PaymentID:       st.PaymentID,
		PaymentMethod:   st.PaymentMethod,
		GatewayResponse: response,
	})
	if err != nil {
		return nil, err
	}

	if !res.Changed {
		log.Debug("No transition from %s to %s", res.Previous, st.Status)
		return res, nil
	}
	log.Info("Payment moved from %s to %s", res.Previous, res.Payment.Status)
	s.afterTransition(ctx, res)
	return res, nil
}

// RecordRefund marks a successful payment refunded.
func (s *PaymentService) RecordRefund(ctx context.Context, req RefundRequest) (*models.Payment, error) {
	req.PaymentID = strings.TrimSpace(req.PaymentID)
	req.RefundID = strings.TrimSpace(req.RefundID)

	v := utils.NewValidator()
	v.Check(req.PaymentID != "", "paymentId", "is required")
	v.UUID("paymentId", req.PaymentID)
	v.Check(req.Amount.GreaterThan(decimal.Zero), "amount", "must be greater than 0")
	v.MaxLength("reason", req.Reason, 500)
	if err := v.Err(); err != nil {
		return nil, err
	}

	payment, err := s.payments.GetByID(ctx, req.PaymentID)
	if err != nil {
		return nil, err
	}
	amount := req.Amount.Round(2)
	if amount.GreaterThan(payment.Amount) {
		return nil, errors.NewValidationError(errors.Fields{"amount": "must not exceed the paid amount"})
	}
	if payment.Status != models.PaymentSuccess {
		return nil, errors.E(errors.Invalid, errors.CodeNotRefundable, "Only successful payments can be refunded")
	}

	response := models.JSONMap{"refunded_at": s.now().UTC().Format(time.RFC3339)}
	if req.Reason != "" {
		response["refund_reason"] = req.Reason
	}
	res, err := s.payments.ApplyGatewayUpdate(ctx, models.PaymentUpdate{
		OrderID:         payment.OrderID,
		Status:          models.PaymentRefunded,
		GatewayResponse: response,
		RefundAmount:    &amount,
		RefundID:        req.RefundID,
	})
	if err != nil {
		return nil, err
	}
	if !res.Changed {
		return nil, errors.E(errors.Invalid, errors.CodeNotRefundable, "Only successful payments can be refunded")
	}

	logger.WithFields(map[string]interface{}{"order_id": payment.OrderID, "refund_id": req.RefundID}).
		Info("Refund of %s recorded", amount.StringFixed(2))
	s.afterTransition(ctx, res)
	return res.Payment, nil
}

// Receipt renders the PDF receipt for one of the caller's paid orders.
func (s *PaymentService) Receipt(ctx context.Context, user *models.User, orderID string) ([]byte, string, error) {
	payment, err := s.payments.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, "", err
	}
	if payment.UserID != user.ID {
		return nil, "", errors.NewForbiddenError("This payment belongs to another user")
	}
	if payment.Status != models.PaymentSuccess {
		return nil, "", errors.E(errors.Invalid, errors.CodePaymentPending, "A receipt is available once the payment succeeds")
	}

	h, err := s.hackathons.GetByID(ctx, payment.HackathonID)
	if err != nil {
		return nil, "", err
	}
	p, err := s.participants.GetByID(ctx, payment.ParticipantID)
	if err != nil {
		return nil, "", err
	}

	pdf, err := RenderReceipt(ReceiptData{Payment: payment, Hackathon: h, User: user, TeamName: p.TeamName})
	if err != nil {
		return nil, "", err
	}
	return pdf, "receipt-" + payment.OrderID + ".pdf", nil
}

func (s *PaymentService) afterTransition(ctx context.Context, res *models.PaymentUpdateResult) {
	payment := res.Payment

	var title, slug string
	if h, err := s.hackathons.GetByID(ctx, payment.HackathonID); err == nil {
		title, slug = h.Title, h.Slug
	} else {
		logger.Warn("Hackathon %s not loaded for payment notification: %v", payment.HackathonID, err)
	}

	amount := payment.Amount
	if payment.Status == models.PaymentRefunded && payment.RefundAmount != nil {
		amount = *payment.RefundAmount
	}

	if t, ok := PaymentTemplate(payment.Status); ok {
		s.notifier.Dispatch(ctx, payment.UserID, t, TemplateData{
			HackathonTitle: title,
			Amount:         amount.StringFixed(2),
			OrderID:        payment.OrderID,
			ActionURL:      "/hackathons/" + slug,
		})
	}

	s.publishPaymentEvent(ctx, res)

	if s.alerter == nil {
		return
	}
	switch payment.Status {
	case models.PaymentSuccess:
		s.alerter.Alert(fmt.Sprintf("New paid registration for %s: %s %s (order %s)",
			title, payment.Currency, amount.StringFixed(2), payment.OrderID))
	case models.PaymentRefunded:
		s.alerter.Alert(fmt.Sprintf("Refund recorded for %s: %s %s (order %s)",
			title, payment.Currency, amount.StringFixed(2), payment.OrderID))
	}
}

func (s *PaymentService) publishPaymentEvent(ctx context.Context, res *models.PaymentUpdateResult) {
	if s.bus == nil || s.paymentTopic == "" {
		return
	}
	p := res.Payment
	evt, err := json.Marshal(map[string]interface{}{
		"event":           "payment." + string(p.Status),
		"order_id":        p.OrderID,
		"payment_id":      p.PaymentID,
		"participant_id":  p.ParticipantID,
		"user_id":         p.UserID,
		"hackathon_id":    p.HackathonID,
		"status":          p.Status,
		"previous_status": res.Previous,
		"amount":          p.Amount.StringFixed(2),
		"currency":        p.Currency,
		"gateway":         p.Gateway,
		"ts":              s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		logger.Error("Failed to encode payment event: %v", err)
		return
	}
	if err := s.bus.Publish(ctx, s.paymentTopic, p.OrderID, evt); err != nil {
		logger.Warn("Failed to publish payment event for %s: %v", p.OrderID, err)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
