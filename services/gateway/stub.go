package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"

	"hackathonwallah/errors"
	"hackathonwallah/models"
)

const headerStubSignature = "X-Stub-Signature"

// StubGateway is an in-memory provider for local development and tests.
type StubGateway struct {
	secret string

	mu     sync.Mutex
	orders map[string]*OrderStatus
}

// NewStub returns a stub gateway whose webhooks are signed with secret.
func NewStub(secret string) *StubGateway {
	return &StubGateway{secret: secret, orders: make(map[string]*OrderStatus)}
}

func (g *StubGateway) Name() string { return Stub }

func (g *StubGateway) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	amt := req.Amount
	g.orders[req.OrderID] = &OrderStatus{
		OrderID:   req.OrderID,
		RawStatus: "ACTIVE",
		Status:    models.PaymentPending,
		Amount:    &amt,
	}
	session := "stub_session_" + req.OrderID
	return &Order{
		OrderID:        req.OrderID,
		GatewayOrderID: req.OrderID,
		SessionID:      session,
		Status:         "ACTIVE",
		Raw: models.JSONMap{
			"cf_order_id":        req.OrderID,
			"payment_session_id": session,
			"order_status":       "ACTIVE",
			"return_url":         req.ReturnURL,
			"notify_url":         req.NotifyURL,
		},
	}, nil
}

func (g *StubGateway) FetchOrder(ctx context.Context, orderID string) (*OrderStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	o, ok := g.orders[orderID]
	if !ok {
		return nil, errors.E(errors.NotFound, "stub order not found")
	}
	out := *o
	out.Raw = models.JSONMap{"order_status": o.RawStatus}
	if out.PaymentID == "" {
		out.PaymentID = orderID
	}
	return &out, nil
}

// Settle sets the status the stub reports for an order, as a checkout would.
func (g *StubGateway) Settle(orderID, rawStatus string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	o, ok := g.orders[orderID]
	if !ok {
		o = &OrderStatus{OrderID: orderID}
		g.orders[orderID] = o
	}
	o.RawStatus = rawStatus
	o.Status = NormaliseStatus(rawStatus)
	o.PaymentID = "stub_pay_" + orderID
}

// Sign returns the hex HMAC-SHA256 of body.
func (g *StubGateway) Sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(g.secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (g *StubGateway) VerifyWebhook(body []byte, headers http.Header) error {
	signature := headers.Get(headerStubSignature)
	if signature == "" {
		return errMissingHeaders(headerStubSignature)
	}
	if g.secret == "" {
		return errNoSecret(Stub)
	}
	if !hmac.Equal([]byte(g.Sign(body)), []byte(signature)) {
		return errBadSignature()
	}
	return nil
}

// ParseWebhook reads {order_id, status, payment_id, amount}.
func (g *StubGateway) ParseWebhook(body []byte, headers http.Header) (*WebhookEvent, error) {
	payload, err := decodeJSON(body)
	if err != nil {
		return nil, errBadPayload(err)
	}
	orderID := str(payload, "order_id")
	if orderID == "" {
		return nil, errBadPayload(fmt.Errorf("order_id missing"))
	}
	rawStatus := str(payload, "status")
	paymentID := str(payload, "payment_id")
	if paymentID == "" {
		paymentID = orderID
	}

	g.Settle(orderID, rawStatus)

	return &WebhookEvent{
		EventID:   FallbackEventID(Stub, body),
		EventType: "stub." + rawStatus,
		OrderStatus: OrderStatus{
			OrderID:   orderID,
			PaymentID: paymentID,
			RawStatus: rawStatus,
			Status:    NormaliseStatus(rawStatus),
			Amount:    amount(payload, "amount"),
			Raw:       models.JSONMap{"webhook_status": rawStatus},
		},
	}, nil
}
