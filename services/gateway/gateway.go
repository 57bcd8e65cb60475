// Package gateway abstracts the payment providers used for registration fees.
package gateway

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"hackathonwallah/config"
	"hackathonwallah/errors"
	"hackathonwallah/models"

	"github.com/shopspring/decimal"
)

const (
	Cashfree = "cashfree"
	Razorpay = "razorpay"
	Stub     = "stub"
)

// OrderRequest describes a checkout to open with the provider.
type OrderRequest struct {
	OrderID       string
	ParticipantID string
	Amount        decimal.Decimal
	Currency      string
	Note          string
	CustomerID    string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	ReturnURL     string
	NotifyURL     string
}

// Order is a provider-side order as created.
type Order struct {
	// OrderID is the key payments are stored under. Providers that mint
	// their own ids return them here.
	OrderID        string
	GatewayOrderID string
	SessionID      string
	CheckoutKey    string
	Status         string
	Raw            models.JSONMap
}

// OrderStatus is the provider's current view of an order.
type OrderStatus struct {
	OrderID       string
	PaymentID     string
	PaymentMethod string
	RawStatus     string
	Status        models.PaymentStatus
	Amount        *decimal.Decimal
	Raw           models.JSONMap
}

// WebhookEvent is a parsed, verified provider callback.
type WebhookEvent struct {
	EventID   string
	EventType string
	OrderStatus
}

// Gateway is implemented by each payment provider.
type Gateway interface {
	Name() string
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	FetchOrder(ctx context.Context, orderID string) (*OrderStatus, error)
	VerifyWebhook(body []byte, headers http.Header) error
	ParseWebhook(body []byte, headers http.Header) (*WebhookEvent, error)
}

// New returns the gateway selected by cfg.PaymentGateway.
func New(cfg config.Config) (Gateway, error) {
	switch cfg.PaymentGateway {
	case Cashfree, "":
		return NewCashfree(cfg.CashfreeAppID, cfg.CashfreeSecretKey, cfg.CashfreeWebhookSecret, cfg.CashfreeEnv)
	case Razorpay:
		return NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayWebhookSecret)
	case Stub:
		return NewStub(cfg.StubWebhookSecret), nil
	default:
		return nil, errors.E(errors.Internal, errors.CodeServerMisconfigured, "unknown payment gateway: "+cfg.PaymentGateway)
	}
}

// NormaliseStatus folds provider order and payment statuses onto the local
// payment status set.
func NormaliseStatus(raw string) models.PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "paid", "success", "captured":
		return models.PaymentSuccess
	case "failed", "cancelled", "expired", "terminated", "user_dropped":
		return models.PaymentFailed
	case "refunded":
		return models.PaymentRefunded
	default:
		return models.PaymentPending
	}
}

// FallbackEventID derives a stable event id from the body for providers
// that do not send one.
func FallbackEventID(gateway string, body []byte) string {
	sum := sha256.Sum256(body)
	return gateway + "_" + hex.EncodeToString(sum[:16])
}

func errMissingHeaders(names ...string) error {
	return errors.E(errors.Invalid, "missing webhook headers: "+strings.Join(names, ", "))
}

func errBadSignature() error {
	return errors.E(errors.Unauthorized, errors.CodeInvalidSignature, "invalid webhook signature")
}

func errNoSecret(gateway string) error {
	return errors.E(errors.Internal, errors.CodeServerMisconfigured, gateway+" webhook secret is not configured")
}

func errBadPayload(err error) error {
	return errors.E(errors.Invalid, "invalid webhook payload", err)
}

// str reads a string, or a number rendered as a string, from a decoded JSON map.
func str(m map[string]interface{}, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return decimal.NewFromFloat(v).String()
	default:
		return ""
	}
}

func obj(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}

func amount(m map[string]interface{}, key string) *decimal.Decimal {
	switch v := m[key].(type) {
	case json.Number:
		if d, err := decimal.NewFromString(v.String()); err == nil {
			d = d.Round(2)
			return &d
		}
	case float64:
		d := decimal.NewFromFloat(v).Round(2)
		return &d
	case string:
		if d, err := decimal.NewFromString(v); err == nil {
			d = d.Round(2)
			return &d
		}
	}
	return nil
}

// decodeJSON decodes body keeping numbers exact.
func decodeJSON(body []byte) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var m map[string]interface{}
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}
