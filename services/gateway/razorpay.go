package gateway

import (
	"context"
	"fmt"
	"net/http"

	"hackathonwallah/errors"
	"hackathonwallah/models"

	"github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
	"github.com/shopspring/decimal"
)

const headerRazorpaySignature = "X-Razorpay-Signature"

// razorpayOrders is the slice of the razorpay-go Order resource we use.
type razorpayOrders interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
	Fetch(orderID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
	Payments(orderID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// RazorpayGateway creates and reconciles orders through razorpay-go.
type RazorpayGateway struct {
	keyID         string
	webhookSecret string
	orders        razorpayOrders
}

// NewRazorpay builds a Razorpay client from API keys.
func NewRazorpay(keyID, keySecret, webhookSecret string) (*RazorpayGateway, error) {
	if keyID == "" || keySecret == "" {
		return nil, errors.E(errors.Internal, errors.CodeServerMisconfigured, "razorpay credentials not configured")
	}
	client := razorpay.NewClient(keyID, keySecret)
	return &RazorpayGateway{keyID: keyID, webhookSecret: webhookSecret, orders: client.Order}, nil
}

func (g *RazorpayGateway) Name() string { return Razorpay }

var hundred = decimal.NewFromInt(100)

func toPaise(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

func fromPaise(m map[string]interface{}, key string) *decimal.Decimal {
	v := amount(m, key)
	if v == nil {
		return nil
	}
	d := v.Div(hundred).Round(2)
	return &d
}

// CreateOrder creates a Razorpay order. Razorpay mints the order id; the
// local id travels as the receipt.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	data := map[string]interface{}{
		"amount":   toPaise(req.Amount),
		"currency": req.Currency,
		"receipt":  req.OrderID,
		"notes": map[string]interface{}{
			"participant_id": req.ParticipantID,
			"user_id":        req.CustomerID,
			"email":          req.CustomerEmail,
			"note":           req.Note,
		},
	}

	resp, err := g.orders.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating razorpay order: %w", err)
	}

	orderID, ok := resp["id"].(string)
	if !ok || orderID == "" {
		return nil, fmt.Errorf("razorpay did not return an order id")
	}
	status, _ := resp["status"].(string)

	return &Order{
		OrderID:        orderID,
		GatewayOrderID: orderID,
		SessionID:      orderID,
		CheckoutKey:    g.keyID,
		Status:         status,
		Raw: models.JSONMap{
			"razorpay_order_id": orderID,
			"receipt":           req.OrderID,
			"order_status":      status,
		},
	}, nil
}

// FetchOrder reads the order and its payment attempts.
func (g *RazorpayGateway) FetchOrder(ctx context.Context, orderID string) (*OrderStatus, error) {
	order, err := g.orders.Fetch(orderID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("error fetching razorpay order: %w", err)
	}

	rawStatus, _ := order["status"].(string)
	status := &OrderStatus{
		OrderID:   orderID,
		RawStatus: rawStatus,
		Status:    NormaliseStatus(rawStatus),
		Amount:    fromPaise(order, "amount"),
		Raw:       models.JSONMap{"order_status": rawStatus},
	}

	payments, err := g.orders.Payments(orderID, nil, nil)
	if err == nil {
		if latest := latestRazorpayPayment(payments); latest != nil {
			paymentStatus, _ := latest["status"].(string)
			status.PaymentID, _ = latest["id"].(string)
			status.PaymentMethod, _ = latest["method"].(string)
			status.Raw["payment_status"] = paymentStatus
			if status.Status == models.PaymentPending {
				status.Status = NormaliseStatus(paymentStatus)
			}
		}
	}
	if status.PaymentID == "" {
		status.PaymentID = orderID
	}
	return status, nil
}

func latestRazorpayPayment(resp map[string]interface{}) map[string]interface{} {
	items, _ := resp["items"].([]interface{})
	var last map[string]interface{}
	for _, item := range items {
		p, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if s, _ := p["status"].(string); s == "captured" {
			return p
		}
		if last == nil {
			// Razorpay lists newest first
			last = p
		}
	}
	return last
}

// VerifyWebhook checks X-Razorpay-Signature with the webhook secret.
func (g *RazorpayGateway) VerifyWebhook(body []byte, headers http.Header) error {
	signature := headers.Get(headerRazorpaySignature)
	if signature == "" {
		return errMissingHeaders(headerRazorpaySignature)
	}
	if g.webhookSecret == "" {
		return errNoSecret(Razorpay)
	}
	if !utils.VerifyWebhookSignature(string(body), signature, g.webhookSecret) {
		return errBadSignature()
	}
	return nil
}

// ParseWebhook handles payment.captured, payment.failed, order.paid and
// refund events. Other events parse with an empty order id.
func (g *RazorpayGateway) ParseWebhook(body []byte, headers http.Header) (*WebhookEvent, error) {
	payload, err := decodeJSON(body)
	if err != nil {
		return nil, errBadPayload(err)
	}

	eventType := str(payload, "event")
	eventID := headers.Get("X-Razorpay-Event-Id")
	if eventID == "" {
		eventID = str(payload, "id")
	}
	if eventID == "" {
		eventID = FallbackEventID(Razorpay, body)
	}

	event := &WebhookEvent{EventID: eventID, EventType: eventType}
	inner := obj(payload, "payload")
	entity := obj(obj(inner, "payment"), "entity")

	switch eventType {
	case "payment.captured", "payment.failed", "order.paid", "refund.processed":
	default:
		return event, nil
	}
	if entity == nil {
		return nil, errBadPayload(fmt.Errorf("payment entity missing for %s", eventType))
	}

	rawStatus := str(entity, "status")
	status := NormaliseStatus(rawStatus)
	switch eventType {
	case "order.paid":
		status = models.PaymentSuccess
	case "payment.failed":
		status = models.PaymentFailed
	case "refund.processed":
		status = models.PaymentRefunded
	}

	event.OrderStatus = OrderStatus{
		OrderID:       str(entity, "order_id"),
		PaymentID:     str(entity, "id"),
		PaymentMethod: str(entity, "method"),
		RawStatus:     rawStatus,
		Status:        status,
		Amount:        fromPaise(entity, "amount"),
		Raw:           models.JSONMap{"webhook_event": eventType, "payment_status": rawStatus},
	}
	if event.OrderID == "" {
		return nil, errBadPayload(fmt.Errorf("order_id missing"))
	}
	if event.PaymentID == "" {
		event.PaymentID = event.OrderID
	}
	return event, nil
}
