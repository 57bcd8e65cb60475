package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hackathonwallah/errors"
	"hackathonwallah/logger"
	"hackathonwallah/models"
)

const (
	cashfreeSandboxURL    = "https://sandbox.cashfree.com/pg"
	cashfreeProductionURL = "https://api.cashfree.com/pg"
	cashfreeAPIVersion    = "2023-08-01"

	headerCashfreeSignature = "x-webhook-signature"
	headerCashfreeTimestamp = "x-webhook-timestamp"
)

// CashfreeGateway talks to the Cashfree PG REST API.
type CashfreeGateway struct {
	appID         string
	secretKey     string
	webhookSecret string
	baseURL       string
	client        *http.Client
}

// NewCashfree builds a Cashfree client for the given environment
// ("sandbox" or "production").
func NewCashfree(appID, secretKey, webhookSecret, env string) (*CashfreeGateway, error) {
	if appID == "" || secretKey == "" {
		return nil, errors.E(errors.Internal, errors.CodeServerMisconfigured, "cashfree credentials not configured")
	}
	if webhookSecret == "" {
		webhookSecret = secretKey
	}
	baseURL := cashfreeSandboxURL
	if strings.EqualFold(env, "production") {
		baseURL = cashfreeProductionURL
	}
	return &CashfreeGateway{
		appID:         appID,
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		baseURL:       baseURL,
		client:        &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// WithBaseURL points the client at another API root.
func (g *CashfreeGateway) WithBaseURL(baseURL string) *CashfreeGateway {
	g.baseURL = strings.TrimRight(baseURL, "/")
	return g
}

func (g *CashfreeGateway) Name() string { return Cashfree }

func (g *CashfreeGateway) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-client-id", g.appID)
	req.Header.Set("x-client-secret", g.secretKey)
	req.Header.Set("x-api-version", cashfreeAPIVersion)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("cashfree request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading cashfree response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		}
		_ = json.Unmarshal(raw, &apiErr)
		logger.Error("Cashfree %s %s returned %d: %s", method, path, resp.StatusCode, apiErr.Message)
		if resp.StatusCode == http.StatusNotFound {
			return errors.E(errors.NotFound, "cashfree order not found")
		}
		return fmt.Errorf("cashfree returned %d: %s %s", resp.StatusCode, apiErr.Code, apiErr.Message)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(out)
}

// CreateOrder opens a checkout session.
func (g *CashfreeGateway) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	amount, _ := req.Amount.Round(2).Float64()
	customer := map[string]interface{}{
		"customer_id":    req.CustomerID,
		"customer_phone": req.CustomerPhone,
	}
	if req.CustomerEmail != "" {
		customer["customer_email"] = req.CustomerEmail
	}
	if req.CustomerName != "" {
		customer["customer_name"] = req.CustomerName
	}
	meta := map[string]interface{}{}
	if req.ReturnURL != "" {
		meta["return_url"] = req.ReturnURL
	}
	if req.NotifyURL != "" {
		meta["notify_url"] = req.NotifyURL
	}

	body := map[string]interface{}{
		"order_id":         req.OrderID,
		"order_amount":     amount,
		"order_currency":   req.Currency,
		"customer_details": customer,
		"order_meta":       meta,
		"order_note":       req.Note,
	}
	if req.ParticipantID != "" {
		body["order_tags"] = map[string]string{"participant_id": req.ParticipantID}
	}

	var resp map[string]interface{}
	if err := g.do(ctx, http.MethodPost, "/orders", body, &resp); err != nil {
		return nil, err
	}

	sessionID := str(resp, "payment_session_id")
	if sessionID == "" {
		return nil, fmt.Errorf("cashfree did not return a payment session id")
	}

	orderID := str(resp, "order_id")
	if orderID == "" {
		orderID = req.OrderID
	}
	return &Order{
		OrderID:        orderID,
		GatewayOrderID: str(resp, "cf_order_id"),
		SessionID:      sessionID,
		Status:         str(resp, "order_status"),
		Raw: models.JSONMap{
			"cf_order_id":        str(resp, "cf_order_id"),
			"payment_session_id": sessionID,
			"order_status":       str(resp, "order_status"),
		},
	}, nil
}

// FetchOrder reads the order and its latest payment attempt.
func (g *CashfreeGateway) FetchOrder(ctx context.Context, orderID string) (*OrderStatus, error) {
	path := "/orders/" + url.PathEscape(orderID)

	var order map[string]interface{}
	if err := g.do(ctx, http.MethodGet, path, nil, &order); err != nil {
		return nil, err
	}

	status := &OrderStatus{
		OrderID:   orderID,
		RawStatus: str(order, "order_status"),
		Status:    NormaliseStatus(str(order, "order_status")),
		Amount:    amount(order, "order_amount"),
		Raw: models.JSONMap{
			"cf_order_id":  str(order, "cf_order_id"),
			"order_status": str(order, "order_status"),
		},
	}

	var payments []map[string]interface{}
	if err := g.do(ctx, http.MethodGet, path+"/payments", nil, &payments); err != nil {
		logger.Warn("Could not load payments for order %s: %v", orderID, err)
	} else if latest := latestCashfreePayment(payments); latest != nil {
		status.PaymentID = str(latest, "cf_payment_id")
		status.PaymentMethod = str(latest, "payment_group")
		status.Raw["payment_status"] = str(latest, "payment_status")
		// an ACTIVE order whose last attempt failed is reported as failed
		if status.Status == models.PaymentPending && NormaliseStatus(str(latest, "payment_status")) == models.PaymentFailed {
			status.Status = models.PaymentFailed
		}
	}
	if status.PaymentID == "" {
		status.PaymentID = orderID
	}
	return status, nil
}

// latestCashfreePayment prefers a successful attempt, else the last listed.
func latestCashfreePayment(payments []map[string]interface{}) map[string]interface{} {
	for _, p := range payments {
		if NormaliseStatus(str(p, "payment_status")) == models.PaymentSuccess {
			return p
		}
	}
	if len(payments) == 0 {
		return nil
	}
	return payments[len(payments)-1]
}

// Sign computes the Cashfree webhook signature for a timestamp and body.
func (g *CashfreeGateway) Sign(timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(g.webhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyWebhook checks x-webhook-signature against the timestamped body.
func (g *CashfreeGateway) VerifyWebhook(body []byte, headers http.Header) error {
	signature := headers.Get(headerCashfreeSignature)
	timestamp := headers.Get(headerCashfreeTimestamp)
	if signature == "" || timestamp == "" {
		return errMissingHeaders(headerCashfreeSignature, headerCashfreeTimestamp)
	}
	if g.webhookSecret == "" {
		return errNoSecret(Cashfree)
	}
	if !hmac.Equal([]byte(g.Sign(timestamp, body)), []byte(signature)) {
		return errBadSignature()
	}
	return nil
}

// ParseWebhook reads both the flat and the nested (data.order / data.payment)
// payload shapes.
func (g *CashfreeGateway) ParseWebhook(body []byte, headers http.Header) (*WebhookEvent, error) {
	payload, err := decodeJSON(body)
	if err != nil {
		return nil, errBadPayload(err)
	}

	data := obj(payload, "data")
	order := obj(data, "order")
	payment := obj(data, "payment")

	orderID := str(payload, "order_id")
	if orderID == "" {
		orderID = str(order, "order_id")
	}
	if orderID == "" {
		return nil, errBadPayload(fmt.Errorf("order_id missing"))
	}

	rawStatus := str(payload, "order_status")
	if rawStatus == "" {
		rawStatus = str(payload, "status")
	}
	if rawStatus == "" {
		rawStatus = str(payment, "payment_status")
	}

	paymentID := ""
	if list, ok := payload["payments"].([]interface{}); ok && len(list) > 0 {
		if first, ok := list[0].(map[string]interface{}); ok {
			paymentID = str(first, "payment_id")
		}
	}
	if paymentID == "" {
		paymentID = str(payload, "cf_payment_id")
	}
	if paymentID == "" {
		paymentID = str(payment, "cf_payment_id")
	}
	if paymentID == "" {
		paymentID = orderID
	}

	amt := amount(payload, "order_amount")
	if amt == nil {
		amt = amount(order, "order_amount")
	}

	eventType := str(payload, "type")
	if eventType == "" {
		eventType = "order." + strings.ToLower(rawStatus)
	}

	eventID := headers.Get("x-idempotency-key")
	if eventID == "" {
		eventID = FallbackEventID(Cashfree, body)
	}

	return &WebhookEvent{
		EventID:   eventID,
		EventType: eventType,
		OrderStatus: OrderStatus{
			OrderID:       orderID,
			PaymentID:     paymentID,
			PaymentMethod: str(payment, "payment_group"),
			RawStatus:     rawStatus,
			Status:        NormaliseStatus(rawStatus),
			Amount:        amt,
			Raw: models.JSONMap{
				"webhook_type":   eventType,
				"webhook_status": rawStatus,
			},
		},
	}, nil
}
