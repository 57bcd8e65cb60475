package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentInitiated PaymentStatus = "initiated"
	PaymentPending   PaymentStatus = "pending"
	PaymentSuccess   PaymentStatus = "success"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Active reports whether a checkout for this payment may still complete.
func (s PaymentStatus) Active() bool {
	return s == PaymentInitiated || s == PaymentPending
}

// CanTransitionTo reports whether a gateway-reported move from s to next is
// applied. Repeating the current status is not a transition.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentInitiated:
		return next == PaymentPending || next == PaymentSuccess || next == PaymentFailed
	case PaymentPending:
		return next == PaymentSuccess || next == PaymentFailed
	case PaymentFailed:
		return next == PaymentSuccess
	case PaymentSuccess:
		return next == PaymentRefunded
	default:
		return false
	}
}

// ParticipantStatusFor maps a payment status onto the participant record.
func ParticipantStatusFor(s PaymentStatus) ParticipantPaymentStatus {
	switch s {
	case PaymentSuccess:
		return ParticipantPaid
	case PaymentFailed:
		return ParticipantFailed
	case PaymentRefunded:
		return ParticipantRefunded
	default:
		return ParticipantPending
	}
}

const CurrencyINR = "INR"

// Payment tracks one gateway order for a participant.
type Payment struct {
	ID               string           `json:"id"`
	ParticipantID    string           `json:"participant_id"`
	UserID           string           `json:"user_id"`
	HackathonID      string           `json:"hackathon_id"`
	OrderID          string           `json:"order_id"`
	PaymentID        string           `json:"payment_id,omitempty"`
	Amount           decimal.Decimal  `json:"amount"`
	Currency         string           `json:"currency"`
	Status           PaymentStatus    `json:"status"`
	PaymentMethod    string           `json:"payment_method,omitempty"`
	PaymentSessionID string           `json:"payment_session_id,omitempty"`
	Gateway          string           `json:"gateway"`
	GatewayResponse  JSONMap          `json:"gateway_response,omitempty"`
	RefundAmount     *decimal.Decimal `json:"refund_amount,omitempty"`
	RefundID         string           `json:"refund_id,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// PaymentUpdate is a gateway-reported state change keyed by order id.
type PaymentUpdate struct {
	OrderID         string
	Status          PaymentStatus
	PaymentID       string
	PaymentMethod   string
	GatewayResponse JSONMap
	RefundAmount    *decimal.Decimal
	RefundID        string
}

// PaymentUpdateResult is what a transactional payment write produced.
type PaymentUpdateResult struct {
	Payment     *Payment
	Participant *Participant
	Previous    PaymentStatus
	Changed     bool
}
