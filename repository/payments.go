package repository

import (
	"context"
	"database/sql"

	"hackathonwallah/errors"
	"hackathonwallah/models"

	"github.com/shopspring/decimal"
)

const paymentColumns = `id, participant_id, user_id, hackathon_id, order_id, COALESCE(payment_id, ''), amount,
	currency, status, COALESCE(payment_method, ''), COALESCE(payment_session_id, ''), gateway,
	gateway_response, refund_amount, COALESCE(refund_id, ''), created_at, updated_at`

// PaymentRepository handles payment orders and their reconciliation writes
type PaymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func scanPayment(row scanner) (*models.Payment, error) {
	var p models.Payment
	var refund decimal.NullDecimal
	err := row.Scan(&p.ID, &p.ParticipantID, &p.UserID, &p.HackathonID, &p.OrderID, &p.PaymentID, &p.Amount,
		&p.Currency, &p.Status, &p.PaymentMethod, &p.PaymentSessionID, &p.Gateway,
		&p.GatewayResponse, &refund, &p.RefundID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if refund.Valid {
		v := refund.Decimal
		p.RefundAmount = &v
	}
	return &p, nil
}

// GetByOrderID loads a payment by gateway order id.
func (r *PaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id = $1`, orderID))
	if err != nil {
		return nil, errors.FromDB(err, "payment")
	}
	return p, nil
}

// GetByID loads a payment by primary key.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if err != nil {
		return nil, errors.FromDB(err, "payment")
	}
	return p, nil
}

// GetActiveForParticipant returns the newest checkout that can still be
// completed, or nil when there is none.
func (r *PaymentRepository) GetActiveForParticipant(ctx context.Context, participantID string) (*models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE participant_id = $1
			AND status IN ('initiated', 'pending')
			AND payment_session_id IS NOT NULL
		ORDER BY created_at DESC
		LIMIT 1`
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, participantID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.FromDB(err, "active payment")
	}
	return p, nil
}

// Create stores a new payment order and marks the participant pending in
// the same transaction.
func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) (*models.Payment, error) {
	var created *models.Payment
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO payments (participant_id, user_id, hackathon_id, order_id, amount, currency, status,
				payment_session_id, gateway, gateway_response)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING ` + paymentColumns
		var err error
		created, err = scanPayment(tx.QueryRowContext(ctx, query,
			p.ParticipantID, p.UserID, p.HackathonID, p.OrderID, p.Amount, p.Currency, string(p.Status),
			nullString(p.PaymentSessionID), p.Gateway, p.GatewayResponse))
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE participants SET payment_status = $2, updated_at = NOW() WHERE id = $1 AND payment_status <> 'paid'`,
			p.ParticipantID, string(models.ParticipantPending))
		return err
	})
	if err != nil {
		return nil, errors.FromDB(err, "create payment")
	}
	return created, nil
}

// ApplyGatewayUpdate applies a gateway-reported status to the payment keyed
// by order id, and mirrors it onto the participant and the hackathon's paid
// count. The payment row is locked for the duration, so concurrent webhook
// and poll deliveries serialise and a repeated status is a no-op.
func (r *PaymentRepository) ApplyGatewayUpdate(ctx context.Context, upd models.PaymentUpdate) (*models.PaymentUpdateResult, error) {
	result := &models.PaymentUpdateResult{}
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		current, err := scanPayment(tx.QueryRowContext(ctx,
			`SELECT `+paymentColumns+` FROM payments WHERE order_id = $1 FOR UPDATE`, upd.OrderID))
		if err != nil {
			return err
		}
		result.Previous = current.Status
		result.Payment = current

		if !current.Status.CanTransitionTo(upd.Status) {
			return nil
		}

		var refund interface{}
		if upd.RefundAmount != nil {
			refund = *upd.RefundAmount
		}
		updated, err := scanPayment(tx.QueryRowContext(ctx, `
			UPDATE payments SET
				status = $2,
				payment_id = COALESCE(NULLIF($3, ''), payment_id),
				payment_method = COALESCE(NULLIF($4, ''), payment_method),
				gateway_response = gateway_response || $5::jsonb,
				refund_amount = COALESCE($6, refund_amount),
				refund_id = COALESCE(NULLIF($7, ''), refund_id),
				updated_at = NOW()
			WHERE order_id = $1
			RETURNING `+paymentColumns,
			upd.OrderID, string(upd.Status), upd.PaymentID, upd.PaymentMethod, upd.GatewayResponse, refund, upd.RefundID))
		if err != nil {
			return err
		}
		result.Payment = updated
		result.Changed = true

		var participantStatus models.ParticipantPaymentStatus
		if err := tx.QueryRowContext(ctx,
			`SELECT payment_status FROM participants WHERE id = $1 FOR UPDATE`, updated.ParticipantID).
			Scan(&participantStatus); err != nil {
			return err
		}

		next := models.ParticipantStatusFor(updated.Status)
		wasPaid := participantStatus == models.ParticipantPaid
		// a stale order failing must not undo a registration another order paid for
		if wasPaid && next != models.ParticipantRefunded {
			next = participantStatus
		}

		participant, err := scanParticipant(tx.QueryRowContext(ctx, `
			UPDATE participants SET
				payment_status = $2,
				payment_id = CASE WHEN $2 = 'paid' THEN COALESCE(NULLIF($3, ''), payment_id) ELSE payment_id END,
				updated_at = NOW()
			WHERE id = $1
			RETURNING `+participantColumns,
			updated.ParticipantID, string(next), updated.PaymentID))
		if err != nil {
			return err
		}
		result.Participant = participant

		nowPaid := next == models.ParticipantPaid
		switch {
		case !wasPaid && nowPaid:
			_, err = tx.ExecContext(ctx,
				`UPDATE hackathons SET current_participants = current_participants + 1, updated_at = NOW() WHERE id = $1`,
				updated.HackathonID)
		case wasPaid && !nowPaid:
			_, err = tx.ExecContext(ctx,
				`UPDATE hackathons SET current_participants = GREATEST(current_participants - 1, 0), updated_at = NOW() WHERE id = $1`,
				updated.HackathonID)
		}
		return err
	})
	if err != nil {
		return nil, errors.FromDB(err, "apply payment update")
	}
	return result, nil
}
