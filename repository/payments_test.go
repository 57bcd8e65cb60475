package repository

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"hackathonwallah/db"
	"hackathonwallah/errors"
	"hackathonwallah/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// testDB connects to DATABASE_URL and applies the schema. Tests using it are
// skipped when no database is configured.
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := conn.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

type ledgerFixture struct {
	conn         *sql.DB
	users        *UserRepository
	hackathons   *HackathonRepository
	participants *ParticipantRepository
	payments     *PaymentRepository

	user        *models.User
	hackathon   *models.Hackathon
	participant *models.Participant
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	ctx := context.Background()
	conn := testDB(t)
	f := &ledgerFixture{
		conn:         conn,
		users:        NewUserRepository(conn),
		hackathons:   NewHackathonRepository(conn),
		participants: NewParticipantRepository(conn),
		payments:     NewPaymentRepository(conn),
	}

	suffix := uuid.NewString()[:8]
	user, err := f.users.UpsertFromIdentity(ctx, models.IdentityUser{
		UserID: "user_" + suffix,
		Email:  "asha." + suffix + "@example.com",
		Name:   "Asha Rao",
	})
	if err != nil {
		t.Fatalf("upsert user: %v", err)
	}
	f.user = user

	now := time.Now().UTC()
	h, err := f.hackathons.Create(ctx, &models.Hackathon{
		Title:             "Ledger Sprint",
		Slug:              "ledger-sprint-" + suffix,
		Description:       "Two days of building on the payments stack.",
		StartDate:         now.Add(72 * time.Hour),
		EndDate:           now.Add(96 * time.Hour),
		RegistrationStart: now.Add(-24 * time.Hour),
		RegistrationEnd:   now.Add(48 * time.Hour),
		LocationType:      models.LocationOnline,
		MinTeamSize:       1,
		MaxTeamSize:       4,
		RegistrationFee:   decimal.NewFromInt(499),
		Themes:            []string{"fintech"},
		Status:            models.HackathonPublished,
	})
	if err != nil {
		t.Fatalf("create hackathon: %v", err)
	}
	f.hackathon = h

	p, err := f.participants.Create(ctx, &models.Participant{UserID: user.ID, HackathonID: h.ID, TeamName: "Null Pointers"})
	if err != nil {
		t.Fatalf("create participant: %v", err)
	}
	f.participant = p

	t.Cleanup(func() {
		for _, q := range []string{
			`DELETE FROM payments WHERE hackathon_id = $1`,
			`DELETE FROM participants WHERE hackathon_id = $1`,
			`DELETE FROM hackathons WHERE id = $1`,
		} {
			if _, err := conn.Exec(q, h.ID); err != nil {
				t.Errorf("cleanup %q: %v", q, err)
			}
		}
		if _, err := conn.Exec(`DELETE FROM users WHERE id = $1`, user.ID); err != nil {
			t.Errorf("cleanup user: %v", err)
		}
	})
	return f
}

func (f *ledgerFixture) order(t *testing.T) *models.Payment {
	t.Helper()
	orderID := "HW_" + uuid.NewString()
	p, err := f.payments.Create(context.Background(), &models.Payment{
		ParticipantID:    f.participant.ID,
		UserID:           f.user.ID,
		HackathonID:      f.hackathon.ID,
		OrderID:          orderID,
		Amount:           decimal.NewFromInt(499),
		Currency:         models.CurrencyINR,
		Status:           models.PaymentPending,
		PaymentSessionID: "session_" + orderID,
		Gateway:          "stub",
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	return p
}

func (f *ledgerFixture) apply(t *testing.T, orderID string, status models.PaymentStatus) *models.PaymentUpdateResult {
	t.Helper()
	res, err := f.payments.ApplyGatewayUpdate(context.Background(), models.PaymentUpdate{
		OrderID:   orderID,
		Status:    status,
		PaymentID: "pay_" + orderID,
	})
	if err != nil {
		t.Fatalf("apply %s to %s: %v", status, orderID, err)
	}
	return res
}

func (f *ledgerFixture) state(t *testing.T) (models.ParticipantPaymentStatus, int) {
	t.Helper()
	p, err := f.participants.GetByID(context.Background(), f.participant.ID)
	if err != nil {
		t.Fatalf("load participant: %v", err)
	}
	h, err := f.hackathons.GetByID(context.Background(), f.hackathon.ID)
	if err != nil {
		t.Fatalf("load hackathon: %v", err)
	}
	return p.PaymentStatus, h.CurrentParticipants
}

func TestApplyGatewayUpdateSuccessCountsOnce(t *testing.T) {
	f := newLedgerFixture(t)
	order := f.order(t)

	res := f.apply(t, order.OrderID, models.PaymentSuccess)
	if !res.Changed || res.Previous != models.PaymentPending || res.Payment.Status != models.PaymentSuccess {
		t.Fatalf("first success = %+v", res)
	}
	if status, count := f.state(t); status != models.ParticipantPaid || count != 1 {
		t.Fatalf("after success: participant %s, count %d", status, count)
	}

	again := f.apply(t, order.OrderID, models.PaymentSuccess)
	if again.Changed {
		t.Error("repeated success should not change anything")
	}
	if _, count := f.state(t); count != 1 {
		t.Errorf("count after repeat = %d, want 1", count)
	}
}

func TestApplyGatewayUpdateConcurrentDeliveries(t *testing.T) {
	f := newLedgerFixture(t)
	order := f.order(t)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		changed int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.payments.ApplyGatewayUpdate(context.Background(), models.PaymentUpdate{
				OrderID: order.OrderID,
				Status:  models.PaymentSuccess,
			})
			if err != nil {
				t.Errorf("apply: %v", err)
				return
			}
			if res.Changed {
				mu.Lock()
				changed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if changed != 1 {
		t.Errorf("%d deliveries applied the transition, want 1", changed)
	}
	if _, count := f.state(t); count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestStaleFailureKeepsPaidRegistration(t *testing.T) {
	f := newLedgerFixture(t)
	paid := f.order(t)
	stale := f.order(t)

	f.apply(t, paid.OrderID, models.PaymentSuccess)
	res := f.apply(t, stale.OrderID, models.PaymentFailed)
	if !res.Changed || res.Payment.Status != models.PaymentFailed {
		t.Fatalf("stale order = %+v", res)
	}
	if res.Participant.PaymentStatus != models.ParticipantPaid {
		t.Errorf("participant = %s, want paid", res.Participant.PaymentStatus)
	}
	if status, count := f.state(t); status != models.ParticipantPaid || count != 1 {
		t.Errorf("after stale failure: participant %s, count %d", status, count)
	}
}

func TestBackwardTransitionIgnored(t *testing.T) {
	f := newLedgerFixture(t)
	order := f.order(t)
	f.apply(t, order.OrderID, models.PaymentSuccess)

	res := f.apply(t, order.OrderID, models.PaymentFailed)
	if res.Changed || res.Payment.Status != models.PaymentSuccess {
		t.Errorf("success -> failed should be ignored, got %+v", res)
	}
	if status, count := f.state(t); status != models.ParticipantPaid || count != 1 {
		t.Errorf("participant %s, count %d", status, count)
	}
}

func TestRefundFreesSlot(t *testing.T) {
	f := newLedgerFixture(t)
	order := f.order(t)
	f.apply(t, order.OrderID, models.PaymentSuccess)

	amount := decimal.RequireFromString("250.00")
	res, err := f.payments.ApplyGatewayUpdate(context.Background(), models.PaymentUpdate{
		OrderID:         order.OrderID,
		Status:          models.PaymentRefunded,
		RefundAmount:    &amount,
		RefundID:        "rf_1",
		GatewayResponse: models.JSONMap{"refund_reason": "duplicate"},
	})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if !res.Changed || res.Payment.RefundAmount == nil || !res.Payment.RefundAmount.Equal(amount) || res.Payment.RefundID != "rf_1" {
		t.Errorf("refunded payment = %+v", res.Payment)
	}
	if res.Payment.GatewayResponse["refund_reason"] != "duplicate" {
		t.Errorf("gateway_response = %v", res.Payment.GatewayResponse)
	}
	if status, count := f.state(t); status != models.ParticipantRefunded || count != 0 {
		t.Errorf("after refund: participant %s, count %d", status, count)
	}
}

func TestCreateResetsFailedParticipant(t *testing.T) {
	f := newLedgerFixture(t)
	first := f.order(t)
	f.apply(t, first.OrderID, models.PaymentFailed)
	if status, _ := f.state(t); status != models.ParticipantFailed {
		t.Fatalf("participant = %s, want failed", status)
	}

	retry := f.order(t)
	if status, _ := f.state(t); status != models.ParticipantPending {
		t.Errorf("participant = %s after a new order, want pending", status)
	}
	active, err := f.payments.GetActiveForParticipant(context.Background(), f.participant.ID)
	if err != nil || active == nil || active.OrderID != retry.OrderID {
		t.Errorf("active = %+v, %v", active, err)
	}

	f.apply(t, retry.OrderID, models.PaymentSuccess)
	f.order(t)
	if status, count := f.state(t); status != models.ParticipantPaid || count != 1 {
		t.Errorf("a new order must not reset a paid registration: %s, %d", status, count)
	}
}

func TestApplyGatewayUpdateUnknownOrder(t *testing.T) {
	f := newLedgerFixture(t)
	_, err := f.payments.ApplyGatewayUpdate(context.Background(), models.PaymentUpdate{
		OrderID: "HW_missing_" + uuid.NewString(),
		Status:  models.PaymentSuccess,
	})
	if errors.KindOf(err) != errors.NotFound {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestMalformedIDIsInvalid(t *testing.T) {
	f := newLedgerFixture(t)
	_, err := f.payments.GetByID(context.Background(), "not-a-uuid")
	if errors.KindOf(err) != errors.Invalid {
		t.Errorf("err = %v, want invalid", err)
	}
}

func TestDeletedUserKeepsLedger(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	order := f.order(t)
	f.apply(t, order.OrderID, models.PaymentSuccess)

	if err := f.users.DeleteByExternalID(ctx, f.user.UserID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if _, err := f.users.GetByExternalID(ctx, f.user.UserID); errors.KindOf(err) != errors.NotFound {
		t.Errorf("retired user still resolves: %v", err)
	}
	if _, err := f.payments.GetByOrderID(ctx, order.OrderID); err != nil {
		t.Errorf("payment gone after user delete: %v", err)
	}
	if status, count := f.state(t); status != models.ParticipantPaid || count != 1 {
		t.Errorf("after user delete: participant %s, count %d", status, count)
	}

	back, err := f.users.UpsertFromIdentity(ctx, models.IdentityUser{UserID: f.user.UserID, Email: f.user.Email, Name: "Asha R"})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if back.ID != f.user.ID {
		t.Errorf("restored user id = %s, want %s", back.ID, f.user.ID)
	}
	if _, err := f.users.GetByExternalID(ctx, f.user.UserID); err != nil {
		t.Errorf("restored user does not resolve: %v", err)
	}
}

func TestDeleteHackathonWithRegistrations(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	f.order(t)

	err := f.hackathons.Delete(ctx, f.hackathon.ID)
	if errors.KindOf(err) != errors.Conflict || errors.CodeOf(err) != errors.CodeHasRegistrations {
		t.Fatalf("err = %v, want %s conflict", err, errors.CodeHasRegistrations)
	}
	if _, err := f.hackathons.GetByID(ctx, f.hackathon.ID); err != nil {
		t.Errorf("hackathon should survive: %v", err)
	}
}
