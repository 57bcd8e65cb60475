package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hackathonwallah/errors"
	"hackathonwallah/http/handlers"
	"hackathonwallah/models"
	"hackathonwallah/services"

	"github.com/go-chi/jwtauth"
)

const (
	testSecret   = "test-jwt-secret"
	testAdminKey = "admin-key"
	hackathonID  = "0b3c6a4e-6a55-4a1f-9f0e-2d7f0c1a9b10"
)

type fakeUsers struct{}

func (fakeUsers) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	if externalID == "user_ext_1" {
		return &models.User{ID: "user-1", UserID: externalID, Email: "asha@example.com"}, nil
	}
	return nil, errors.NewNotFoundError("user not found")
}

type fakeProfiles struct {
	GetFunc func(ctx context.Context, userID string) (*services.ProfileView, error)
}

func (f *fakeProfiles) Get(ctx context.Context, userID string) (*services.ProfileView, error) {
	return f.GetFunc(ctx, userID)
}

func (f *fakeProfiles) Update(ctx context.Context, userID string, in models.ProfileUpdate) (*services.ProfileView, error) {
	return nil, errors.NewValidationError(errors.Fields{"phone": "must be a 10 digit number"})
}

type fakeRegistrations struct {
	RegisterFunc func(ctx context.Context, user *models.User, hackathonID string, req services.RegistrationRequest) (*models.Participant, error)
}

func (f *fakeRegistrations) Register(ctx context.Context, user *models.User, hackathonID string, req services.RegistrationRequest) (*models.Participant, error) {
	return f.RegisterFunc(ctx, user, hackathonID, req)
}

func (f *fakeRegistrations) Get(ctx context.Context, user *models.User, hackathonID string) (*services.RegistrationView, error) {
	return nil, errors.E(errors.NotFound, errors.CodeNotRegistered, "You are not registered for this hackathon")
}

func (f *fakeRegistrations) Submit(ctx context.Context, user *models.User, hackathonID string, req services.SubmissionRequest) (*models.Participant, error) {
	return nil, fmt.Errorf("pq: connection refused")
}

type fakeWebhooks struct {
	gateway string
	body    string
	err     error
}

func (f *fakeWebhooks) Handle(ctx context.Context, gatewayName string, body []byte, headers http.Header) error {
	f.gateway = gatewayName
	f.body = string(body)
	return f.err
}

type fakeContacts struct{}

func (fakeContacts) Submit(ctx context.Context, req services.ContactRequest) (*models.Contact, error) {
	return &models.Contact{ID: "c-1", Email: req.Email}, nil
}

type fakeNotifications struct {
	limit int
}

func (f *fakeNotifications) List(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	f.limit = limit
	return nil, nil
}

func (f *fakeNotifications) MarkRead(ctx context.Context, id, userID string) error { return nil }

type fakeRoster struct{}

func (fakeRoster) Export(ctx context.Context, hackathonID string) ([]byte, string, error) {
	return []byte("PK"), "code-sprint-participants.xlsx", nil
}

type fakeDeadLetters struct {
	resolvedNotes string
}

func (f *fakeDeadLetters) List(ctx context.Context, limit int) ([]models.DeadLetter, error) {
	return nil, nil
}

func (f *fakeDeadLetters) Retry(ctx context.Context, messageID string) error {
	return errors.E(errors.Conflict, "message is already resolved")
}

func (f *fakeDeadLetters) Resolve(ctx context.Context, messageID, notes string) error {
	f.resolvedNotes = notes
	return nil
}

func (f *fakeDeadLetters) Stats(ctx context.Context) (*models.DeadLetterStats, error) {
	return &models.DeadLetterStats{Total: 3, Unresolved: 1, Resolved: 2}, nil
}

func newTestRouter(h *handlers.Handler, rateLimit int) http.Handler {
	return NewRouter(RouterConfig{
		JWTSecret:          testSecret,
		AdminAPIKey:        testAdminKey,
		CORSOrigins:        []string{"http://localhost:3000"},
		RateLimitPerMinute: rateLimit,
		Users:              fakeUsers{},
	}, h)
}

func bearer(t *testing.T, sub string) string {
	t.Helper()
	_, token, err := jwtauth.New("HS256", []byte(testSecret), nil).Encode(map[string]interface{}{"sub": sub})
	if err != nil {
		t.Fatalf("encode token: %v", err)
	}
	return "Bearer " + token
}

type envelope struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message"`
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details"`
	Data    json.RawMessage        `json:"data"`
}

func do(t *testing.T, router http.Handler, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "203.0.113.7:5555"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func TestHealth(t *testing.T) {
	rec, _ := do(t, newTestRouter(&handlers.Handler{}, 0), http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("health = %d %s", rec.Code, rec.Body.String())
	}
}

func TestProfileAuth(t *testing.T) {
	profiles := &fakeProfiles{GetFunc: func(ctx context.Context, userID string) (*services.ProfileView, error) {
		if userID != "user-1" {
			t.Errorf("userID = %q", userID)
		}
		return services.NewProfileView(&models.User{ID: userID}), nil
	}}
	router := newTestRouter(&handlers.Handler{Profiles: profiles}, 0)

	rec, env := do(t, router, http.MethodGet, "/api/profile", "", nil)
	if rec.Code != http.StatusUnauthorized || env.Code != string(errors.CodeUnauthorized) {
		t.Errorf("no token = %d %+v", rec.Code, env)
	}

	rec, _ = do(t, router, http.MethodGet, "/api/profile", "", map[string]string{"Authorization": bearer(t, "user_unknown")})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown user = %d", rec.Code)
	}

	rec, env = do(t, router, http.MethodGet, "/api/profile", "", map[string]string{"Authorization": bearer(t, "user_ext_1")})
	if rec.Code != http.StatusOK || env.Status != "success" {
		t.Fatalf("profile = %d %s", rec.Code, rec.Body.String())
	}
	var view services.ProfileView
	if err := json.Unmarshal(env.Data, &view); err != nil {
		t.Fatal(err)
	}
	if view.Complete || len(view.MissingFields) != 4 {
		t.Errorf("view = %+v", view)
	}
}

func TestValidationEnvelope(t *testing.T) {
	router := newTestRouter(&handlers.Handler{Profiles: &fakeProfiles{}}, 0)
	rec, env := do(t, router, http.MethodPatch, "/api/profile", `{"phone":"12"}`, map[string]string{"Authorization": bearer(t, "user_ext_1")})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if env.Code != string(errors.CodeValidation) || env.Details["phone"] != "must be a 10 digit number" {
		t.Errorf("envelope = %+v", env)
	}

	rec, env = do(t, router, http.MethodPatch, "/api/profile", `{not json`, map[string]string{"Authorization": bearer(t, "user_ext_1")})
	if rec.Code != http.StatusBadRequest || env.Error != "Invalid JSON body" {
		t.Errorf("bad json = %d %+v", rec.Code, env)
	}
}

func TestRegistrationRoutes(t *testing.T) {
	var gotHackathon string
	regs := &fakeRegistrations{RegisterFunc: func(ctx context.Context, user *models.User, id string, req services.RegistrationRequest) (*models.Participant, error) {
		gotHackathon = id
		if req.TeamName != "Byte Me" {
			t.Errorf("team = %q", req.TeamName)
		}
		return &models.Participant{ID: "p-1", PaymentStatus: models.ParticipantPending}, nil
	}}
	router := newTestRouter(&handlers.Handler{Registrations: regs}, 0)
	auth := map[string]string{"Authorization": bearer(t, "user_ext_1")}

	rec, _ := do(t, router, http.MethodPost, "/api/hackathons/not-a-uuid/register", `{}`, auth)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id = %d", rec.Code)
	}

	rec, _ = do(t, router, http.MethodPost, "/api/hackathons/"+hackathonID+"/register", `{"teamName":"Byte Me"}`, auth)
	if rec.Code != http.StatusCreated || gotHackathon != hackathonID {
		t.Errorf("register = %d %s", rec.Code, gotHackathon)
	}

	rec, env := do(t, router, http.MethodGet, "/api/hackathons/"+hackathonID+"/registration", "", auth)
	if rec.Code != http.StatusNotFound || env.Code != string(errors.CodeNotRegistered) {
		t.Errorf("status = %d %+v", rec.Code, env)
	}

	// internal errors never reach the client
	rec, env = do(t, router, http.MethodPost, "/api/hackathons/"+hackathonID+"/submission", `{"submissionUrl":"https://x.dev"}`, auth)
	if rec.Code != http.StatusInternalServerError || strings.Contains(env.Error, "pq") || env.Code != string(errors.CodeInternal) {
		t.Errorf("internal = %d %+v", rec.Code, env)
	}
}

func TestPaymentWebhookRoute(t *testing.T) {
	hooks := &fakeWebhooks{}
	router := newTestRouter(&handlers.Handler{Webhooks: hooks}, 0)

	body := `{"order_id":"order_1","status":"PAID"}`
	rec, _ := do(t, router, http.MethodPost, "/api/webhooks/stub", body, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"received":true`) {
		t.Fatalf("webhook = %d %s", rec.Code, rec.Body.String())
	}
	if hooks.gateway != "stub" || hooks.body != body {
		t.Errorf("got gateway=%q body=%q", hooks.gateway, hooks.body)
	}

	hooks.err = errors.E(errors.Unauthorized, errors.CodeInvalidSignature, "invalid webhook signature")
	rec, env := do(t, router, http.MethodPost, "/api/webhooks/stub", body, nil)
	if rec.Code != http.StatusUnauthorized || env.Code != string(errors.CodeInvalidSignature) {
		t.Errorf("bad signature = %d %+v", rec.Code, env)
	}
}

func TestContactRateLimit(t *testing.T) {
	router := newTestRouter(&handlers.Handler{Contacts: fakeContacts{}}, 1)
	body := `{"name":"Asha","email":"asha@example.com","subject":"Hi","message":"Hello"}`

	rec, env := do(t, router, http.MethodPost, "/api/contacts", body, nil)
	if rec.Code != http.StatusCreated || env.Message != services.ContactAcknowledgement {
		t.Fatalf("first = %d %+v", rec.Code, env)
	}
	rec, env = do(t, router, http.MethodPost, "/api/contacts", body, nil)
	if rec.Code != http.StatusTooManyRequests || env.Code != string(errors.CodeRateLimited) {
		t.Errorf("second = %d %+v", rec.Code, env)
	}
}

func TestNotificationLimit(t *testing.T) {
	notes := &fakeNotifications{}
	router := newTestRouter(&handlers.Handler{Notifications: notes}, 0)
	auth := map[string]string{"Authorization": bearer(t, "user_ext_1")}

	for query, want := range map[string]int{"": 25, "?limit=500": 100, "?limit=0": 1, "?limit=7": 7} {
		rec, _ := do(t, router, http.MethodGet, "/api/notifications"+query, "", auth)
		if rec.Code != http.StatusOK || notes.limit != want {
			t.Errorf("%q: status %d limit %d, want %d", query, rec.Code, notes.limit, want)
		}
	}
}

func TestAdminKey(t *testing.T) {
	dlq := &fakeDeadLetters{}
	h := &handlers.Handler{DeadLetters: dlq, Roster: fakeRoster{}}
	router := newTestRouter(h, 0)

	rec, _ := do(t, router, http.MethodGet, "/api/admin/dlq/stats", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no key = %d", rec.Code)
	}
	rec, _ = do(t, router, http.MethodGet, "/api/admin/dlq/stats", "", map[string]string{"X-Admin-Key": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong key = %d", rec.Code)
	}

	unset := NewRouter(RouterConfig{JWTSecret: testSecret, Users: fakeUsers{}}, h)
	rec, env := do(t, unset, http.MethodGet, "/api/admin/dlq/stats", "", map[string]string{"X-Admin-Key": "anything"})
	if rec.Code != http.StatusInternalServerError || env.Code != string(errors.CodeServerMisconfigured) {
		t.Errorf("unset key = %d %+v", rec.Code, env)
	}

	admin := map[string]string{"X-Admin-Key": testAdminKey}
	rec, env = do(t, router, http.MethodGet, "/api/admin/dlq/stats", "", admin)
	if rec.Code != http.StatusOK || !strings.Contains(string(env.Data), `"total_dlq_messages":3`) {
		t.Errorf("stats = %d %s", rec.Code, rec.Body.String())
	}

	for _, action := range []string{"retry", "resolve"} {
		rec, env = do(t, router, http.MethodPost, "/api/admin/dlq/messages/dlq-1/"+action, "", admin)
		if rec.Code != http.StatusBadRequest || env.Code != string(errors.CodeValidation) {
			t.Errorf("%s with malformed id = %d %+v", action, rec.Code, env)
		}
	}

	const messageID = "5d1e7a90-3b2c-4f6e-8a1d-9c0b7e6f5a43"
	rec, _ = do(t, router, http.MethodPost, "/api/admin/dlq/messages/"+messageID+"/retry", "", admin)
	if rec.Code != http.StatusConflict {
		t.Errorf("retry resolved = %d", rec.Code)
	}

	rec, _ = do(t, router, http.MethodPost, "/api/admin/dlq/messages/"+messageID+"/resolve", `{"notes":"sent by hand"}`, admin)
	if rec.Code != http.StatusOK || dlq.resolvedNotes != "sent by hand" {
		t.Errorf("resolve = %d notes=%q", rec.Code, dlq.resolvedNotes)
	}

	rec, _ = do(t, router, http.MethodGet, "/api/admin/hackathons/"+hackathonID+"/participants.xlsx", "", admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("roster = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "code-sprint-participants.xlsx") {
		t.Errorf("Content-Disposition = %q", cd)
	}
}
