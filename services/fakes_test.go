package services

import (
	"context"
	"fmt"
	"sync"

	"hackathonwallah/errors"
	"hackathonwallah/models"
)

type fakeUsers struct {
	byID map[string]*models.User

	UpsertFunc func(ctx context.Context, in models.IdentityUser) (*models.User, error)
	DeleteFunc func(ctx context.Context, externalID string) error
	UpdateFunc func(ctx context.Context, id string, in models.ProfileUpdate) (*models.User, error)
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{byID: map[string]*models.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, errors.NewNotFoundError("user not found")
}

func (f *fakeUsers) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	for _, u := range f.byID {
		if u.UserID == externalID {
			return u, nil
		}
	}
	return nil, errors.NewNotFoundError("user not found")
}

func (f *fakeUsers) UpsertFromIdentity(ctx context.Context, in models.IdentityUser) (*models.User, error) {
	if f.UpsertFunc != nil {
		return f.UpsertFunc(ctx, in)
	}
	return &models.User{ID: "u-" + in.UserID, UserID: in.UserID, Email: in.Email, Name: in.Name}, nil
}

func (f *fakeUsers) DeleteByExternalID(ctx context.Context, externalID string) error {
	if f.DeleteFunc != nil {
		return f.DeleteFunc(ctx, externalID)
	}
	return nil
}

func (f *fakeUsers) UpdateProfile(ctx context.Context, id string, in models.ProfileUpdate) (*models.User, error) {
	if f.UpdateFunc != nil {
		return f.UpdateFunc(ctx, id, in)
	}
	u, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cp := *u
	for dst, src := range map[*string]*string{
		&cp.Name: in.Name, &cp.CollegeName: in.CollegeName, &cp.Phone: in.Phone,
		&cp.YearOfStudy: in.YearOfStudy, &cp.Branch: in.Branch,
	} {
		if src != nil {
			*dst = *src
		}
	}
	return &cp, nil
}

type fakeHackathons struct {
	byID map[string]*models.Hackathon

	ListFunc   func(ctx context.Context, f models.HackathonFilter) ([]models.Hackathon, error)
	CreateFunc func(ctx context.Context, h *models.Hackathon) (*models.Hackathon, error)
	UpdateFunc func(ctx context.Context, h *models.Hackathon) (*models.Hackathon, error)
}

func newFakeHackathons(hs ...*models.Hackathon) *fakeHackathons {
	f := &fakeHackathons{byID: map[string]*models.Hackathon{}}
	for _, h := range hs {
		f.byID[h.ID] = h
	}
	return f
}

func (f *fakeHackathons) List(ctx context.Context, filter models.HackathonFilter) ([]models.Hackathon, error) {
	if f.ListFunc != nil {
		return f.ListFunc(ctx, filter)
	}
	var out []models.Hackathon
	for _, h := range f.byID {
		out = append(out, *h)
	}
	return out, nil
}

func (f *fakeHackathons) GetByID(ctx context.Context, id string) (*models.Hackathon, error) {
	if h, ok := f.byID[id]; ok {
		cp := *h
		return &cp, nil
	}
	return nil, errors.NewNotFoundError("hackathon not found")
}

func (f *fakeHackathons) GetBySlug(ctx context.Context, slug string) (*models.Hackathon, error) {
	for _, h := range f.byID {
		if h.Slug == slug {
			cp := *h
			return &cp, nil
		}
	}
	return nil, errors.NewNotFoundError("hackathon not found")
}

func (f *fakeHackathons) Create(ctx context.Context, h *models.Hackathon) (*models.Hackathon, error) {
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, h)
	}
	cp := *h
	cp.ID = fmt.Sprintf("h-%d", len(f.byID)+1)
	f.byID[cp.ID] = &cp
	return &cp, nil
}

func (f *fakeHackathons) Update(ctx context.Context, h *models.Hackathon) (*models.Hackathon, error) {
	if f.UpdateFunc != nil {
		return f.UpdateFunc(ctx, h)
	}
	cp := *h
	f.byID[cp.ID] = &cp
	return &cp, nil
}

func (f *fakeHackathons) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return errors.NewNotFoundError("hackathon not found")
	}
	delete(f.byID, id)
	return nil
}

type fakeParticipants struct {
	byID map[string]*models.Participant

	CreateFunc func(ctx context.Context, p *models.Participant) (*models.Participant, error)
	roster     []models.RosterEntry
}

func newFakeParticipants(ps ...*models.Participant) *fakeParticipants {
	f := &fakeParticipants{byID: map[string]*models.Participant{}}
	for _, p := range ps {
		f.byID[p.ID] = p
	}
	return f
}

func (f *fakeParticipants) Get(ctx context.Context, userID, hackathonID string) (*models.Participant, error) {
	for _, p := range f.byID {
		if p.UserID == userID && p.HackathonID == hackathonID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeParticipants) GetByID(ctx context.Context, id string) (*models.Participant, error) {
	if p, ok := f.byID[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, errors.NewNotFoundError("participant not found")
}

func (f *fakeParticipants) Create(ctx context.Context, p *models.Participant) (*models.Participant, error) {
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, p)
	}
	cp := *p
	cp.ID = fmt.Sprintf("p-%d", len(f.byID)+1)
	f.byID[cp.ID] = &cp
	return &cp, nil
}

func (f *fakeParticipants) Submit(ctx context.Context, id, url, description string) (*models.Participant, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, errors.NewNotFoundError("participant not found")
	}
	p.SubmissionURL = url
	p.SubmissionDescription = description
	now := testNow
	p.SubmittedAt = &now
	cp := *p
	return &cp, nil
}

func (f *fakeParticipants) ListByHackathon(ctx context.Context, hackathonID string) ([]models.RosterEntry, error) {
	return f.roster, nil
}

// fakePayments mirrors the transactional update rules of the repository.
type fakePayments struct {
	mu           sync.Mutex
	byOrder      map[string]*models.Payment
	participants *fakeParticipants
	hackathons   *fakeHackathons
	updates      []models.PaymentUpdate
}

func newFakePayments(participants *fakeParticipants, hackathons *fakeHackathons, ps ...*models.Payment) *fakePayments {
	f := &fakePayments{byOrder: map[string]*models.Payment{}, participants: participants, hackathons: hackathons}
	for _, p := range ps {
		f.byOrder[p.OrderID] = p
	}
	return f
}

func (f *fakePayments) GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.byOrder[orderID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, errors.NewNotFoundError("payment not found")
}

func (f *fakePayments) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byOrder {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, errors.NewNotFoundError("payment not found")
}

func (f *fakePayments) GetActiveForParticipant(ctx context.Context, participantID string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byOrder {
		if p.ParticipantID == participantID && p.Status.Active() && p.PaymentSessionID != "" {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakePayments) Create(ctx context.Context, p *models.Payment) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	cp.ID = fmt.Sprintf("00000000-0000-4000-8000-%012d", len(f.byOrder)+1)
	f.byOrder[cp.OrderID] = &cp
	if part, ok := f.participants.byID[cp.ParticipantID]; ok && part.PaymentStatus != models.ParticipantPaid {
		part.PaymentStatus = models.ParticipantPending
	}
	out := cp
	return &out, nil
}

func (f *fakePayments) ApplyGatewayUpdate(ctx context.Context, upd models.PaymentUpdate) (*models.PaymentUpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, upd)

	p, ok := f.byOrder[upd.OrderID]
	if !ok {
		return nil, errors.NewNotFoundError("payment not found")
	}
	res := &models.PaymentUpdateResult{Previous: p.Status}
	if !p.Status.CanTransitionTo(upd.Status) {
		cp := *p
		res.Payment = &cp
		return res, nil
	}
	p.Status = upd.Status
	if upd.PaymentID != "" {
		p.PaymentID = upd.PaymentID
	}
	if upd.RefundAmount != nil {
		amt := *upd.RefundAmount
		p.RefundAmount = &amt
	}
	if upd.RefundID != "" {
		p.RefundID = upd.RefundID
	}
	if p.GatewayResponse == nil {
		p.GatewayResponse = models.JSONMap{}
	}
	for k, v := range upd.GatewayResponse {
		p.GatewayResponse[k] = v
	}

	part := f.participants.byID[p.ParticipantID]
	wasPaid := part.PaymentStatus == models.ParticipantPaid
	next := models.ParticipantStatusFor(p.Status)
	if wasPaid && next != models.ParticipantRefunded {
		next = part.PaymentStatus
	}
	part.PaymentStatus = next
	if h, ok := f.hackathons.byID[p.HackathonID]; ok {
		switch {
		case !wasPaid && next == models.ParticipantPaid:
			h.CurrentParticipants++
		case wasPaid && next != models.ParticipantPaid:
			h.CurrentParticipants--
		}
	}

	cp := *p
	pc := *part
	res.Payment, res.Participant, res.Changed = &cp, &pc, true
	return res, nil
}

type fakeNotificationStore struct {
	created []models.Notification
	limits  []int
}

func (f *fakeNotificationStore) Create(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	f.created = append(f.created, *n)
	return n, nil
}

func (f *fakeNotificationStore) ListForUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	f.limits = append(f.limits, limit)
	return nil, nil
}

func (f *fakeNotificationStore) MarkRead(ctx context.Context, id, userID string) error {
	return nil
}

type dispatched struct {
	UserID   string
	Template Template
	Data     TemplateData
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []dispatched
}

func (f *fakeNotifier) Dispatch(ctx context.Context, userID string, t Template, data TemplateData) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, dispatched{userID, t, data})
}

type published struct {
	Topic, Key string
	Value      []byte
}

type fakeBus struct {
	mu          sync.Mutex
	published   []published
	PublishFunc func(ctx context.Context, topic, key string, value []byte) error
	handlers    map[string]MessageHandler
}

func (b *fakeBus) Publish(ctx context.Context, topic, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.PublishFunc != nil {
		if err := b.PublishFunc(ctx, topic, key, value); err != nil {
			return err
		}
	}
	b.published = append(b.published, published{topic, key, value})
	return nil
}

func (b *fakeBus) Subscribe(ctx context.Context, topic string, h MessageHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers == nil {
		b.handlers = map[string]MessageHandler{}
	}
	b.handlers[topic] = h
	return nil
}

func (b *fakeBus) Close() error { return nil }

type fakeAlerter struct {
	mu       sync.Mutex
	messages []string
}

func (a *fakeAlerter) Alert(message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, message)
}

type sentMail struct {
	To, Subject, Body string
}

type fakeSender struct {
	sent     []sentMail
	SendFunc func(to, subject, body string) error
}

func (s *fakeSender) Send(to, subject, body string) error {
	if s.SendFunc != nil {
		if err := s.SendFunc(to, subject, body); err != nil {
			return err
		}
	}
	s.sent = append(s.sent, sentMail{to, subject, body})
	return nil
}

type fakeDeadLetters struct {
	mu       sync.Mutex
	messages map[string]*models.DeadLetter
	retried  map[string][]bool
	seq      int
}

func newFakeDeadLetters() *fakeDeadLetters {
	return &fakeDeadLetters{messages: map[string]*models.DeadLetter{}, retried: map[string][]bool{}}
}

func (f *fakeDeadLetters) Store(ctx context.Context, topic, key string, value []byte, errMsg string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	id := fmt.Sprintf("dlq-%d", f.seq)
	f.messages[id] = &models.DeadLetter{MessageID: id, Topic: topic, Key: key, Value: value, ErrorMessage: errMsg, MaxRetries: 5}
	return id, nil
}

func (f *fakeDeadLetters) ListUnresolved(ctx context.Context, limit int) ([]models.DeadLetter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.DeadLetter
	for _, m := range f.messages {
		if !m.Resolved {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeDeadLetters) ListRetryable(ctx context.Context, limit int) ([]models.DeadLetter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.DeadLetter
	for _, m := range f.messages {
		if !m.Resolved && m.RetryCount < m.MaxRetries && len(out) < limit {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeDeadLetters) Get(ctx context.Context, id string) (*models.DeadLetter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.messages[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, errors.NewNotFoundError("message not found")
}

func (f *fakeDeadLetters) MarkRetried(ctx context.Context, id string, succeeded bool, notes string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := f.messages[id]
	m.RetryCount++
	m.Resolved = succeeded
	m.Notes = notes
	f.retried[id] = append(f.retried[id], succeeded)
	return nil
}

func (f *fakeDeadLetters) Resolve(ctx context.Context, id, notes string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	if !ok {
		return errors.NewNotFoundError("message not found")
	}
	m.Resolved = true
	m.Notes = notes
	return nil
}

func (f *fakeDeadLetters) Stats(ctx context.Context) (*models.DeadLetterStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &models.DeadLetterStats{Total: len(f.messages)}
	for _, m := range f.messages {
		if m.Resolved {
			s.Resolved++
		} else {
			s.Unresolved++
		}
	}
	return s, nil
}

type fakeWebhookLog struct {
	logged   []models.WebhookLog
	statuses map[string]string
}

func (f *fakeWebhookLog) Log(ctx context.Context, w *models.WebhookLog) error {
	f.logged = append(f.logged, *w)
	return nil
}

func (f *fakeWebhookLog) SetStatus(ctx context.Context, eventID, status, errMsg string) error {
	if f.statuses == nil {
		f.statuses = map[string]string{}
	}
	f.statuses[eventID] = status
	return nil
}
