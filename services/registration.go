package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hackathonwallah/errors"
	"hackathonwallah/logger"
	"hackathonwallah/models"
	"hackathonwallah/utils"
)

const (
	maxTeamMembers           = 10
	maxSubmissionDescription = 2000
)

// Notifier dispatches templated notifications to a user.
type Notifier interface {
	Dispatch(ctx context.Context, userID string, t Template, data TemplateData)
}

// RegistrationRequest is the body of a team registration.
type RegistrationRequest struct {
	TeamName    string              `json:"teamName"`
	TeamMembers []models.TeamMember `json:"teamMembers"`
}

// SubmissionRequest is the body of a project submission.
type SubmissionRequest struct {
	SubmissionURL         string `json:"submissionUrl"`
	SubmissionDescription string `json:"submissionDescription"`
}

// RegistrationView is a participant with its derived stage.
type RegistrationView struct {
	Participant *models.Participant `json:"participant"`
	Stage       models.Stage        `json:"stage"`
}

// RegistrationService drives a user through register, pay and submit.
type RegistrationService struct {
	hackathons   HackathonStore
	participants ParticipantStore
	notifier     Notifier
	now          func() time.Time
}

func NewRegistrationService(hackathons HackathonStore, participants ParticipantStore, notifier Notifier) *RegistrationService {
	return &RegistrationService{
		hackathons:   hackathons,
		participants: participants,
		notifier:     notifier,
		now:          time.Now,
	}
}

// Register creates a pending participant for user in the hackathon.
func (s *RegistrationService) Register(ctx context.Context, user *models.User, hackathonID string, req RegistrationRequest) (*models.Participant, error) {
	if missing := user.MissingProfileFields(); len(missing) > 0 {
		return nil, errors.WithDetails(
			errors.E(errors.Unauthorized, errors.CodeProfileIncomplete, "Complete your profile before registering"),
			map[string]interface{}{"missingFields": missing})
	}

	req = normaliseRegistration(req)
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	h, err := s.hackathons.GetByID(ctx, hackathonID)
	if err != nil {
		return nil, err
	}
	if !h.AcceptingRegistrations() {
		return nil, errors.E(errors.Invalid, errors.CodeRegistrationClosed, "This hackathon is not accepting registrations right now")
	}
	if !h.RegistrationOpen(s.now()) {
		return nil, errors.E(errors.Invalid, errors.CodeRegistrationClosed, "The registration window is closed for this hackathon")
	}
	if h.IsFull() {
		return nil, errors.E(errors.Conflict, errors.CodeRegistrationFull, "This hackathon has reached its participant limit")
	}

	p := &models.Participant{
		UserID:        user.ID,
		HackathonID:   h.ID,
		TeamName:      req.TeamName,
		TeamMembers:   models.TeamMembers(req.TeamMembers),
		PaymentStatus: models.ParticipantPending,
	}
	if size := p.TeamSize(); !h.TeamSizeAllowed(size) {
		return nil, errors.E(errors.Invalid, errors.CodeInvalidTeamSize,
			fmt.Sprintf("Team must have between %d and %d members including you", h.MinTeamSize, h.MaxTeamSize))
	}

	existing, err := s.participants.Get(ctx, user.ID, h.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errAlreadyRegistered()
	}

	created, err := s.participants.Create(ctx, p)
	if err != nil {
		if errors.KindOf(err) == errors.Conflict {
			return nil, errAlreadyRegistered()
		}
		return nil, err
	}

	logger.WithFields(map[string]interface{}{"participant_id": created.ID, "hackathon_id": h.ID}).
		Info("User %s registered", user.ID)

	s.notifier.Dispatch(ctx, user.ID, TemplateRegistrationPendingPayment, TemplateData{
		Name:           user.Name,
		HackathonTitle: h.Title,
		Amount:         h.RegistrationFee.StringFixed(2),
		ActionURL:      "/hackathons/" + h.Slug,
	})
	return created, nil
}

// Get returns the user's registration for the hackathon.
func (s *RegistrationService) Get(ctx context.Context, user *models.User, hackathonID string) (*RegistrationView, error) {
	p, err := s.registered(ctx, user, hackathonID)
	if err != nil {
		return nil, err
	}
	return &RegistrationView{Participant: p, Stage: p.Stage()}, nil
}

// Submit records the team's project once the registration is paid.
func (s *RegistrationService) Submit(ctx context.Context, user *models.User, hackathonID string, req SubmissionRequest) (*models.Participant, error) {
	req.SubmissionURL = strings.TrimSpace(req.SubmissionURL)
	req.SubmissionDescription = strings.TrimSpace(req.SubmissionDescription)

	v := utils.NewValidator()
	if err := utils.ValidateHTTPURL(req.SubmissionURL); err != nil {
		v.Check(false, "submissionUrl", err.Error())
	}
	v.MaxLength("submissionDescription", req.SubmissionDescription, maxSubmissionDescription)
	if err := v.Err(); err != nil {
		return nil, err
	}

	p, err := s.registered(ctx, user, hackathonID)
	if err != nil {
		return nil, err
	}
	if p.PaymentStatus != models.ParticipantPaid {
		return nil, errors.E(errors.Invalid, errors.CodePaymentPending, "Complete your payment before submitting your project")
	}
	return s.participants.Submit(ctx, p.ID, req.SubmissionURL, req.SubmissionDescription)
}

func (s *RegistrationService) registered(ctx context.Context, user *models.User, hackathonID string) (*models.Participant, error) {
	p, err := s.participants.Get(ctx, user.ID, hackathonID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.E(errors.NotFound, errors.CodeNotRegistered, "You are not registered for this hackathon")
	}
	return p, nil
}

func errAlreadyRegistered() error {
	return errors.E(errors.Conflict, errors.CodeAlreadyRegistered, "You are already registered for this hackathon")
}

func normaliseRegistration(req RegistrationRequest) RegistrationRequest {
	req.TeamName = strings.TrimSpace(req.TeamName)
	members := make([]models.TeamMember, 0, len(req.TeamMembers))
	for _, m := range req.TeamMembers {
		members = append(members, models.TeamMember{
			Name:  strings.TrimSpace(m.Name),
			Email: strings.ToLower(strings.TrimSpace(m.Email)),
			Role:  strings.TrimSpace(m.Role),
		})
	}
	req.TeamMembers = members
	return req
}

func validateRegistration(req RegistrationRequest) error {
	v := utils.NewValidator()
	v.MaxLength("teamName", req.TeamName, 120)
	v.Check(len(req.TeamMembers) <= maxTeamMembers, "teamMembers", fmt.Sprintf("must have at most %d members", maxTeamMembers))
	for i, m := range req.TeamMembers {
		prefix := fmt.Sprintf("teamMembers[%d].", i)
		v.Length(prefix+"name", m.Name, 1, 120)
		if m.Email != "" {
			v.Email(prefix+"email", m.Email)
		}
		v.MaxLength(prefix+"role", m.Role, 80)
	}
	return v.Err()
}
