package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

type ParticipantPaymentStatus string

const (
	ParticipantPending  ParticipantPaymentStatus = "pending"
	ParticipantPaid     ParticipantPaymentStatus = "paid"
	ParticipantFailed   ParticipantPaymentStatus = "failed"
	ParticipantRefunded ParticipantPaymentStatus = "refunded"
)

// Stage is the position of a participant in the registration flow.
type Stage string

const (
	StageUnregistered   Stage = "unregistered"
	StagePendingPayment Stage = "pending_payment"
	StagePaid           Stage = "paid"
	StageSubmitted      Stage = "submitted"
	StageFailed         Stage = "failed"
	StageRefunded       Stage = "refunded"
)

// TeamMember is a non-leader member of a registered team.
type TeamMember struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// TeamMembers is stored as a jsonb array.
type TeamMembers []TeamMember

// Value implements driver.Valuer
func (t TeamMembers) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (t *TeamMembers) Scan(src interface{}) error {
	return scanJSON(src, t)
}

// Participant is a user's registration for one hackathon.
type Participant struct {
	ID                    string                   `json:"id"`
	UserID                string                   `json:"user_id"`
	HackathonID           string                   `json:"hackathon_id"`
	TeamName              string                   `json:"team_name,omitempty"`
	TeamMembers           TeamMembers              `json:"team_members"`
	PaymentStatus         ParticipantPaymentStatus `json:"payment_status"`
	PaymentID             string                   `json:"payment_id,omitempty"`
	SubmissionURL         string                   `json:"submission_url,omitempty"`
	SubmissionDescription string                   `json:"submission_description,omitempty"`
	SubmittedAt           *time.Time               `json:"submitted_at,omitempty"`
	RegisteredAt          time.Time                `json:"registered_at"`
	UpdatedAt             time.Time                `json:"updated_at"`
}

// TeamSize counts the leader plus listed members.
func (p *Participant) TeamSize() int {
	return 1 + len(p.TeamMembers)
}

// Stage derives the registration stage from payment and submission state.
func (p *Participant) Stage() Stage {
	if p == nil {
		return StageUnregistered
	}
	switch p.PaymentStatus {
	case ParticipantPaid:
		if p.SubmittedAt != nil {
			return StageSubmitted
		}
		return StagePaid
	case ParticipantFailed:
		return StageFailed
	case ParticipantRefunded:
		return StageRefunded
	default:
		return StagePendingPayment
	}
}

// RosterEntry is a participant joined with its team leader's profile.
type RosterEntry struct {
	Participant Participant
	Leader      User
}
