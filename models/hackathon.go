package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type HackathonStatus string

const (
	HackathonDraft     HackathonStatus = "draft"
	HackathonPublished HackathonStatus = "published"
	HackathonOngoing   HackathonStatus = "ongoing"
	HackathonCompleted HackathonStatus = "completed"
	HackathonCancelled HackathonStatus = "cancelled"
)

// Valid reports whether s is a known hackathon status.
func (s HackathonStatus) Valid() bool {
	switch s {
	case HackathonDraft, HackathonPublished, HackathonOngoing, HackathonCompleted, HackathonCancelled:
		return true
	}
	return false
}

// DefaultListedStatuses are shown in the public catalog when no filter is given.
var DefaultListedStatuses = []HackathonStatus{HackathonPublished, HackathonOngoing, HackathonCompleted}

const (
	LocationOnline  = "online"
	LocationOffline = "offline"
	LocationHybrid  = "hybrid"
)

// Hackathon is a catalog entry users can register for.
type Hackathon struct {
	ID                  string          `json:"id"`
	Title               string          `json:"title"`
	Slug                string          `json:"slug"`
	Description         string          `json:"description"`
	ShortDescription    string          `json:"short_description,omitempty"`
	BannerURL           string          `json:"banner_url,omitempty"`
	LogoURL             string          `json:"logo_url,omitempty"`
	StartDate           time.Time       `json:"start_date"`
	EndDate             time.Time       `json:"end_date"`
	RegistrationStart   time.Time       `json:"registration_start"`
	RegistrationEnd     time.Time       `json:"registration_end"`
	LocationType        string          `json:"location_type"`
	Venue               string          `json:"venue,omitempty"`
	City                string          `json:"city,omitempty"`
	MaxParticipants     *int            `json:"max_participants,omitempty"`
	CurrentParticipants int             `json:"current_participants"`
	MinTeamSize         int             `json:"min_team_size"`
	MaxTeamSize         int             `json:"max_team_size"`
	RegistrationFee     decimal.Decimal `json:"registration_fee"`
	PrizePool           decimal.Decimal `json:"prize_pool"`
	FirstPrize          decimal.Decimal `json:"first_prize"`
	SecondPrize         decimal.Decimal `json:"second_prize"`
	ThirdPrize          decimal.Decimal `json:"third_prize"`
	Themes              []string        `json:"themes"`
	Rules               string          `json:"rules,omitempty"`
	Eligibility         string          `json:"eligibility,omitempty"`
	Status              HackathonStatus `json:"status"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// AcceptingRegistrations reports whether the status allows new registrations.
func (h *Hackathon) AcceptingRegistrations() bool {
	return h.Status == HackathonPublished || h.Status == HackathonOngoing
}

// RegistrationOpen reports whether a registration made at now is allowed.
func (h *Hackathon) RegistrationOpen(now time.Time) bool {
	if !h.AcceptingRegistrations() {
		return false
	}
	return !now.Before(h.RegistrationStart) && !now.After(h.RegistrationEnd)
}

// IsFull reports whether the participant cap has been reached.
func (h *Hackathon) IsFull() bool {
	return h.MaxParticipants != nil && h.CurrentParticipants >= *h.MaxParticipants
}

// TeamSizeAllowed reports whether a team of size n fits the bounds.
func (h *Hackathon) TeamSizeAllowed(n int) bool {
	return n >= h.MinTeamSize && n <= h.MaxTeamSize
}

// RequiresPayment reports whether registering costs money.
func (h *Hackathon) RequiresPayment() bool {
	return h.RegistrationFee.GreaterThan(decimal.Zero)
}

// HackathonFilter narrows the public catalog listing.
type HackathonFilter struct {
	Statuses []HackathonStatus
	Themes   []string
	Search   string
}

// HackathonInput is the admin payload for creating a hackathon and, with
// pointer semantics, for patching one.
type HackathonInput struct {
	Title             *string          `json:"title,omitempty"`
	Slug              *string          `json:"slug,omitempty"`
	Description       *string          `json:"description,omitempty"`
	ShortDescription  *string          `json:"short_description,omitempty"`
	BannerURL         *string          `json:"banner_url,omitempty"`
	LogoURL           *string          `json:"logo_url,omitempty"`
	StartDate         *time.Time       `json:"start_date,omitempty"`
	EndDate           *time.Time       `json:"end_date,omitempty"`
	RegistrationStart *time.Time       `json:"registration_start,omitempty"`
	RegistrationEnd   *time.Time       `json:"registration_end,omitempty"`
	LocationType      *string          `json:"location_type,omitempty"`
	Venue             *string          `json:"venue,omitempty"`
	City              *string          `json:"city,omitempty"`
	MaxParticipants   *int             `json:"max_participants,omitempty"`
	MinTeamSize       *int             `json:"min_team_size,omitempty"`
	MaxTeamSize       *int             `json:"max_team_size,omitempty"`
	RegistrationFee   *decimal.Decimal `json:"registration_fee,omitempty"`
	PrizePool         *decimal.Decimal `json:"prize_pool,omitempty"`
	FirstPrize        *decimal.Decimal `json:"first_prize,omitempty"`
	SecondPrize       *decimal.Decimal `json:"second_prize,omitempty"`
	ThirdPrize        *decimal.Decimal `json:"third_prize,omitempty"`
	Themes            *[]string        `json:"themes,omitempty"`
	Rules             *string          `json:"rules,omitempty"`
	Eligibility       *string          `json:"eligibility,omitempty"`
	Status            *HackathonStatus `json:"status,omitempty"`
}

// ApplyTo copies every set field onto h.
func (in *HackathonInput) ApplyTo(h *Hackathon) {
	setString(&h.Title, in.Title)
	setString(&h.Slug, in.Slug)
	setString(&h.Description, in.Description)
	setString(&h.ShortDescription, in.ShortDescription)
	setString(&h.BannerURL, in.BannerURL)
	setString(&h.LogoURL, in.LogoURL)
	setString(&h.LocationType, in.LocationType)
	setString(&h.Venue, in.Venue)
	setString(&h.City, in.City)
	setString(&h.Rules, in.Rules)
	setString(&h.Eligibility, in.Eligibility)
	setTime(&h.StartDate, in.StartDate)
	setTime(&h.EndDate, in.EndDate)
	setTime(&h.RegistrationStart, in.RegistrationStart)
	setTime(&h.RegistrationEnd, in.RegistrationEnd)
	setDecimal(&h.RegistrationFee, in.RegistrationFee)
	setDecimal(&h.PrizePool, in.PrizePool)
	setDecimal(&h.FirstPrize, in.FirstPrize)
	setDecimal(&h.SecondPrize, in.SecondPrize)
	setDecimal(&h.ThirdPrize, in.ThirdPrize)
	if in.MaxParticipants != nil {
		v := *in.MaxParticipants
		h.MaxParticipants = &v
	}
	if in.MinTeamSize != nil {
		h.MinTeamSize = *in.MinTeamSize
	}
	if in.MaxTeamSize != nil {
		h.MaxTeamSize = *in.MaxTeamSize
	}
	if in.Themes != nil {
		h.Themes = append([]string{}, (*in.Themes)...)
	}
	if in.Status != nil {
		h.Status = *in.Status
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setTime(dst *time.Time, src *time.Time) {
	if src != nil {
		*dst = *src
	}
}

func setDecimal(dst *decimal.Decimal, src *decimal.Decimal) {
	if src != nil {
		*dst = *src
	}
}
