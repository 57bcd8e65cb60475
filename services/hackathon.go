package services

import (
	"context"
	"strings"

	"hackathonwallah/errors"
	"hackathonwallah/logger"
	"hackathonwallah/models"
	"hackathonwallah/utils"

	"github.com/shopspring/decimal"
)

const (
	defaultMinTeamSize = 1
	defaultMaxTeamSize = 4
	maxThemes          = 10
)

// HackathonService is the public catalog plus admin maintenance.
type HackathonService struct {
	store HackathonStore
}

func NewHackathonService(store HackathonStore) *HackathonService {
	return &HackathonService{store: store}
}

// List returns catalog entries matching f. Without a status filter only
// published, ongoing and completed hackathons are listed.
func (s *HackathonService) List(ctx context.Context, f models.HackathonFilter) ([]models.Hackathon, error) {
	if len(f.Statuses) == 0 {
		f.Statuses = models.DefaultListedStatuses
	}
	return s.store.List(ctx, f)
}

func (s *HackathonService) Get(ctx context.Context, id string) (*models.Hackathon, error) {
	return s.store.GetByID(ctx, id)
}

func (s *HackathonService) GetBySlug(ctx context.Context, slug string) (*models.Hackathon, error) {
	return s.store.GetBySlug(ctx, strings.ToLower(slug))
}

// Create validates in and stores a new hackathon. The slug is derived from
// the title when absent and the status defaults to draft.
func (s *HackathonService) Create(ctx context.Context, in models.HackathonInput) (*models.Hackathon, error) {
	h := &models.Hackathon{
		MinTeamSize: defaultMinTeamSize,
		MaxTeamSize: defaultMaxTeamSize,
		Status:      models.HackathonDraft,
		Themes:      []string{},
	}
	in.ApplyTo(h)
	normaliseHackathon(h)
	if h.Slug == "" {
		h.Slug = utils.Slugify(h.Title)
	}
	if err := ValidateHackathon(h); err != nil {
		return nil, err
	}

	created, err := s.store.Create(ctx, h)
	if err != nil {
		if errors.KindOf(err) == errors.Conflict {
			return nil, errors.E(errors.Conflict, "A hackathon with this slug already exists", err)
		}
		return nil, err
	}
	logger.Info("Hackathon %s (%s) created", created.ID, created.Slug)
	return created, nil
}

// Update merges the patch onto the stored hackathon and re-validates the
// result as a whole.
func (s *HackathonService) Update(ctx context.Context, id string, in models.HackathonInput) (*models.Hackathon, error) {
	h, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.ApplyTo(h)
	normaliseHackathon(h)
	if err := ValidateHackathon(h); err != nil {
		return nil, err
	}
	updated, err := s.store.Update(ctx, h)
	if err != nil {
		if errors.KindOf(err) == errors.Conflict {
			return nil, errors.E(errors.Conflict, "A hackathon with this slug already exists", err)
		}
		return nil, err
	}
	return updated, nil
}

func (s *HackathonService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info("Hackathon %s deleted", id)
	return nil
}

func normaliseHackathon(h *models.Hackathon) {
	h.Title = strings.TrimSpace(h.Title)
	h.Slug = strings.ToLower(strings.TrimSpace(h.Slug))
	h.Description = strings.TrimSpace(h.Description)
	h.LocationType = strings.ToLower(strings.TrimSpace(h.LocationType))
	themes := make([]string, 0, len(h.Themes))
	for _, t := range h.Themes {
		if t = strings.TrimSpace(t); t != "" {
			themes = append(themes, t)
		}
	}
	h.Themes = themes
}

// ValidateHackathon checks a complete hackathon record.
func ValidateHackathon(h *models.Hackathon) error {
	v := utils.NewValidator()

	v.Length("title", h.Title, 3, 150)
	v.Length("slug", h.Slug, 3, 80)
	v.Check(utils.SlugRegex.MatchString(h.Slug), "slug", "must contain lowercase letters, digits and single hyphens")
	v.MinLength("description", h.Description, 20)

	switch h.LocationType {
	case models.LocationOnline, models.LocationOffline, models.LocationHybrid:
	default:
		v.Check(false, "location_type", "must be online, offline or hybrid")
	}
	v.Check(h.Status.Valid(), "status", "must be draft, published, ongoing, completed or cancelled")

	v.Check(!h.RegistrationStart.IsZero(), "registration_start", "is required")
	v.Check(!h.RegistrationEnd.IsZero(), "registration_end", "is required")
	v.Check(!h.StartDate.IsZero(), "start_date", "is required")
	v.Check(!h.EndDate.IsZero(), "end_date", "is required")
	v.Check(!h.RegistrationEnd.Before(h.RegistrationStart), "registration_end", "must not be before registration_start")
	v.Check(!h.StartDate.Before(h.RegistrationEnd), "start_date", "must not be before registration_end")
	v.Check(!h.EndDate.Before(h.StartDate), "end_date", "must not be before start_date")

	v.Check(h.MinTeamSize >= 1, "min_team_size", "must be at least 1")
	v.Check(h.MaxTeamSize >= 1, "max_team_size", "must be at least 1")
	v.Check(h.MaxTeamSize >= h.MinTeamSize, "max_team_size", "must not be less than min_team_size")
	if h.MaxParticipants != nil {
		v.Check(*h.MaxParticipants >= 1, "max_participants", "must be at least 1")
	}

	for field, amount := range map[string]decimal.Decimal{
		"registration_fee": h.RegistrationFee,
		"prize_pool":       h.PrizePool,
		"first_prize":      h.FirstPrize,
		"second_prize":     h.SecondPrize,
		"third_prize":      h.ThirdPrize,
	} {
		v.Check(!amount.IsNegative(), field, "must not be negative")
	}
	prizes := h.FirstPrize.Add(h.SecondPrize).Add(h.ThirdPrize)
	v.Check(prizes.LessThanOrEqual(h.PrizePool), "prize_pool", "must cover first, second and third prizes")

	v.Check(len(h.Themes) <= maxThemes, "themes", "must have at most 10 themes")
	for _, u := range []struct{ field, value string }{{"banner_url", h.BannerURL}, {"logo_url", h.LogoURL}} {
		if u.value != "" {
			if err := utils.ValidateHTTPURL(u.value); err != nil {
				v.Check(false, u.field, err.Error())
			}
		}
	}

	return v.Err()
}
