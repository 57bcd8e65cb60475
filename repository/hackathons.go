package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"hackathonwallah/errors"
	"hackathonwallah/models"

	"github.com/lib/pq"
)

const hackathonColumns = `id, title, slug, description, COALESCE(short_description, ''), COALESCE(banner_url, ''),
	COALESCE(logo_url, ''), start_date, end_date, registration_start, registration_end, location_type,
	COALESCE(venue, ''), COALESCE(city, ''), max_participants, current_participants, min_team_size,
	max_team_size, registration_fee, prize_pool, first_prize, second_prize, third_prize, themes,
	COALESCE(rules, ''), COALESCE(eligibility, ''), status, created_at, updated_at`

// HackathonRepository handles hackathon catalog persistence
type HackathonRepository struct {
	db *sql.DB
}

// NewHackathonRepository creates a new hackathon repository instance
func NewHackathonRepository(db *sql.DB) *HackathonRepository {
	return &HackathonRepository{db: db}
}

func scanHackathon(row scanner) (*models.Hackathon, error) {
	var h models.Hackathon
	var maxParticipants sql.NullInt64
	var themes []string
	err := row.Scan(&h.ID, &h.Title, &h.Slug, &h.Description, &h.ShortDescription, &h.BannerURL,
		&h.LogoURL, &h.StartDate, &h.EndDate, &h.RegistrationStart, &h.RegistrationEnd, &h.LocationType,
		&h.Venue, &h.City, &maxParticipants, &h.CurrentParticipants, &h.MinTeamSize,
		&h.MaxTeamSize, &h.RegistrationFee, &h.PrizePool, &h.FirstPrize, &h.SecondPrize, &h.ThirdPrize,
		pq.Array(&themes), &h.Rules, &h.Eligibility, &h.Status, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if maxParticipants.Valid {
		v := int(maxParticipants.Int64)
		h.MaxParticipants = &v
	}
	if themes == nil {
		themes = []string{}
	}
	h.Themes = themes
	return &h, nil
}

// List returns catalog entries matching the filter, earliest start first.
func (r *HackathonRepository) List(ctx context.Context, f models.HackathonFilter) ([]models.Hackathon, error) {
	statuses := f.Statuses
	if len(statuses) == 0 {
		statuses = models.DefaultListedStatuses
	}
	statusStrings := make([]string, 0, len(statuses))
	for _, s := range statuses {
		statusStrings = append(statusStrings, string(s))
	}

	var where []string
	args := []interface{}{pq.Array(statusStrings)}
	where = append(where, "status = ANY($1)")

	if len(f.Themes) > 0 {
		args = append(args, pq.Array(f.Themes))
		where = append(where, fmt.Sprintf("themes @> $%d", len(args)))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+escapeLike(s)+"%")
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	query := `SELECT ` + hackathonColumns + ` FROM hackathons WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY start_date ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.FromDB(err, "list hackathons")
	}
	defer rows.Close()

	hackathons := []models.Hackathon{}
	for rows.Next() {
		h, err := scanHackathon(rows)
		if err != nil {
			return nil, errors.FromDB(err, "scan hackathon")
		}
		hackathons = append(hackathons, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.FromDB(err, "list hackathons")
	}
	return hackathons, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// GetByID loads one hackathon.
func (r *HackathonRepository) GetByID(ctx context.Context, id string) (*models.Hackathon, error) {
	h, err := scanHackathon(r.db.QueryRowContext(ctx, `SELECT `+hackathonColumns+` FROM hackathons WHERE id = $1`, id))
	if err != nil {
		return nil, errors.FromDB(err, "hackathon")
	}
	return h, nil
}

// GetBySlug loads one hackathon by its URL slug.
func (r *HackathonRepository) GetBySlug(ctx context.Context, slug string) (*models.Hackathon, error) {
	h, err := scanHackathon(r.db.QueryRowContext(ctx, `SELECT `+hackathonColumns+` FROM hackathons WHERE slug = $1`, slug))
	if err != nil {
		return nil, errors.FromDB(err, "hackathon")
	}
	return h, nil
}

func maxParticipantsArg(h *models.Hackathon) interface{} {
	if h.MaxParticipants == nil {
		return nil
	}
	return *h.MaxParticipants
}

// Create inserts a validated hackathon.
func (r *HackathonRepository) Create(ctx context.Context, h *models.Hackathon) (*models.Hackathon, error) {
	query := `
		INSERT INTO hackathons (title, slug, description, short_description, banner_url, logo_url,
			start_date, end_date, registration_start, registration_end, location_type, venue, city,
			max_participants, min_team_size, max_team_size, registration_fee, prize_pool,
			first_prize, second_prize, third_prize, themes, rules, eligibility, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23, $24, $25)
		RETURNING ` + hackathonColumns
	created, err := scanHackathon(r.db.QueryRowContext(ctx, query,
		h.Title, h.Slug, h.Description, nullString(h.ShortDescription), nullString(h.BannerURL),
		nullString(h.LogoURL), h.StartDate, h.EndDate, h.RegistrationStart, h.RegistrationEnd,
		h.LocationType, nullString(h.Venue), nullString(h.City), maxParticipantsArg(h),
		h.MinTeamSize, h.MaxTeamSize, h.RegistrationFee, h.PrizePool, h.FirstPrize, h.SecondPrize,
		h.ThirdPrize, pq.Array(h.Themes), nullString(h.Rules), nullString(h.Eligibility), string(h.Status)))
	if err != nil {
		return nil, errors.FromDB(err, "create hackathon")
	}
	return created, nil
}

// Update writes every editable column of h.
func (r *HackathonRepository) Update(ctx context.Context, h *models.Hackathon) (*models.Hackathon, error) {
	query := `
		UPDATE hackathons SET
			title = $2, slug = $3, description = $4, short_description = $5, banner_url = $6,
			logo_url = $7, start_date = $8, end_date = $9, registration_start = $10,
			registration_end = $11, location_type = $12, venue = $13, city = $14,
			max_participants = $15, min_team_size = $16, max_team_size = $17,
			registration_fee = $18, prize_pool = $19, first_prize = $20, second_prize = $21,
			third_prize = $22, themes = $23, rules = $24, eligibility = $25, status = $26,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + hackathonColumns
	updated, err := scanHackathon(r.db.QueryRowContext(ctx, query, h.ID,
		h.Title, h.Slug, h.Description, nullString(h.ShortDescription), nullString(h.BannerURL),
		nullString(h.LogoURL), h.StartDate, h.EndDate, h.RegistrationStart, h.RegistrationEnd,
		h.LocationType, nullString(h.Venue), nullString(h.City), maxParticipantsArg(h),
		h.MinTeamSize, h.MaxTeamSize, h.RegistrationFee, h.PrizePool, h.FirstPrize, h.SecondPrize,
		h.ThirdPrize, pq.Array(h.Themes), nullString(h.Rules), nullString(h.Eligibility), string(h.Status)))
	if err != nil {
		return nil, errors.FromDB(err, "update hackathon")
	}
	return updated, nil
}

// Delete removes a hackathon and, by cascade, its registrations.
func (r *HackathonRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM hackathons WHERE id = $1`, id)
	if errors.IsStillReferenced(err) {
		return errors.E(errors.Conflict, errors.CodeHasRegistrations,
			"Hackathon has registrations; cancel it instead of deleting", err)
	}
	if err != nil {
		return errors.FromDB(err, "delete hackathon")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.E(errors.NotFound, "hackathon: not found")
	}
	return nil
}
