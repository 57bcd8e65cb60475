package repository

import (
	"context"
	"database/sql"

	"hackathonwallah/errors"
	"hackathonwallah/models"
)

const participantColumns = `id, user_id, hackathon_id, COALESCE(team_name, ''), team_members, payment_status,
	COALESCE(payment_id, ''), COALESCE(submission_url, ''), COALESCE(submission_description, ''),
	submitted_at, registered_at, updated_at`

// ParticipantRepository handles registration rows
type ParticipantRepository struct {
	db *sql.DB
}

// NewParticipantRepository creates a new participant repository instance
func NewParticipantRepository(db *sql.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func scanParticipant(row scanner) (*models.Participant, error) {
	var p models.Participant
	var submittedAt sql.NullTime
	err := row.Scan(&p.ID, &p.UserID, &p.HackathonID, &p.TeamName, &p.TeamMembers, &p.PaymentStatus,
		&p.PaymentID, &p.SubmissionURL, &p.SubmissionDescription, &submittedAt, &p.RegisteredAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if submittedAt.Valid {
		t := submittedAt.Time
		p.SubmittedAt = &t
	}
	if p.TeamMembers == nil {
		p.TeamMembers = models.TeamMembers{}
	}
	return &p, nil
}

// Get returns the user's registration for a hackathon, or nil when absent.
func (r *ParticipantRepository) Get(ctx context.Context, userID, hackathonID string) (*models.Participant, error) {
	p, err := scanParticipant(r.db.QueryRowContext(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE user_id = $1 AND hackathon_id = $2`,
		userID, hackathonID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.FromDB(err, "participant")
	}
	return p, nil
}

// GetByID loads a participant by primary key.
func (r *ParticipantRepository) GetByID(ctx context.Context, id string) (*models.Participant, error) {
	p, err := scanParticipant(r.db.QueryRowContext(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE id = $1`, id))
	if err != nil {
		return nil, errors.FromDB(err, "participant")
	}
	return p, nil
}

// Create inserts a new registration in the pending state.
func (r *ParticipantRepository) Create(ctx context.Context, p *models.Participant) (*models.Participant, error) {
	query := `
		INSERT INTO participants (user_id, hackathon_id, team_name, team_members, payment_status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + participantColumns
	created, err := scanParticipant(r.db.QueryRowContext(ctx, query,
		p.UserID, p.HackathonID, nullString(p.TeamName), p.TeamMembers, string(models.ParticipantPending)))
	if err != nil {
		return nil, errors.FromDB(err, "create participant")
	}
	return created, nil
}

// Submit records the project submission.
func (r *ParticipantRepository) Submit(ctx context.Context, id, url, description string) (*models.Participant, error) {
	query := `
		UPDATE participants SET
			submission_url = $2,
			submission_description = $3,
			submitted_at = NOW(),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + participantColumns
	p, err := scanParticipant(r.db.QueryRowContext(ctx, query, id, url, nullString(description)))
	if err != nil {
		return nil, errors.FromDB(err, "submit project")
	}
	return p, nil
}

// ListByHackathon returns the roster with each team leader's profile.
func (r *ParticipantRepository) ListByHackathon(ctx context.Context, hackathonID string) ([]models.RosterEntry, error) {
	query := `
		SELECT p.id, p.user_id, p.hackathon_id, COALESCE(p.team_name, ''), p.team_members, p.payment_status,
			COALESCE(p.payment_id, ''), COALESCE(p.submission_url, ''), COALESCE(p.submission_description, ''),
			p.submitted_at, p.registered_at, p.updated_at,
			u.id, u.user_id, u.email, u.name, COALESCE(u.phone, ''), COALESCE(u.college_name, ''),
			COALESCE(u.year_of_study, ''), COALESCE(u.branch, ''), u.role, u.is_verified, u.created_at, u.updated_at
		FROM participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.hackathon_id = $1
		ORDER BY p.registered_at ASC`

	rows, err := r.db.QueryContext(ctx, query, hackathonID)
	if err != nil {
		return nil, errors.FromDB(err, "list participants")
	}
	defer rows.Close()

	var entries []models.RosterEntry
	for rows.Next() {
		var e models.RosterEntry
		var submittedAt sql.NullTime
		p, u := &e.Participant, &e.Leader
		if err := rows.Scan(&p.ID, &p.UserID, &p.HackathonID, &p.TeamName, &p.TeamMembers, &p.PaymentStatus,
			&p.PaymentID, &p.SubmissionURL, &p.SubmissionDescription, &submittedAt, &p.RegisteredAt, &p.UpdatedAt,
			&u.ID, &u.UserID, &u.Email, &u.Name, &u.Phone, &u.CollegeName, &u.YearOfStudy, &u.Branch,
			&u.Role, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, errors.FromDB(err, "scan participant")
		}
		if submittedAt.Valid {
			t := submittedAt.Time
			p.SubmittedAt = &t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.FromDB(err, "list participants")
	}
	return entries, nil
}
