package repository

import (
	"context"
	"database/sql"

	"hackathonwallah/errors"
	"hackathonwallah/models"
)

const userColumns = `id, user_id, email, name, COALESCE(phone, ''), COALESCE(college_name, ''),
	COALESCE(year_of_study, ''), COALESCE(branch, ''), role, is_verified, created_at, updated_at`

// UserRepository handles all user-related database operations
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.UserID, &u.Email, &u.Name, &u.Phone, &u.CollegeName,
		&u.YearOfStudy, &u.Branch, &u.Role, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID loads a user by primary key.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 AND deleted_at IS NULL`, id))
	if err != nil {
		return nil, errors.FromDB(err, "user")
	}
	return u, nil
}

// GetByExternalID loads a user by identity-provider id.
func (r *UserRepository) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1 AND deleted_at IS NULL`, externalID))
	if err != nil {
		return nil, errors.FromDB(err, "user")
	}
	return u, nil
}

// UpsertFromIdentity inserts or refreshes a user keyed by email. Profile
// fields already filled locally are kept when the identity record is blank.
func (r *UserRepository) UpsertFromIdentity(ctx context.Context, in models.IdentityUser) (*models.User, error) {
	role := in.Role
	if role == "" {
		role = models.RoleStudent
	}
	query := `
		INSERT INTO users (user_id, email, name, phone, college_name, year_of_study, branch, role, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (email) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			name = EXCLUDED.name,
			phone = COALESCE(EXCLUDED.phone, users.phone),
			college_name = COALESCE(EXCLUDED.college_name, users.college_name),
			year_of_study = COALESCE(EXCLUDED.year_of_study, users.year_of_study),
			branch = COALESCE(EXCLUDED.branch, users.branch),
			role = EXCLUDED.role,
			is_verified = EXCLUDED.is_verified,
			deleted_at = NULL,
			updated_at = NOW()
		RETURNING ` + userColumns
	u, err := scanUser(r.db.QueryRowContext(ctx, query,
		in.UserID, in.Email, in.Name, nullString(in.Phone), nullString(in.CollegeName),
		nullString(in.YearOfStudy), nullString(in.Branch), role, in.IsVerified))
	if err != nil {
		return nil, errors.FromDB(err, "upsert user")
	}
	return u, nil
}

// DeleteByExternalID retires a user by identity-provider id. Registrations
// and payments keep pointing at the retired row. It stops resolving and is
// restored when the identity is upserted again.
func (r *UserRepository) DeleteByExternalID(ctx context.Context, externalID string) error {
	query := `UPDATE users SET deleted_at = NOW(), updated_at = NOW() WHERE user_id = $1 AND deleted_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, externalID); err != nil {
		return errors.FromDB(err, "delete user")
	}
	return nil
}

// UpdateProfile applies a partial profile patch.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, in models.ProfileUpdate) (*models.User, error) {
	query := `
		UPDATE users SET
			name = COALESCE($2, name),
			college_name = COALESCE($3, college_name),
			phone = COALESCE($4, phone),
			year_of_study = COALESCE($5, year_of_study),
			branch = COALESCE($6, branch),
			updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + userColumns
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id,
		in.Name, in.CollegeName, in.Phone, in.YearOfStudy, in.Branch))
	if err != nil {
		return nil, errors.FromDB(err, "update profile")
	}
	return u, nil
}
