package models

import "time"

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User is a platform account mirrored from the identity provider and
// completed by the user with college details.
type User struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone,omitempty"`
	CollegeName string    `json:"college_name,omitempty"`
	YearOfStudy string    `json:"year_of_study,omitempty"`
	Branch      string    `json:"branch,omitempty"`
	Role        string    `json:"role"`
	IsVerified  bool      `json:"is_verified"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MissingProfileFields lists the required profile fields that are still empty.
func (u *User) MissingProfileFields() []string {
	missing := []string{}
	if u.CollegeName == "" {
		missing = append(missing, "college_name")
	}
	if u.Phone == "" {
		missing = append(missing, "phone")
	}
	if u.YearOfStudy == "" {
		missing = append(missing, "year_of_study")
	}
	if u.Branch == "" {
		missing = append(missing, "branch")
	}
	return missing
}

// ProfileComplete reports whether the user may register for hackathons.
func (u *User) ProfileComplete() bool {
	return len(u.MissingProfileFields()) == 0
}

// ProfileUpdate is a partial profile patch. Nil fields are left unchanged.
type ProfileUpdate struct {
	Name        *string `json:"name,omitempty"`
	CollegeName *string `json:"college_name,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	YearOfStudy *string `json:"year_of_study,omitempty"`
	Branch      *string `json:"branch,omitempty"`
}

// IdentityUser is the subset of an identity-provider user record we persist.
type IdentityUser struct {
	UserID      string
	Email       string
	Name        string
	Phone       string
	CollegeName string
	Branch      string
	YearOfStudy string
	Role        string
	IsVerified  bool
}
