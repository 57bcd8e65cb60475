package services

import (
	"context"
	"strings"

	"hackathonwallah/models"
	"hackathonwallah/utils"
)

// ProfileView is a user's profile with its completeness.
type ProfileView struct {
	Profile       *models.User `json:"profile"`
	Complete      bool         `json:"complete"`
	MissingFields []string     `json:"missingFields"`
}

// NewProfileView wraps u with its completeness.
func NewProfileView(u *models.User) *ProfileView {
	missing := u.MissingProfileFields()
	return &ProfileView{Profile: u, Complete: len(missing) == 0, MissingFields: missing}
}

type ProfileService struct {
	users UserStore
}

func NewProfileService(users UserStore) *ProfileService {
	return &ProfileService{users: users}
}

// Get reloads the user's profile.
func (s *ProfileService) Get(ctx context.Context, userID string) (*ProfileView, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewProfileView(u), nil
}

// Update validates and applies a partial profile patch.
func (s *ProfileService) Update(ctx context.Context, userID string, in models.ProfileUpdate) (*ProfileView, error) {
	in = trimProfileUpdate(in)
	if err := validateProfileUpdate(in); err != nil {
		return nil, err
	}
	u, err := s.users.UpdateProfile(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	return NewProfileView(u), nil
}

func trimProfileUpdate(in models.ProfileUpdate) models.ProfileUpdate {
	for _, f := range []**string{&in.Name, &in.CollegeName, &in.Phone, &in.YearOfStudy, &in.Branch} {
		if *f != nil {
			v := strings.TrimSpace(**f)
			*f = &v
		}
	}
	return in
}

func validateProfileUpdate(in models.ProfileUpdate) error {
	v := utils.NewValidator()
	if in.Name != nil {
		v.Length("name", *in.Name, 3, 120)
	}
	if in.CollegeName != nil {
		v.Length("college_name", *in.CollegeName, 2, 150)
	}
	if in.Branch != nil {
		v.Length("branch", *in.Branch, 2, 120)
	}
	if in.Phone != nil {
		if err := utils.ValidatePhone(*in.Phone); err != nil {
			v.Check(false, "phone", err.Error())
		}
	}
	if in.YearOfStudy != nil {
		v.Length("year_of_study", *in.YearOfStudy, 2, 50)
	}
	return v.Err()
}
