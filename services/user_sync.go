package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hackathonwallah/errors"
	"hackathonwallah/logger"
	"hackathonwallah/models"
)

const (
	headerSvixID        = "svix-id"
	headerSvixTimestamp = "svix-timestamp"
	headerSvixSignature = "svix-signature"

	svixTolerance = 5 * time.Minute
)

// clerkEvent is the subset of a Clerk user webhook we read.
type clerkEvent struct {
	Type string    `json:"type"`
	Data clerkUser `json:"data"`
}

type clerkUser struct {
	ID                    string `json:"id"`
	FirstName             string `json:"first_name"`
	LastName              string `json:"last_name"`
	Username              string `json:"username"`
	PrimaryEmailAddressID string `json:"primary_email_address_id"`
	EmailAddresses        []struct {
		ID           string `json:"id"`
		EmailAddress string `json:"email_address"`
		Verification *struct {
			Status string `json:"status"`
		} `json:"verification"`
	} `json:"email_addresses"`
	PrimaryPhoneNumberID string `json:"primary_phone_number_id"`
	PhoneNumbers         []struct {
		ID          string `json:"id"`
		PhoneNumber string `json:"phone_number"`
	} `json:"phone_numbers"`
	PublicMetadata map[string]interface{} `json:"public_metadata"`
	UnsafeMetadata map[string]interface{} `json:"unsafe_metadata"`
}

// UserSyncService mirrors identity-provider users into the users table.
type UserSyncService struct {
	secret string
	users  UserStore
	now    func() time.Time
}

func NewUserSyncService(secret string, users UserStore) *UserSyncService {
	return &UserSyncService{secret: secret, users: users, now: time.Now}
}

// Verify checks the svix signature headers on a webhook body.
func (s *UserSyncService) Verify(body []byte, headers http.Header) error {
	id := headers.Get(headerSvixID)
	timestamp := headers.Get(headerSvixTimestamp)
	signatures := headers.Get(headerSvixSignature)
	if id == "" || timestamp == "" || signatures == "" {
		return errors.E(errors.Invalid, "missing svix signature headers")
	}
	if s.secret == "" {
		return errors.E(errors.Internal, errors.CodeServerMisconfigured, "clerk webhook secret is not configured")
	}

	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(s.secret, "whsec_"))
	if err != nil {
		return errors.E(errors.Internal, errors.CodeServerMisconfigured, "clerk webhook secret is malformed", err)
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return errors.E(errors.Unauthorized, errors.CodeInvalidSignature, "invalid svix timestamp")
	}
	if d := s.now().Sub(time.Unix(ts, 0)); d > svixTolerance || d < -svixTolerance {
		return errors.E(errors.Unauthorized, errors.CodeInvalidSignature, "svix timestamp outside tolerance")
	}

	expected := SignSvix(key, id, timestamp, body)
	for _, candidate := range strings.Fields(signatures) {
		version, sig, ok := strings.Cut(candidate, ",")
		if !ok || version != "v1" {
			continue
		}
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}
	return errors.E(errors.Unauthorized, errors.CodeInvalidSignature, "invalid webhook signature")
}

// SignSvix returns the base64 v1 signature of id.timestamp.body.
func SignSvix(key []byte, id, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(id + "." + timestamp + "."))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Handle verifies and applies one user webhook, returning its event type.
func (s *UserSyncService) Handle(ctx context.Context, body []byte, headers http.Header) (string, error) {
	if err := s.Verify(body, headers); err != nil {
		return "", err
	}

	var event clerkEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return "", errors.E(errors.Invalid, "invalid webhook payload", err)
	}
	log := logger.WithFields(map[string]interface{}{"event": event.Type, "user_id": event.Data.ID})

	switch event.Type {
	case "user.created", "user.updated":
		in, err := identityFromClerk(event.Data)
		if err != nil {
			return event.Type, err
		}
		u, err := s.users.UpsertFromIdentity(ctx, in)
		if err != nil {
			return event.Type, err
		}
		log.Info("User synced as %s", u.ID)
	case "user.deleted":
		if event.Data.ID == "" {
			return event.Type, errors.E(errors.Invalid, "user id missing")
		}
		if err := s.users.DeleteByExternalID(ctx, event.Data.ID); err != nil {
			return event.Type, err
		}
		log.Info("User deleted")
	default:
		log.Info("Unhandled event type, acknowledging")
	}
	return event.Type, nil
}

func identityFromClerk(d clerkUser) (models.IdentityUser, error) {
	if d.ID == "" {
		return models.IdentityUser{}, errors.E(errors.Invalid, "user id missing")
	}

	email := ""
	verified := false
	for _, e := range d.EmailAddresses {
		if e.ID == d.PrimaryEmailAddressID {
			email = e.EmailAddress
		}
		if e.Verification != nil && e.Verification.Status == "verified" {
			verified = true
		}
	}
	if email == "" && len(d.EmailAddresses) > 0 {
		email = d.EmailAddresses[0].EmailAddress
	}
	if email == "" {
		return models.IdentityUser{}, errors.E(errors.Unprocessable, errors.CodeMissingUserEmail, "Identity user has no email address")
	}

	phone := ""
	for _, p := range d.PhoneNumbers {
		if p.ID == d.PrimaryPhoneNumberID {
			phone = p.PhoneNumber
		}
	}
	if phone == "" && len(d.PhoneNumbers) > 0 {
		phone = d.PhoneNumbers[0].PhoneNumber
	}

	meta := d.PublicMetadata
	if len(meta) == 0 {
		meta = d.UnsafeMetadata
	}

	name := strings.TrimSpace(strings.TrimSpace(d.FirstName) + " " + strings.TrimSpace(d.LastName))
	if name == "" {
		name = d.Username
	}
	if name == "" {
		name = email
	}

	role := models.RoleStudent
	if metaString(meta, "role") == models.RoleAdmin {
		role = models.RoleAdmin
	}
	if v, ok := meta["isVerified"].(bool); ok && v {
		verified = true
	}

	return models.IdentityUser{
		UserID:      d.ID,
		Email:       strings.ToLower(email),
		Name:        name,
		Phone:       phone,
		CollegeName: metaString(meta, "collegeName"),
		Branch:      metaString(meta, "branch"),
		YearOfStudy: metaString(meta, "yearOfStudy"),
		Role:        role,
		IsVerified:  verified,
	}, nil
}

func metaString(meta map[string]interface{}, key string) string {
	switch v := meta[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
