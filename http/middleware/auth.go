package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"

	"hackathonwallah/errors"
	"hackathonwallah/http/response"
	"hackathonwallah/models"

	"github.com/go-chi/jwtauth"
	"github.com/lestrrat-go/jwx/jwt"
)

const HeaderAdminKey = "X-Admin-Key"

type ctxKey int

const userKey ctxKey = iota

// UserLookup resolves a token subject to the local user row.
type UserLookup interface {
	GetByExternalID(ctx context.Context, externalID string) (*models.User, error)
}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// CurrentUser returns the authenticated user, or nil.
func CurrentUser(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

// Authenticate must run after jwtauth.Verifier. It rejects requests without
// a valid token and loads the user named by the sub claim.
func Authenticate(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil || jwt.Validate(token) != nil {
				response.ErrorResponse(w, http.StatusUnauthorized, errors.CodeUnauthorized, "Authentication required.")
				return
			}

			sub, _ := claims["sub"].(string)
			if sub == "" {
				response.ErrorResponse(w, http.StatusUnauthorized, errors.CodeUnauthorized, "Authentication required.")
				return
			}

			user, err := users.GetByExternalID(r.Context(), sub)
			if err != nil {
				if errors.KindOf(err) == errors.NotFound {
					response.ErrorResponse(w, http.StatusNotFound, errors.CodeNotFound, "User profile was not found.")
					return
				}
				response.Error(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireAdminKey guards admin routes with a shared key header.
func RequireAdminKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				response.ErrorResponse(w, http.StatusInternalServerError, errors.CodeServerMisconfigured, "Admin API key is not configured.")
				return
			}
			got := r.Header.Get(HeaderAdminKey)
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				response.ErrorResponse(w, http.StatusUnauthorized, errors.CodeUnauthorized, "Invalid admin key.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
