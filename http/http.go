package http

import (
	"net/http"
	"time"

	"hackathonwallah/errors"
	"hackathonwallah/http/handlers"
	"hackathonwallah/http/middleware"
	"hackathonwallah/http/response"

	"github.com/go-chi/chi"
	chimw "github.com/go-chi/chi/middleware"
	"github.com/go-chi/jwtauth"
)

// RouterConfig carries what the router needs beyond the handlers.
type RouterConfig struct {
	JWTSecret          string
	AdminAPIKey        string
	CORSOrigins        []string
	RateLimitPerMinute int
	Users              middleware.UserLookup
}

// NewRouter configures all HTTP routes and middleware
func NewRouter(cfg RouterConfig, h *handlers.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.ErrorResponse(w, http.StatusNotFound, errors.CodeNotFound, "Route not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.ErrorResponse(w, http.StatusMethodNotAllowed, errors.CodeValidation, "Method not allowed.")
	})

	tokenAuth := jwtauth.New("HS256", []byte(cfg.JWTSecret), nil)
	limit := func() func(http.Handler) http.Handler {
		return middleware.RateLimit(cfg.RateLimitPerMinute)
	}

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		// Public
		r.Get("/hackathons", h.ListHackathons)
		r.Get("/hackathons/slug/{slug}", h.GetHackathonBySlug)
		r.Get("/hackathons/{id}", h.GetHackathon)
		r.With(limit()).Post("/contacts", h.SubmitContact)

		// Signed callbacks
		r.Post("/webhooks/clerk", h.ClerkWebhook)
		r.Post("/webhooks/{gateway}", h.PaymentWebhook)

		// Signed-in users
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(tokenAuth))
			r.Use(middleware.Authenticate(cfg.Users))

			r.Get("/profile", h.GetProfile)
			r.Patch("/profile", h.UpdateProfile)

			r.With(limit()).Post("/hackathons/{id}/register", h.Register)
			r.Get("/hackathons/{id}/registration", h.GetRegistration)
			r.Post("/hackathons/{id}/submission", h.SubmitProject)

			r.With(limit()).Post("/payments/create-order", h.CreateOrder)
			r.Post("/payments/verify", h.VerifyPayment)
			r.Get("/payments/{orderId}/receipt", h.DownloadReceipt)

			r.Get("/notifications", h.ListNotifications)
			r.Patch("/notifications/{id}/read", h.MarkNotificationRead)
		})

		// Organisers
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdminKey(cfg.AdminAPIKey))

			r.Post("/hackathons", h.CreateHackathon)
			r.Patch("/hackathons/{id}", h.UpdateHackathon)
			r.Delete("/hackathons/{id}", h.DeleteHackathon)
			r.Get("/hackathons/{id}/participants.xlsx", h.ExportRoster)

			r.Post("/payments/refund", h.RecordRefund)

			r.Get("/dlq/messages", h.GetDLQMessages)
			r.Post("/dlq/messages/{id}/retry", h.RetryDLQMessage)
			r.Post("/dlq/messages/{id}/resolve", h.ResolveDLQMessage)
			r.Get("/dlq/stats", h.GetDLQStats)
		})
	})

	return r
}
