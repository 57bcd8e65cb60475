package middleware

import (
	"net/http"
	"time"

	"hackathonwallah/errors"
	"hackathonwallah/http/response"
	"hackathonwallah/logger"

	chimw "github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// RequestLogger logs one line per request once the response is written.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			log := logger.WithFields(map[string]interface{}{
				"request_id": chimw.GetReqID(r.Context()),
				"remote":     r.RemoteAddr,
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
			})
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if status >= http.StatusInternalServerError {
				log.Error("%s %s %d", r.Method, r.URL.Path, status)
				return
			}
			log.Info("%s %s %d", r.Method, r.URL.Path, status)
		}()

		next.ServeHTTP(ww, r)
	})
}

// RateLimit allows perMinute requests per client IP. A non-positive limit
// disables it.
func RateLimit(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			response.ErrorResponse(w, http.StatusTooManyRequests, errors.CodeRateLimited, "Too many requests. Please slow down.")
		}),
	)
}

// CORS allows the configured frontend origins.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", HeaderAdminKey},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
