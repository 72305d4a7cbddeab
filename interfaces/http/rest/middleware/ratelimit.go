package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"learnboard/pkg/auth"
	apperrors "learnboard/pkg/errors"
)

// RateLimit rejects clients that exhaust limiter with 429. Limiter failures
// let the request through.
func RateLimit(limiter auth.RateLimiter, limit int, errs *apperrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)
			allowed, err := limiter.Allow(r.Context(), clientIP)
			if err != nil {
				logger.Warn("Rate limiter unavailable", zap.String("clientIP", clientIP), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				errs.Handle(w, r, apperrors.NewRateLimitError(limit, "1m"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
