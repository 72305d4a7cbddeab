package middleware

import (
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"learnboard/pkg/auth"
	apperrors "learnboard/pkg/errors"
)

// Authenticate validates the Bearer token and stores its subject in the
// request context.
func Authenticate(authenticator *auth.Authenticator, errs *apperrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := extractToken(r)
			if !ok {
				errs.Handle(w, r, apperrors.NewUnauthorizedError("Not authenticated"))
				return
			}

			subject, err := authenticator.CurrentSubject(token)
			if err != nil {
				logger.Debug("Rejected bearer token",
					zap.String("path", r.URL.Path),
					zap.String("clientIP", getClientIP(r)),
					zap.Error(err),
				)
				errs.Handle(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.SetSubjectInContext(r.Context(), subject)))
		})
	}
}

// RequireAdmin rejects requests whose subject is not an admin. It must run
// after Authenticate.
func RequireAdmin(errs *apperrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, _ := auth.GetSubjectFromContext(r.Context())
			if _, err := auth.RequireAdmin(subject); err != nil {
				errs.Handle(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractToken reads "Authorization: Bearer <token>".
func extractToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
