package auth

import (
	"context"

	apperrors "learnboard/pkg/errors"
)

type contextKey string

const subjectContextKey contextKey = "subject"

// SetSubjectInContext stores the authenticated subject.
func SetSubjectInContext(ctx context.Context, subject *Subject) context.Context {
	return context.WithValue(ctx, subjectContextKey, subject)
}

// GetSubjectFromContext returns the subject stored by the auth middleware.
func GetSubjectFromContext(ctx context.Context) (*Subject, error) {
	subject, ok := ctx.Value(subjectContextKey).(*Subject)
	if !ok || subject == nil {
		return nil, apperrors.NewUnauthorizedError("Not authenticated")
	}
	return subject, nil
}
