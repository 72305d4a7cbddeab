package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"learnboard/domain/core/entities"
	apperrors "learnboard/pkg/errors"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrMissingToken     = errors.New("missing authentication token")
	ErrInvalidClaims    = errors.New("invalid token claims")
)

// DefaultTokenTTL is the lifetime of an access token.
const DefaultTokenTTL = 30 * time.Minute

// Claims are the access token claims. The user id travels in sub.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Subject is the authenticated caller of a request.
type Subject struct {
	ID    string
	Email string
	Role  entities.Role
}

// IsAdmin reports whether the subject holds the admin role.
func (s *Subject) IsAdmin() bool {
	return s != nil && s.Role == entities.RoleAdmin
}

// Authenticator issues and validates HS256 access tokens.
type Authenticator struct {
	secretKey []byte
	issuer    string
	ttl       time.Duration
	now       func() time.Time
}

// NewAuthenticator creates an authenticator. ttl falls back to
// DefaultTokenTTL when not positive.
func NewAuthenticator(secret, issuer string, ttl time.Duration) (*Authenticator, error) {
	if secret == "" {
		return nil, errors.New("secret key required for HS256")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Authenticator{
		secretKey: []byte(secret),
		issuer:    issuer,
		ttl:       ttl,
		now:       time.Now,
	}, nil
}

// TTL returns the lifetime of issued tokens.
func (a *Authenticator) TTL() time.Duration {
	return a.ttl
}

// IssueToken signs a token for the user.
func (a *Authenticator) IssueToken(user *entities.User) (string, error) {
	now := a.now()
	claims := &Claims{
		Email: user.Email,
		Role:  string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secretKey)
}

// ValidateToken parses tokenString and returns its claims.
func (a *Authenticator) ValidateToken(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return a.secretKey, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidClaims)
	}
	return claims, nil
}

// CurrentSubject resolves a bearer token to the calling subject. Every
// failure is reported as unauthenticated.
func (a *Authenticator) CurrentSubject(tokenString string) (*Subject, error) {
	claims, err := a.ValidateToken(tokenString)
	if err != nil {
		msg := "Could not validate credentials"
		if errors.Is(err, ErrExpiredToken) {
			msg = "Token has expired"
		}
		return nil, apperrors.NewUnauthorizedError(msg).WithCause(err)
	}

	role := entities.Role(claims.Role)
	if role == "" {
		role = entities.RoleUser
	}
	return &Subject{ID: claims.Subject, Email: claims.Email, Role: role}, nil
}

// RequireAdmin passes admins through and rejects everyone else.
func RequireAdmin(subject *Subject) (*Subject, error) {
	if subject == nil {
		return nil, apperrors.NewUnauthorizedError("Not authenticated")
	}
	if !subject.IsAdmin() {
		return nil, apperrors.NewForbiddenError("Not enough permissions")
	}
	return subject, nil
}
