package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"learnboard/application/ports"
	"learnboard/domain/core/entities"
	"learnboard/pkg/auth"
	apperrors "learnboard/pkg/errors"
)

const invalidCredentials = "Incorrect email or password"

// Registration is the input of Register.
type Registration struct {
	Email              string
	Password           string
	Name               string
	LanguagePreference string
}

// AuthResult is returned by register and login.
type AuthResult struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresIn   int            `json:"expires_in"`
	User        *entities.User `json:"user"`
}

// AuthService manages accounts and issues access tokens.
type AuthService struct {
	users  ports.UserRepository
	tokens *auth.Authenticator
	hasher *auth.PasswordHasher
	logger *zap.Logger
	now    func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(users ports.UserRepository, tokens *auth.Authenticator, hasher *auth.PasswordHasher, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		hasher: hasher,
		logger: logger,
		now:    time.Now,
	}
}

// Register creates an active account with the user role and signs it in.
func (s *AuthService) Register(ctx context.Context, reg Registration) (*AuthResult, error) {
	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return nil, err
	}

	lang := reg.LanguagePreference
	if lang == "" {
		lang = entities.DefaultLanguage
	}
	now := s.now()
	user := &entities.User{
		ID:                 uuid.New().String(),
		Email:              entities.NormalizeEmail(reg.Email),
		Name:               reg.Name,
		PasswordHash:       hash,
		Role:               entities.RoleUser,
		IsActive:           true,
		LanguagePreference: lang,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User registered", zap.String("userID", user.ID))
	return s.issue(user)
}

// Login checks credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if apperrors.IsNotFound(err) || apperrors.IsValidation(err) {
		return nil, apperrors.NewUnauthorizedError(invalidCredentials)
	}
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		s.logger.Debug("Login rejected", zap.String("userID", user.ID))
		return nil, apperrors.NewUnauthorizedError(invalidCredentials)
	}
	if !user.IsActive {
		return nil, apperrors.NewForbiddenError("Account is inactive")
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *entities.User) (*AuthResult, error) {
	token, err := s.tokens.IssueToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to issue token").WithCause(err)
	}
	return &AuthResult{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.tokens.TTL().Seconds()),
		User:        user,
	}, nil
}

// Me loads the account of the authenticated subject.
func (s *AuthService) Me(ctx context.Context, subject *auth.Subject) (*entities.User, error) {
	return s.users.GetByID(ctx, subject.ID)
}

// ListUsers returns every account.
func (s *AuthService) ListUsers(ctx context.Context) ([]*entities.User, error) {
	return s.users.List(ctx)
}

// UpdateRole changes the role of a user. Admins cannot demote themselves.
func (s *AuthService) UpdateRole(ctx context.Context, actor *auth.Subject, userID string, role entities.Role) (*entities.User, error) {
	if _, err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperrors.NewValidationError("Role must be either 'user' or 'admin'")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if actor.ID == userID && role == entities.RoleUser {
		return nil, apperrors.NewValidationError("Cannot demote yourself from admin role")
	}

	user.Role = role
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User role updated",
		zap.String("userID", userID),
		zap.String("role", string(role)),
		zap.String("actorID", actor.ID),
	)
	return user, nil
}
