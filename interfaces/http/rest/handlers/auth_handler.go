package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"learnboard/application/services"
	"learnboard/domain/core/entities"
	"learnboard/pkg/auth"
	"learnboard/pkg/common"
	apperrors "learnboard/pkg/errors"
)

// AuthHandler handles account and token endpoints
type AuthHandler struct {
	auth   *services.AuthService
	errors *apperrors.ErrorHandler
	logger *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(svc *services.AuthService, errs *apperrors.ErrorHandler, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: svc, errors: errs, logger: logger}
}

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	Email              string `json:"email" validate:"required,email"`
	Password           string `json:"password" validate:"required"`
	Name               string `json:"name" validate:"required,min=1,max=100"`
	LanguagePreference string `json:"language_preference,omitempty" validate:"omitempty,max=10"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UsersResponse lists accounts.
type UsersResponse struct {
	Total int              `json:"total"`
	Users []*entities.User `json:"users"`
}

// RoleUpdateResponse confirms a role change.
type RoleUpdateResponse struct {
	Message string         `json:"message"`
	User    *entities.User `json:"user"`
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.auth.Register(r.Context(), services.Registration{
		Email:              req.Email,
		Password:           req.Password,
		Name:               req.Name,
		LanguagePreference: req.LanguagePreference,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusCreated, result)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, result)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	subject, err := auth.GetSubjectFromContext(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	user, err := h.auth.Me(r.Context(), subject)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, user)
}

// ListUsers handles GET /auth/users
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.ListUsers(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, UsersResponse{Total: len(users), Users: users})
}

// UpdateRole handles PATCH /auth/users/{userID}/role?role=
func (h *AuthHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	subject, err := auth.GetSubjectFromContext(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	role, err := requiredQuery(r, "role")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	user, err := h.auth.UpdateRole(r.Context(), subject, chi.URLParam(r, "userID"), entities.Role(role))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, RoleUpdateResponse{
		Message: "User role updated to " + role,
		User:    user,
	})
}
