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

// ProgressHandler serves the authenticated user's own progress.
type ProgressHandler struct {
	progress *services.ProgressService
	errors   *apperrors.ErrorHandler
	logger   *zap.Logger
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(svc *services.ProgressService, errs *apperrors.ErrorHandler, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{progress: svc, errors: errs, logger: logger}
}

// SubmitProgressRequest is the body of POST /progress/submit
type SubmitProgressRequest struct {
	ExerciseID string                 `json:"exercise_id" validate:"required"`
	LevelID    string                 `json:"level_id" validate:"required"`
	Status     string                 `json:"status" validate:"required,oneof=not_started in_progress completed failed"`
	Score      *float64               `json:"score,omitempty" validate:"omitempty,gte=0"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// Submit handles POST /progress/submit
func (h *ProgressHandler) Submit(w http.ResponseWriter, r *http.Request) {
	subject, err := auth.GetSubjectFromContext(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	var req SubmitProgressRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	rec, err := h.progress.Submit(r.Context(), entities.Submission{
		UserID:     subject.ID,
		ExerciseID: req.ExerciseID,
		LevelID:    req.LevelID,
		Status:     entities.ProgressStatus(req.Status),
		Score:      req.Score,
		Data:       req.Data,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, rec)
}

// LevelProgress handles GET /progress/level/{levelID}
func (h *ProgressHandler) LevelProgress(w http.ResponseWriter, r *http.Request) {
	subject, err := auth.GetSubjectFromContext(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	lp, err := h.progress.LevelProgress(r.Context(), subject.ID, chi.URLParam(r, "levelID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, lp)
}

// ExerciseProgress handles GET /progress/exercise/{exerciseID}
func (h *ProgressHandler) ExerciseProgress(w http.ResponseWriter, r *http.Request) {
	subject, err := auth.GetSubjectFromContext(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	ep, err := h.progress.ExerciseProgress(r.Context(), subject.ID, chi.URLParam(r, "exerciseID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, ep)
}

// Summary handles GET /progress/summary
func (h *ProgressHandler) Summary(w http.ResponseWriter, r *http.Request) {
	subject, err := auth.GetSubjectFromContext(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	summary, err := h.progress.Summary(r.Context(), subject.ID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, summary)
}
