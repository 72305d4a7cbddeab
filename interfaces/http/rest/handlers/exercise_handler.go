package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"learnboard/application/services"
	"learnboard/domain/core/entities"
	"learnboard/pkg/common"
)

// CreateExerciseRequest is the body of POST /exercises
type CreateExerciseRequest struct {
	LevelID      string                      `json:"level_id" validate:"required"`
	ExerciseType string                      `json:"exercise_type" validate:"required,oneof=MCQ CAMERA_PRODUCE COPY_PRACTICE"`
	Position     *int                        `json:"position" validate:"required,gte=0"`
	Config       *entities.ExerciseConfig    `json:"config,omitempty"`
	AnswerSchema map[string]interface{}      `json:"answer_schema,omitempty"`
	IsPublished  bool                        `json:"is_published"`
	Translations map[string]TranslationInput `json:"translations,omitempty" validate:"omitempty,dive"`
}

// UpdateExerciseRequest is the body of PUT /exercises/{exerciseID}
type UpdateExerciseRequest struct {
	Position     *int                     `json:"position,omitempty" validate:"omitempty,gte=0"`
	Config       *entities.ExerciseConfig `json:"config,omitempty"`
	AnswerSchema map[string]interface{}   `json:"answer_schema,omitempty"`
	IsPublished  *bool                    `json:"is_published,omitempty"`
}

// ExercisesResponse lists the exercises of a level.
type ExercisesResponse struct {
	Exercises []*entities.Exercise `json:"exercises"`
	Total     int                  `json:"total"`
}

// ListExercises handles GET /exercises/level/{levelID}
func (h *ContentHandler) ListExercises(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r, false)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	exercises, err := h.content.ListExercises(r.Context(), chi.URLParam(r, "levelID"), opts)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, ExercisesResponse{Exercises: exercises, Total: len(exercises)})
}

// GetExercise handles GET /exercises/{exerciseID}?level_id=
func (h *ContentHandler) GetExercise(w http.ResponseWriter, r *http.Request) {
	levelID, err := requiredQuery(r, "level_id")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	exercise, err := h.content.GetExercise(r.Context(), levelID, chi.URLParam(r, "exerciseID"), r.URL.Query().Get("language"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, exercise)
}

// CreateExercise handles POST /exercises
func (h *ContentHandler) CreateExercise(w http.ResponseWriter, r *http.Request) {
	var req CreateExerciseRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	exercise := &entities.Exercise{
		ID:           uuid.New().String(),
		LevelID:      req.LevelID,
		ExerciseType: entities.ExerciseType(req.ExerciseType),
		Position:     req.Position,
		Config:       req.Config,
		AnswerSchema: req.AnswerSchema,
		IsPublished:  req.IsPublished,
	}
	created, err := h.content.CreateExercise(r.Context(), actorID(r), exercise,
		translationsFrom(entities.ContentExercise, exercise.ID, req.Translations))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusCreated, created)
}

// UpdateExercise handles PUT /exercises/{exerciseID}?level_id=
func (h *ContentHandler) UpdateExercise(w http.ResponseWriter, r *http.Request) {
	levelID, err := requiredQuery(r, "level_id")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	var req UpdateExerciseRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	exercise, err := h.content.UpdateExercise(r.Context(), actorID(r), levelID, chi.URLParam(r, "exerciseID"), services.ExercisePatch{
		Position:     req.Position,
		Config:       req.Config,
		AnswerSchema: req.AnswerSchema,
		IsPublished:  req.IsPublished,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, exercise)
}

// DeleteExercise handles DELETE /exercises/{exerciseID}?level_id=
func (h *ContentHandler) DeleteExercise(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeleteExercise(r.Context(), r.URL.Query().Get("level_id"), chi.URLParam(r, "exerciseID")); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondNoContent(w)
}
