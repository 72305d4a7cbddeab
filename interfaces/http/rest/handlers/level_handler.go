package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"learnboard/application/services"
	"learnboard/domain/core/entities"
	"learnboard/pkg/common"
)

// CreateLevelRequest is the body of POST /levels
type CreateLevelRequest struct {
	TopicID      string                      `json:"topic_id" validate:"required"`
	Slug         string                      `json:"slug" validate:"required,min=1,max=100"`
	Position     *int                        `json:"position" validate:"required,gte=0"`
	Difficulty   int                         `json:"difficulty" validate:"gte=0,lte=10"`
	Metadata     *entities.LevelMetadata     `json:"metadata,omitempty"`
	IsPublished  bool                        `json:"is_published"`
	Translations map[string]TranslationInput `json:"translations,omitempty" validate:"omitempty,dive"`
}

// UpdateLevelRequest is the body of PUT /levels/{levelID}
type UpdateLevelRequest struct {
	Slug        *string                 `json:"slug,omitempty" validate:"omitempty,min=1,max=100"`
	Position    *int                    `json:"position,omitempty" validate:"omitempty,gte=0"`
	Difficulty  *int                    `json:"difficulty,omitempty" validate:"omitempty,gte=0,lte=10"`
	Metadata    *entities.LevelMetadata `json:"metadata,omitempty"`
	IsPublished *bool                   `json:"is_published,omitempty"`
}

// LevelsResponse lists the levels of a topic.
type LevelsResponse struct {
	Levels []*entities.Level `json:"levels"`
	Total  int               `json:"total"`
}

// ListLevels handles GET /levels/topic/{topicID}
func (h *ContentHandler) ListLevels(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r, true)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	levels, err := h.content.ListLevels(r.Context(), chi.URLParam(r, "topicID"), opts)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, LevelsResponse{Levels: levels, Total: len(levels)})
}

// GetLevel handles GET /levels/{levelID}?topic_id=
func (h *ContentHandler) GetLevel(w http.ResponseWriter, r *http.Request) {
	topicID, err := requiredQuery(r, "topic_id")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	level, err := h.content.GetLevel(r.Context(), topicID, chi.URLParam(r, "levelID"), r.URL.Query().Get("language"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, level)
}

// CreateLevel handles POST /levels
func (h *ContentHandler) CreateLevel(w http.ResponseWriter, r *http.Request) {
	var req CreateLevelRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	level := &entities.Level{
		ID:          uuid.New().String(),
		TopicID:     req.TopicID,
		Slug:        req.Slug,
		Position:    req.Position,
		Difficulty:  req.Difficulty,
		Metadata:    req.Metadata,
		IsPublished: req.IsPublished,
	}
	created, err := h.content.CreateLevel(r.Context(), actorID(r), level,
		translationsFrom(entities.ContentLevel, level.ID, req.Translations))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusCreated, created)
}

// UpdateLevel handles PUT /levels/{levelID}?topic_id=
func (h *ContentHandler) UpdateLevel(w http.ResponseWriter, r *http.Request) {
	topicID, err := requiredQuery(r, "topic_id")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	var req UpdateLevelRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	level, err := h.content.UpdateLevel(r.Context(), actorID(r), topicID, chi.URLParam(r, "levelID"), services.LevelPatch{
		Slug:        req.Slug,
		Position:    req.Position,
		Difficulty:  req.Difficulty,
		Metadata:    req.Metadata,
		IsPublished: req.IsPublished,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, level)
}

// DeleteLevel handles DELETE /levels/{levelID}?topic_id=
func (h *ContentHandler) DeleteLevel(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeleteLevel(r.Context(), r.URL.Query().Get("topic_id"), chi.URLParam(r, "levelID")); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondNoContent(w)
}
