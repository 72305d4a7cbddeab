package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"learnboard/application/services"
	"learnboard/domain/core/entities"
	"learnboard/pkg/common"
)

// CreateTopicRequest is the body of POST /topics
type CreateTopicRequest struct {
	Slug         string                      `json:"slug" validate:"required,min=1,max=100"`
	DefaultTitle string                      `json:"default_title" validate:"required,min=1,max=200"`
	Order        *int                        `json:"order,omitempty" validate:"omitempty,gte=0"`
	IsPublished  bool                        `json:"is_published"`
	Translations map[string]TranslationInput `json:"translations,omitempty" validate:"omitempty,dive"`
}

// UpdateTopicRequest is the body of PUT /topics/{topicID}
type UpdateTopicRequest struct {
	Slug         *string `json:"slug,omitempty" validate:"omitempty,min=1,max=100"`
	DefaultTitle *string `json:"default_title,omitempty" validate:"omitempty,min=1,max=200"`
	Order        *int    `json:"order,omitempty" validate:"omitempty,gte=0"`
	IsPublished  *bool   `json:"is_published,omitempty"`
}

// TopicsResponse lists topics.
type TopicsResponse struct {
	Topics []*entities.Topic `json:"topics"`
	Total  int               `json:"total"`
}

// ListTopics handles GET /topics
func (h *ContentHandler) ListTopics(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r, true)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	topics, err := h.content.ListTopics(r.Context(), opts)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, TopicsResponse{Topics: topics, Total: len(topics)})
}

// GetTopic handles GET /topics/{topicID}
func (h *ContentHandler) GetTopic(w http.ResponseWriter, r *http.Request) {
	topic, err := h.content.GetTopic(r.Context(), chi.URLParam(r, "topicID"), r.URL.Query().Get("language"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, topic)
}

// CreateTopic handles POST /topics
func (h *ContentHandler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	var req CreateTopicRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	topic := &entities.Topic{
		ID:           uuid.New().String(),
		Slug:         req.Slug,
		DefaultTitle: req.DefaultTitle,
		Order:        req.Order,
		IsPublished:  req.IsPublished,
	}
	created, err := h.content.CreateTopic(r.Context(), actorID(r), topic,
		translationsFrom(entities.ContentTopic, topic.ID, req.Translations))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusCreated, created)
}

// UpdateTopic handles PUT /topics/{topicID}
func (h *ContentHandler) UpdateTopic(w http.ResponseWriter, r *http.Request) {
	var req UpdateTopicRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	topic, err := h.content.UpdateTopic(r.Context(), actorID(r), chi.URLParam(r, "topicID"), services.TopicPatch{
		Slug:         req.Slug,
		DefaultTitle: req.DefaultTitle,
		Order:        req.Order,
		IsPublished:  req.IsPublished,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, topic)
}

// DeleteTopic handles DELETE /topics/{topicID}
func (h *ContentHandler) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeleteTopic(r.Context(), chi.URLParam(r, "topicID")); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondNoContent(w)
}
