package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"learnboard/domain/core/entities"
	"learnboard/pkg/common"
	apperrors "learnboard/pkg/errors"
	"learnboard/pkg/utils"
)

// PutLanguageRequest is the body of PUT /languages/{code}
type PutLanguageRequest struct {
	Name       string `json:"name" validate:"required,min=1,max=100"`
	NativeName string `json:"native_name,omitempty" validate:"max=100"`
	IsActive   *bool  `json:"is_active,omitempty"`
}

// LanguagesResponse lists the language catalogue.
type LanguagesResponse struct {
	Languages []*entities.Language `json:"languages"`
	Total     int                  `json:"total"`
}

// ListLanguages handles GET /languages?active_only=
func (h *ContentHandler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	activeOnly, err := common.QueryBool(r, "active_only", false)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	langs, err := h.content.ListLanguages(r.Context(), activeOnly)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, LanguagesResponse{Languages: langs, Total: len(langs)})
}

// GetLanguage handles GET /languages/{code}
func (h *ContentHandler) GetLanguage(w http.ResponseWriter, r *http.Request) {
	lang, err := h.content.GetLanguage(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, lang)
}

// PutLanguage handles PUT /languages/{code}
func (h *ContentHandler) PutLanguage(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if err := utils.ValidateVar(code, "required,min=2,max=10"); err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError("invalid language code"))
		return
	}
	var req PutLanguageRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	lang, err := h.content.PutLanguage(r.Context(), &entities.Language{
		Code:       code,
		Name:       req.Name,
		NativeName: req.NativeName,
		IsActive:   active,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, lang)
}
