package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"learnboard/domain/core/entities"
	"learnboard/pkg/common"
)

// PutTranslation returns the handler of
// PUT /{kind}s/{idParam}/translations/{lang}.
func (h *ContentHandler) PutTranslation(kind entities.ContentKind, idParam string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TranslationInput
		if err := decodeAndValidate(w, r, &req); err != nil {
			h.errors.Handle(w, r, err)
			return
		}

		tr, err := h.content.PutTranslation(r.Context(),
			req.toEntity(kind, chi.URLParam(r, idParam), chi.URLParam(r, "lang")))
		if err != nil {
			h.errors.Handle(w, r, err)
			return
		}
		common.RespondJSON(w, r, http.StatusOK, tr)
	}
}
