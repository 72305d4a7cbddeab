package handlers

import (
	"net/http"
	"sort"

	"go.uber.org/zap"

	"learnboard/application/ports"
	"learnboard/application/services"
	"learnboard/domain/core/entities"
	"learnboard/pkg/auth"
	"learnboard/pkg/common"
	apperrors "learnboard/pkg/errors"
)

// ContentHandler serves topics, levels, exercises, translations and
// languages. Reads are public; writes are mounted behind RequireAdmin.
type ContentHandler struct {
	content *services.ContentService
	errors  *apperrors.ErrorHandler
	logger  *zap.Logger
}

// NewContentHandler creates a new content handler
func NewContentHandler(svc *services.ContentService, errs *apperrors.ErrorHandler, logger *zap.Logger) *ContentHandler {
	return &ContentHandler{content: svc, errors: errs, logger: logger}
}

// TranslationInput is the localized text of one entity in one language.
// Topics and levels use title, description and hint; exercises use the
// prompt, choice and feedback texts.
type TranslationInput struct {
	Title        string            `json:"title,omitempty" validate:"max=200"`
	Description  string            `json:"description,omitempty" validate:"max=2000"`
	Hint         string            `json:"hint,omitempty" validate:"max=1000"`
	PromptText   string            `json:"prompt_text,omitempty" validate:"max=2000"`
	ChoiceTexts  []string          `json:"choice_texts,omitempty" validate:"omitempty,max=20"`
	FeedbackText map[string]string `json:"feedback_text,omitempty"`
}

func (in TranslationInput) toEntity(kind entities.ContentKind, entityID, lang string) *entities.Translation {
	return &entities.Translation{
		Kind:         kind,
		EntityID:     entityID,
		LanguageCode: lang,
		Title:        in.Title,
		Description:  in.Description,
		Hint:         in.Hint,
		PromptText:   in.PromptText,
		ChoiceTexts:  in.ChoiceTexts,
		FeedbackText: in.FeedbackText,
	}
}

// translationsFrom converts a language-keyed map in a stable order.
func translationsFrom(kind entities.ContentKind, entityID string, in map[string]TranslationInput) []*entities.Translation {
	langs := make([]string, 0, len(in))
	for lang := range in {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	out := make([]*entities.Translation, 0, len(langs))
	for _, lang := range langs {
		out = append(out, in[lang].toEntity(kind, entityID, lang))
	}
	return out
}

// listOptions reads ?language= and ?published_only=.
func listOptions(r *http.Request, publishedDefault bool) (ports.ListOptions, error) {
	published, err := common.QueryBool(r, "published_only", publishedDefault)
	if err != nil {
		return ports.ListOptions{}, err
	}
	return ports.ListOptions{
		PublishedOnly: published,
		Language:      r.URL.Query().Get("language"),
	}, nil
}

func actorID(r *http.Request) string {
	subject, err := auth.GetSubjectFromContext(r.Context())
	if err != nil {
		return ""
	}
	return subject.ID
}
