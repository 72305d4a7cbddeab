package store

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"learnboard/domain/core/entities"
	"learnboard/infrastructure/persistence/keys"
	"learnboard/infrastructure/persistence/table"
	apperrors "learnboard/pkg/errors"
	"learnboard/pkg/utils"
)

// TranslationResolver loads and stores the LANG# rows that sit next to a
// content entity in its partition.
type TranslationResolver struct {
	table  table.Table
	logger *zap.Logger
}

// NewTranslationResolver creates a new TranslationResolver
func NewTranslationResolver(t table.Table, logger *zap.Logger) *TranslationResolver {
	return &TranslationResolver{table: t, logger: logger}
}

// Resolve returns the translation of one entity, or nil when there is none.
// There is no fallback to another language.
func (r *TranslationResolver) Resolve(ctx context.Context, kind entities.ContentKind, entityID, language string) (*entities.Translation, error) {
	if language == "" {
		return nil, nil
	}
	if err := validateIDs(entityID, language); err != nil {
		return nil, err
	}
	key, err := keys.Translation(kind, entityID, language)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	var it translationItem
	err = getItem(ctx, r.table, key, "Translation", &it)
	if apperrors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return it.toEntity(kind, entityID), nil
}

// Put writes a translation, replacing any previous text for that language.
func (r *TranslationResolver) Put(ctx context.Context, tr *entities.Translation) error {
	if err := validateIDs(tr.EntityID, tr.LanguageCode); err != nil {
		return err
	}
	key, err := keys.Translation(tr.Kind, tr.EntityID, tr.LanguageCode)
	if err != nil {
		return apperrors.NewValidationError(err.Error())
	}

	now := utils.FormatTimestamp(time.Now())
	it := translationItem{
		PK:           key.PK,
		SK:           key.SK,
		EntityType:   string(tr.Kind) + translationEntitySuffix,
		LanguageCode: tr.LanguageCode,
		Title:        tr.Title,
		Description:  tr.Description,
		Hint:         tr.Hint,
		PromptText:   tr.PromptText,
		ChoiceTexts:  tr.ChoiceTexts,
		FeedbackText: tr.FeedbackText,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	switch tr.Kind {
	case entities.ContentTopic:
		it.TopicID = tr.EntityID
	case entities.ContentLevel:
		it.LevelID = tr.EntityID
	case entities.ContentExercise:
		it.ExerciseID = tr.EntityID
	}

	// Keep the first created_at when overwriting.
	var existing translationItem
	switch err := getItem(ctx, r.table, key, "Translation", &existing); {
	case err == nil && existing.CreatedAt != "":
		it.CreatedAt = existing.CreatedAt
	case err != nil && !apperrors.IsNotFound(err):
		return err
	}

	if err := putItem(ctx, r.table, it); err != nil {
		return err
	}

	r.logger.Debug("Translation stored",
		zap.String("kind", string(tr.Kind)),
		zap.String("entityID", tr.EntityID),
		zap.String("language", tr.LanguageCode),
	)
	return nil
}

// deleteAll removes every translation of an entity.
func (r *TranslationResolver) deleteAll(ctx context.Context, kind entities.ContentKind, entityID string) error {
	pk, err := keys.ContentPK(kind, entityID)
	if err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	items, err := r.table.Query(ctx, table.PartitionQuery(pk, keys.LangPrefix))
	if err != nil {
		return storeError("Query", err)
	}
	for _, item := range items {
		key, ok := table.KeyOf(item)
		if !ok {
			continue
		}
		if err := r.table.Delete(ctx, key); err != nil && !errors.Is(err, table.ErrNotFound) {
			return storeError("Delete", err)
		}
	}
	return nil
}
