package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"learnboard/application/ports"
	"learnboard/domain/core/entities"
	apperrors "learnboard/pkg/errors"
)

// TopicPatch lists the topic fields an update may change. Nil leaves the
// stored value untouched.
type TopicPatch struct {
	Slug         *string
	DefaultTitle *string
	Order        *int
	IsPublished  *bool
}

// LevelPatch lists the level fields an update may change.
type LevelPatch struct {
	Slug        *string
	Position    *int
	Difficulty  *int
	Metadata    *entities.LevelMetadata
	IsPublished *bool
}

// ExercisePatch lists the exercise fields an update may change.
type ExercisePatch struct {
	Position     *int
	Config       *entities.ExerciseConfig
	AnswerSchema map[string]interface{}
	IsPublished  *bool
}

// ContentService manages topics, levels, exercises, their translations and
// the language catalogue. Reads are public; writes are admin-only at the
// HTTP layer and stamped with the acting user here.
type ContentService struct {
	topics       ports.TopicRepository
	levels       ports.LevelRepository
	exercises    ports.ExerciseRepository
	translations ports.TranslationRepository
	languages    ports.LanguageRepository
	logger       *zap.Logger
	now          func() time.Time
}

// NewContentService creates a new content service
func NewContentService(
	topics ports.TopicRepository,
	levels ports.LevelRepository,
	exercises ports.ExerciseRepository,
	translations ports.TranslationRepository,
	languages ports.LanguageRepository,
	logger *zap.Logger,
) *ContentService {
	return &ContentService{
		topics:       topics,
		levels:       levels,
		exercises:    exercises,
		translations: translations,
		languages:    languages,
		logger:       logger,
		now:          time.Now,
	}
}

// ListTopics returns topics ordered by their order attribute.
func (s *ContentService) ListTopics(ctx context.Context, opts ports.ListOptions) ([]*entities.Topic, error) {
	return s.topics.List(ctx, opts)
}

// GetTopic returns one topic with its translation attached when available.
func (s *ContentService) GetTopic(ctx context.Context, topicID, language string) (*entities.Topic, error) {
	return s.topics.Get(ctx, topicID, language)
}

// CreateTopic stores a new topic and any initial translations.
func (s *ContentService) CreateTopic(ctx context.Context, actorID string, topic *entities.Topic, translations []*entities.Translation) (*entities.Topic, error) {
	now := s.now()
	topic.Audit = entities.Audit{CreatedAt: now, UpdatedAt: now, CreatedBy: actorID}

	if err := s.topics.Put(ctx, topic); err != nil {
		return nil, err
	}
	if err := s.putTranslations(ctx, entities.ContentTopic, topic.ID, translations); err != nil {
		return nil, err
	}

	s.logger.Info("Topic created", zap.String("topicID", topic.ID), zap.String("actorID", actorID))
	return topic, nil
}

// UpdateTopic applies patch to an existing topic.
func (s *ContentService) UpdateTopic(ctx context.Context, actorID, topicID string, patch TopicPatch) (*entities.Topic, error) {
	topic, err := s.topics.Get(ctx, topicID, "")
	if err != nil {
		return nil, err
	}

	if patch.Slug != nil {
		topic.Slug = *patch.Slug
	}
	if patch.DefaultTitle != nil {
		topic.DefaultTitle = *patch.DefaultTitle
	}
	if patch.Order != nil {
		topic.Order = patch.Order
	}
	if patch.IsPublished != nil {
		topic.IsPublished = *patch.IsPublished
	}
	topic.UpdatedAt = s.now()
	topic.UpdatedBy = actorID

	if err := s.topics.Put(ctx, topic); err != nil {
		return nil, err
	}
	return topic, nil
}

// DeleteTopic removes a topic and its translations. Deleting a missing topic
// succeeds.
func (s *ContentService) DeleteTopic(ctx context.Context, topicID string) error {
	return s.topics.Delete(ctx, topicID)
}

// ListLevels returns the levels of a topic ordered by position.
func (s *ContentService) ListLevels(ctx context.Context, topicID string, opts ports.ListOptions) ([]*entities.Level, error) {
	return s.levels.ListByTopic(ctx, topicID, opts)
}

// GetLevel returns one level of a topic.
func (s *ContentService) GetLevel(ctx context.Context, topicID, levelID, language string) (*entities.Level, error) {
	if topicID == "" {
		return nil, apperrors.NewValidationError("topic_id is required")
	}
	return s.levels.Get(ctx, topicID, levelID, language)
}

// CreateLevel stores a new level under an existing topic.
func (s *ContentService) CreateLevel(ctx context.Context, actorID string, level *entities.Level, translations []*entities.Translation) (*entities.Level, error) {
	if _, err := s.topics.Get(ctx, level.TopicID, ""); err != nil {
		return nil, err
	}

	now := s.now()
	level.Audit = entities.Audit{CreatedAt: now, UpdatedAt: now, CreatedBy: actorID}

	if err := s.levels.Put(ctx, level); err != nil {
		return nil, err
	}
	if err := s.putTranslations(ctx, entities.ContentLevel, level.ID, translations); err != nil {
		return nil, err
	}

	s.logger.Info("Level created",
		zap.String("levelID", level.ID),
		zap.String("topicID", level.TopicID),
		zap.String("actorID", actorID),
	)
	return level, nil
}

// UpdateLevel applies patch to an existing level.
func (s *ContentService) UpdateLevel(ctx context.Context, actorID, topicID, levelID string, patch LevelPatch) (*entities.Level, error) {
	level, err := s.GetLevel(ctx, topicID, levelID, "")
	if err != nil {
		return nil, err
	}

	if patch.Slug != nil {
		level.Slug = *patch.Slug
	}
	if patch.Position != nil {
		level.Position = patch.Position
	}
	if patch.Difficulty != nil {
		level.Difficulty = *patch.Difficulty
	}
	if patch.Metadata != nil {
		level.Metadata = patch.Metadata
	}
	if patch.IsPublished != nil {
		level.IsPublished = *patch.IsPublished
	}
	level.UpdatedAt = s.now()
	level.UpdatedBy = actorID

	if err := s.levels.Put(ctx, level); err != nil {
		return nil, err
	}
	return level, nil
}

// DeleteLevel removes a level and its translations.
func (s *ContentService) DeleteLevel(ctx context.Context, topicID, levelID string) error {
	if topicID == "" {
		return apperrors.NewValidationError("topic_id is required")
	}
	return s.levels.Delete(ctx, topicID, levelID)
}

// ListExercises returns the exercises of a level ordered by position.
func (s *ContentService) ListExercises(ctx context.Context, levelID string, opts ports.ListOptions) ([]*entities.Exercise, error) {
	return s.exercises.ListByLevel(ctx, levelID, opts)
}

// GetExercise returns one exercise of a level.
func (s *ContentService) GetExercise(ctx context.Context, levelID, exerciseID, language string) (*entities.Exercise, error) {
	if levelID == "" {
		return nil, apperrors.NewValidationError("level_id is required")
	}
	return s.exercises.Get(ctx, levelID, exerciseID, language)
}

// CreateExercise stores a new exercise.
func (s *ContentService) CreateExercise(ctx context.Context, actorID string, exercise *entities.Exercise, translations []*entities.Translation) (*entities.Exercise, error) {
	if !exercise.ExerciseType.Valid() {
		return nil, apperrors.NewValidationError("invalid exercise_type")
	}

	now := s.now()
	exercise.Audit = entities.Audit{CreatedAt: now, UpdatedAt: now, CreatedBy: actorID}

	if err := s.exercises.Put(ctx, exercise); err != nil {
		return nil, err
	}
	if err := s.putTranslations(ctx, entities.ContentExercise, exercise.ID, translations); err != nil {
		return nil, err
	}

	s.logger.Info("Exercise created",
		zap.String("exerciseID", exercise.ID),
		zap.String("levelID", exercise.LevelID),
		zap.String("actorID", actorID),
	)
	return exercise, nil
}

// UpdateExercise applies patch to an existing exercise.
func (s *ContentService) UpdateExercise(ctx context.Context, actorID, levelID, exerciseID string, patch ExercisePatch) (*entities.Exercise, error) {
	exercise, err := s.GetExercise(ctx, levelID, exerciseID, "")
	if err != nil {
		return nil, err
	}

	if patch.Position != nil {
		exercise.Position = patch.Position
	}
	if patch.Config != nil {
		exercise.Config = patch.Config
	}
	if patch.AnswerSchema != nil {
		exercise.AnswerSchema = patch.AnswerSchema
	}
	if patch.IsPublished != nil {
		exercise.IsPublished = *patch.IsPublished
	}
	exercise.UpdatedAt = s.now()
	exercise.UpdatedBy = actorID

	if err := s.exercises.Put(ctx, exercise); err != nil {
		return nil, err
	}
	return exercise, nil
}

// DeleteExercise removes an exercise and its translations.
func (s *ContentService) DeleteExercise(ctx context.Context, levelID, exerciseID string) error {
	if levelID == "" {
		return apperrors.NewValidationError("level_id is required")
	}
	return s.exercises.Delete(ctx, levelID, exerciseID)
}

// PutTranslation stores the text of one entity in one language.
func (s *ContentService) PutTranslation(ctx context.Context, tr *entities.Translation) (*entities.Translation, error) {
	if !tr.Kind.Valid() {
		return nil, apperrors.NewValidationError("invalid content kind")
	}
	if err := s.translations.Put(ctx, tr); err != nil {
		return nil, err
	}
	return tr, nil
}

func (s *ContentService) putTranslations(ctx context.Context, kind entities.ContentKind, entityID string, translations []*entities.Translation) error {
	for _, tr := range translations {
		tr.Kind = kind
		tr.EntityID = entityID
		if err := s.translations.Put(ctx, tr); err != nil {
			return err
		}
	}
	return nil
}

// ListLanguages returns the language catalogue.
func (s *ContentService) ListLanguages(ctx context.Context, activeOnly bool) ([]*entities.Language, error) {
	return s.languages.List(ctx, activeOnly)
}

// GetLanguage returns one language by code.
func (s *ContentService) GetLanguage(ctx context.Context, code string) (*entities.Language, error) {
	return s.languages.Get(ctx, code)
}

// PutLanguage creates or replaces a language, keeping its creation time.
func (s *ContentService) PutLanguage(ctx context.Context, lang *entities.Language) (*entities.Language, error) {
	existing, err := s.languages.Get(ctx, lang.Code)
	switch {
	case err == nil:
		lang.CreatedAt = existing.CreatedAt
	case apperrors.IsNotFound(err):
		lang.CreatedAt = s.now()
	default:
		return nil, err
	}

	if err := s.languages.Put(ctx, lang); err != nil {
		return nil, err
	}
	return lang, nil
}
