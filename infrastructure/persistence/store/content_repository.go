package store

import (
	"context"

	"go.uber.org/zap"

	"learnboard/application/ports"
	"learnboard/domain/core/entities"
	"learnboard/infrastructure/persistence/keys"
	"learnboard/infrastructure/persistence/table"
)

// TopicRepository implements ports.TopicRepository on the content table.
type TopicRepository struct {
	table        table.Table
	translations *TranslationResolver
	logger       *zap.Logger
}

var _ ports.TopicRepository = (*TopicRepository)(nil)

// NewTopicRepository creates a new TopicRepository
func NewTopicRepository(t table.Table, translations *TranslationResolver, logger *zap.Logger) *TopicRepository {
	return &TopicRepository{table: t, translations: translations, logger: logger}
}

// Get loads a topic and, if language is set, its translation.
func (r *TopicRepository) Get(ctx context.Context, topicID, language string) (*entities.Topic, error) {
	if err := validateIDs(topicID); err != nil {
		return nil, err
	}
	var it topicItem
	if err := getItem(ctx, r.table, keys.Topic(topicID), "Topic", &it); err != nil {
		return nil, err
	}
	topic := it.toEntity()

	tr, err := r.translations.Resolve(ctx, entities.ContentTopic, topicID, language)
	if err != nil {
		return nil, err
	}
	topic.Translation = tr
	return topic, nil
}

// Put overwrites the topic item.
func (r *TopicRepository) Put(ctx context.Context, topic *entities.Topic) error {
	if err := validateIDs(topic.ID); err != nil {
		return err
	}
	key := keys.Topic(topic.ID)
	return putItem(ctx, r.table, topicItem{
		PK:           key.PK,
		SK:           key.SK,
		EntityType:   entityTopic,
		TopicID:      topic.ID,
		Slug:         topic.Slug,
		DefaultTitle: topic.DefaultTitle,
		Order:        formatOptionalInt(topic.Order),
		IsPublished:  topic.IsPublished,
		AuditAttrs:   newAuditAttrs(topic.Audit),
	})
}

// Delete removes the topic and its translations. Levels are left in place.
func (r *TopicRepository) Delete(ctx context.Context, topicID string) error {
	if err := validateIDs(topicID); err != nil {
		return err
	}
	if err := r.translations.deleteAll(ctx, entities.ContentTopic, topicID); err != nil {
		return err
	}
	return storeError("Delete", r.table.Delete(ctx, keys.Topic(topicID)))
}

// List returns every topic ordered by its order attribute.
func (r *TopicRepository) List(ctx context.Context, opts ports.ListOptions) ([]*entities.Topic, error) {
	items, err := r.table.Query(ctx, table.IndexQuery(table.IndexEntityType, entityTopic, ""))
	if err != nil {
		return nil, storeError("Query", err)
	}
	topics, err := decodeAll(items, topicItem.toEntity)
	if err != nil {
		return nil, err
	}

	topics = publishedOnly(topics, opts.PublishedOnly, func(t *entities.Topic) bool { return t.IsPublished })
	sortByPosition(topics, (*entities.Topic).SortKey)

	err = attachTranslations(ctx, r.translations, entities.ContentTopic, opts.Language, topics,
		func(t *entities.Topic) string { return t.ID },
		func(t *entities.Topic, tr *entities.Translation) { t.Translation = tr },
	)
	if err != nil {
		return nil, err
	}
	return topics, nil
}

// LevelRepository implements ports.LevelRepository on the content table.
type LevelRepository struct {
	table        table.Table
	translations *TranslationResolver
	logger       *zap.Logger
}

var _ ports.LevelRepository = (*LevelRepository)(nil)

// NewLevelRepository creates a new LevelRepository
func NewLevelRepository(t table.Table, translations *TranslationResolver, logger *zap.Logger) *LevelRepository {
	return &LevelRepository{table: t, translations: translations, logger: logger}
}

// Get loads a level stored under its topic.
func (r *LevelRepository) Get(ctx context.Context, topicID, levelID, language string) (*entities.Level, error) {
	if err := validateIDs(topicID, levelID); err != nil {
		return nil, err
	}
	var it levelItem
	if err := getItem(ctx, r.table, keys.Level(topicID, levelID), "Level", &it); err != nil {
		return nil, err
	}
	level := it.toEntity()

	tr, err := r.translations.Resolve(ctx, entities.ContentLevel, levelID, language)
	if err != nil {
		return nil, err
	}
	level.Translation = tr
	return level, nil
}

// Put overwrites the level item.
func (r *LevelRepository) Put(ctx context.Context, level *entities.Level) error {
	if err := validateIDs(level.TopicID, level.ID); err != nil {
		return err
	}
	key := keys.Level(level.TopicID, level.ID)
	return putItem(ctx, r.table, levelItem{
		PK:          key.PK,
		SK:          key.SK,
		EntityType:  entityLevel,
		LevelID:     level.ID,
		TopicID:     level.TopicID,
		Slug:        level.Slug,
		Position:    formatOptionalInt(level.Position),
		Difficulty:  formatOptionalInt(&level.Difficulty),
		IsPublished: level.IsPublished,
		Metadata:    level.Metadata,
		AuditAttrs:  newAuditAttrs(level.Audit),
	})
}

// Delete removes the level and its translations. Exercises are left in place.
func (r *LevelRepository) Delete(ctx context.Context, topicID, levelID string) error {
	if err := validateIDs(topicID, levelID); err != nil {
		return err
	}
	if err := r.translations.deleteAll(ctx, entities.ContentLevel, levelID); err != nil {
		return err
	}
	return storeError("Delete", r.table.Delete(ctx, keys.Level(topicID, levelID)))
}

// ListByTopic reads the levels of a topic through the topic_id/SK index.
func (r *LevelRepository) ListByTopic(ctx context.Context, topicID string, opts ports.ListOptions) ([]*entities.Level, error) {
	if err := validateIDs(topicID); err != nil {
		return nil, err
	}
	items, err := r.table.Query(ctx, table.IndexQuery(table.IndexTopicSK, topicID, keys.LevelPrefix))
	if err != nil {
		return nil, storeError("Query", err)
	}
	return r.finish(ctx, items, opts)
}

// ListAll returns the levels of every topic.
func (r *LevelRepository) ListAll(ctx context.Context, opts ports.ListOptions) ([]*entities.Level, error) {
	items, err := r.table.Query(ctx, table.IndexQuery(table.IndexEntityType, entityLevel, ""))
	if err != nil {
		return nil, storeError("Query", err)
	}
	return r.finish(ctx, items, opts)
}

func (r *LevelRepository) finish(ctx context.Context, items []table.Item, opts ports.ListOptions) ([]*entities.Level, error) {
	levels, err := decodeAll(items, levelItem.toEntity)
	if err != nil {
		return nil, err
	}

	levels = publishedOnly(levels, opts.PublishedOnly, func(l *entities.Level) bool { return l.IsPublished })
	sortByPosition(levels, (*entities.Level).SortKey)

	err = attachTranslations(ctx, r.translations, entities.ContentLevel, opts.Language, levels,
		func(l *entities.Level) string { return l.ID },
		func(l *entities.Level, tr *entities.Translation) { l.Translation = tr },
	)
	if err != nil {
		return nil, err
	}
	return levels, nil
}

// ExerciseRepository implements ports.ExerciseRepository on the content table.
type ExerciseRepository struct {
	table        table.Table
	translations *TranslationResolver
	logger       *zap.Logger
}

var _ ports.ExerciseRepository = (*ExerciseRepository)(nil)

// NewExerciseRepository creates a new ExerciseRepository
func NewExerciseRepository(t table.Table, translations *TranslationResolver, logger *zap.Logger) *ExerciseRepository {
	return &ExerciseRepository{table: t, translations: translations, logger: logger}
}

// Get loads an exercise stored under its level.
func (r *ExerciseRepository) Get(ctx context.Context, levelID, exerciseID, language string) (*entities.Exercise, error) {
	if err := validateIDs(levelID, exerciseID); err != nil {
		return nil, err
	}
	var it exerciseItem
	if err := getItem(ctx, r.table, keys.Exercise(levelID, exerciseID), "Exercise", &it); err != nil {
		return nil, err
	}
	exercise := it.toEntity()

	tr, err := r.translations.Resolve(ctx, entities.ContentExercise, exerciseID, language)
	if err != nil {
		return nil, err
	}
	exercise.Translation = tr
	return exercise, nil
}

// Put overwrites the exercise item.
func (r *ExerciseRepository) Put(ctx context.Context, exercise *entities.Exercise) error {
	if err := validateIDs(exercise.LevelID, exercise.ID); err != nil {
		return err
	}
	key := keys.Exercise(exercise.LevelID, exercise.ID)
	return putItem(ctx, r.table, exerciseItem{
		PK:           key.PK,
		SK:           key.SK,
		EntityType:   entityExercise,
		ExerciseID:   exercise.ID,
		LevelID:      exercise.LevelID,
		ExerciseType: string(exercise.ExerciseType),
		Position:     formatOptionalInt(exercise.Position),
		IsPublished:  exercise.IsPublished,
		Config:       exercise.Config,
		AnswerSchema: exercise.AnswerSchema,
		AuditAttrs:   newAuditAttrs(exercise.Audit),
	})
}

// Delete removes the exercise and its translations.
func (r *ExerciseRepository) Delete(ctx context.Context, levelID, exerciseID string) error {
	if err := validateIDs(levelID, exerciseID); err != nil {
		return err
	}
	if err := r.translations.deleteAll(ctx, entities.ContentExercise, exerciseID); err != nil {
		return err
	}
	return storeError("Delete", r.table.Delete(ctx, keys.Exercise(levelID, exerciseID)))
}

// ListByLevel reads the EXERCISE# rows of a level partition.
func (r *ExerciseRepository) ListByLevel(ctx context.Context, levelID string, opts ports.ListOptions) ([]*entities.Exercise, error) {
	if err := validateIDs(levelID); err != nil {
		return nil, err
	}
	items, err := r.table.Query(ctx, table.PartitionQuery(keys.LevelPK(levelID), keys.ExercisePrefix))
	if err != nil {
		return nil, storeError("Query", err)
	}
	return r.finish(ctx, items, opts)
}

// ListAll returns the exercises of every level.
func (r *ExerciseRepository) ListAll(ctx context.Context, opts ports.ListOptions) ([]*entities.Exercise, error) {
	items, err := r.table.Query(ctx, table.IndexQuery(table.IndexEntityType, entityExercise, ""))
	if err != nil {
		return nil, storeError("Query", err)
	}
	return r.finish(ctx, items, opts)
}

func (r *ExerciseRepository) finish(ctx context.Context, items []table.Item, opts ports.ListOptions) ([]*entities.Exercise, error) {
	exercises, err := decodeAll(items, exerciseItem.toEntity)
	if err != nil {
		return nil, err
	}

	exercises = publishedOnly(exercises, opts.PublishedOnly, func(e *entities.Exercise) bool { return e.IsPublished })
	sortByPosition(exercises, (*entities.Exercise).SortKey)

	err = attachTranslations(ctx, r.translations, entities.ContentExercise, opts.Language, exercises,
		func(e *entities.Exercise) string { return e.ID },
		func(e *entities.Exercise, tr *entities.Translation) { e.Translation = tr },
	)
	if err != nil {
		return nil, err
	}
	return exercises, nil
}
