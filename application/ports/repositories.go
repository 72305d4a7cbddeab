package ports

import (
	"context"
	"errors"
	"time"

	"learnboard/domain/core/entities"
	"learnboard/domain/events"
)

// ErrVersionConflict is returned by ProgressRepository.Save when the stored
// record changed since it was read.
var ErrVersionConflict = errors.New("progress record changed concurrently")

// ListOptions narrows content listings.
type ListOptions struct {
	// PublishedOnly drops unpublished entities before sorting.
	PublishedOnly bool
	// Language attaches the translation in this language when present.
	Language string
}

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create stores a new user and claims its email address atomically.
	// A taken email yields a conflict error.
	Create(ctx context.Context, user *entities.User) error

	// Update overwrites an existing user. The email cannot change.
	Update(ctx context.Context, user *entities.User) error

	GetByID(ctx context.Context, userID string) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	List(ctx context.Context) ([]*entities.User, error)
}

// TopicRepository defines the interface for topic persistence
type TopicRepository interface {
	Get(ctx context.Context, topicID, language string) (*entities.Topic, error)
	Put(ctx context.Context, topic *entities.Topic) error
	Delete(ctx context.Context, topicID string) error
	List(ctx context.Context, opts ListOptions) ([]*entities.Topic, error)
}

// LevelRepository defines the interface for level persistence
type LevelRepository interface {
	Get(ctx context.Context, topicID, levelID, language string) (*entities.Level, error)
	Put(ctx context.Context, level *entities.Level) error
	Delete(ctx context.Context, topicID, levelID string) error
	ListByTopic(ctx context.Context, topicID string, opts ListOptions) ([]*entities.Level, error)
	ListAll(ctx context.Context, opts ListOptions) ([]*entities.Level, error)
}

// ExerciseRepository defines the interface for exercise persistence
type ExerciseRepository interface {
	Get(ctx context.Context, levelID, exerciseID, language string) (*entities.Exercise, error)
	Put(ctx context.Context, exercise *entities.Exercise) error
	Delete(ctx context.Context, levelID, exerciseID string) error
	ListByLevel(ctx context.Context, levelID string, opts ListOptions) ([]*entities.Exercise, error)
	ListAll(ctx context.Context, opts ListOptions) ([]*entities.Exercise, error)
}

// TranslationRepository resolves and stores localized content text.
type TranslationRepository interface {
	// Resolve returns nil without error when no translation exists.
	Resolve(ctx context.Context, kind entities.ContentKind, entityID, language string) (*entities.Translation, error)
	Put(ctx context.Context, translation *entities.Translation) error
}

// ProgressRepository defines the interface for progress persistence
type ProgressRepository interface {
	// Get returns a not-found error when the user never attempted the exercise.
	Get(ctx context.Context, userID, exerciseID string) (*entities.ProgressRecord, error)

	// Save writes record if the stored version still equals record.Version
	// (zero meaning "absent", or "stored without a version" when
	// record.Unversioned is set) and advances record.Version on success.
	Save(ctx context.Context, record *entities.ProgressRecord) error

	ListByUser(ctx context.Context, userID string) ([]*entities.ProgressRecord, error)
	ListByUserLevel(ctx context.Context, userID, levelID string) ([]*entities.ProgressRecord, error)

	// ListAll and ListByLevel return every record in scan order, or an error
	// if any page could not be read.
	ListAll(ctx context.Context) ([]*entities.ProgressRecord, error)
	ListByLevel(ctx context.Context, levelID string) ([]*entities.ProgressRecord, error)
}

// LanguageRepository defines the interface for language persistence
type LanguageRepository interface {
	Get(ctx context.Context, code string) (*entities.Language, error)
	Put(ctx context.Context, language *entities.Language) error
	List(ctx context.Context, activeOnly bool) ([]*entities.Language, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value in cache with a TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Incr atomically increments an integer counter and returns the new value
	Incr(ctx context.Context, key string) (int64, error)
}
