package entities

import "time"

// DefaultSortPosition is used for ordering when an entity carries no
// explicit order or position.
const DefaultSortPosition = 999

// ContentKind names the translatable content entities.
type ContentKind string

const (
	ContentTopic    ContentKind = "topic"
	ContentLevel    ContentKind = "level"
	ContentExercise ContentKind = "exercise"
)

// Valid reports whether k is a known content kind.
func (k ContentKind) Valid() bool {
	switch k {
	case ContentTopic, ContentLevel, ContentExercise:
		return true
	}
	return false
}

// Audit carries the bookkeeping fields shared by admin-managed content.
type Audit struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedBy string    `json:"created_by,omitempty"`
	UpdatedBy string    `json:"updated_by,omitempty"`
}

// Topic is the top of the content hierarchy.
type Topic struct {
	ID           string       `json:"topic_id"`
	Slug         string       `json:"slug"`
	DefaultTitle string       `json:"default_title"`
	Order        *int         `json:"order,omitempty"`
	IsPublished  bool         `json:"is_published"`
	Translation  *Translation `json:"translation,omitempty"`
	Audit
}

// SortKey returns the display order, defaulting when unset.
func (t *Topic) SortKey() int {
	if t.Order == nil {
		return DefaultSortPosition
	}
	return *t.Order
}

// LevelMetadata holds optional pacing hints for a level.
type LevelMetadata struct {
	EstimatedTimeMinutes *int `json:"estimated_time_minutes,omitempty" dynamodbav:"estimated_time_minutes,omitempty"`
	MinScoreToPass       *int `json:"min_score_to_pass,omitempty" dynamodbav:"min_score_to_pass,omitempty"`
	MaxAttempts          *int `json:"max_attempts,omitempty" dynamodbav:"max_attempts,omitempty"`
}

// Level belongs to exactly one topic.
type Level struct {
	ID          string         `json:"level_id"`
	TopicID     string         `json:"topic_id"`
	Slug        string         `json:"slug"`
	Position    *int           `json:"position,omitempty"`
	Difficulty  int            `json:"difficulty"`
	IsPublished bool           `json:"is_published"`
	Metadata    *LevelMetadata `json:"metadata,omitempty"`
	Translation *Translation   `json:"translation,omitempty"`
	Audit
}

// SortKey returns the in-topic position, defaulting when unset.
func (l *Level) SortKey() int {
	if l.Position == nil {
		return DefaultSortPosition
	}
	return *l.Position
}

// ExerciseType enumerates the supported exercise mechanics.
type ExerciseType string

const (
	ExerciseMCQ           ExerciseType = "MCQ"
	ExerciseCameraProduce ExerciseType = "CAMERA_PRODUCE"
	ExerciseCopyPractice  ExerciseType = "COPY_PRACTICE"
)

// Valid reports whether t is a known exercise type.
func (t ExerciseType) Valid() bool {
	switch t {
	case ExerciseMCQ, ExerciseCameraProduce, ExerciseCopyPractice:
		return true
	}
	return false
}

// ExerciseConfig is the type-specific configuration of an exercise.
type ExerciseConfig struct {
	TimeLimit          *int                   `json:"time_limit,omitempty" dynamodbav:"time_limit,omitempty"`
	ScoringRules       map[string]interface{} `json:"scoring_rules,omitempty" dynamodbav:"scoring_rules,omitempty"`
	ChoicesCount       *int                   `json:"choices_count,omitempty" dynamodbav:"choices_count,omitempty"`
	ModelVersion       string                 `json:"model_version,omitempty" dynamodbav:"model_version,omitempty"`
	RequiredConfidence *float64               `json:"required_confidence,omitempty" dynamodbav:"required_confidence,omitempty"`
}

// Exercise belongs to exactly one level.
type Exercise struct {
	ID           string                 `json:"exercise_id"`
	LevelID      string                 `json:"level_id"`
	ExerciseType ExerciseType           `json:"exercise_type"`
	Position     *int                   `json:"position,omitempty"`
	IsPublished  bool                   `json:"is_published"`
	Config       *ExerciseConfig        `json:"config,omitempty"`
	AnswerSchema map[string]interface{} `json:"answer_schema,omitempty"`
	Translation  *Translation           `json:"translation,omitempty"`
	Audit
}

// SortKey returns the in-level position, defaulting when unset.
func (e *Exercise) SortKey() int {
	if e.Position == nil {
		return DefaultSortPosition
	}
	return *e.Position
}

// Translation is the localized text of one content entity in one language.
// Which fields are meaningful depends on the owning kind.
type Translation struct {
	Kind         ContentKind       `json:"-"`
	EntityID     string            `json:"-"`
	LanguageCode string            `json:"language_code"`
	Title        string            `json:"title,omitempty"`
	Description  string            `json:"description,omitempty"`
	Hint         string            `json:"hint,omitempty"`
	PromptText   string            `json:"prompt_text,omitempty"`
	ChoiceTexts  []string          `json:"choice_texts,omitempty"`
	FeedbackText map[string]string `json:"feedback_text,omitempty"`
}

// Language is a supported UI/content language.
type Language struct {
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	NativeName string    `json:"native_name,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}
