package store

import (
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"learnboard/domain/core/entities"
	"learnboard/pkg/utils"
)

// entity_type values written to every item.
const (
	entityUser              = "user"
	entityEmailClaim        = "email_claim"
	entityTopic             = "topic"
	entityLevel             = "level"
	entityExercise          = "exercise"
	entityProgress          = "user_progress"
	entityLanguage          = "language"
	translationEntitySuffix = "_translation"
)

type userItem struct {
	PK                 string `dynamodbav:"PK"`
	SK                 string `dynamodbav:"SK"`
	EntityType         string `dynamodbav:"entity_type"`
	UserID             string `dynamodbav:"user_id"`
	Email              string `dynamodbav:"email"`
	Name               string `dynamodbav:"name"`
	PasswordHash       string `dynamodbav:"password_hash"`
	Role               string `dynamodbav:"role"`
	IsActive           bool   `dynamodbav:"is_active"`
	LanguagePreference string `dynamodbav:"language_preference"`
	CreatedAt          string `dynamodbav:"created_at"`
	UpdatedAt          string `dynamodbav:"updated_at"`
}

func (i userItem) toEntity() *entities.User {
	return &entities.User{
		ID:                 i.UserID,
		Email:              i.Email,
		Name:               i.Name,
		PasswordHash:       i.PasswordHash,
		Role:               entities.Role(i.Role),
		IsActive:           i.IsActive,
		LanguagePreference: i.LanguagePreference,
		CreatedAt:          parseTime(i.CreatedAt),
		UpdatedAt:          parseTime(i.UpdatedAt),
	}
}

// emailClaimItem reserves an address for one user. It deliberately has no
// email attribute so it stays out of the email index.
type emailClaimItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"entity_type"`
	UserID     string `dynamodbav:"user_id"`
	CreatedAt  string `dynamodbav:"created_at"`
}

type topicItem struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	EntityType   string `dynamodbav:"entity_type"`
	TopicID      string `dynamodbav:"topic_id"`
	Slug         string `dynamodbav:"slug"`
	DefaultTitle string `dynamodbav:"default_title"`
	Order        string `dynamodbav:"order,omitempty"`
	IsPublished  bool   `dynamodbav:"is_published"`
	AuditAttrs
}

func (i topicItem) toEntity() *entities.Topic {
	return &entities.Topic{
		ID:           i.TopicID,
		Slug:         i.Slug,
		DefaultTitle: i.DefaultTitle,
		Order:        parseOptionalInt(i.Order),
		IsPublished:  i.IsPublished,
		Audit:        i.AuditAttrs.toAudit(),
	}
}

type levelItem struct {
	PK          string                  `dynamodbav:"PK"`
	SK          string                  `dynamodbav:"SK"`
	EntityType  string                  `dynamodbav:"entity_type"`
	LevelID     string                  `dynamodbav:"level_id"`
	TopicID     string                  `dynamodbav:"topic_id"`
	Slug        string                  `dynamodbav:"slug"`
	Position    string                  `dynamodbav:"position,omitempty"`
	Difficulty  string                  `dynamodbav:"difficulty"`
	IsPublished bool                    `dynamodbav:"is_published"`
	Metadata    *entities.LevelMetadata `dynamodbav:"metadata,omitempty"`
	AuditAttrs
}

func (i levelItem) toEntity() *entities.Level {
	difficulty, _ := strconv.Atoi(i.Difficulty)
	return &entities.Level{
		ID:          i.LevelID,
		TopicID:     i.TopicID,
		Slug:        i.Slug,
		Position:    parseOptionalInt(i.Position),
		Difficulty:  difficulty,
		IsPublished: i.IsPublished,
		Metadata:    i.Metadata,
		Audit:       i.AuditAttrs.toAudit(),
	}
}

type exerciseItem struct {
	PK           string                   `dynamodbav:"PK"`
	SK           string                   `dynamodbav:"SK"`
	EntityType   string                   `dynamodbav:"entity_type"`
	ExerciseID   string                   `dynamodbav:"exercise_id"`
	LevelID      string                   `dynamodbav:"level_id"`
	ExerciseType string                   `dynamodbav:"exercise_type"`
	Position     string                   `dynamodbav:"position,omitempty"`
	IsPublished  bool                     `dynamodbav:"is_published"`
	Config       *entities.ExerciseConfig `dynamodbav:"config,omitempty"`
	AnswerSchema map[string]interface{}   `dynamodbav:"answer_schema,omitempty"`
	AuditAttrs
}

func (i exerciseItem) toEntity() *entities.Exercise {
	return &entities.Exercise{
		ID:           i.ExerciseID,
		LevelID:      i.LevelID,
		ExerciseType: entities.ExerciseType(i.ExerciseType),
		Position:     parseOptionalInt(i.Position),
		IsPublished:  i.IsPublished,
		Config:       i.Config,
		AnswerSchema: i.AnswerSchema,
		Audit:        i.AuditAttrs.toAudit(),
	}
}

// AuditAttrs are the bookkeeping attributes shared by content items.
type AuditAttrs struct {
	CreatedAt string `dynamodbav:"created_at"`
	UpdatedAt string `dynamodbav:"updated_at"`
	CreatedBy string `dynamodbav:"created_by,omitempty"`
	UpdatedBy string `dynamodbav:"updated_by,omitempty"`
}

func newAuditAttrs(a entities.Audit) AuditAttrs {
	return AuditAttrs{
		CreatedAt: utils.FormatTimestamp(a.CreatedAt),
		UpdatedAt: utils.FormatTimestamp(a.UpdatedAt),
		CreatedBy: a.CreatedBy,
		UpdatedBy: a.UpdatedBy,
	}
}

func (a AuditAttrs) toAudit() entities.Audit {
	return entities.Audit{
		CreatedAt: parseTime(a.CreatedAt),
		UpdatedAt: parseTime(a.UpdatedAt),
		CreatedBy: a.CreatedBy,
		UpdatedBy: a.UpdatedBy,
	}
}

type translationItem struct {
	PK           string            `dynamodbav:"PK"`
	SK           string            `dynamodbav:"SK"`
	EntityType   string            `dynamodbav:"entity_type"`
	TopicID      string            `dynamodbav:"topic_id,omitempty"`
	LevelID      string            `dynamodbav:"level_id,omitempty"`
	ExerciseID   string            `dynamodbav:"exercise_id,omitempty"`
	LanguageCode string            `dynamodbav:"language_code"`
	Title        string            `dynamodbav:"title,omitempty"`
	Description  string            `dynamodbav:"description,omitempty"`
	Hint         string            `dynamodbav:"hint,omitempty"`
	PromptText   string            `dynamodbav:"prompt_text,omitempty"`
	ChoiceTexts  []string          `dynamodbav:"choice_texts,omitempty"`
	FeedbackText map[string]string `dynamodbav:"feedback_text,omitempty"`
	CreatedAt    string            `dynamodbav:"created_at"`
	UpdatedAt    string            `dynamodbav:"updated_at"`
}

func (i translationItem) toEntity(kind entities.ContentKind, entityID string) *entities.Translation {
	return &entities.Translation{
		Kind:         kind,
		EntityID:     entityID,
		LanguageCode: i.LanguageCode,
		Title:        i.Title,
		Description:  i.Description,
		Hint:         i.Hint,
		PromptText:   i.PromptText,
		ChoiceTexts:  i.ChoiceTexts,
		FeedbackText: i.FeedbackText,
	}
}

type progressItem struct {
	PK            string                 `dynamodbav:"PK"`
	SK            string                 `dynamodbav:"SK"`
	EntityType    string                 `dynamodbav:"entity_type"`
	UserID        string                 `dynamodbav:"user_id"`
	ExerciseID    string                 `dynamodbav:"exercise_id"`
	LevelID       string                 `dynamodbav:"level_id"`
	Status        string                 `dynamodbav:"status"`
	Attempts      int                    `dynamodbav:"attempts"`
	Score         string                 `dynamodbav:"score,omitempty"`
	BestScore     string                 `dynamodbav:"best_score,omitempty"`
	Data          map[string]interface{} `dynamodbav:"data,omitempty"`
	CreatedAt     string                 `dynamodbav:"created_at"`
	UpdatedAt     string                 `dynamodbav:"updated_at"`
	LastAttemptAt string                 `dynamodbav:"last_attempt_at"`
	Version       *int64                 `dynamodbav:"version,omitempty"`
}

func (i progressItem) toEntity() *entities.ProgressRecord {
	return &entities.ProgressRecord{
		UserID:        i.UserID,
		ExerciseID:    i.ExerciseID,
		LevelID:       i.LevelID,
		Status:        entities.ProgressStatus(i.Status),
		Attempts:      i.Attempts,
		Score:         parseOptionalFloat(i.Score),
		BestScore:     parseOptionalFloat(i.BestScore),
		Data:          i.Data,
		CreatedAt:     parseTime(i.CreatedAt),
		UpdatedAt:     parseTime(i.UpdatedAt),
		LastAttemptAt: parseTime(i.LastAttemptAt),
		Version:       aws.ToInt64(i.Version),
		Unversioned:   i.Version == nil,
	}
}

type languageItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"entity_type"`
	Code       string `dynamodbav:"code"`
	Name       string `dynamodbav:"name"`
	NativeName string `dynamodbav:"native_name,omitempty"`
	IsActive   bool   `dynamodbav:"is_active"`
	CreatedAt  string `dynamodbav:"created_at"`
}

func (i languageItem) toEntity() *entities.Language {
	return &entities.Language{
		Code:       i.Code,
		Name:       i.Name,
		NativeName: i.NativeName,
		IsActive:   i.IsActive,
		CreatedAt:  parseTime(i.CreatedAt),
	}
}

// Legacy rows may carry timestamps in other layouts; an unparseable value
// reads as the zero time rather than failing the whole listing.
func parseTime(s string) time.Time {
	t, err := utils.ParseTimestamp(s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatOptionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func parseOptionalInt(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func formatOptionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func parseOptionalFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
