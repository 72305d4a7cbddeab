// Package keys is the only place that builds or parses PK/SK strings. Every
// writer and reader of a relationship goes through the same helper so that
// items written under a key are always reachable by a point lookup.
package keys

import (
	"errors"
	"fmt"
	"strings"

	"learnboard/domain/core/entities"
	"learnboard/infrastructure/persistence/table"
)

// Kind is the prefix of an encoded key.
type Kind string

const (
	KindUser     Kind = "USER"
	KindTopic    Kind = "TOPIC"
	KindLevel    Kind = "LEVEL"
	KindExercise Kind = "EXERCISE"
	KindLang     Kind = "LANG"
	KindProgress Kind = "PROGRESS"
	KindEmail    Kind = "EMAIL"
)

const separator = "#"

// Fixed sort keys.
const (
	MetadataSK = "METADATA"
	EmailSK    = "EMAIL"
)

var kinds = map[Kind]struct{}{
	KindUser: {}, KindTopic: {}, KindLevel: {}, KindExercise: {},
	KindLang: {}, KindProgress: {}, KindEmail: {},
}

var (
	ErrEmptyID      = errors.New("id must not be empty")
	ErrIDSeparator  = errors.New("id must not contain '#'")
	ErrMalformedKey = errors.New("malformed key")
)

// ValidateID rejects ids that cannot be encoded.
func ValidateID(id string) error {
	if id == "" {
		return ErrEmptyID
	}
	if strings.Contains(id, separator) {
		return fmt.Errorf("%w: %q", ErrIDSeparator, id)
	}
	return nil
}

// ValidateIDs validates several ids at once.
func ValidateIDs(ids ...string) error {
	for _, id := range ids {
		if err := ValidateID(id); err != nil {
			return err
		}
	}
	return nil
}

// Encode joins a kind and an id.
func Encode(kind Kind, id string) string {
	return string(kind) + separator + id
}

// Parse splits an encoded key into its kind and id.
func Parse(key string) (Kind, string, error) {
	prefix, id, ok := strings.Cut(key, separator)
	if !ok || id == "" {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedKey, key)
	}
	kind := Kind(prefix)
	if _, known := kinds[kind]; !known {
		return "", "", fmt.Errorf("%w: unknown kind in %q", ErrMalformedKey, key)
	}
	return kind, id, nil
}

// ParseAs parses key and checks that it has the expected kind.
func ParseAs(want Kind, key string) (string, error) {
	kind, id, err := Parse(key)
	if err != nil {
		return "", err
	}
	if kind != want {
		return "", fmt.Errorf("%w: expected %s, got %s", ErrMalformedKey, want, kind)
	}
	return id, nil
}

func UserPK(userID string) string { return Encode(KindUser, userID) }
func TopicPK(topicID string) string { return Encode(KindTopic, topicID) }
func LevelPK(levelID string) string { return Encode(KindLevel, levelID) }
func ExercisePK(exerciseID string) string { return Encode(KindExercise, exerciseID) }
func LangPK(code string) string { return Encode(KindLang, code) }
func EmailPK(email string) string { return Encode(KindEmail, email) }
func LevelSK(levelID string) string { return Encode(KindLevel, levelID) }
func ExerciseSK(exerciseID string) string { return Encode(KindExercise, exerciseID) }
func ProgressSK(exerciseID string) string { return Encode(KindProgress, exerciseID) }
func LangSK(code string) string { return Encode(KindLang, code) }

// Sort key prefixes for partition queries.
var (
	LevelPrefix    = string(KindLevel) + separator
	ExercisePrefix = string(KindExercise) + separator
	ProgressPrefix = string(KindProgress) + separator
	LangPrefix     = string(KindLang) + separator
)

// User is the key of a user profile item.
func User(userID string) table.Key {
	return table.Key{PK: UserPK(userID), SK: MetadataSK}
}

// EmailClaim is the key of the item reserving an email address.
func EmailClaim(email string) table.Key {
	return table.Key{PK: EmailPK(email), SK: EmailSK}
}

// Topic is the key of a topic item.
func Topic(topicID string) table.Key {
	return table.Key{PK: TopicPK(topicID), SK: MetadataSK}
}

// Level is the key of a level item, stored under its owning topic.
func Level(topicID, levelID string) table.Key {
	return table.Key{PK: TopicPK(topicID), SK: LevelSK(levelID)}
}

// Exercise is the key of an exercise item, stored under its owning level.
func Exercise(levelID, exerciseID string) table.Key {
	return table.Key{PK: LevelPK(levelID), SK: ExerciseSK(exerciseID)}
}

// Progress is the key of a user's record for one exercise.
func Progress(userID, exerciseID string) table.Key {
	return table.Key{PK: UserPK(userID), SK: ProgressSK(exerciseID)}
}

// Language is the key of a language item.
func Language(code string) table.Key {
	return table.Key{PK: LangPK(code), SK: MetadataSK}
}

// ContentPK is the partition that holds the translations of a content entity.
func ContentPK(kind entities.ContentKind, id string) (string, error) {
	switch kind {
	case entities.ContentTopic:
		return TopicPK(id), nil
	case entities.ContentLevel:
		return LevelPK(id), nil
	case entities.ContentExercise:
		return ExercisePK(id), nil
	}
	return "", fmt.Errorf("unknown content kind %q", kind)
}

// Translation is the key of one translation row.
func Translation(kind entities.ContentKind, id, lang string) (table.Key, error) {
	pk, err := ContentPK(kind, id)
	if err != nil {
		return table.Key{}, err
	}
	return table.Key{PK: pk, SK: LangSK(lang)}, nil
}
