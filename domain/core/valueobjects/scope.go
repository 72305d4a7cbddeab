package valueobjects

import (
	"errors"
	"strings"
)

// ScopeKind is the aggregation boundary of a leaderboard.
type ScopeKind string

const (
	ScopeGlobal ScopeKind = "global"
	ScopeTopic  ScopeKind = "topic"
	ScopeLevel  ScopeKind = "level"
)

// ErrInvalidScope is returned by ParseScope for malformed input.
var ErrInvalidScope = errors.New("invalid scope format")

// Scope is an immutable leaderboard scope: global, topic(id) or level(id).
type Scope struct {
	kind ScopeKind
	id   string
}

// GlobalScope covers every progress record.
func GlobalScope() Scope {
	return Scope{kind: ScopeGlobal}
}

// TopicScope covers every level owned by topicID.
func TopicScope(topicID string) Scope {
	return Scope{kind: ScopeTopic, id: topicID}
}

// LevelScope covers a single level.
func LevelScope(levelID string) Scope {
	return Scope{kind: ScopeLevel, id: levelID}
}

// ParseScope reads "global", "topic:{id}" or "level:{id}".
func ParseScope(s string) (Scope, error) {
	if s == "" || s == string(ScopeGlobal) {
		return GlobalScope(), nil
	}

	kind, id, ok := strings.Cut(s, ":")
	if !ok || id == "" {
		return Scope{}, ErrInvalidScope
	}

	switch ScopeKind(kind) {
	case ScopeTopic:
		return TopicScope(id), nil
	case ScopeLevel:
		return LevelScope(id), nil
	default:
		return Scope{}, ErrInvalidScope
	}
}

func (s Scope) Kind() ScopeKind { return s.kind }
func (s Scope) ID() string { return s.id }

// IsZero reports whether s was never initialized.
func (s Scope) IsZero() bool {
	return s.kind == ""
}

// String renders the scope in the form ParseScope accepts.
func (s Scope) String() string {
	if s.kind == ScopeGlobal || s.kind == "" {
		return string(ScopeGlobal)
	}
	return string(s.kind) + ":" + s.id
}
