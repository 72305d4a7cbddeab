package events

import "time"

// DomainEvent is the base interface for all domain events
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// EventTypeProgressSubmitted is the detail type of ProgressSubmitted.
const EventTypeProgressSubmitted = "progress.submitted"

// ProgressSubmitted is raised after an exercise attempt has been stored.
type ProgressSubmitted struct {
	BaseEvent
	UserID     string   `json:"user_id"`
	ExerciseID string   `json:"exercise_id"`
	LevelID    string   `json:"level_id"`
	Status     string   `json:"status"`
	Score      *float64 `json:"score,omitempty"`
	BestScore  *float64 `json:"best_score,omitempty"`
	Attempts   int      `json:"attempts"`
}

// NewProgressSubmitted creates a ProgressSubmitted event
func NewProgressSubmitted(userID, exerciseID, levelID, status string, score, bestScore *float64, attempts int, timestamp time.Time) ProgressSubmitted {
	return ProgressSubmitted{
		BaseEvent: BaseEvent{
			AggregateID: userID,
			EventType:   EventTypeProgressSubmitted,
			Timestamp:   timestamp,
			Version:     1,
		},
		UserID:     userID,
		ExerciseID: exerciseID,
		LevelID:    levelID,
		Status:     status,
		Score:      score,
		BestScore:  bestScore,
		Attempts:   attempts,
	}
}
