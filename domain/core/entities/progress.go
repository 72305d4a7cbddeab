package entities

import "time"

// ProgressStatus is the state of a user's work on one exercise.
type ProgressStatus string

const (
	StatusNotStarted ProgressStatus = "not_started"
	StatusInProgress ProgressStatus = "in_progress"
	StatusCompleted  ProgressStatus = "completed"
	StatusFailed     ProgressStatus = "failed"
)

// Valid reports whether s is a known status.
func (s ProgressStatus) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// ProgressRecord is the single record kept per (user, exercise).
type ProgressRecord struct {
	UserID        string                 `json:"user_id"`
	ExerciseID    string                 `json:"exercise_id"`
	LevelID       string                 `json:"level_id"`
	Status        ProgressStatus         `json:"status"`
	Attempts      int                    `json:"attempts"`
	Score         *float64               `json:"score,omitempty"`
	BestScore     *float64               `json:"best_score,omitempty"`
	Data          map[string]interface{} `json:"data,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
	LastAttemptAt time.Time              `json:"last_attempt_at"`

	// Version is the optimistic concurrency token; zero means never stored
	// unless Unversioned is set.
	Version     int64 `json:"-"`
	// Unversioned marks a stored record that has no version token yet, as
	// written by clients that predate optimistic locking.
	Unversioned bool  `json:"-"`
}

// BestScoreValue returns the best score, counting a missing one as zero.
func (p *ProgressRecord) BestScoreValue() float64 {
	if p == nil || p.BestScore == nil {
		return 0
	}
	return *p.BestScore
}

// Submission is one exercise attempt reported by a user.
type Submission struct {
	UserID     string
	ExerciseID string
	LevelID    string
	Status     ProgressStatus
	Score      *float64
	Data       map[string]interface{}
}

// MergeSubmission folds sub into existing and returns the record to store.
// existing may be nil for a first attempt. The result always carries
// existing's version token so the caller can write it conditionally.
//
// attempts grows by one on every call, best_score never decreases, and
// created_at is kept from the first write.
func MergeSubmission(existing *ProgressRecord, sub Submission, now time.Time) *ProgressRecord {
	merged := &ProgressRecord{
		UserID:        sub.UserID,
		ExerciseID:    sub.ExerciseID,
		LevelID:       sub.LevelID,
		Status:        sub.Status,
		Attempts:      1,
		Data:          sub.Data,
		CreatedAt:     now,
		UpdatedAt:     now,
		LastAttemptAt: now,
	}

	if existing != nil {
		merged.Attempts = existing.Attempts + 1
		merged.Version = existing.Version
		merged.Unversioned = existing.Unversioned
		merged.Score = existing.Score
		merged.BestScore = existing.BestScore
		if !existing.CreatedAt.IsZero() {
			merged.CreatedAt = existing.CreatedAt
		}
		if merged.Data == nil {
			merged.Data = existing.Data
		}
	}

	if sub.Score != nil {
		score := *sub.Score
		merged.Score = &score
		if merged.BestScore == nil || score > *merged.BestScore {
			best := score
			merged.BestScore = &best
		}
	}

	return merged
}

// ExerciseProgress answers "where is this user on this exercise", including
// the not-started case where no record exists.
type ExerciseProgress struct {
	*ProgressRecord
	ExerciseID string         `json:"exercise_id"`
	Status     ProgressStatus `json:"status"`
	Attempts   int            `json:"attempts"`
}

// LevelProgress summarizes a user's records within one level.
type LevelProgress struct {
	LevelID              string            `json:"level_id"`
	Progress             []*ProgressRecord `json:"progress"`
	TotalExercises       int               `json:"total_exercises"`
	CompletedExercises   int               `json:"completed_exercises"`
	CompletionPercentage float64           `json:"completion_percentage"`
	AverageScore         float64           `json:"average_score"`
}

// ProgressSummary summarizes all of a user's records.
type ProgressSummary struct {
	UserID                  string  `json:"user_id"`
	TotalExercisesAttempted int     `json:"total_exercises_attempted"`
	TotalCompleted          int     `json:"total_completed"`
	TotalScore              float64 `json:"total_score"`
	TotalAttempts           int     `json:"total_attempts"`
	CompletionRate          float64 `json:"completion_rate"`
}
