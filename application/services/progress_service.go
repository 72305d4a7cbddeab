package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"learnboard/application/ports"
	"learnboard/domain/core/entities"
	"learnboard/domain/events"
	apperrors "learnboard/pkg/errors"
	"learnboard/pkg/observability"
)

// maxSubmitAttempts bounds the read-merge-write loop of Submit.
const maxSubmitAttempts = 5

// BoardInvalidator is notified when stored scores change.
type BoardInvalidator interface {
	Invalidate(ctx context.Context)
}

// ProgressService records exercise attempts and summarizes them.
type ProgressService struct {
	progress    ports.ProgressRepository
	publisher   ports.EventPublisher
	invalidator BoardInvalidator
	metrics     *observability.Collector
	logger      *zap.Logger
	now         func() time.Time
}

// NewProgressService creates a new progress service. publisher and
// invalidator may be nil.
func NewProgressService(
	progress ports.ProgressRepository,
	publisher ports.EventPublisher,
	invalidator BoardInvalidator,
	metrics *observability.Collector,
	logger *zap.Logger,
) *ProgressService {
	return &ProgressService{
		progress:    progress,
		publisher:   publisher,
		invalidator: invalidator,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// Submit merges one attempt into the user's record for the exercise. The
// write is conditioned on the version that was read, so concurrent submits
// for the same pair never lose an attempt; after maxSubmitAttempts lost races
// the caller gets a conflict.
func (s *ProgressService) Submit(ctx context.Context, sub entities.Submission) (*entities.ProgressRecord, error) {
	if !sub.Status.Valid() {
		return nil, apperrors.NewValidationError("invalid status")
	}
	if sub.Score != nil && *sub.Score < 0 {
		return nil, apperrors.NewValidationError("score must be greater than or equal to 0")
	}

	for attempt := 1; attempt <= maxSubmitAttempts; attempt++ {
		existing, err := s.progress.Get(ctx, sub.UserID, sub.ExerciseID)
		switch {
		case apperrors.IsNotFound(err):
			existing = nil
		case err != nil:
			s.metrics.RecordProgressSubmission("error")
			return nil, err
		}

		merged := entities.MergeSubmission(existing, sub, s.now())
		err = s.progress.Save(ctx, merged)
		if errors.Is(err, ports.ErrVersionConflict) {
			s.logger.Debug("Progress write lost a race, retrying",
				zap.String("userID", sub.UserID),
				zap.String("exerciseID", sub.ExerciseID),
				zap.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			s.metrics.RecordProgressSubmission("error")
			return nil, err
		}

		s.metrics.RecordProgressSubmission(string(merged.Status))
		s.afterSubmit(ctx, merged)
		return merged, nil
	}

	s.metrics.RecordProgressSubmission("conflict")
	s.logger.Warn("Progress submit gave up after repeated conflicts",
		zap.String("userID", sub.UserID),
		zap.String("exerciseID", sub.ExerciseID),
	)
	return nil, apperrors.NewConflictError("progress was updated concurrently, please retry")
}

// afterSubmit invalidates cached boards and publishes the event. Neither
// failure is reported to the caller: the record is already stored.
func (s *ProgressService) afterSubmit(ctx context.Context, rec *entities.ProgressRecord) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
	if s.publisher == nil {
		return
	}

	event := events.NewProgressSubmitted(
		rec.UserID, rec.ExerciseID, rec.LevelID, string(rec.Status),
		rec.Score, rec.BestScore, rec.Attempts, rec.UpdatedAt,
	)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish progress event",
			zap.String("userID", rec.UserID),
			zap.String("exerciseID", rec.ExerciseID),
			zap.Error(err),
		)
	}
}

// ExerciseProgress returns the user's record for one exercise, or a
// not-started placeholder.
func (s *ProgressService) ExerciseProgress(ctx context.Context, userID, exerciseID string) (*entities.ExerciseProgress, error) {
	rec, err := s.progress.Get(ctx, userID, exerciseID)
	if apperrors.IsNotFound(err) {
		return &entities.ExerciseProgress{
			ExerciseID: exerciseID,
			Status:     entities.StatusNotStarted,
			Attempts:   0,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &entities.ExerciseProgress{
		ProgressRecord: rec,
		ExerciseID:     rec.ExerciseID,
		Status:         rec.Status,
		Attempts:       rec.Attempts,
	}, nil
}

// LevelProgress summarizes the user's records within one level. Only
// attempted exercises count towards the totals.
func (s *ProgressService) LevelProgress(ctx context.Context, userID, levelID string) (*entities.LevelProgress, error) {
	records, err := s.progress.ListByUserLevel(ctx, userID, levelID)
	if err != nil {
		return nil, err
	}

	result := &entities.LevelProgress{
		LevelID:        levelID,
		Progress:       records,
		TotalExercises: len(records),
	}
	if result.Progress == nil {
		result.Progress = []*entities.ProgressRecord{}
	}

	var bestSum float64
	for _, rec := range records {
		if rec.Status == entities.StatusCompleted {
			result.CompletedExercises++
		}
		bestSum += rec.BestScoreValue()
	}
	if result.TotalExercises > 0 {
		total := float64(result.TotalExercises)
		result.CompletionPercentage = float64(result.CompletedExercises) / total * 100
		result.AverageScore = bestSum / total
	}
	return result, nil
}

// Summary aggregates all of the user's records.
func (s *ProgressService) Summary(ctx context.Context, userID string) (*entities.ProgressSummary, error) {
	records, err := s.progress.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &entities.ProgressSummary{
		UserID:                  userID,
		TotalExercisesAttempted: len(records),
	}
	for _, rec := range records {
		if rec.Status == entities.StatusCompleted {
			summary.TotalCompleted++
		}
		summary.TotalScore += rec.BestScoreValue()
		summary.TotalAttempts += rec.Attempts
	}
	if summary.TotalExercisesAttempted > 0 {
		summary.CompletionRate = float64(summary.TotalCompleted) / float64(summary.TotalExercisesAttempted) * 100
	}
	return summary, nil
}
