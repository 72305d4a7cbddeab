package services

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"learnboard/application/ports"
	"learnboard/domain/core/entities"
	"learnboard/domain/core/valueobjects"
	apperrors "learnboard/pkg/errors"
	"learnboard/pkg/observability"
)

const (
	// DefaultLeaderboardLimit is used when the caller gives no limit.
	DefaultLeaderboardLimit = 50
	// MaxLeaderboardLimit caps a single page of a leaderboard.
	MaxLeaderboardLimit = 100

	noProgressMessage = "User has no progress in this scope"

	scanConcurrency = 4
	generationKey   = "leaderboard:generation"
)

// LeaderboardService aggregates best scores into ranked boards. The progress
// records are the only source of truth; the optional cache holds finished
// boards keyed by a generation counter that every submit advances.
type LeaderboardService struct {
	progress ports.ProgressRepository
	levels   ports.LevelRepository
	users    ports.UserRepository
	cache    ports.Cache
	cacheTTL time.Duration
	metrics  *observability.Collector
	tracer   *observability.Tracer
	logger   *zap.Logger
}

// NewLeaderboardService creates a new leaderboard service. cache may be nil.
func NewLeaderboardService(
	progress ports.ProgressRepository,
	levels ports.LevelRepository,
	users ports.UserRepository,
	cache ports.Cache,
	cacheTTL time.Duration,
	metrics *observability.Collector,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *LeaderboardService {
	return &LeaderboardService{
		progress: progress,
		levels:   levels,
		users:    users,
		cache:    cache,
		cacheTTL: cacheTTL,
		metrics:  metrics,
		tracer:   tracer,
		logger:   logger,
	}
}

// Leaderboard returns the top limit entries of the scope.
func (s *LeaderboardService) Leaderboard(ctx context.Context, scope valueobjects.Scope, limit int) ([]entities.LeaderboardEntry, error) {
	if limit < 1 || limit > MaxLeaderboardLimit {
		return nil, apperrors.NewValidationError(fmt.Sprintf("limit must be between 1 and %d", MaxLeaderboardLimit)).
			WithDetails(map[string]interface{}{"min": 1, "max": MaxLeaderboardLimit})
	}

	board, err := s.board(ctx, scope)
	if err != nil {
		return nil, err
	}
	if len(board) > limit {
		board = board[:limit]
	}
	return board, nil
}

// Rank locates one user on the full board of the scope.
func (s *LeaderboardService) Rank(ctx context.Context, userID string, scope valueobjects.Scope) (*entities.RankResult, error) {
	board, err := s.board(ctx, scope)
	if err != nil {
		return nil, err
	}

	result := &entities.RankResult{
		UserID:     userID,
		Scope:      scope.String(),
		TotalUsers: len(board),
	}
	for _, entry := range board {
		if entry.UserID == userID {
			rank := entry.Rank
			result.Rank = &rank
			result.Score = entry.Score
			return result, nil
		}
	}
	result.Message = noProgressMessage
	return result, nil
}

// Invalidate retires every cached board.
func (s *LeaderboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Incr(ctx, generationKey); err != nil {
		s.logger.Warn("Failed to advance leaderboard generation", zap.Error(err))
	}
}

func (s *LeaderboardService) board(ctx context.Context, scope valueobjects.Scope) ([]entities.LeaderboardEntry, error) {
	if scope.IsZero() {
		return nil, apperrors.NewValidationError("leaderboard scope is required")
	}

	key, cacheable := s.cacheKey(ctx, scope)
	if cacheable {
		if data, ok := s.cache.Get(ctx, key); ok {
			var cached []entities.LeaderboardEntry
			if err := json.Unmarshal(data, &cached); err == nil {
				s.metrics.RecordCacheLookup(true)
				return cached, nil
			}
		}
		s.metrics.RecordCacheLookup(false)
	}

	start := time.Now()
	var board []entities.LeaderboardEntry
	err := s.tracer.TraceFunction(ctx, "leaderboard.build", func(ctx context.Context) error {
		s.tracer.AddAnnotation(ctx, "scope", scope.String())
		records, err := s.recordsInScope(ctx, scope)
		if err != nil {
			return err
		}
		board, err = s.rank(ctx, records)
		return err
	})
	if err != nil {
		s.tracer.RecordError(ctx, err)
		s.logger.Error("Failed to build leaderboard", zap.String("scope", scope.String()), zap.Error(err))
		return nil, err
	}
	s.metrics.RecordLeaderboardBuild(string(scope.Kind()), time.Since(start))

	if cacheable {
		if data, err := json.Marshal(board); err == nil {
			if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
				s.logger.Warn("Failed to cache leaderboard", zap.String("scope", scope.String()), zap.Error(err))
			}
		}
	}
	return board, nil
}

func (s *LeaderboardService) cacheKey(ctx context.Context, scope valueobjects.Scope) (string, bool) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return "", false
	}
	var generation int64
	if data, ok := s.cache.Get(ctx, generationKey); ok {
		var err error
		generation, err = strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			s.logger.Warn("Unreadable leaderboard generation, bypassing cache",
				zap.String("value", string(data)),
				zap.Error(err),
			)
			return "", false
		}
	}
	return fmt.Sprintf("leaderboard:%d:%s", generation, scope.String()), true
}

// recordsInScope collects every progress record that counts towards scope.
// A failed page anywhere fails the whole collection.
func (s *LeaderboardService) recordsInScope(ctx context.Context, scope valueobjects.Scope) ([]*entities.ProgressRecord, error) {
	switch scope.Kind() {
	case valueobjects.ScopeLevel:
		return s.progress.ListByLevel(ctx, scope.ID())
	case valueobjects.ScopeTopic:
		return s.topicRecords(ctx, scope.ID())
	default:
		return s.progress.ListAll(ctx)
	}
}

func (s *LeaderboardService) topicRecords(ctx context.Context, topicID string) ([]*entities.ProgressRecord, error) {
	levels, err := s.levels.ListByTopic(ctx, topicID, ports.ListOptions{})
	if err != nil {
		return nil, err
	}
	if len(levels) == 0 {
		return nil, nil
	}

	perLevel := make([][]*entities.ProgressRecord, len(levels))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scanConcurrency)
	for i, level := range levels {
		g.Go(func() error {
			records, err := s.progress.ListByLevel(gctx, level.ID)
			if err != nil {
				return err
			}
			perLevel[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var records []*entities.ProgressRecord
	for _, batch := range perLevel {
		records = append(records, batch...)
	}
	return records, nil
}

// rank sums best scores per user in order of first appearance, resolves
// usernames and sorts by score. Ties keep first-appearance order and still
// receive consecutive ranks.
func (s *LeaderboardService) rank(ctx context.Context, records []*entities.ProgressRecord) ([]entities.LeaderboardEntry, error) {
	index := make(map[string]int)
	board := make([]entities.LeaderboardEntry, 0)
	for _, rec := range records {
		i, seen := index[rec.UserID]
		if !seen {
			i = len(board)
			index[rec.UserID] = i
			board = append(board, entities.LeaderboardEntry{UserID: rec.UserID})
		}
		board[i].Score += rec.BestScoreValue()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scanConcurrency)
	for i := range board {
		g.Go(func() error {
			name, err := s.username(gctx, board[i].UserID)
			if err != nil {
				return err
			}
			board[i].Username = name
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(board, func(a, b entities.LeaderboardEntry) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	for i := range board {
		board[i].Rank = i + 1
	}
	return board, nil
}

func (s *LeaderboardService) username(ctx context.Context, userID string) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	switch {
	case apperrors.IsNotFound(err), apperrors.IsValidation(err):
		return entities.UnknownUsername, nil
	case err != nil:
		return "", err
	case user.Name == "":
		return entities.UnknownUsername, nil
	}
	return user.Name, nil
}
