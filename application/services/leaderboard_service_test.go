package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"learnboard/domain/core/entities"
	"learnboard/domain/core/valueobjects"
	apperrors "learnboard/pkg/errors"
)

// seedBoard stores topic T with levels l1 and l2 and the following bests:
// u1 scores 10 on l1 and 20 on l2, u2 scores 15 on l1.
func seedBoard(t *testing.T, r *repos) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, r.users.Create(ctx, &entities.User{ID: "u1", Email: "ana@example.com", Name: "Ana", Role: entities.RoleUser, IsActive: true}))
	require.NoError(t, r.users.Create(ctx, &entities.User{ID: "u2", Email: "bruno@example.com", Name: "Bruno", Role: entities.RoleUser, IsActive: true}))

	require.NoError(t, r.topics.Put(ctx, &entities.Topic{ID: "T", Slug: "t", DefaultTitle: "T", IsPublished: true}))
	require.NoError(t, r.levels.Put(ctx, &entities.Level{ID: "l1", TopicID: "T", Slug: "l1", Position: intPtr(1), Difficulty: 1}))
	require.NoError(t, r.levels.Put(ctx, &entities.Level{ID: "l2", TopicID: "T", Slug: "l2", Position: intPtr(2), Difficulty: 2}))

	saveBest(t, r, "u1", "e1", "l1", 10)
	saveBest(t, r, "u1", "e2", "l2", 20)
	saveBest(t, r, "u2", "e1", "l1", 15)
}

func saveBest(t *testing.T, r *repos, userID, exerciseID, levelID string, best float64) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, r.progress.Save(context.Background(), &entities.ProgressRecord{
		UserID:        userID,
		ExerciseID:    exerciseID,
		LevelID:       levelID,
		Status:        entities.StatusCompleted,
		Attempts:      1,
		Score:         scorePtr(best),
		BestScore:     scorePtr(best),
		CreatedAt:     now,
		UpdatedAt:     now,
		LastAttemptAt: now,
	}))
}

func newLeaderboard(r *repos) *LeaderboardService {
	return NewLeaderboardService(r.progress, r.levels, r.users, nil, 0, nil, nil, zap.NewNop())
}

func TestLeaderboard_TopicAndLevelScopes(t *testing.T) {
	r := newRepos(t)
	seedBoard(t, r)
	svc := newLeaderboard(r)
	ctx := context.Background()

	topic, err := svc.Leaderboard(ctx, valueobjects.TopicScope("T"), DefaultLeaderboardLimit)
	require.NoError(t, err)
	assert.Equal(t, []entities.LeaderboardEntry{
		{UserID: "u1", Username: "Ana", Score: 30, Rank: 1},
		{UserID: "u2", Username: "Bruno", Score: 15, Rank: 2},
	}, topic)

	level, err := svc.Leaderboard(ctx, valueobjects.LevelScope("l1"), DefaultLeaderboardLimit)
	require.NoError(t, err)
	assert.Equal(t, []entities.LeaderboardEntry{
		{UserID: "u2", Username: "Bruno", Score: 15, Rank: 1},
		{UserID: "u1", Username: "Ana", Score: 10, Rank: 2},
	}, level)

	global, err := svc.Leaderboard(ctx, valueobjects.GlobalScope(), DefaultLeaderboardLimit)
	require.NoError(t, err)
	assert.Equal(t, []entities.LeaderboardEntry{
		{UserID: "u1", Username: "Ana", Score: 30, Rank: 1},
		{UserID: "u2", Username: "Bruno", Score: 15, Rank: 2},
	}, global)

	top, err := svc.Leaderboard(ctx, valueobjects.GlobalScope(), 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, global[0], top[0])
}

func TestLeaderboard_TiesKeepFirstAppearanceOrder(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	for _, u := range []struct{ id, name string }{{"u1", "Zoe"}, {"u2", "Adam"}, {"u3", "Mia"}} {
		require.NoError(t, r.users.Create(ctx, &entities.User{ID: u.id, Email: u.id + "@example.com", Name: u.name, Role: entities.RoleUser, IsActive: true}))
	}
	saveBest(t, r, "u1", "e1", "l1", 10)
	saveBest(t, r, "u1", "e2", "l1", 10)
	saveBest(t, r, "u2", "e1", "l1", 20)
	saveBest(t, r, "u3", "e1", "l1", 5)
	svc := newLeaderboard(r)

	want := []entities.LeaderboardEntry{
		{UserID: "u1", Username: "Zoe", Score: 20, Rank: 1},
		{UserID: "u2", Username: "Adam", Score: 20, Rank: 2},
		{UserID: "u3", Username: "Mia", Score: 5, Rank: 3},
	}
	for _, scope := range []valueobjects.Scope{valueobjects.LevelScope("l1"), valueobjects.GlobalScope()} {
		board, err := svc.Leaderboard(ctx, scope, DefaultLeaderboardLimit)
		require.NoError(t, err)
		assert.Equal(t, want, board, scope.String())
	}

	res, err := svc.Rank(ctx, "u2", valueobjects.LevelScope("l1"))
	require.NoError(t, err)
	require.NotNil(t, res.Rank)
	assert.Equal(t, 2, *res.Rank)
}

func TestLeaderboard_ZeroScope(t *testing.T) {
	svc := newLeaderboard(newRepos(t))

	_, err := svc.Leaderboard(context.Background(), valueobjects.Scope{}, 10)
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.Rank(context.Background(), "u1", valueobjects.Scope{})
	assert.True(t, apperrors.IsValidation(err))
}

func TestLeaderboard_EmptyScopes(t *testing.T) {
	r := newRepos(t)
	svc := newLeaderboard(r)
	ctx := context.Background()

	board, err := svc.Leaderboard(ctx, valueobjects.TopicScope("missing"), 10)
	require.NoError(t, err)
	assert.Empty(t, board)

	board, err = svc.Leaderboard(ctx, valueobjects.GlobalScope(), 10)
	require.NoError(t, err)
	assert.Empty(t, board)
}

func TestLeaderboard_InvalidLimit(t *testing.T) {
	svc := newLeaderboard(newRepos(t))

	for _, limit := range []int{0, -1, MaxLeaderboardLimit + 1} {
		_, err := svc.Leaderboard(context.Background(), valueobjects.GlobalScope(), limit)
		require.True(t, apperrors.IsValidation(err), "limit %d", limit)
		assert.Equal(t, map[string]interface{}{"min": 1, "max": MaxLeaderboardLimit}, apperrors.GetAppError(err).Details)
	}
}

func TestLeaderboard_UnknownUser(t *testing.T) {
	r := newRepos(t)
	saveBest(t, r, "ghost", "e1", "l1", 5)
	svc := newLeaderboard(r)

	board, err := svc.Leaderboard(context.Background(), valueobjects.LevelScope("l1"), 10)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, entities.UnknownUsername, board[0].Username)
	assert.Equal(t, 5.0, board[0].Score)
}

func TestLeaderboard_ScanFailureAbortsBoard(t *testing.T) {
	r := newRepos(t)
	seedBoard(t, r)
	boom := errors.New("page read failed")
	svc := NewLeaderboardService(&failingProgress{err: boom}, r.levels, r.users, nil, 0, nil, nil, zap.NewNop())

	board, err := svc.Leaderboard(context.Background(), valueobjects.TopicScope("T"), 10)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, board)

	_, err = svc.Leaderboard(context.Background(), valueobjects.GlobalScope(), 10)
	assert.ErrorIs(t, err, boom)
}

func TestRank(t *testing.T) {
	r := newRepos(t)
	seedBoard(t, r)
	svc := newLeaderboard(r)
	ctx := context.Background()

	// Act
	res, err := svc.Rank(ctx, "u1", valueobjects.LevelScope("l1"))

	// Assert
	require.NoError(t, err)
	require.NotNil(t, res.Rank)
	assert.Equal(t, 2, *res.Rank)
	assert.Equal(t, 10.0, res.Score)
	assert.Equal(t, 2, res.TotalUsers)
	assert.Equal(t, "level:l1", res.Scope)
	assert.Empty(t, res.Message)
}

func TestRank_UserWithoutProgress(t *testing.T) {
	r := newRepos(t)
	seedBoard(t, r)
	svc := newLeaderboard(r)

	res, err := svc.Rank(context.Background(), "u9", valueobjects.TopicScope("T"))

	require.NoError(t, err)
	assert.Nil(t, res.Rank)
	assert.Zero(t, res.Score)
	assert.Equal(t, 2, res.TotalUsers)
	assert.Equal(t, "User has no progress in this scope", res.Message)
}

func TestLeaderboard_CacheGeneration(t *testing.T) {
	r := newRepos(t)
	seedBoard(t, r)
	cache := newMemoryCache()
	svc := NewLeaderboardService(r.progress, r.levels, r.users, cache, time.Minute, nil, nil, zap.NewNop())
	ctx := context.Background()
	scope := valueobjects.LevelScope("l1")

	first, err := svc.Leaderboard(ctx, scope, 10)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 1, cache.sets)

	// A write that bypasses invalidation is not visible until the
	// generation advances.
	saveBest(t, r, "u3", "e1", "l1", 50)
	stale, err := svc.Leaderboard(ctx, scope, 10)
	require.NoError(t, err)
	assert.Len(t, stale, 2)

	svc.Invalidate(ctx)
	fresh, err := svc.Leaderboard(ctx, scope, 10)
	require.NoError(t, err)
	require.Len(t, fresh, 3)
	assert.Equal(t, "u3", fresh[0].UserID)
	assert.Equal(t, 2, cache.sets)
}

func TestLeaderboard_UnreadableGenerationBypassesCache(t *testing.T) {
	r := newRepos(t)
	seedBoard(t, r)
	cache := newMemoryCache()
	cache.data[generationKey] = []byte("not-a-number")
	cache.data["leaderboard:0:level:l1"] = []byte(`[]`)
	core, logs := observer.New(zap.WarnLevel)
	svc := NewLeaderboardService(r.progress, r.levels, r.users, cache, time.Minute, nil, nil, zap.New(core))

	board, err := svc.Leaderboard(context.Background(), valueobjects.LevelScope("l1"), 10)

	require.NoError(t, err)
	assert.Len(t, board, 2, "generation-0 board must not be served")
	assert.Zero(t, cache.sets)
	assert.Equal(t, 1, logs.FilterMessage("Unreadable leaderboard generation, bypassing cache").Len())
}
