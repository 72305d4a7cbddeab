package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"learnboard/application/services"
	"learnboard/domain/core/entities"
	"learnboard/infrastructure/cache"
	"learnboard/infrastructure/config"
	"learnboard/infrastructure/persistence/badgerstore"
	"learnboard/infrastructure/persistence/store"
	"learnboard/pkg/auth"
	"learnboard/pkg/observability"
)

type testServer struct {
	handler http.Handler
	users   *store.UserRepository
}

func newTestServer(t *testing.T, rpm int) *testServer {
	t.Helper()
	logger := zap.NewNop()

	tbl, err := badgerstore.Open(badgerstore.Options{InMemory: true}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tbl.Close() })

	tr := store.NewTranslationResolver(tbl, logger)
	users := store.NewUserRepository(tbl, logger)
	topics := store.NewTopicRepository(tbl, tr, logger)
	levels := store.NewLevelRepository(tbl, tr, logger)
	exercises := store.NewExerciseRepository(tbl, tr, logger)
	progress := store.NewProgressRepository(tbl, logger)
	languages := store.NewLanguageRepository(tbl, logger)

	authenticator, err := auth.NewAuthenticator("test-secret", "learnboard", 30*time.Minute)
	require.NoError(t, err)

	boardCache := cache.NewInMemoryCache()
	t.Cleanup(func() { _ = boardCache.Close() })
	limiter := auth.NewIPRateLimiter(rpm)
	t.Cleanup(limiter.Close)

	metrics := observability.NewCollector("learnboard_test")
	boards := services.NewLeaderboardService(progress, levels, users, boardCache, time.Minute,
		metrics, observability.NewTracer("learnboard", false), logger)

	cfg := config.Default()
	cfg.RateLimitRPM = rpm

	rt := NewRouter(cfg, Services{
		Auth:         services.NewAuthService(users, authenticator, auth.NewPasswordHasher(4), logger),
		Content:      services.NewContentService(topics, levels, exercises, tr, languages, logger),
		Progress:     services.NewProgressService(progress, nil, boards, metrics, logger),
		Leaderboards: boards,
	}, authenticator, limiter, tbl, metrics, logger)

	return &testServer{handler: rt.Setup(), users: users}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func (s *testServer) register(t *testing.T, email, name string) string {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": email, "password": "password123", "name": name,
	})
	require.Equal(t, http.StatusCreated, status, env.Error.Message)

	var res services.AuthResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	return res.AccessToken
}

func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": email, "password": "password123",
	})
	require.Equal(t, http.StatusOK, status, env.Error.Message)

	var res services.AuthResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	return res.AccessToken
}

// admin registers an account and promotes it directly in the store.
func (s *testServer) admin(t *testing.T) string {
	t.Helper()
	s.register(t, "admin@example.com", "Admin")
	u, err := s.users.GetByEmail(context.Background(), "admin@example.com")
	require.NoError(t, err)
	u.Role = entities.RoleAdmin
	require.NoError(t, s.users.Update(context.Background(), u))
	return s.login(t, "admin@example.com")
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t, 100)

	status, _ := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t, 100)
	token := s.register(t, "Ana@Example.com", "Ana")

	status, env := s.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	me := decode[entities.User](t, env.Data)
	assert.Equal(t, "ana@example.com", me.Email)
	assert.Equal(t, entities.RoleUser, me.Role)

	status, _ = s.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodGet, "/api/v1/auth/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "ana@example.com", "password": "password123", "name": "Again",
	})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = s.do(t, http.MethodGet, "/api/v1/auth/users", token, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestRoleManagement(t *testing.T) {
	s := newTestServer(t, 100)
	admin := s.admin(t)
	s.register(t, "bruno@example.com", "Bruno")

	status, env := s.do(t, http.MethodGet, "/api/v1/auth/users", admin, nil)
	require.Equal(t, http.StatusOK, status)
	list := decode[struct {
		Total int              `json:"total"`
		Users []*entities.User `json:"users"`
	}](t, env.Data)
	assert.Equal(t, 2, list.Total)

	bruno, err := s.users.GetByEmail(context.Background(), "bruno@example.com")
	require.NoError(t, err)

	status, _ = s.do(t, http.MethodPatch, "/api/v1/auth/users/"+bruno.ID+"/role?role=owner", admin, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodPatch, "/api/v1/auth/users/missing/role?role=admin", admin, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = s.do(t, http.MethodPatch, "/api/v1/auth/users/"+bruno.ID+"/role?role=admin", admin, nil)
	require.Equal(t, http.StatusOK, status)
	updated := decode[struct {
		User *entities.User `json:"user"`
	}](t, env.Data)
	assert.Equal(t, entities.RoleAdmin, updated.User.Role)

	self, err := s.users.GetByEmail(context.Background(), "admin@example.com")
	require.NoError(t, err)
	status, env = s.do(t, http.MethodPatch, "/api/v1/auth/users/"+self.ID+"/role?role=user", admin, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Cannot demote yourself from admin role", env.Error.Message)
}

func TestContentProgressAndLeaderboard(t *testing.T) {
	s := newTestServer(t, 100)
	admin := s.admin(t)
	learner := s.register(t, "ana@example.com", "Ana")

	// Content writes are admin-only.
	status, _ := s.do(t, http.MethodPost, "/api/v1/topics", learner, map[string]interface{}{
		"slug": "alphabet", "default_title": "Alphabet",
	})
	require.Equal(t, http.StatusForbidden, status)

	status, env := s.do(t, http.MethodPost, "/api/v1/topics", admin, map[string]interface{}{
		"slug": "alphabet", "default_title": "Alphabet", "order": 1, "is_published": true,
		"translations": map[string]interface{}{"es": map[string]string{"title": "Alfabeto"}},
	})
	require.Equal(t, http.StatusCreated, status, env.Error.Message)
	topic := decode[entities.Topic](t, env.Data)

	status, env = s.do(t, http.MethodGet, "/api/v1/topics/"+topic.ID+"?language=es", "", nil)
	require.Equal(t, http.StatusOK, status)
	got := decode[entities.Topic](t, env.Data)
	require.NotNil(t, got.Translation)
	assert.Equal(t, "Alfabeto", got.Translation.Title)

	status, env = s.do(t, http.MethodPost, "/api/v1/levels", admin, map[string]interface{}{
		"topic_id": topic.ID, "slug": "vowels", "position": 1, "difficulty": 1, "is_published": true,
	})
	require.Equal(t, http.StatusCreated, status, env.Error.Message)
	level := decode[entities.Level](t, env.Data)

	status, env = s.do(t, http.MethodGet, "/api/v1/levels/topic/"+topic.ID, "", nil)
	require.Equal(t, http.StatusOK, status)
	levels := decode[struct {
		Total int `json:"total"`
	}](t, env.Data)
	assert.Equal(t, 1, levels.Total)

	status, _ = s.do(t, http.MethodGet, "/api/v1/levels/"+level.ID, "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = s.do(t, http.MethodPost, "/api/v1/exercises", admin, map[string]interface{}{
		"level_id": level.ID, "exercise_type": "MCQ", "position": 1, "is_published": true,
	})
	require.Equal(t, http.StatusCreated, status, env.Error.Message)
	exercise := decode[entities.Exercise](t, env.Data)

	status, _ = s.do(t, http.MethodPost, "/api/v1/exercises", admin, map[string]interface{}{
		"level_id": level.ID, "exercise_type": "ESSAY", "position": 2,
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodPut, "/api/v1/exercises/"+exercise.ID+"/translations/es", admin, map[string]interface{}{
		"prompt_text": "Elige la vocal", "choice_texts": []string{"a", "b"},
	})
	assert.Equal(t, http.StatusOK, status)

	// Progress and leaderboards.
	status, _ = s.do(t, http.MethodPost, "/api/v1/progress/submit", "", map[string]interface{}{
		"exercise_id": exercise.ID, "level_id": level.ID, "status": "completed", "score": 80,
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	for _, score := range []float64{80, 60} {
		status, env = s.do(t, http.MethodPost, "/api/v1/progress/submit", learner, map[string]interface{}{
			"exercise_id": exercise.ID, "level_id": level.ID, "status": "completed", "score": score,
		})
		require.Equal(t, http.StatusOK, status, env.Error.Message)
	}
	rec := decode[entities.ProgressRecord](t, env.Data)
	assert.Equal(t, 2, rec.Attempts)
	assert.Equal(t, 80.0, *rec.BestScore)

	status, env = s.do(t, http.MethodGet, "/api/v1/progress/exercise/unknown", learner, nil)
	require.Equal(t, http.StatusOK, status)
	ep := decode[map[string]interface{}](t, env.Data)
	assert.Equal(t, "not_started", ep["status"])

	status, env = s.do(t, http.MethodGet, "/api/v1/progress/summary", learner, nil)
	require.Equal(t, http.StatusOK, status)
	summary := decode[entities.ProgressSummary](t, env.Data)
	assert.Equal(t, 1, summary.TotalCompleted)
	assert.Equal(t, 2, summary.TotalAttempts)

	for _, path := range []string{
		"/api/v1/leaderboards/global",
		"/api/v1/leaderboards/topic/" + topic.ID,
		"/api/v1/leaderboards/level/" + level.ID + "?limit=10",
	} {
		status, env = s.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, status, path)
		board := decode[[]entities.LeaderboardEntry](t, env.Data)
		require.Len(t, board, 1, path)
		assert.Equal(t, "Ana", board[0].Username)
		assert.Equal(t, 80.0, board[0].Score)
		assert.Equal(t, 1, board[0].Rank)
	}

	status, _ = s.do(t, http.MethodGet, "/api/v1/leaderboards/global?limit=101", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	anaUser, err := s.users.GetByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	status, env = s.do(t, http.MethodGet, "/api/v1/leaderboards/user/"+anaUser.ID+"/rank?scope=topic:"+topic.ID, "", nil)
	require.Equal(t, http.StatusOK, status)
	rank := decode[entities.RankResult](t, env.Data)
	require.NotNil(t, rank.Rank)
	assert.Equal(t, 1, *rank.Rank)
	assert.Equal(t, 1, rank.TotalUsers)

	status, _ = s.do(t, http.MethodGet, "/api/v1/leaderboards/user/"+anaUser.ID+"/rank?scope=galaxy:1", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodDelete, "/api/v1/topics/"+topic.ID, admin, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = s.do(t, http.MethodGet, "/api/v1/topics/"+topic.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestLanguages(t *testing.T) {
	s := newTestServer(t, 100)
	admin := s.admin(t)

	status, env := s.do(t, http.MethodPut, "/api/v1/languages/es", admin, map[string]interface{}{
		"name": "Spanish", "native_name": "Español",
	})
	require.Equal(t, http.StatusOK, status, env.Error.Message)
	lang := decode[entities.Language](t, env.Data)
	assert.True(t, lang.IsActive)

	status, env = s.do(t, http.MethodGet, "/api/v1/languages", "", nil)
	require.Equal(t, http.StatusOK, status)
	list := decode[struct {
		Total int `json:"total"`
	}](t, env.Data)
	assert.Equal(t, 1, list.Total)

	status, _ = s.do(t, http.MethodGet, "/api/v1/languages/fr", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAuthRateLimit(t *testing.T) {
	s := newTestServer(t, 2)
	body := map[string]string{"email": "x@example.com", "password": "password123"}

	for i := 0; i < 2; i++ {
		status, _ := s.do(t, http.MethodPost, "/api/v1/auth/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, status)
	}
	status, env := s.do(t, http.MethodPost, "/api/v1/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "TOO_MANY_REQUESTS", env.Error.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, 100)
	s.do(t, http.MethodGet, "/health", "", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "learnboard_test_http_requests_total")
}
