package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"learnboard/application/services"
	"learnboard/domain/core/valueobjects"
	"learnboard/pkg/common"
	apperrors "learnboard/pkg/errors"
)

// LeaderboardHandler serves the public leaderboards.
type LeaderboardHandler struct {
	boards *services.LeaderboardService
	errors *apperrors.ErrorHandler
	logger *zap.Logger
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(svc *services.LeaderboardService, errs *apperrors.ErrorHandler, logger *zap.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{boards: svc, errors: errs, logger: logger}
}

// Global handles GET /leaderboards/global
func (h *LeaderboardHandler) Global(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, valueobjects.GlobalScope())
}

// Topic handles GET /leaderboards/topic/{topicID}
func (h *LeaderboardHandler) Topic(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, valueobjects.TopicScope(chi.URLParam(r, "topicID")))
}

// Level handles GET /leaderboards/level/{levelID}
func (h *LeaderboardHandler) Level(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, valueobjects.LevelScope(chi.URLParam(r, "levelID")))
}

func (h *LeaderboardHandler) serve(w http.ResponseWriter, r *http.Request, scope valueobjects.Scope) {
	limit, err := common.QueryInt(r, "limit", services.DefaultLeaderboardLimit)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	board, err := h.boards.Leaderboard(r.Context(), scope, limit)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, board)
}

// UserRank handles GET /leaderboards/user/{userID}/rank?scope=
func (h *LeaderboardHandler) UserRank(w http.ResponseWriter, r *http.Request) {
	scope, err := valueobjects.ParseScope(r.URL.Query().Get("scope"))
	if err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError("scope must be global, topic:<id> or level:<id>"))
		return
	}

	rank, err := h.boards.Rank(r.Context(), chi.URLParam(r, "userID"), scope)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, rank)
}
