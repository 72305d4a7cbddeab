package entities

// UnknownUsername is shown for progress whose user record is gone.
const UnknownUsername = "Unknown User"

// LeaderboardEntry is one ranked row of a scoped leaderboard.
type LeaderboardEntry struct {
	UserID   string  `json:"user_id"`
	Username string  `json:"username"`
	Score    float64 `json:"score"`
	Rank     int     `json:"rank"`
}

// RankResult is a single user's position within a scope. Rank is nil when
// the user has no progress in the scope.
type RankResult struct {
	UserID     string  `json:"user_id"`
	Scope      string  `json:"scope"`
	Rank       *int    `json:"rank"`
	Score      float64 `json:"score"`
	TotalUsers int     `json:"total_users"`
	Message    string  `json:"message,omitempty"`
}
