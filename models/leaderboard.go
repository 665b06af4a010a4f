package models

// LeaderboardEntry represents one user's position on the leaderboard
type LeaderboardEntry struct {
	Rank           int     `json:"rank"`
	ExternalUserID string  `json:"external_user_id"`
	Username       string  `json:"username"`
	AvatarURL      *string `json:"avatar_url,omitempty"`
	TotalPoints    int64   `json:"total_points"`
	Streak         int     `json:"streak"`
	CardsGenerated int64   `json:"cards_generated"`
	CardsShared    int64   `json:"cards_shared"`
	Level          int     `json:"level"`
}

// LeaderboardResponse is the API response for the leaderboard endpoint
type LeaderboardResponse struct {
	Category    string             `json:"category"`
	Timeframe   string             `json:"timeframe"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	TotalUsers  int                `json:"total_users"`
}
