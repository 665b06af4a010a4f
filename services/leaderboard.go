package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"moodquest/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// leaderboard categories → sortable columns. Whitelist doubles as validation.
var leaderboardColumns = map[string]string{
	"points": "user_progresses.total_points",
	"streak": "user_progresses.streak",
	"cards":  "user_progresses.cards_generated",
	"shares": "user_progresses.cards_shared",
}

// LeaderboardConfig tunes result size, cache lifetime and the placeholder
// board shown on a fresh deployment. An empty Placeholder disables it.
type LeaderboardConfig struct {
	Limit       int
	CacheTTL    time.Duration
	Placeholder []models.LeaderboardEntry
}

var DefaultLeaderboardConfig = LeaderboardConfig{
	Limit:    50,
	CacheTTL: 30 * time.Second,
	Placeholder: []models.LeaderboardEntry{
		{ExternalUserID: "demo-aurora", Username: "Aurora", TotalPoints: 860, Streak: 12, CardsGenerated: 9, CardsShared: 4, Level: 2},
		{ExternalUserID: "demo-milo", Username: "Milo", TotalPoints: 540, Streak: 7, CardsGenerated: 6, CardsShared: 3, Level: 2},
		{ExternalUserID: "demo-sage", Username: "Sage", TotalPoints: 310, Streak: 4, CardsGenerated: 3, CardsShared: 1, Level: 1},
	},
}

// LeaderboardService is a read-only projection over the progress ledger.
// Cache is an explicitly injected handle; nil skips caching entirely.
type LeaderboardService struct {
	DB     *gorm.DB
	Cache  *redis.Client
	Config LeaderboardConfig
}

func NewLeaderboardService(db *gorm.DB, cache *redis.Client, cfg LeaderboardConfig) *LeaderboardService {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLeaderboardConfig.Limit
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultLeaderboardConfig.CacheTTL
	}
	return &LeaderboardService{DB: db, Cache: cache, Config: cfg}
}

// Query returns the ranked board for a category and timeframe. Sort is
// descending on the selected metric with external_user_id as the stable
// tie-break; rank is assigned by output position (1-based).
func (s *LeaderboardService) Query(ctx context.Context, category, timeframe string) (*models.LeaderboardResponse, error) {
	column, ok := leaderboardColumns[category]
	if !ok {
		category = "points"
		column = leaderboardColumns[category]
	}
	switch timeframe {
	case "week", "month", "all":
	default:
		timeframe = "all"
	}

	cacheKey := fmt.Sprintf("leaderboard:%s:%s", category, timeframe)
	if cached := s.cacheGet(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	q := s.DB.Model(&models.UserProgress{}).
		Select("user_progresses.external_user_id, user_progresses.total_points, user_progresses.streak, "+
			"user_progresses.cards_generated, user_progresses.cards_shared, user_progresses.level, "+
			"profile_users.username, profile_users.avatar_url").
		Joins("LEFT JOIN profile_users ON profile_users.external_user_id = user_progresses.external_user_id AND profile_users.deleted_at IS NULL")

	switch timeframe {
	case "week":
		q = q.Where("user_progresses.last_activity >= ?", time.Now().AddDate(0, 0, -7))
	case "month":
		q = q.Where("user_progresses.last_activity >= ?", time.Now().AddDate(0, -1, 0))
	}

	var entries []models.LeaderboardEntry
	if err := q.Order(column + " DESC").
		Order("user_progresses.external_user_id ASC").
		Limit(s.Config.Limit).
		Scan(&entries).Error; err != nil {
		return nil, err
	}

	if len(entries) == 0 && len(s.Config.Placeholder) > 0 {
		entries = append(entries, s.Config.Placeholder...)
	}

	for i := range entries {
		entries[i].Rank = i + 1
		if entries[i].Username == "" {
			// no profile mirror row yet
			entries[i].Username = "Explorer " + shortID(entries[i].ExternalUserID)
		}
	}

	resp := &models.LeaderboardResponse{
		Category:    category,
		Timeframe:   timeframe,
		Leaderboard: entries,
		TotalUsers:  len(entries),
	}
	s.cacheSet(ctx, cacheKey, resp)
	return resp, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (s *LeaderboardService) cacheGet(ctx context.Context, key string) *models.LeaderboardResponse {
	if s.Cache == nil {
		return nil
	}
	raw, err := s.Cache.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("⚠️ Leaderboard cache read failed: %v", err)
		}
		return nil
	}
	var resp models.LeaderboardResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil
	}
	return &resp
}

func (s *LeaderboardService) cacheSet(ctx context.Context, key string, resp *models.LeaderboardResponse) {
	if s.Cache == nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.Cache.Set(ctx, key, raw, s.Config.CacheTTL).Err(); err != nil {
		log.Printf("⚠️ Leaderboard cache write failed: %v", err)
	}
}
