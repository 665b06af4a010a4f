package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"moodquest/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// LedgerConfig holds the tunable point awards (tunable via config/env later).
// The observed product values are the defaults; nothing reads constants directly.
type LedgerConfig struct {
	DailyCheckInPoints   int64 `default:"10"`
	CardGenerationPoints int64 `default:"25"`
	CardSharePoints      int64 `default:"15"`
	PointsPerLevel       int64 `default:"500"` // level = total_points / PointsPerLevel + 1
}

var DefaultLedgerConfig = LedgerConfig{
	DailyCheckInPoints:   10,
	CardGenerationPoints: 25,
	CardSharePoints:      15,
	PointsPerLevel:       500,
}

// streakTransition classifies a daily check-in against the previous
// qualifying activity: same calendar day, the consecutive day, or a gap.
type streakTransition int

const (
	streakSameDay streakTransition = iota
	streakConsecutive
	streakGap
)

// classifyCheckIn compares lastActivity's calendar date against now's.
// A nil lastActivity (brand-new user) counts as a gap.
func classifyCheckIn(lastActivity *time.Time, now time.Time) streakTransition {
	if lastActivity == nil {
		return streakGap
	}
	last := dateOf(lastActivity.In(now.Location()))
	today := dateOf(now)
	switch {
	case last.Equal(today):
		return streakSameDay
	case last.Equal(today.AddDate(0, 0, -1)):
		return streakConsecutive
	default:
		return streakGap
	}
}

func nextStreak(current int, t streakTransition) int {
	switch t {
	case streakSameDay:
		return current
	case streakConsecutive:
		return current + 1
	default:
		return 1
	}
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

type LedgerService struct {
	DB     *gorm.DB
	Config LedgerConfig
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db, Config: DefaultLedgerConfig}
}

// NewLedgerServiceWithConfig validates the tuning numbers once at construction.
func NewLedgerServiceWithConfig(db *gorm.DB, cfg LedgerConfig) (*LedgerService, error) {
	if cfg.DailyCheckInPoints <= 0 || cfg.CardGenerationPoints <= 0 ||
		cfg.CardSharePoints <= 0 || cfg.PointsPerLevel <= 0 {
		return nil, fmt.Errorf("%w: ledger point awards must all be positive", ErrInvalidArgument)
	}
	return &LedgerService{DB: db, Config: cfg}, nil
}

// EnsureProgressRecord ensures a UserProgress row exists (idempotent)
func (s *LedgerService) EnsureProgressRecord(externalUserID string) (*models.UserProgress, error) {
	if externalUserID == "" {
		return nil, fmt.Errorf("%w: external user id is required", ErrInvalidArgument)
	}
	var prog models.UserProgress
	err := s.DB.Where("external_user_id = ?", externalUserID).First(&prog).Error
	if err == gorm.ErrRecordNotFound {
		prog = models.UserProgress{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			Level:          1,
		}
		if err := s.DB.Create(&prog).Error; err != nil {
			return nil, err
		}
		return &prog, nil
	}
	if err != nil {
		return nil, err
	}
	return &prog, nil
}

// GetProgress returns the current snapshot for a user.
func (s *LedgerService) GetProgress(externalUserID string) (*models.UserProgress, error) {
	return s.getProgress(s.DB, externalUserID)
}

func (s *LedgerService) getProgress(tx *gorm.DB, externalUserID string) (*models.UserProgress, error) {
	var prog models.UserProgress
	err := tx.Where("external_user_id = ?", externalUserID).First(&prog).Error
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("progress record for %s: %w", externalUserID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &prog, nil
}

// levelExpr recomputes the derived level in the same UPDATE that adds points.
// Column references on the right-hand side see pre-update values, so the
// added points are folded in explicitly.
func (s *LedgerService) levelExpr(pointsAdded int64) interface{} {
	return gorm.Expr("(total_points + ?) / ? + 1", pointsAdded, s.Config.PointsPerLevel)
}

// touchActivity bumps last_activity for a user; reports ErrNotFound when the
// progress row does not exist.
func touchActivity(tx *gorm.DB, externalUserID string, at time.Time) error {
	res := tx.Model(&models.UserProgress{}).
		Where("external_user_id = ?", externalUserID).
		Update("last_activity", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("progress record for %s: %w", externalUserID, ErrNotFound)
	}
	return nil
}

// RecordMoodAnalysis appends to the user's mood history. No point change.
func (s *LedgerService) RecordMoodAnalysis(externalUserID, mood string, confidence float64, recordedAt time.Time) (*models.UserProgress, error) {
	if externalUserID == "" || strings.TrimSpace(mood) == "" {
		return nil, fmt.Errorf("%w: user id and mood are required", ErrInvalidArgument)
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := touchActivity(tx, externalUserID, recordedAt); err != nil {
			return err
		}
		entry := models.MoodEntry{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			Mood:           strings.ToLower(strings.TrimSpace(mood)),
			Confidence:     confidence,
			RecordedAt:     recordedAt,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetProgress(externalUserID)
}

// RecordChoice appends one picked adventure option. No point change.
func (s *LedgerService) RecordChoice(externalUserID, choice, capsuleID string, chosenAt time.Time) (*models.UserProgress, error) {
	if externalUserID == "" || strings.TrimSpace(choice) == "" || capsuleID == "" {
		return nil, fmt.Errorf("%w: user id, choice and capsule id are required", ErrInvalidArgument)
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := touchActivity(tx, externalUserID, chosenAt); err != nil {
			return err
		}
		entry := models.ChoiceEntry{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			Choice:         choice,
			CapsuleID:      capsuleID,
			ChosenAt:       chosenAt,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetProgress(externalUserID)
}

// RecordCompletion awards the points earned by finishing an adventure and
// bumps the completion counter, in a single atomic update.
func (s *LedgerService) RecordCompletion(externalUserID, capsuleID string, pointsEarned int64, completedAt time.Time) (*models.UserProgress, error) {
	if externalUserID == "" || capsuleID == "" {
		return nil, fmt.Errorf("%w: user id and capsule id are required", ErrInvalidArgument)
	}
	if pointsEarned <= 0 {
		return nil, fmt.Errorf("%w: points earned must be positive", ErrInvalidArgument)
	}
	res := s.DB.Model(&models.UserProgress{}).
		Where("external_user_id = ?", externalUserID).
		Updates(map[string]interface{}{
			"total_points":         gorm.Expr("total_points + ?", pointsEarned),
			"level":                s.levelExpr(pointsEarned),
			"adventures_completed": gorm.Expr("adventures_completed + 1"),
			"last_activity":        completedAt,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("progress record for %s: %w", externalUserID, ErrNotFound)
	}
	prog, err := s.GetProgress(externalUserID)
	if err != nil {
		return nil, err
	}
	log.Printf("🏁 Adventure completed: %s → +%d pts (capsule %s), total=%d",
		externalUserID, pointsEarned, capsuleID, prog.TotalPoints)
	return prog, nil
}

// RecordCardGeneration persists the card metadata, bumps the generation
// counter and awards the fixed card bonus.
func (s *LedgerService) RecordCardGeneration(externalUserID string, card *models.VibeCard, generatedAt time.Time) (*models.UserProgress, *models.VibeCard, error) {
	if externalUserID == "" || card == nil || strings.TrimSpace(card.Title) == "" {
		return nil, nil, fmt.Errorf("%w: user id and card title are required", ErrInvalidArgument)
	}
	card.ID = uuid.NewString()
	card.ExternalUserID = externalUserID
	card.Slug = slug.Make(fmt.Sprintf("%s %s", card.Title, card.ID[:8]))
	if card.Theme == "" {
		card.Theme = models.CardThemeDefault
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.UserProgress{}).
			Where("external_user_id = ?", externalUserID).
			Updates(map[string]interface{}{
				"total_points":    gorm.Expr("total_points + ?", s.Config.CardGenerationPoints),
				"level":           s.levelExpr(s.Config.CardGenerationPoints),
				"cards_generated": gorm.Expr("cards_generated + 1"),
				"last_activity":   generatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("progress record for %s: %w", externalUserID, ErrNotFound)
		}
		return tx.Create(card).Error
	})
	if err != nil {
		return nil, nil, err
	}
	prog, err := s.GetProgress(externalUserID)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("🎴 Vibe card generated: %s → %q (slug=%s)", externalUserID, card.Title, card.Slug)
	return prog, card, nil
}

// RecordCardShare bumps the share counter and awards the fixed share bonus.
// cardID is optional; when given, the card row is marked shared in the same
// transaction so a missing card leaves no partial mutation.
func (s *LedgerService) RecordCardShare(externalUserID, cardID string) (*models.UserProgress, error) {
	if externalUserID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidArgument)
	}
	now := time.Now()
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if cardID != "" {
			res := tx.Model(&models.VibeCard{}).
				Where("id = ? AND external_user_id = ?", cardID, externalUserID).
				Updates(map[string]interface{}{"shared": true, "shared_at": now})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("vibe card %s: %w", cardID, ErrNotFound)
			}
		}
		res := tx.Model(&models.UserProgress{}).
			Where("external_user_id = ?", externalUserID).
			Updates(map[string]interface{}{
				"total_points":  gorm.Expr("total_points + ?", s.Config.CardSharePoints),
				"level":         s.levelExpr(s.Config.CardSharePoints),
				"cards_shared":  gorm.Expr("cards_shared + 1"),
				"last_activity": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("progress record for %s: %w", externalUserID, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetProgress(externalUserID)
}

// AwardPoints adds points outside the daily check-in path. The streak is not
// consulted and not changed.
func (s *LedgerService) AwardPoints(externalUserID string, points int64, at time.Time) (*models.UserProgress, error) {
	if externalUserID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidArgument)
	}
	if points <= 0 {
		return nil, fmt.Errorf("%w: points must be positive", ErrInvalidArgument)
	}
	res := s.DB.Model(&models.UserProgress{}).
		Where("external_user_id = ?", externalUserID).
		Updates(map[string]interface{}{
			"total_points":  gorm.Expr("total_points + ?", points),
			"level":         s.levelExpr(points),
			"last_activity": at,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("progress record for %s: %w", externalUserID, ErrNotFound)
	}
	return s.GetProgress(externalUserID)
}

// RecordDailyCheckIn awards the check-in points and runs the streak machine.
// Points are re-awarded on every call, including a second check-in on the
// same calendar day; only the streak is idempotent per day. The streak write
// is guarded on the last_activity value read inside the transaction, so two
// racing check-ins cannot double-advance a streak — the loser of the race
// still gets its points through a plain atomic increment.
func (s *LedgerService) RecordDailyCheckIn(externalUserID string, points int64, now time.Time) (*models.UserProgress, int64, error) {
	if externalUserID == "" {
		return nil, 0, fmt.Errorf("%w: user id is required", ErrInvalidArgument)
	}
	if points <= 0 {
		points = s.Config.DailyCheckInPoints
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		prog, err := s.getProgress(tx, externalUserID)
		if err != nil {
			return err
		}

		transition := classifyCheckIn(prog.LastActivity, now)
		newStreak := nextStreak(prog.Streak, transition)
		newBest := prog.BestStreak
		if newStreak > newBest {
			newBest = newStreak
		}

		guard := tx.Model(&models.UserProgress{}).Where("external_user_id = ?", externalUserID)
		if prog.LastActivity == nil {
			guard = guard.Where("last_activity IS NULL")
		} else {
			guard = guard.Where("last_activity = ?", *prog.LastActivity)
		}
		res := guard.Updates(map[string]interface{}{
			"total_points":  gorm.Expr("total_points + ?", points),
			"level":         s.levelExpr(points),
			"streak":        newStreak,
			"best_streak":   newBest,
			"last_activity": now,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}

		// A concurrent check-in settled the streak first; this call still
		// owes its points.
		res = tx.Model(&models.UserProgress{}).
			Where("external_user_id = ?", externalUserID).
			Updates(map[string]interface{}{
				"total_points":  gorm.Expr("total_points + ?", points),
				"level":         s.levelExpr(points),
				"last_activity": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("progress record for %s: %w", externalUserID, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	prog, err := s.GetProgress(externalUserID)
	if err != nil {
		return nil, 0, err
	}
	log.Printf("🔥 Daily check-in: %s → +%d pts, streak=%d (best=%d)",
		externalUserID, points, prog.Streak, prog.BestStreak)
	return prog, points, nil
}

// GetRecentMoods returns mood entries in the last N days
func (s *LedgerService) GetRecentMoods(externalUserID string, days int) ([]models.MoodEntry, error) {
	var moods []models.MoodEntry
	since := time.Now().AddDate(0, 0, -days)
	err := s.DB.Where("external_user_id = ? AND recorded_at >= ?", externalUserID, since).
		Order("recorded_at DESC").
		Find(&moods).Error
	return moods, err
}

// GetUserHistory returns paginated history (moods + choices + cards)
func (s *LedgerService) GetUserHistory(externalUserID string, page, size int) (map[string]interface{}, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	var totalMoods, totalChoices, totalCards int64
	s.DB.Model(&models.MoodEntry{}).Where("external_user_id = ?", externalUserID).Count(&totalMoods)
	s.DB.Model(&models.ChoiceEntry{}).Where("external_user_id = ?", externalUserID).Count(&totalChoices)
	s.DB.Model(&models.VibeCard{}).Where("external_user_id = ?", externalUserID).Count(&totalCards)

	var moods []models.MoodEntry
	s.DB.Where("external_user_id = ?", externalUserID).
		Order("recorded_at DESC").
		Limit(size).Offset(offset).
		Find(&moods)

	var choices []models.ChoiceEntry
	s.DB.Where("external_user_id = ?", externalUserID).
		Order("chosen_at DESC").
		Limit(size).Offset(offset).
		Find(&choices)

	var cards []models.VibeCard
	s.DB.Where("external_user_id = ?", externalUserID).
		Order("created_at DESC").
		Limit(size).Offset(offset).
		Find(&cards)

	totalItems := totalMoods + totalChoices + totalCards
	totalPages := int((totalItems + int64(size) - 1) / int64(size))

	return map[string]interface{}{
		"moods":         moods,
		"choices":       choices,
		"cards":         cards,
		"page":          page,
		"size":          size,
		"total_items":   totalItems,
		"total_pages":   totalPages,
		"total_moods":   totalMoods,
		"total_choices": totalChoices,
		"total_cards":   totalCards,
	}, nil
}

// GetCardBySlug fetches shared card metadata for share links.
func (s *LedgerService) GetCardBySlug(cardSlug string) (*models.VibeCard, error) {
	var card models.VibeCard
	err := s.DB.Where("slug = ?", cardSlug).First(&card).Error
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("vibe card %s: %w", cardSlug, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}
