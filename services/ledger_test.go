package services

import (
	"fmt"
	"testing"
	"time"

	"moodquest/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.UserProgress{},
		&models.MoodEntry{},
		&models.ChoiceEntry{},
		&models.VibeCard{},
		&models.PushSubscription{},
		&models.ProfileUser{},
	))
	return db
}

var baseTime = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func TestClassifyCheckIn(t *testing.T) {
	yesterday := baseTime.AddDate(0, 0, -1)
	sameDayEarlier := baseTime.Add(-4 * time.Hour)
	threeDaysAgo := baseTime.AddDate(0, 0, -3)

	tests := []struct {
		name string
		last *time.Time
		want streakTransition
	}{
		{"no prior activity", nil, streakGap},
		{"same calendar day", &sameDayEarlier, streakSameDay},
		{"yesterday", &yesterday, streakConsecutive},
		{"three days ago", &threeDaysAgo, streakGap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyCheckIn(tt.last, baseTime))
		})
	}
}

func TestClassifyCheckInAcrossMonthBoundary(t *testing.T) {
	now := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	lastDayOfMarch := time.Date(2025, 3, 31, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, streakConsecutive, classifyCheckIn(&lastDayOfMarch, now))
}

func TestNextStreak(t *testing.T) {
	assert.Equal(t, 5, nextStreak(5, streakSameDay))
	assert.Equal(t, 6, nextStreak(5, streakConsecutive))
	assert.Equal(t, 1, nextStreak(5, streakGap))
	assert.Equal(t, 1, nextStreak(0, streakGap))
}

func TestEnsureProgressRecordIdempotent(t *testing.T) {
	svc := NewLedgerService(newTestDB(t))

	first, err := svc.EnsureProgressRecord("user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), first.TotalPoints)
	assert.Equal(t, 1, first.Level)

	second, err := svc.EnsureProgressRecord("user-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestRecordCompletion(t *testing.T) {
	svc := NewLedgerService(newTestDB(t))
	_, err := svc.EnsureProgressRecord("user-1")
	require.NoError(t, err)

	prog, err := svc.RecordCompletion("user-1", "capsule-1", 120, baseTime)
	require.NoError(t, err)
	assert.Equal(t, int64(120), prog.TotalPoints)
	assert.Equal(t, int64(1), prog.AdventuresCompleted)
	assert.Equal(t, 1, prog.Level)
	require.NotNil(t, prog.LastActivity)

	prog, err = svc.RecordCompletion("user-1", "capsule-2", 80, baseTime.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(200), prog.TotalPoints)
	assert.Equal(t, int64(2), prog.AdventuresCompleted)
}

func TestRecordCompletionValidation(t *testing.T) {
	svc := NewLedgerService(newTestDB(t))
	_, err := svc.EnsureProgressRecord("user-1")
	require.NoError(t, err)

	_, err = svc.RecordCompletion("user-1", "capsule-1", 0, baseTime)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.RecordCompletion("user-1", "", 50, baseTime)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.RecordCompletion("nobody", "capsule-1", 50, baseTime)
	assert.ErrorIs(t, err, ErrNotFound)

	// failed calls must leave no partial mutation
	prog, err := svc.GetProgress("user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), prog.TotalPoints)
	assert.Equal(t, int64(0), prog.AdventuresCompleted)
}

func TestLevelDerivation(t *testing.T) {
	svc := NewLedgerService(newTestDB(t))
	_, err := svc.EnsureProgressRecord("user-1")
	require.NoError(t, err)

	prog, err := svc.RecordCompletion("user-1", "capsule-1", 499, baseTime)
	require.NoError(t, err)
	assert.Equal(t, 1, prog.Level)

	prog, err = svc.RecordCompletion("user-1", "capsule-2", 1, baseTime)
	require.NoError(t, err)
	assert.Equal(t, int64(500), prog.TotalPoints)
	assert.Equal(t, 2, prog.Level)

	prog, err = svc.RecordCompletion("user-1", "capsule-3", 600, baseTime)
	require.NoError(t, err)
	assert.Equal(t, int64(1100), prog.TotalPoints)
	assert.Equal(t, 3, prog.Level)
}

// The concrete scenario: fresh user, three check-ins with a gap.
func TestRecordDailyCheckInScenario(t *testing.T) {
	svc := NewLedgerService(newTestDB(t))
	_, err := svc.EnsureProgressRecord("user-1")
	require.NoError(t, err)

	prog, added, err := svc.RecordDailyCheckIn("user-1", 10, baseTime)
	require.NoError(t, err)
	assert.Equal(t, int64(10), added)
	assert.Equal(t, int64(10), prog.TotalPoints)
	assert.Equal(t, 1, prog.Streak)
	assert.Equal(t, 1, prog.BestStreak)

	prog, _, err = svc.RecordDailyCheckIn("user-1", 10, baseTime.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(20), prog.TotalPoints)
	assert.Equal(t, 2, prog.Streak)
	assert.Equal(t, 2, prog.BestStreak)

	// skip three days: streak resets, best streak survives
	prog, _, err = svc.RecordDailyCheckIn("user-1", 10, baseTime.AddDate(0, 0, 5))
	require.NoError(t, err)
	assert.Equal(t, int64(30), prog.TotalPoints)
	assert.Equal(t, 1, prog.Streak)
	assert.Equal(t, 2, prog.BestStreak)
}

func TestRecordDailyCheckInSameDay(t *testing.T) {
	svc := NewLedgerService(newTestDB(t))
	_, err := svc.EnsureProgressRecord("user-1")
	require.NoError(t, err)

	prog, _, err := svc.RecordDailyCheckIn("user-1", 10, baseTime)
	require.NoError(t, err)
	assert.Equal(t, 1, prog.Streak)

	// second check-in the same day: points re-awarded, streak untouched
	prog, added, err := svc.RecordDailyCheckIn("user-1", 10, baseTime.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(10), added)
	assert.Equal(t, int64(20), prog.TotalPoints)
	assert.Equal(t, 1, prog.Streak)
	assert.Equal(t, 1, prog.BestStreak)
}

func TestRecordDailyCheckInDefaultPoints(t *testing.T) {
	svc := NewLedgerService(newTestDB(t))
	_, err := svc.EnsureProgressRecord("user-1")
	require.NoError(t, err)

	prog, added, err := svc.RecordDailyCheckIn("user-1", 0, baseTime)
	require.NoError(t, err)
	assert.Equal(t, svc.Config.DailyCheckInPoints, added)
	assert.Equal(t, svc.Config.DailyCheckInPoints, prog.TotalPoints)
}

func TestAwardPoints(t *testing.T) {
	svc := NewLedgerService(newTestDB(t))
	_, err := svc.EnsureProgressRecord("user-1")
	require.NoError(t, err)

	prog, err := svc.AwardPoints("user-1", 40, baseTime)
	require.NoError(t, err)
	assert.Equal(t, int64(40), prog.TotalPoints)
	assert.Equal(t, 0, prog.Streak, "plain awards never touch the streak")
	require.NotNil(t, prog.LastActivity)

	_, err = svc.AwardPoints("user-1", 0, baseTime)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.AwardPoints("nobody", 40, baseTime)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordDailyCheckInUnknownUser(t *testing.T) {
	svc := NewLedgerService(newTestDB(t))
	_, _, err := svc.RecordDailyCheckIn("nobody", 10, baseTime)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordMoodAnalysis(t *testing.T) {
	db := newTestDB(t)
	svc := NewLedgerService(db)
	_, err := svc.EnsureProgressRecord("user-1")
	require.NoError(t, err)

	prog, err := svc.RecordMoodAnalysis("user-1", "Happy", 0.9, baseTime)
	require.NoError(t, err)
	assert.Equal(t, int64(0), prog.TotalPoints, "mood analysis awards no points")
	require.NotNil(t, prog.LastActivity)

	var entries []models.MoodEntry
	require.NoError(t, db.Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, "happy", entries[0].Mood, "mood labels are normalized to lower case")

	// history is append-only: a second analysis adds a row
	_, err = svc.RecordMoodAnalysis("user-1", "happy", 0.9, baseTime.Add(time.Minute))
	require.NoError(t, err)
	require.NoError(t, db.Find(&entries).Error)
	assert.Len(t, entries, 2)
}

func TestRecordMoodAnalysisValidation(t *testing.T) {
	svc := NewLedgerService(newTestDB(t))
	_, err := svc.RecordMoodAnalysis("user-1", "", 0.5, baseTime)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.RecordMoodAnalysis("nobody", "happy", 0.5, baseTime)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordChoice(t *testing.T) {
	db := newTestDB(t)
	svc := NewLedgerService(db)
	_, err := svc.EnsureProgressRecord("user-1")
	require.NoError(t, err)

	prog, err := svc.RecordChoice("user-1", "Send a voice note to a friend", "capsule-1", baseTime)
	require.NoError(t, err)
	assert.Equal(t, int64(0), prog.TotalPoints)

	var entries []models.ChoiceEntry
	require.NoError(t, db.Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, "capsule-1", entries[0].CapsuleID)

	_, err = svc.RecordChoice("user-1", "pick", "", baseTime)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRecordCardGeneration(t *testing.T) {
	svc := NewLedgerService(newTestDB(t))
	_, err := svc.EnsureProgressRecord("user-1")
	require.NoError(t, err)

	card := &models.VibeCard{Title: "Sunset Vibes", Mood: "calm", CapsuleID: "capsule-1"}
	prog, saved, err := svc.RecordCardGeneration("user-1", card, baseTime)
	require.NoError(t, err)
	assert.Equal(t, svc.Config.CardGenerationPoints, prog.TotalPoints)
	assert.Equal(t, int64(1), prog.CardsGenerated)
	assert.NotEmpty(t, saved.ID)
	assert.Contains(t, saved.Slug, "sunset-vibes")
	assert.Equal(t, models.CardThemeDefault, saved.Theme)

	fetched, err := svc.GetCardBySlug(saved.Slug)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, fetched.ID)
}

func TestRecordCardShare(t *testing.T) {
	svc := NewLedgerService(newTestDB(t))
	_, err := svc.EnsureProgressRecord("user-1")
	require.NoError(t, err)

	card := &models.VibeCard{Title: "Morning Glow", Mood: "happy"}
	_, saved, err := svc.RecordCardGeneration("user-1", card, baseTime)
	require.NoError(t, err)

	prog, err := svc.RecordCardShare("user-1", saved.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), prog.CardsShared)
	assert.Equal(t, svc.Config.CardGenerationPoints+svc.Config.CardSharePoints, prog.TotalPoints)

	fetched, err := svc.GetCardBySlug(saved.Slug)
	require.NoError(t, err)
	assert.True(t, fetched.Shared)
	require.NotNil(t, fetched.SharedAt)
}

func TestRecordCardShareUnknownCardLeavesNoPartialMutation(t *testing.T) {
	svc := NewLedgerService(newTestDB(t))
	_, err := svc.EnsureProgressRecord("user-1")
	require.NoError(t, err)

	_, err = svc.RecordCardShare("user-1", "no-such-card")
	assert.ErrorIs(t, err, ErrNotFound)

	prog, err := svc.GetProgress("user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), prog.CardsShared)
	assert.Equal(t, int64(0), prog.TotalPoints)
}

func TestRecordCardShareWithoutCardID(t *testing.T) {
	svc := NewLedgerService(newTestDB(t))
	_, err := svc.EnsureProgressRecord("user-1")
	require.NoError(t, err)

	prog, err := svc.RecordCardShare("user-1", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), prog.CardsShared)
	assert.Equal(t, svc.Config.CardSharePoints, prog.TotalPoints)
}

func TestNewLedgerServiceWithConfigRejectsBadTuning(t *testing.T) {
	db := newTestDB(t)
	_, err := NewLedgerServiceWithConfig(db, LedgerConfig{
		DailyCheckInPoints:   10,
		CardGenerationPoints: 25,
		CardSharePoints:      15,
		PointsPerLevel:       0,
	})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestGetUserHistory(t *testing.T) {
	svc := NewLedgerService(newTestDB(t))
	_, err := svc.EnsureProgressRecord("user-1")
	require.NoError(t, err)

	_, err = svc.RecordMoodAnalysis("user-1", "happy", 0.8, baseTime)
	require.NoError(t, err)
	_, err = svc.RecordChoice("user-1", "option A", "capsule-1", baseTime)
	require.NoError(t, err)
	_, _, err = svc.RecordCardGeneration("user-1", &models.VibeCard{Title: "Card"}, baseTime)
	require.NoError(t, err)

	history, err := svc.GetUserHistory("user-1", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(3), history["total_items"])
	assert.Equal(t, int64(1), history["total_moods"])
	assert.Equal(t, int64(1), history["total_choices"])
	assert.Equal(t, int64(1), history["total_cards"])
}
