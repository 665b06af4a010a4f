package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"moodquest/models"
	"moodquest/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestApp(t *testing.T) (*fiber.App, *services.LedgerService) {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers-%s?mode=memory&cache=shared", t.Name())
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

	ledgerService := services.NewLedgerService(db)
	capsuleService := services.NewCapsuleService(nil, services.CapsuleConfig{})
	pushService := services.NewPushService(db, services.DefaultPushConfig)
	leaderboardService := services.NewLeaderboardService(db, nil, services.DefaultLeaderboardConfig)

	app := fiber.New()
	SetupCapsuleRoutes(app, capsuleService)
	SetupLedgerRoutes(app, ledgerService, pushService)
	SetupLeaderboardRoutes(app, leaderboardService)
	SetupCardRoutes(app, ledgerService)
	SetupPushRoutes(app, pushService)
	return app, ledgerService
}

func jsonRequest(method, path string, payload interface{}, userID string) *http.Request {
	var body bytes.Buffer
	if payload != nil {
		_ = json.NewEncoder(&body).Encode(payload)
	}
	req, _ := http.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestUpdatePointsRequiresUserContext(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(jsonRequest("POST", "/update-points", fiber.Map{"points": 10}, ""))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestUpdatePointsDailyCheckIn(t *testing.T) {
	app, ledgerService := newTestApp(t)
	_, err := ledgerService.EnsureProgressRecord("user-1")
	require.NoError(t, err)

	resp, err := app.Test(jsonRequest("POST", "/update-points",
		fiber.Map{"points": 10, "action": "daily_adventure"}, "user-1"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(10), body["totalPoints"])
	assert.Equal(t, float64(1), body["streak"])
	assert.Equal(t, float64(10), body["pointsAdded"])
}

func TestUpdatePointsUnknownUser(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(jsonRequest("POST", "/update-points", fiber.Map{"points": 10}, "nobody"))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestUpdatePointsOtherActionSkipsStreak(t *testing.T) {
	app, ledgerService := newTestApp(t)
	_, err := ledgerService.EnsureProgressRecord("user-1")
	require.NoError(t, err)

	resp, err := app.Test(jsonRequest("POST", "/update-points",
		fiber.Map{"points": 40, "action": "bonus_quest"}, "user-1"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(40), body["totalPoints"])
	assert.Equal(t, float64(0), body["streak"], "non-check-in actions never touch the streak")
	assert.Equal(t, float64(40), body["pointsAdded"])

	// a zero point award for a non-check-in action is a bad request
	resp, err = app.Test(jsonRequest("POST", "/update-points",
		fiber.Map{"points": 0, "action": "bonus_quest"}, "user-1"))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGenerateCapsuleSimple(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(jsonRequest("POST", "/generate-capsule-simple",
		fiber.Map{"mood": "happy", "interests": []string{"music"}, "timeOfDay": "morning"}, ""))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.NotEmpty(t, body["id"])
	assert.Equal(t, "happy", body["mood"])
	adventure, ok := body["adventure"].(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, adventure["title"])
	assert.NotEmpty(t, adventure["options"])
	assert.NotEmpty(t, body["mood_boost"])
	assert.NotEmpty(t, body["habit_nudge"])
}

func TestAnalyzeMood(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(jsonRequest("POST", "/analyze-mood",
		fiber.Map{"text": "feeling happy and excited"}, ""))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "happy", body["mood"])

	resp, err = app.Test(jsonRequest("POST", "/analyze-mood", fiber.Map{}, ""))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSaveCompletionValidation(t *testing.T) {
	app, ledgerService := newTestApp(t)
	_, err := ledgerService.EnsureProgressRecord("user-1")
	require.NoError(t, err)

	resp, err := app.Test(jsonRequest("POST", "/user/save-completion",
		fiber.Map{"capsuleId": "capsule-1", "pointsEarned": 0}, "user-1"))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSaveCompletionAwardsPoints(t *testing.T) {
	app, ledgerService := newTestApp(t)
	_, err := ledgerService.EnsureProgressRecord("user-1")
	require.NoError(t, err)

	resp, err := app.Test(jsonRequest("POST", "/user/save-completion",
		fiber.Map{"capsuleId": "capsule-1", "pointsEarned": 75}, "user-1"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	prog, err := ledgerService.GetProgress("user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(75), prog.TotalPoints)
	assert.Equal(t, int64(1), prog.AdventuresCompleted)
}

func TestLeaderboardEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(jsonRequest("GET", "/leaderboard?category=points&timeframe=all", nil, ""))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "points", body["category"])
	board, ok := body["leaderboard"].([]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, board, "fresh deployment returns the placeholder board")
}

func TestDailySpark(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(jsonRequest("GET", "/demo/daily-spark", nil, ""))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Contains(t, models.DailySparks, body["spark"])
}

func TestPushSubscribeAndUnsubscribe(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(jsonRequest("POST", "/push/subscribe", fiber.Map{
		"endpoint": "https://push.example/ep1",
		"keys":     fiber.Map{"p256dh": "key", "auth": "secret"},
	}, "user-1"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(jsonRequest("DELETE", "/push/subscribe",
		fiber.Map{"endpoint": "https://push.example/ep1"}, "user-1"))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSharedCardLookup(t *testing.T) {
	app, ledgerService := newTestApp(t)
	_, err := ledgerService.EnsureProgressRecord("user-1")
	require.NoError(t, err)

	resp, err := app.Test(jsonRequest("POST", "/user/save-card-generation",
		fiber.Map{"title": "Golden Hour", "mood": "happy"}, "user-1"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	card, ok := body["card"].(map[string]interface{})
	require.True(t, ok)
	cardSlug, _ := card["slug"].(string)
	require.NotEmpty(t, cardSlug)

	resp, err = app.Test(jsonRequest("GET", "/cards/"+cardSlug, nil, ""))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(jsonRequest("GET", "/cards/nope", nil, ""))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
