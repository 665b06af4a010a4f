// handlers/ledger_routes.go
package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"moodquest/middleware"
	"moodquest/models"
	"moodquest/services"

	"github.com/gofiber/fiber/v2"
)

// ledgerError maps ledger failures onto the HTTP taxonomy: bad payloads are
// 400, unknown users/cards are 404, everything else means storage trouble and
// is surfaced as 503 so the client can retry — a point update is never
// silently dropped.
func ledgerError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidArgument):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request",
			"cause": err.Error(),
		})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "not found",
			"cause": err.Error(),
		})
	default:
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "storage unavailable",
			"cause": err.Error(),
		})
	}
}

// parseTimestamp accepts an optional RFC3339 timestamp, defaulting to now.
func parseTimestamp(raw string) time.Time {
	if raw == "" {
		return time.Now()
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Now()
	}
	return ts
}

func SetupLedgerRoutes(app *fiber.App, ledgerService *services.LedgerService, pushService *services.PushService) {
	// 🔐 Secured routes — require user context from the Gateway
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Post("/update-points", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		type Req struct {
			Points int64  `json:"points"`
			Action string `json:"action"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if req.Action == "" {
			req.Action = "daily_adventure"
		}

		// Only the daily adventure action runs the streak machine; any other
		// action is a plain point award.
		var prog *models.UserProgress
		var pointsAdded int64
		var err error
		if req.Action == "daily_adventure" {
			prog, pointsAdded, err = ledgerService.RecordDailyCheckIn(userID, req.Points, time.Now())
		} else {
			prog, err = ledgerService.AwardPoints(userID, req.Points, time.Now())
			pointsAdded = req.Points
		}
		if err != nil {
			return ledgerError(c, err)
		}
		return c.JSON(fiber.Map{
			"totalPoints": prog.TotalPoints,
			"streak":      prog.Streak,
			"pointsAdded": pointsAdded,
		})
	})

	securedGroup.Get("/user/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		prog, err := ledgerService.EnsureProgressRecord(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load progress record",
				"cause": err.Error(),
			})
		}

		recentMoods, err := ledgerService.GetRecentMoods(userID, 7)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load recent moods",
				"cause": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"id":                   prog.ID,
			"total_points":         prog.TotalPoints,
			"level":                prog.Level,
			"streak":               prog.Streak,
			"best_streak":          prog.BestStreak,
			"cards_generated":      prog.CardsGenerated,
			"cards_shared":         prog.CardsShared,
			"adventures_completed": prog.AdventuresCompleted,
			"last_activity":        prog.LastActivity,
			"recent_moods":         recentMoods,
		})
	})

	securedGroup.Get("/user/progress/history", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		page, _ := strconv.Atoi(c.Query("page", "1"))
		size, _ := strconv.Atoi(c.Query("size", "20"))
		history, err := ledgerService.GetUserHistory(userID, page, size)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get history",
				"cause": err.Error(),
			})
		}
		return c.JSON(history)
	})

	securedGroup.Post("/user/save-mood", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		type Req struct {
			Mood       string  `json:"mood"`
			Confidence float64 `json:"confidence"`
			Timestamp  string  `json:"timestamp"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		prog, err := ledgerService.RecordMoodAnalysis(userID, req.Mood, req.Confidence, parseTimestamp(req.Timestamp))
		if err != nil {
			return ledgerError(c, err)
		}
		return c.JSON(prog)
	})

	securedGroup.Post("/user/save-choice", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		type Req struct {
			Choice    string `json:"choice"`
			CapsuleID string `json:"capsuleId"`
			Timestamp string `json:"timestamp"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		prog, err := ledgerService.RecordChoice(userID, req.Choice, req.CapsuleID, parseTimestamp(req.Timestamp))
		if err != nil {
			return ledgerError(c, err)
		}
		return c.JSON(prog)
	})

	securedGroup.Post("/user/save-completion", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		type Req struct {
			CapsuleID    string `json:"capsuleId"`
			PointsEarned int64  `json:"pointsEarned"`
			CompletedAt  string `json:"completedAt"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		prog, err := ledgerService.RecordCompletion(userID, req.CapsuleID, req.PointsEarned, parseTimestamp(req.CompletedAt))
		if err != nil {
			return ledgerError(c, err)
		}

		// Congratulate via push; a failed notification never fails the
		// completion — the points are already recorded.
		go func() {
			_ = pushService.NotifyUser(context.Background(), userID, services.PushPayload{
				Title: "Adventure complete! 🎉",
				Body:  fmt.Sprintf("+%d points. Total: %d", req.PointsEarned, prog.TotalPoints),
			})
		}()

		return c.JSON(prog)
	})

	securedGroup.Post("/user/save-card-generation", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		type Req struct {
			Title       string `json:"title"`
			Mood        string `json:"mood"`
			CapsuleID   string `json:"capsuleId"`
			Theme       string `json:"theme"`
			GeneratedAt string `json:"generatedAt"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		card := &models.VibeCard{
			Title:     req.Title,
			Mood:      req.Mood,
			CapsuleID: req.CapsuleID,
			Theme:     models.CardTheme(req.Theme),
		}
		prog, saved, err := ledgerService.RecordCardGeneration(userID, card, parseTimestamp(req.GeneratedAt))
		if err != nil {
			return ledgerError(c, err)
		}
		return c.JSON(fiber.Map{
			"progress": prog,
			"card":     saved,
		})
	})

	securedGroup.Post("/user/save-card-share", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		type Req struct {
			CardID string `json:"cardId"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		prog, err := ledgerService.RecordCardShare(userID, req.CardID)
		if err != nil {
			return ledgerError(c, err)
		}
		return c.JSON(prog)
	})
}
