// handlers/leaderboard_routes.go
package handlers

import (
	"moodquest/services"

	"github.com/gofiber/fiber/v2"
)

func SetupLeaderboardRoutes(app *fiber.App, leaderboardService *services.LeaderboardService) {
	// 🔓 Public — ranked board, capped at the configured size
	app.Get("/leaderboard", func(c *fiber.Ctx) error {
		category := c.Query("category", "points")
		timeframe := c.Query("timeframe", "all")

		resp, err := leaderboardService.Query(c.Context(), category, timeframe)
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "failed to load leaderboard",
				"cause": err.Error(),
			})
		}
		return c.JSON(resp)
	})
}
