// handlers/capsule_routes.go
package handlers

import (
	"math/rand/v2"

	"moodquest/models"
	"moodquest/services"

	"github.com/gofiber/fiber/v2"
)

func SetupCapsuleRoutes(app *fiber.App, capsuleService *services.CapsuleService) {
	// 🔓 Public routes — gateway token only, no user context required

	app.Post("/analyze-mood", func(c *fiber.Ctx) error {
		type Req struct {
			Text string `json:"text"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if req.Text == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "text is required",
			})
		}

		mood, confidence := capsuleService.AnalyzeMood(req.Text)
		return c.JSON(fiber.Map{
			"mood":       mood,
			"confidence": confidence,
		})
	})

	app.Post("/generate-capsule-simple", func(c *fiber.Ctx) error {
		type Req struct {
			Mood      string   `json:"mood"`
			Interests []string `json:"interests"`
			TimeOfDay string   `json:"timeOfDay"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		// Generation never fails — unknown moods fall back to the default
		// table entry and an unreachable generative service falls back to
		// the deterministic generator.
		capsule := capsuleService.Generate(c.Context(), req.Mood, req.Interests, req.TimeOfDay)
		return c.JSON(capsule)
	})

	// Demo endpoint: random pick from a fixed phrase list. Cosmetic only —
	// nothing here touches persisted state.
	app.Get("/demo/daily-spark", func(c *fiber.Ctx) error {
		spark := models.DailySparks[rand.IntN(len(models.DailySparks))]
		return c.JSON(fiber.Map{"spark": spark})
	})
}
