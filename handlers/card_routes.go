// handlers/card_routes.go
package handlers

import (
	"fmt"
	"path/filepath"
	"strings"

	"moodquest/middleware"
	"moodquest/models"
	"moodquest/services"
	"moodquest/utils"

	"github.com/gofiber/fiber/v2"
)

func SetupCardRoutes(app *fiber.App, ledgerService *services.LedgerService) {
	// 🔓 Public share link — cards are meant to be shown around
	app.Get("/cards/:slug", func(c *fiber.Ctx) error {
		card, err := ledgerService.GetCardBySlug(c.Params("slug"))
		if err != nil {
			return ledgerError(c, err)
		}
		return c.JSON(card)
	})

	secured := app.Group("/", middleware.UserContextMiddleware())

	// Upload the client-rendered card image to R2 and attach its URL.
	secured.Post("/cards/:id/image", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		cardID := c.Params("id")

		if !utils.R2Ready() {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "card image storage is not configured",
			})
		}

		fileHeader, err := c.FormFile("image")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "image file is required",
				"cause": err.Error(),
			})
		}

		ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
		if ext != ".png" && ext != ".jpg" && ext != ".jpeg" && ext != ".webp" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "unsupported image type",
			})
		}

		key := fmt.Sprintf("cards/%s%s", cardID, ext)
		imageURL, err := utils.UploadCardImage(fileHeader, key)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "upload failed",
				"cause": err.Error(),
			})
		}

		res := ledgerService.DB.Model(&models.VibeCard{}).
			Where("id = ? AND external_user_id = ?", cardID, userID).
			Update("image_url", imageURL)
		if res.Error != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "storage unavailable",
				"cause": res.Error.Error(),
			})
		}
		if res.RowsAffected == 0 {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "card not found",
			})
		}

		return c.JSON(fiber.Map{
			"card_id":   cardID,
			"image_url": imageURL,
		})
	})
}
