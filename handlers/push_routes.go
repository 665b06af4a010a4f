// handlers/push_routes.go
package handlers

import (
	"errors"

	"moodquest/middleware"
	"moodquest/services"

	"github.com/gofiber/fiber/v2"
)

func SetupPushRoutes(app *fiber.App, pushService *services.PushService) {
	// The client needs the VAPID public key to subscribe
	app.Get("/push/public-key", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"key":     pushService.Config.VAPIDPublicKey,
			"enabled": pushService.Enabled(),
		})
	})

	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Post("/push/subscribe", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		type Req struct {
			Endpoint string `json:"endpoint"`
			Keys     struct {
				P256dh string `json:"p256dh"`
				Auth   string `json:"auth"`
			} `json:"keys"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		sub, err := pushService.SaveSubscription(userID, req.Endpoint, req.Keys.P256dh, req.Keys.Auth)
		if err != nil {
			if errors.Is(err, services.ErrInvalidArgument) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "invalid subscription",
					"cause": err.Error(),
				})
			}
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "storage unavailable",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"id":     sub.ID,
			"active": sub.Active,
		})
	})

	secured.Delete("/push/subscribe", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		type Req struct {
			Endpoint string `json:"endpoint"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		if err := pushService.RemoveSubscription(userID, req.Endpoint); err != nil {
			if errors.Is(err, services.ErrNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "subscription not found",
				})
			}
			if errors.Is(err, services.ErrInvalidArgument) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "invalid request",
					"cause": err.Error(),
				})
			}
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "storage unavailable",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"unsubscribed": true})
	})
}
