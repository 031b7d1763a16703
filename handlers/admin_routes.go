package handlers

import (
	"errors"
	"strconv"
	"time"

	"uleveling-bot/middleware"
	"uleveling-bot/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SetupAdminRoutes mounts the token-protected admin surface under /s/:
// broadcast scheduling and per-group engagement stats.
func SetupAdminRoutes(app *fiber.App, notifications *services.NotificationService, engagement *services.EngagementService) {
	admin := app.Group("/s", middleware.ServiceAuthMiddleware())

	// Schedule a broadcast to every registered private chat.
	admin.Post("/notifications", func(c *fiber.Ctx) error {
		var req struct {
			Message     string     `json:"message"`
			ScheduledAt *time.Time `json:"scheduled_at"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		scheduledAt := time.Now()
		if req.ScheduledAt != nil {
			scheduledAt = *req.ScheduledAt
		}

		n, err := notifications.Schedule(req.Message, scheduledAt)
		var ve *services.ValidationError
		if errors.As(err, &ve) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ve.Error()})
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to schedule notification"})
		}
		return c.Status(fiber.StatusCreated).JSON(n)
	})

	// Engagement stats for one group.
	admin.Get("/groups/:id", func(c *fiber.Ctx) error {
		groupID, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group ID"})
		}

		stats, err := engagement.Stats(groupID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Group not found"})
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load group stats"})
		}
		return c.JSON(stats)
	})
}
