package handlers

import (
	"encoding/json"
	"log"

	"uleveling-bot/bot"
	"uleveling-bot/middleware"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gofiber/fiber/v2"
)

// SetupWebhookRoutes mounts the Telegram webhook endpoint. Telegram only
// cares about the 200; updates are handled off the request goroutine so a
// slow database never makes Telegram re-deliver.
func SetupWebhookRoutes(app *fiber.App, b *bot.Bot) {
	app.Post("/webhook", middleware.TelegramWebhookMiddleware(), func(c *fiber.Ctx) error {
		var update tgbotapi.Update
		if err := json.Unmarshal(c.Body(), &update); err != nil {
			log.Printf("[Webhook] Dropping malformed update: %v", err)
			return c.SendStatus(fiber.StatusBadRequest)
		}

		go b.HandleUpdate(update)
		return c.SendStatus(fiber.StatusOK)
	})
}
