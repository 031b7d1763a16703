package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"uleveling-bot/bot"
	"uleveling-bot/handlers"
	"uleveling-bot/models"
	"uleveling-bot/services"
	"uleveling-bot/utils"
	"uleveling-bot/workers"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	token := os.Getenv("TELEGRAM_TOKEN")
	if token == "" {
		log.Fatal("TELEGRAM_TOKEN environment variable not set")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	// TranslateError so a duplicate claim surfaces as gorm.ErrDuplicatedKey
	// instead of a raw driver error — the claim path depends on telling the
	// two apart.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Group{},
		&models.GroupUser{},
		&models.Reward{},
		&models.RewardClaim{},
		&models.PrivateChat{},
		&models.Notification{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, utils.HTTPClient)
	if err != nil {
		log.Fatal("failed to connect to Telegram:", err)
	}

	// Reward-drop animation: R2-hosted if configured, plain text otherwise.
	animationURL := ""
	if os.Getenv("CLOUDFLARE_ACCOUNT_ID") != "" {
		if err := utils.InitR2(); err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		animationURL, err = utils.ResolveRewardAnimation(api.Self.UserName)
		if err != nil {
			log.Fatal("failed to resolve reward animation:", err)
		}
	} else {
		animationURL = os.Getenv("REWARD_ANIMATION_URL")
	}

	cfg := services.LoadEngagementConfig()
	messenger := bot.NewTelegramMessenger(api)
	rewardService := services.NewRewardService(db, cfg, messenger, animationURL)
	engagementService := services.NewEngagementService(db, cfg, rewardService, messenger)
	claimService := services.NewClaimService(db, cfg, rewardService)
	notificationService := services.NewNotificationService(db, messenger)

	b := bot.New(api, engagementService, rewardService, claimService, notificationService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional sweep for groups too quiet to trip lazy expiry.
	if interval := os.Getenv("REWARD_SWEEP_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil || d <= 0 {
			log.Fatalf("invalid REWARD_SWEEP_INTERVAL %q", interval)
		}
		go workers.PollExpiredRewards(ctx, db, rewardService, d)
		log.Printf("✅ Reward expiry sweep running (every %s)", d)
	}

	sched, err := notificationService.StartBroadcastScheduler()
	if err != nil {
		log.Fatal("failed to start broadcast scheduler:", err)
	}
	defer func() { _ = sched.Shutdown() }()

	app := fiber.New()
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	handlers.SetupWebhookRoutes(app, b)
	if os.Getenv("ADMIN_SERVICE_TOKEN") != "" {
		handlers.SetupAdminRoutes(app, notificationService, engagementService)
		log.Println("✅ Admin routes mounted under /s")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	if webhookURL := os.Getenv("WEBHOOK_URL"); webhookURL != "" {
		if err := b.SetWebhook(webhookURL, os.Getenv("WEBHOOK_SECRET")); err != nil {
			log.Fatal("failed to set webhook:", err)
		}
		log.Printf("✅ Webhook registered at %s", webhookURL)
	} else {
		go b.Start(ctx)
	}

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Broadcast scheduler running (every 1m)")

	<-ctx.Done()
	log.Println("Shutting down...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
