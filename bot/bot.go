package bot

import (
	"context"
	"fmt"
	"log"
	"math/rand"

	"uleveling-bot/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Bot is the thin adapter between Telegram updates and the engagement
// services: it parses commands, translates results and errors into chat
// replies, and nothing more.
type Bot struct {
	api           *tgbotapi.BotAPI
	messenger     *TelegramMessenger
	engagement    *services.EngagementService
	rewards       *services.RewardService
	claims        *services.ClaimService
	notifications *services.NotificationService
	printer       *message.Printer
}

func New(api *tgbotapi.BotAPI, engagement *services.EngagementService, rewards *services.RewardService,
	claims *services.ClaimService, notifications *services.NotificationService) *Bot {
	return &Bot{
		api:           api,
		messenger:     NewTelegramMessenger(api),
		engagement:    engagement,
		rewards:       rewards,
		claims:        claims,
		notifications: notifications,
		printer:       message.NewPrinter(language.English),
	}
}

// Start runs the long-polling loop until the context is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	log.Printf("✅ Bot @%s polling for updates", b.api.Self.UserName)
	for {
		select {
		case update := <-updates:
			go b.HandleUpdate(update)
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			log.Println("Bot polling stopped.")
			return
		}
	}
}

// SetWebhook points Telegram at the given URL, attaching the secret token
// it must echo back in X-Telegram-Bot-Api-Secret-Token.
func (b *Bot) SetWebhook(url, secret string) error {
	params := tgbotapi.Params{"url": url}
	if secret != "" {
		params["secret_token"] = secret
	}
	if _, err := b.api.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	return nil
}

// HandleUpdate dispatches one inbound update. Safe to call concurrently;
// every cross-request invariant lives in the store, not up here.
func (b *Bot) HandleUpdate(update tgbotapi.Update) {
	msg := update.Message
	if msg == nil {
		return
	}

	if len(msg.NewChatMembers) > 0 {
		b.handleNewChatMembers(msg)
		return
	}
	if msg.Text == "" || msg.From == nil {
		return
	}

	if msg.Chat.IsGroup() || msg.Chat.IsSuperGroup() {
		b.handleGroupMessage(msg)
		return
	}
	if msg.Chat.IsPrivate() {
		b.handlePrivateMessage(msg)
	}
}

func (b *Bot) handleGroupMessage(msg *tgbotapi.Message) {
	if msg.IsCommand() {
		switch msg.Command() {
		case "level":
			b.handleLevelCommand(msg)
			return
		case "claim":
			b.handleClaimCommand(msg)
			return
		case "enable_rewards":
			b.handleEnableRewards(msg)
			return
		case "disable_rewards":
			b.handleDisableRewards(msg)
			return
		case "change_rewards":
			b.handleChangeRewards(msg)
			return
		}
		// Unrecognized commands still count as engagement, like any
		// other message.
	}

	err := b.engagement.HandleGroupMessage(services.GroupMessage{
		GroupID:     msg.Chat.ID,
		GroupTitle:  msg.Chat.Title,
		UserID:      msg.From.ID,
		DisplayName: displayName(msg.From),
	})
	if err != nil {
		log.Printf("[Bot] Failed to process message in group %d: %v", msg.Chat.ID, err)
	}
}

func (b *Bot) handlePrivateMessage(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		if err := b.notifications.RegisterPrivateChat(msg.Chat.ID); err != nil {
			log.Printf("[Bot] Failed to register private chat %d: %v", msg.Chat.ID, err)
		}
		b.send(msg.Chat.ID, "Hello! Add Uleveling Bot to your Telegram group to start leveling engagement in your community.")
	case "help":
		b.send(msg.Chat.ID, "To use this bot, simply add it to your group and it will start tracking user engagement automatically.")
	default:
		b.send(msg.Chat.ID, "Sorry, I didn't understand that command. Type /help for assistance.")
	}
}

var welcomeMessages = []string{
	"Welcome, %s! Glad to have you here.",
	"Hey %s, welcome aboard!",
	"%s just landed! Welcome!",
}

func (b *Bot) handleNewChatMembers(msg *tgbotapi.Message) {
	if !msg.Chat.IsGroup() && !msg.Chat.IsSuperGroup() {
		return
	}
	for _, member := range msg.NewChatMembers {
		if member.IsBot && member.ID == b.api.Self.ID {
			if _, err := b.engagement.EnsureGroup(msg.Chat.ID, msg.Chat.Title); err != nil {
				log.Printf("[Bot] Failed to create group %d: %v", msg.Chat.ID, err)
			}
			b.send(msg.Chat.ID, "Hello everyone! I'm Uleveling Bot. I'll help track engagement in this group.\n\nUseful commands:\n-- /level\n-- /claim")
			continue
		}
		text := fmt.Sprintf(welcomeMessages[rand.Intn(len(welcomeMessages))], displayName(&member))
		b.send(msg.Chat.ID, text)
	}
}

func (b *Bot) send(chatID int64, text string) {
	if err := b.messenger.SendMessage(chatID, text); err != nil {
		log.Printf("[Bot] Failed to send to chat %d: %v", chatID, err)
	}
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	if err := b.messenger.Reply(msg.Chat.ID, msg.MessageID, text); err != nil {
		log.Printf("[Bot] Failed to reply in chat %d: %v", msg.Chat.ID, err)
	}
}

func displayName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return "@" + u.UserName
	}
	return u.FirstName
}
