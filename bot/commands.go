package bot

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"uleveling-bot/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const genericErrorReply = "Something went wrong, please try again later."

func (b *Bot) handleLevelCommand(msg *tgbotapi.Message) {
	user, err := b.engagement.LevelInfo(msg.Chat.ID, msg.From.ID)
	if errors.Is(err, services.ErrNoActivity) {
		b.reply(msg, "You have no recorded activity yet.")
		return
	}
	if err != nil {
		log.Printf("[Bot] /level failed in group %d: %v", msg.Chat.ID, err)
		b.reply(msg, genericErrorReply)
		return
	}
	b.reply(msg, b.printer.Sprintf("You are level %d with %d XP.", user.Level, user.Experience))
}

func (b *Bot) handleClaimCommand(msg *tgbotapi.Message) {
	result, err := b.claims.Claim(msg.Chat.ID, msg.From.ID)
	if err != nil {
		b.reply(msg, claimFailureReply(err))
		if !services.IsUserFacing(err) {
			log.Printf("[Bot] /claim failed in group %d: %v", msg.Chat.ID, err)
		}
		return
	}

	b.reply(msg, "You have successfully claimed your random reward! 🎉")
	if result.LeveledUp {
		b.send(msg.Chat.ID, fmt.Sprintf("Congratulations, %s! You are now level %d! 🎉", displayName(msg.From), result.Level))
	}
}

// claimFailureReply maps each claim failure mode to its own user-visible
// message.
func claimFailureReply(err error) string {
	switch {
	case errors.Is(err, services.ErrNoActivity):
		return "You have no recorded activity yet."
	case errors.Is(err, services.ErrRewardsDisabled):
		return "Bonus rewards are not enabled in this group."
	case errors.Is(err, services.ErrNoActiveReward):
		return "There is no active bonus reward at the moment."
	case errors.Is(err, services.ErrRewardExpired):
		return "The bonus reward period has expired."
	case errors.Is(err, services.ErrAlreadyClaimed):
		return "You have already claimed the current random reward."
	default:
		return genericErrorReply
	}
}

func (b *Bot) handleEnableRewards(msg *tgbotapi.Message) {
	if !b.requireAdmin(msg) {
		return
	}
	if _, err := b.engagement.EnsureGroup(msg.Chat.ID, msg.Chat.Title); err != nil {
		log.Printf("[Bot] /enable_rewards failed in group %d: %v", msg.Chat.ID, err)
		b.reply(msg, genericErrorReply)
		return
	}
	if err := b.rewards.EnableRewards(msg.Chat.ID); err != nil {
		log.Printf("[Bot] /enable_rewards failed in group %d: %v", msg.Chat.ID, err)
		b.reply(msg, genericErrorReply)
		return
	}
	b.reply(msg, "Bonus rewards are now enabled. 🎉")
}

func (b *Bot) handleDisableRewards(msg *tgbotapi.Message) {
	if !b.requireAdmin(msg) {
		return
	}
	if _, err := b.engagement.EnsureGroup(msg.Chat.ID, msg.Chat.Title); err != nil {
		log.Printf("[Bot] /disable_rewards failed in group %d: %v", msg.Chat.ID, err)
		b.reply(msg, genericErrorReply)
		return
	}
	if err := b.rewards.DisableRewards(msg.Chat.ID); err != nil {
		log.Printf("[Bot] /disable_rewards failed in group %d: %v", msg.Chat.ID, err)
		b.reply(msg, genericErrorReply)
		return
	}
	b.reply(msg, "Bonus rewards are now disabled.")
}

func (b *Bot) handleChangeRewards(msg *tgbotapi.Message) {
	if !b.requireAdmin(msg) {
		return
	}
	arg := strings.TrimSpace(msg.CommandArguments())
	n, convErr := strconv.Atoi(arg)
	if convErr != nil || n <= 0 {
		b.reply(msg, "Usage: /change_rewards <positive number of messages>")
		return
	}

	if _, err := b.engagement.EnsureGroup(msg.Chat.ID, msg.Chat.Title); err != nil {
		log.Printf("[Bot] /change_rewards failed in group %d: %v", msg.Chat.ID, err)
		b.reply(msg, genericErrorReply)
		return
	}
	err := b.rewards.SetRewardRange(msg.Chat.ID, n)
	var ve *services.ValidationError
	if errors.As(err, &ve) {
		b.reply(msg, "Usage: /change_rewards <positive number of messages>")
		return
	}
	if err != nil {
		log.Printf("[Bot] /change_rewards failed in group %d: %v", msg.Chat.ID, err)
		b.reply(msg, genericErrorReply)
		return
	}
	b.reply(msg, fmt.Sprintf("Got it! A bonus reward will now drop roughly every %d messages.", n))
}

// requireAdmin replies and returns false unless the sender administers the
// group.
func (b *Bot) requireAdmin(msg *tgbotapi.Message) bool {
	member, err := b.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: msg.Chat.ID,
			UserID: msg.From.ID,
		},
	})
	if err != nil {
		log.Printf("[Bot] Failed to check admin status in group %d: %v", msg.Chat.ID, err)
		b.reply(msg, genericErrorReply)
		return false
	}
	if !member.IsCreator() && !member.IsAdministrator() {
		b.reply(msg, "Only group admins can change reward settings.")
		return false
	}
	return true
}
