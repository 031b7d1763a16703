package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramMessenger implements services.Messenger over the Bot API.
type TelegramMessenger struct {
	api *tgbotapi.BotAPI
}

func NewTelegramMessenger(api *tgbotapi.BotAPI) *TelegramMessenger {
	return &TelegramMessenger{api: api}
}

func (m *TelegramMessenger) SendMessage(chatID int64, text string) error {
	_, err := m.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (m *TelegramMessenger) SendAnimation(chatID int64, fileURL, caption string) error {
	anim := tgbotapi.NewAnimation(chatID, tgbotapi.FileURL(fileURL))
	anim.Caption = caption
	_, err := m.api.Send(anim)
	return err
}

// Reply sends text as a reply to a specific message.
func (m *TelegramMessenger) Reply(chatID int64, messageID int, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = messageID
	_, err := m.api.Send(msg)
	return err
}
