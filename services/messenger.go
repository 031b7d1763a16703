package services

// Messenger is the outbound side of the bot: deliver message M to chat C.
// Services emit announcements through it; the telegram adapter implements
// it and tests swap in a recorder. Send failures are the recipient's
// problem, not the caller's state: callers log and move on.
type Messenger interface {
	SendMessage(chatID int64, text string) error
	SendAnimation(chatID int64, fileURL, caption string) error
}
