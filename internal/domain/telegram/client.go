package telegram

import "gopkg.in/telebot.v3"

// Client sends outbound messages through a Telegram bot. The alert channel
// depends on this interface rather than the bot library so tests can
// substitute a recorder.
type Client interface {
	SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error
}
