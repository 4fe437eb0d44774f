package alerter

import (
	"context"
	"fmt"

	"pc_duration_alert/internal/domain/alert"
	domainTelegram "pc_duration_alert/internal/domain/telegram"
)

// TelegramChannel delivers alerts as plain-text messages to a fixed chat.
type TelegramChannel struct {
	client domainTelegram.Client
	chatID int64
}

func NewTelegramChannel(client domainTelegram.Client, chatID int64) *TelegramChannel {
	return &TelegramChannel{client: client, chatID: chatID}
}

func (t *TelegramChannel) Name() string { return "telegram" }

func (t *TelegramChannel) Send(_ context.Context, payload alert.Payload) error {
	text := fmt.Sprintf(
		"PC duration alert\nDriver: %s (%s)\nConsecutive PC hours: %.2f\nThreshold: %.1f hours\nPC started: %s",
		orPlaceholder(payload.DriverName),
		orPlaceholder(payload.DriverID),
		payload.PCHours,
		payload.ThresholdHours,
		startedAt(payload),
	)
	return t.client.SendMessage(t.chatID, text, nil)
}
