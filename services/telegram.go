package services

import (
	"fmt"

	"hackathonwallah/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// AdminAlerter pushes short operational messages to the organisers.
type AdminAlerter interface {
	Alert(message string)
}

type telegramBot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier sends admin alerts to a fixed set of Telegram chats.
type TelegramNotifier struct {
	bot     telegramBot
	chatIDs []int64
}

// NewTelegramNotifier creates a new Telegram notifier
func NewTelegramNotifier(botToken string, chatIDs []int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %v", err)
	}
	logger.Info("Telegram alerts enabled as @%s for %d chat(s)", bot.Self.UserName, len(chatIDs))
	return &TelegramNotifier{bot: bot, chatIDs: chatIDs}, nil
}

// Alert sends message to all configured chat IDs in the background.
func (tn *TelegramNotifier) Alert(message string) {
	if tn == nil || tn.bot == nil {
		return
	}
	for _, chatID := range tn.chatIDs {
		go func(cid int64) {
			if _, err := tn.bot.Send(tgbotapi.NewMessage(cid, message)); err != nil {
				logger.Error("Failed to send telegram message to chat %d: %v", cid, err)
			}
		}(chatID)
	}
}
