package notify

import (
	"bezero/internal/config"
	"bezero/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramNotifier delivers guest-house manager alerts over a Telegram bot.
type TelegramNotifier struct {
	bot    domain.TelegramSender
	logger *zerolog.Logger
}

func NewTelegramNotifier(bot domain.TelegramSender, logger *zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, logger: logger}
}

// NewBot creates the underlying bot API client from configuration.
func NewBot(cfg config.TelegramConfig) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = cfg.Debug
	return bot, nil
}

func (n *TelegramNotifier) NotifyManager(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Error().Err(err).Int64("chat_id", chatID).Msg("telegram send failed")
		return err
	}
	return nil
}

// NopNotifier is used when Telegram is disabled in config.
type NopNotifier struct{}

func (NopNotifier) NotifyManager(chatID int64, text string) error { return nil }
