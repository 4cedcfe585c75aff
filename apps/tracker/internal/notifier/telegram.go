package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"wallettracker/apps/tracker/internal/chains"
	"wallettracker/apps/tracker/internal/model"
)

// ErrBotUnauthorized means the Bot API rejected the token. Unlike a network
// failure this does not go away on its own.
var ErrBotUnauthorized = errors.New("telegram bot token rejected")

// TelegramNotifier posts activity messages to a single chat
type TelegramNotifier struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	registry *chains.Registry
	logger   *zap.Logger
}

// NewTelegramNotifier authenticates the bot token against the Bot API. An empty
// apiEndpoint selects the public Telegram endpoint.
func NewTelegramNotifier(token string, chatID int64, apiEndpoint string, timeout time.Duration, registry *chains.Registry, logger *zap.Logger) (*TelegramNotifier, error) {
	if apiEndpoint == "" {
		apiEndpoint = tgbotapi.APIEndpoint
	}

	bot, err := tgbotapi.NewBotAPIWithClient(token, apiEndpoint, &http.Client{Timeout: timeout})
	if err != nil {
		if apiErrorCode(err) == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %w", ErrBotUnauthorized, err)
		}
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	logger.Info("Authorized telegram bot", zap.String("username", bot.Self.UserName), zap.Int64("chat_id", chatID))

	return &TelegramNotifier{
		bot:      bot,
		chatID:   chatID,
		registry: registry,
		logger:   logger,
	}, nil
}

func (n *TelegramNotifier) Notify(ctx context.Context, event model.ActivityEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}

	chain, _ := n.registry.Get(event.ChainKey)

	msg := tgbotapi.NewMessage(n.chatID, FormatMessage(event, chain))
	msg.DisableWebPagePreview = true

	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("%w: telegram: %w", ErrDeliveryFailed, err)
	}

	n.logger.Info("Sent telegram notification",
		zap.String("event_id", event.ID),
		zap.String("wallet_address", event.Address),
		zap.String("chain", event.ChainKey))
	return nil
}

// NewTelegramSink returns the Telegram sink, or the log sink when the Bot API
// cannot be reached at startup. Only a rejected token is returned as an error.
func NewTelegramSink(token string, chatID int64, apiEndpoint string, timeout time.Duration, registry *chains.Registry, logger *zap.Logger) (Sink, error) {
	telegram, err := NewTelegramNotifier(token, chatID, apiEndpoint, timeout, registry, logger)
	if errors.Is(err, ErrBotUnauthorized) {
		return Sink{}, err
	}
	if err != nil {
		logger.Error("Telegram is unreachable, activity will only be logged", zap.Error(err))
		return Sink{Name: "log", Notifier: NewLogNotifier(registry, logger)}, nil
	}
	return Sink{Name: "telegram", Notifier: telegram}, nil
}

// apiErrorCode extracts the Bot API error_code, 0 for transport errors
func apiErrorCode(err error) int {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
