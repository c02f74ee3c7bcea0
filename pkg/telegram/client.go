package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/TetyanaPavlyuk/library-api-service/pkg/config"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/logger"
)

var (
	errTokenRequired  = errors.New("telegram bot token is required")
	errChatIDRequired = errors.New("telegram chat id is required")
)

type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client posts plain-text messages to a single Telegram chat.
type Client struct {
	bot    botAPI
	chatID int64
}

// NewClient authenticates the bot against the Telegram API.
func NewClient(ctx context.Context, cfg config.TelegramConfig, logg *logger.Logger) (*Client, error) {
	token := strings.TrimSpace(cfg.BotToken)
	if token == "" {
		return nil, errTokenRequired
	}
	if cfg.ChatID == 0 {
		return nil, errChatIDRequired
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("telegram bot authorized as %s", bot.Self.UserName))
	}
	return newClient(bot, cfg.ChatID), nil
}

func newClient(bot botAPI, chatID int64) *Client {
	return &Client{bot: bot, chatID: chatID}
}

// Send delivers text to the configured chat.
func (c *Client) Send(ctx context.Context, text string) error {
	if c == nil || c.bot == nil {
		return errors.New("telegram client not initialized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(c.chatID, text)
	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
