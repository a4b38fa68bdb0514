package notify

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	apperrors "lifeos/internal/errors"
	"lifeos/internal/models"
)

// Sender is the part of the Telegram bot API the channel needs.
// *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ChatResolver maps a user to their linked Telegram chat.
type ChatResolver interface {
	ChatIDForUser(userID string) (int64, error)
}

// TelegramChannel delivers push notifications to a linked Telegram chat.
type TelegramChannel struct {
	bot   Sender
	chats ChatResolver
}

// NewTelegramChannel creates the push channel. A nil bot makes every send
// report ErrChannelUnavailable.
func NewTelegramChannel(bot Sender, chats ChatResolver) *TelegramChannel {
	return &TelegramChannel{bot: bot, chats: chats}
}

func (c *TelegramChannel) Name() models.Channel { return models.ChannelPush }

func (c *TelegramChannel) Send(ctx context.Context, msg Message) error {
	if c.bot == nil {
		return ErrChannelUnavailable
	}
	chatID, err := c.chats.ChatIDForUser(msg.UserID)
	if errors.Is(err, apperrors.ErrTelegramNotLinked) {
		return ErrChannelUnavailable
	}
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	text := msg.Title
	if msg.Body != "" {
		text += "\n\n" + msg.Body
	}
	_, err = c.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
