package channel

import (
	"context"
	"fmt"

	"gitee.com/flycash/alert-platform/internal/domain"
	"gitee.com/flycash/alert-platform/internal/errs"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// ChatBotChannel 机器人私聊渠道，走 Telegram Bot API
type ChatBotChannel struct {
	bot *bot.Bot
}

func NewChatBotChannel(b *bot.Bot) *ChatBotChannel {
	return &ChatBotChannel{bot: b}
}

func (c *ChatBotChannel) Name() domain.Channel {
	return domain.ChannelChatBot
}

func (c *ChatBotChannel) Send(ctx context.Context, msg domain.ChannelMessage) error {
	chatID, ok := msg.Address[domain.AddressKeyChatID]
	if !ok || chatID == "" {
		return fmt.Errorf("%w: 缺少会话ID", errs.ErrInvalidParameter)
	}

	_, err := c.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      fmt.Sprintf("*%s*\n\n%s", msg.Title, msg.Body),
		ParseMode: models.ParseModeMarkdown,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrSendAlertFailed, err)
	}
	return nil
}
