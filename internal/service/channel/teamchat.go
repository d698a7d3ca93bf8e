package channel

import (
	"context"
	"fmt"

	"gitee.com/flycash/alert-platform/internal/domain"
	"gitee.com/flycash/alert-platform/internal/errs"
	"github.com/slack-go/slack"
)

// TeamChatChannel 群聊渠道，向 Slack 频道发送块状消息
type TeamChatChannel struct {
	api *slack.Client
}

func NewTeamChatChannel(api *slack.Client) *TeamChatChannel {
	return &TeamChatChannel{api: api}
}

func (c *TeamChatChannel) Name() domain.Channel {
	return domain.ChannelTeamChat
}

func (c *TeamChatChannel) Send(ctx context.Context, msg domain.ChannelMessage) error {
	channelID, ok := msg.Address[domain.AddressKeyChatChannel]
	if !ok || channelID == "" {
		return fmt.Errorf("%w: 缺少群聊频道", errs.ErrInvalidParameter)
	}

	_, _, err := c.api.PostMessageContext(ctx, channelID, slack.MsgOptionBlocks(
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, msg.Title, false, false)),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, msg.Body, false, false), nil, nil),
	))
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrSendAlertFailed, err)
	}
	return nil
}
