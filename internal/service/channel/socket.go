package channel

import (
	"context"
	"fmt"
	"time"

	"gitee.com/flycash/alert-platform/internal/domain"
	"gitee.com/flycash/alert-platform/internal/errs"
	"gitee.com/flycash/alert-platform/internal/pkg/liveconn"
)

// SocketChannel 在线长连接渠道。连接的生命周期归接入层管，
// 这里只向注册表发布，投资人不在线视为一次普通的投递失败。
type SocketChannel struct {
	registry liveconn.Registry
}

func NewSocketChannel(registry liveconn.Registry) *SocketChannel {
	return &SocketChannel{registry: registry}
}

func (c *SocketChannel) Name() domain.Channel {
	return domain.ChannelSocket
}

// socketFrame 推送到长连接的消息帧
type socketFrame struct {
	Type string          `json:"type"`
	Data socketAlertData `json:"data"`
}

type socketAlertData struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    string    `json:"priority"`
	Timestamp   time.Time `json:"timestamp"`
}

func (c *SocketChannel) Send(ctx context.Context, msg domain.ChannelMessage) error {
	connID, ok := msg.Address[domain.AddressKeyConnectionID]
	if !ok || connID == "" {
		return fmt.Errorf("%w: 缺少连接标识", errs.ErrInvalidParameter)
	}

	err := c.registry.Publish(ctx, connID, socketFrame{
		Type: "alert",
		Data: socketAlertData{
			ID:          msg.AlertID,
			Title:       msg.Title,
			Description: msg.Body,
			Priority:    msg.Priority.String(),
			Timestamp:   msg.CreatedAt,
		},
	})
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrSendAlertFailed, err)
	}
	return nil
}
