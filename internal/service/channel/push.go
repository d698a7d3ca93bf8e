package channel

import (
	"context"
	"fmt"
	"net/http"

	"gitee.com/flycash/alert-platform/internal/domain"
	"gitee.com/flycash/alert-platform/internal/errs"
	"github.com/gotomicro/ego/client/ehttp"
)

// PushChannel 移动端推送渠道，走 FCM 的 HTTP 接口
type PushChannel struct {
	client    *ehttp.Component
	serverKey string
}

func NewPushChannel(client *ehttp.Component, serverKey string) *PushChannel {
	return &PushChannel{
		client:    client,
		serverKey: serverKey,
	}
}

func (c *PushChannel) Name() domain.Channel {
	return domain.ChannelPush
}

// fcmPayload FCM 下行消息体
type fcmPayload struct {
	To           string          `json:"to"`
	Notification fcmNotification `json:"notification"`
	Data         fcmData         `json:"data"`
}

type fcmNotification struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Priority string `json:"priority"`
}

type fcmData struct {
	AlertID       string `json:"alert_id"`
	OpportunityID string `json:"opportunity_id"`
}

func (c *PushChannel) Send(ctx context.Context, msg domain.ChannelMessage) error {
	deviceToken, ok := msg.Address[domain.AddressKeyDeviceToken]
	if !ok || deviceToken == "" {
		return fmt.Errorf("%w: 缺少设备令牌", errs.ErrInvalidParameter)
	}

	priority := "normal"
	if msg.Priority == domain.PriorityUrgent {
		priority = "high"
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Authorization", fmt.Sprintf("key=%s", c.serverKey)).
		SetHeader("Content-Type", "application/json").
		SetBody(fcmPayload{
			To: deviceToken,
			Notification: fcmNotification{
				Title:    msg.Title,
				Body:     msg.Body,
				Priority: priority,
			},
			Data: fcmData{
				AlertID:       msg.AlertID,
				OpportunityID: msg.OpportunityID,
			},
		}).
		Post("/fcm/send")
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrSendAlertFailed, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("%w: FCM 返回状态码 %d", errs.ErrSendAlertFailed, resp.StatusCode())
	}
	return nil
}
