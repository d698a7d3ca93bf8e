package channel

import (
	"context"
	"fmt"

	"gitee.com/flycash/alert-platform/internal/domain"
	"gitee.com/flycash/alert-platform/internal/errs"
	"gitee.com/flycash/alert-platform/internal/service/channel/sms/client"
)

// SMSChannel 短信渠道，按配置的供应商名选择客户端
type SMSChannel struct {
	clients    map[string]client.Client
	provider   string
	signName   string
	templateID string
}

// NewSMSChannel clients 的键是供应商名，provider 指定当前启用哪一家
func NewSMSChannel(clients map[string]client.Client, provider, signName, templateID string) *SMSChannel {
	return &SMSChannel{
		clients:    clients,
		provider:   provider,
		signName:   signName,
		templateID: templateID,
	}
}

func (c *SMSChannel) Name() domain.Channel {
	return domain.ChannelSMS
}

func (c *SMSChannel) Send(_ context.Context, msg domain.ChannelMessage) error {
	phone, ok := msg.Address[domain.AddressKeyPhone]
	if !ok || phone == "" {
		return fmt.Errorf("%w: 缺少手机号", errs.ErrInvalidParameter)
	}

	cli, ok := c.clients[c.provider]
	if !ok {
		return fmt.Errorf("%w: 未知的短信供应商 %q", errs.ErrSendAlertFailed, c.provider)
	}

	resp, err := cli.Send(client.SendReq{
		PhoneNumbers: []string{phone},
		SignName:     c.signName,
		TemplateID:   c.templateID,
		TemplateParam: map[string]string{
			"title":   msg.Title,
			"content": msg.Body,
		},
	})
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrSendAlertFailed, err)
	}

	for _, status := range resp.PhoneNumbers {
		if status.Code != client.OK {
			return fmt.Errorf("%w: Code = %s, Message = %s", errs.ErrSendAlertFailed, status.Code, status.Message)
		}
	}
	return nil
}
