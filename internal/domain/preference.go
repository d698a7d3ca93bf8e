package domain

import (
	"fmt"

	"gitee.com/flycash/alert-platform/internal/errs"
)

// Preferences 投资人的渠道订阅与联系方式，由外部边界维护，本引擎只读
type Preferences struct {
	InvestorID string
	Channels   []Channel          // 订阅的渠道
	Addresses  map[string]string  // 渠道地址，键见 AddressKey 常量
}

func (p *Preferences) Validate() error {
	if p.InvestorID == "" {
		return fmt.Errorf("%w: InvestorID = %q", errs.ErrInvalidParameter, p.InvestorID)
	}
	for _, ch := range p.Channels {
		if !ch.IsSupported() {
			return fmt.Errorf("%w: Channel = %q", errs.ErrInvalidParameter, ch)
		}
	}
	return nil
}

// Subscribed 是否订阅了指定渠道
func (p *Preferences) Subscribed(channel Channel) bool {
	for _, ch := range p.Channels {
		if ch == channel {
			return true
		}
	}
	return false
}

// AddressOf 渠道对应的投递地址，socket 渠道固定使用投资人ID作为连接标识
func (p *Preferences) AddressOf(channel Channel) (map[string]string, bool) {
	switch channel {
	case ChannelEmail:
		return p.addr(AddressKeyEmail)
	case ChannelSMS:
		return p.addr(AddressKeyPhone)
	case ChannelChatBot:
		return p.addr(AddressKeyChatID)
	case ChannelTeamChat:
		return p.addr(AddressKeyChatChannel)
	case ChannelSocket:
		if p.InvestorID == "" {
			return nil, false
		}
		return map[string]string{AddressKeyConnectionID: p.InvestorID}, true
	case ChannelPush:
		return p.addr(AddressKeyDeviceToken)
	default:
		return nil, false
	}
}

func (p *Preferences) addr(key string) (map[string]string, bool) {
	val, ok := p.Addresses[key]
	if !ok || val == "" {
		return nil, false
	}
	return map[string]string{key: val}, true
}

// AlertStatistics 投资人维度的警报统计
type AlertStatistics struct {
	TotalAlerts       int64
	ReadAlerts        int64
	ExpiredAlerts     int64
	AverageMatchScore float64
	ByPriority        map[AlertPriority]int64
}
