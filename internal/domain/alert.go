package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"gitee.com/flycash/alert-platform/internal/errs"
)

// Channel 投递渠道
type Channel string

const (
	ChannelEmail    Channel = "email"     // 邮件
	ChannelSMS      Channel = "sms"       // 短信
	ChannelChatBot  Channel = "chat_bot"  // 机器人私聊
	ChannelTeamChat Channel = "team_chat" // 群聊
	ChannelSocket   Channel = "socket"    // 在线长连接推送
	ChannelPush     Channel = "push"      // 移动端推送
)

// SupportedChannels 平台支持的全部渠道，顺序即投递顺序
func SupportedChannels() []Channel {
	return []Channel{
		ChannelEmail,
		ChannelSMS,
		ChannelChatBot,
		ChannelTeamChat,
		ChannelSocket,
		ChannelPush,
	}
}

func (c Channel) IsSupported() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelChatBot, ChannelTeamChat, ChannelSocket, ChannelPush:
		return true
	default:
		return false
	}
}

func (c Channel) String() string {
	return string(c)
}

// 渠道地址字段名，与偏好配置中的键保持一致
const (
	AddressKeyEmail        = "email"
	AddressKeyPhone        = "phone"
	AddressKeyChatID       = "chat_id"
	AddressKeyChatChannel  = "channel"
	AddressKeyConnectionID = "connection_id"
	AddressKeyDeviceToken  = "device_token"
)

// AlertStatus 警报整体状态
type AlertStatus string

const (
	AlertStatusPending AlertStatus = "pending" // 待投递
	AlertStatusSent    AlertStatus = "sent"    // 至少一个渠道投递成功
	AlertStatusRead    AlertStatus = "read"    // 投资人已读
	AlertStatusExpired AlertStatus = "expired" // 已过期
)

func (s AlertStatus) String() string {
	return string(s)
}

// IsTerminal 终态之后不再允许任何投递
func (s AlertStatus) IsTerminal() bool {
	return s == AlertStatusRead || s == AlertStatusExpired
}

// DeliveryStatus 单渠道投递结果
type DeliveryStatus string

const (
	DeliveryStatusDelivered DeliveryStatus = "delivered" // 投递成功
	DeliveryStatusFailed    DeliveryStatus = "failed"    // 渠道明确返回失败
	DeliveryStatusError     DeliveryStatus = "error"     // 异常或超时
)

// IsRetryable 失败与异常都可以进入重试
func (s DeliveryStatus) IsRetryable() bool {
	return s == DeliveryStatusFailed || s == DeliveryStatusError
}

// AlertPriority 警报优先级
type AlertPriority string

const (
	PriorityLow    AlertPriority = "low"
	PriorityMedium AlertPriority = "medium"
	PriorityHigh   AlertPriority = "high"
	PriorityUrgent AlertPriority = "urgent"
)

func (p AlertPriority) String() string {
	return string(p)
}

// ChannelConfig 附着在警报上的渠道配置，创建后不可变
type ChannelConfig struct {
	Channel Channel           `json:"channel"` // 渠道类型
	Enabled bool              `json:"enabled"` // 是否启用
	Address map[string]string `json:"address"` // 渠道相关的投递地址，如邮箱、手机号、会话ID
}

// Alert 警报领域模型
type Alert struct {
	ID            string                     // 全局唯一标识
	InvestorID    string                     // 投资人ID
	OpportunityID string                     // 标的ID
	Title         string                     // 渲染后的标题
	Description   string                     // 渲染后的正文
	MatchScore    float64                    // 匹配得分 [0,1]
	Priority      AlertPriority              // 创建时一次性计算
	Status        AlertStatus                // 整体状态
	Channels      []ChannelConfig            // 创建时固定的渠道列表
	DeliveryStatus map[Channel]DeliveryStatus // 渠道 -> 投递结果，仅由投递器修改
	RetryCount    map[Channel]int            // 渠道 -> 已重试次数
	CreatedAt     time.Time
	SentAt        time.Time // 首次投递成功时间，零值表示尚未成功
	ReadAt        time.Time // 已读时间，零值表示未读
	ExpiresAt     time.Time
	Version       int // 版本号，用于CAS操作
}

func (a *Alert) Validate() error {
	if a.InvestorID == "" {
		return fmt.Errorf("%w: InvestorID = %q", errs.ErrInvalidParameter, a.InvestorID)
	}

	if a.OpportunityID == "" {
		return fmt.Errorf("%w: OpportunityID = %q", errs.ErrInvalidParameter, a.OpportunityID)
	}

	if a.MatchScore < 0 || a.MatchScore > 1 {
		return fmt.Errorf("%w: MatchScore = %f", errs.ErrInvalidParameter, a.MatchScore)
	}

	if len(a.Channels) == 0 {
		return fmt.Errorf("%w: 没有任何可投递的渠道", errs.ErrNoAvailableChannel)
	}

	for i := range a.Channels {
		ch := a.Channels[i]
		if !ch.Channel.IsSupported() {
			return fmt.Errorf("%w: Channel = %q", errs.ErrInvalidParameter, ch.Channel)
		}
		if len(ch.Address) == 0 {
			return fmt.Errorf("%w: 渠道 %q 缺少投递地址", errs.ErrInvalidParameter, ch.Channel)
		}
	}

	return nil
}

// EnabledChannels 返回启用的渠道配置
func (a *Alert) EnabledChannels() []ChannelConfig {
	res := make([]ChannelConfig, 0, len(a.Channels))
	for i := range a.Channels {
		if a.Channels[i].Enabled {
			res = append(res, a.Channels[i])
		}
	}
	return res
}

// ChannelConfigOf 按渠道查找配置
func (a *Alert) ChannelConfigOf(channel Channel) (ChannelConfig, bool) {
	for i := range a.Channels {
		if a.Channels[i].Channel == channel {
			return a.Channels[i], true
		}
	}
	return ChannelConfig{}, false
}

// RetryableChannels 投递失败且还有重试预算的渠道
func (a *Alert) RetryableChannels(maxRetries int) []ChannelConfig {
	res := make([]ChannelConfig, 0, len(a.Channels))
	for i := range a.Channels {
		ch := a.Channels[i]
		if !ch.Enabled {
			continue
		}
		if a.DeliveryStatus[ch.Channel].IsRetryable() && a.RetryCount[ch.Channel] < maxRetries {
			res = append(res, ch)
		}
	}
	return res
}

// CanAttempt 渠道当前是否还允许发起一次投递。
// 已送达的渠道不再重发，失败或异常且重试预算耗尽的渠道被永久排除。
func (a *Alert) CanAttempt(channel Channel, maxRetries int) bool {
	st, ok := a.DeliveryStatus[channel]
	if !ok {
		return true
	}
	if st == DeliveryStatusDelivered {
		return false
	}
	return a.RetryCount[channel] < maxRetries
}

// MarkDelivered 记录单渠道投递成功
func (a *Alert) MarkDelivered(channel Channel) {
	a.ensureDeliveryMaps()
	a.DeliveryStatus[channel] = DeliveryStatusDelivered
}

// MarkFailed 记录单渠道投递失败并消耗一次重试预算
func (a *Alert) MarkFailed(channel Channel) {
	a.ensureDeliveryMaps()
	a.DeliveryStatus[channel] = DeliveryStatusFailed
	a.RetryCount[channel]++
}

// MarkError 记录单渠道异常（含超时）并消耗一次重试预算
func (a *Alert) MarkError(channel Channel) {
	a.ensureDeliveryMaps()
	a.DeliveryStatus[channel] = DeliveryStatusError
	a.RetryCount[channel]++
}

func (a *Alert) ensureDeliveryMaps() {
	if a.DeliveryStatus == nil {
		a.DeliveryStatus = make(map[Channel]DeliveryStatus)
	}
	if a.RetryCount == nil {
		a.RetryCount = make(map[Channel]int)
	}
}

// HasDelivered 是否至少有一个渠道投递成功
func (a *Alert) HasDelivered() bool {
	for _, st := range a.DeliveryStatus {
		if st == DeliveryStatusDelivered {
			return true
		}
	}
	return false
}

// ChannelMessage 生成交给渠道发送器的消息
func (a *Alert) ChannelMessage(cfg ChannelConfig) ChannelMessage {
	return ChannelMessage{
		AlertID:       a.ID,
		InvestorID:    a.InvestorID,
		OpportunityID: a.OpportunityID,
		Channel:       cfg.Channel,
		Title:         a.Title,
		Body:          a.Description,
		Priority:      a.Priority,
		MatchScore:    a.MatchScore,
		CreatedAt:     a.CreatedAt,
		ExpiresAt:     a.ExpiresAt,
		Address:       cfg.Address,
	}
}

func (a *Alert) MarshalChannels() (string, error) {
	return a.marshal(a.Channels)
}

func (a *Alert) MarshalDeliveryStatus() (string, error) {
	return a.marshal(a.DeliveryStatus)
}

func (a *Alert) MarshalRetryCount() (string, error) {
	return a.marshal(a.RetryCount)
}

func (a *Alert) marshal(v any) (string, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(jsonBytes), nil
}

// ChannelMessage 渲染完成、绑定了投递地址的单渠道消息
type ChannelMessage struct {
	AlertID       string
	InvestorID    string
	OpportunityID string
	Channel       Channel
	Title         string
	Body          string
	Priority      AlertPriority
	MatchScore    float64
	CreatedAt     time.Time
	ExpiresAt     time.Time
	Address       map[string]string // 渠道相关的投递地址
}
