package channel

import (
	"context"

	"gitee.com/flycash/alert-platform/internal/domain"
)

// Channel 渠道发送器接口。Send 返回 nil 表示渠道确认送达，
// 返回错误表示本次投递失败，由投递器决定是否重试。
//
//go:generate mockgen -source=./channel.go -package=channelmocks -destination=./mocks/channel.mock.go Channel
type Channel interface {
	// Name 渠道类型，能力表按它索引
	Name() domain.Channel
	// Send 对单渠道做一次投递尝试
	Send(ctx context.Context, msg domain.ChannelMessage) error
}

// Table 渠道能力表。投递器遍历它做扇出，新增渠道只需要注册进来，
// 不需要改任何分发逻辑。
type Table struct {
	channels map[domain.Channel]Channel
}

// NewTable 用一组渠道实现构建能力表
func NewTable(channels ...Channel) *Table {
	m := make(map[domain.Channel]Channel, len(channels))
	for _, ch := range channels {
		m[ch.Name()] = ch
	}
	return &Table{channels: m}
}

// Get 按渠道类型查找发送器
func (t *Table) Get(kind domain.Channel) (Channel, bool) {
	ch, ok := t.channels[kind]
	return ch, ok
}
