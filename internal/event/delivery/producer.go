package delivery

import (
	"context"

	"gitee.com/flycash/alert-platform/internal/pkg/mqx"
	"github.com/ecodeclub/mq-api"
)

// DeliveryEventName 投递结果事件主题，下游观测系统订阅
const DeliveryEventName = "alert_delivery_events"

// DeliveryEvent 一次投递扇出的合并结果，纯旁路数据，至少一次语义
type DeliveryEvent struct {
	AlertID    string          `json:"alert_id"`
	InvestorID string          `json:"investor_id"`
	Status     string          `json:"status"`
	Results    map[string]bool `json:"results"`
	OccurredAt int64           `json:"occurred_at"`
}

//go:generate mockgen -source=./producer.go -package=evtmocks -destination=./mocks/producer.mock.go DeliveryEventProducer
type DeliveryEventProducer interface {
	Produce(ctx context.Context, evt DeliveryEvent) error
}

// NewDeliveryEventProducer 创建投递结果事件生产者
func NewDeliveryEventProducer(q mq.MQ) (DeliveryEventProducer, error) {
	return mqx.NewGeneralProducer[DeliveryEvent](q, DeliveryEventName)
}
