package ioc

import (
	"context"

	"gitee.com/flycash/alert-platform/internal/event/delivery"
	"github.com/ecodeclub/mq-api"
	"github.com/ecodeclub/mq-api/memory"
)

func InitMQ() mq.MQ {
	const partitions = 1
	q := memory.NewMQ()
	if err := q.CreateTopic(context.Background(), delivery.DeliveryEventName, partitions); err != nil {
		panic(err)
	}
	return q
}

func InitDeliveryEventProducer(q mq.MQ) delivery.DeliveryEventProducer {
	p, err := delivery.NewDeliveryEventProducer(q)
	if err != nil {
		panic(err)
	}
	return p
}
