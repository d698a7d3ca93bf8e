package channel

import (
	"context"

	"gitee.com/flycash/alert-platform/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingChannel 为渠道实现添加链路追踪的装饰器
type TracingChannel struct {
	channel Channel
	tracer  trace.Tracer
}

// NewTracingChannel 创建一个新的带有链路追踪的渠道
func NewTracingChannel(ch Channel) *TracingChannel {
	return &TracingChannel{
		channel: ch,
		tracer:  otel.Tracer("alert-platform/channel"),
	}
}

func (t *TracingChannel) Name() domain.Channel {
	return t.channel.Name()
}

func (t *TracingChannel) Send(ctx context.Context, msg domain.ChannelMessage) error {
	ctx, span := t.tracer.Start(ctx, "Channel.Send",
		trace.WithAttributes(
			attribute.String("alert.id", msg.AlertID),
			attribute.String("alert.investorId", msg.InvestorID),
			attribute.String("alert.channel", msg.Channel.String()),
			attribute.String("alert.priority", msg.Priority.String()),
		))
	defer span.End()

	err := t.channel.Send(ctx, msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
