package sender

import (
	"context"

	"gitee.com/flycash/alert-platform/internal/domain"
	"github.com/gotomicro/ego/core/elog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ObservabilityDispatcher 投递器的可观测性装饰器，一次扇出一个 span
type ObservabilityDispatcher struct {
	dispatcher Dispatcher
	tracer     trace.Tracer
	logger     *elog.Component
}

func NewObservabilityDispatcher(d Dispatcher) *ObservabilityDispatcher {
	return &ObservabilityDispatcher{
		dispatcher: d,
		tracer:     otel.Tracer("alert-platform/sender"),
		logger:     elog.DefaultLogger,
	}
}

func (o *ObservabilityDispatcher) Dispatch(ctx context.Context, alert domain.Alert) (map[domain.Channel]bool, error) {
	ctx, span := o.start(ctx, "Dispatcher.Dispatch", alert)
	defer span.End()

	results, err := o.dispatcher.Dispatch(ctx, alert)
	o.record(span, alert, results, err)
	return results, err
}

func (o *ObservabilityDispatcher) DispatchChannels(ctx context.Context, alert domain.Alert, cfgs []domain.ChannelConfig) (map[domain.Channel]bool, error) {
	ctx, span := o.start(ctx, "Dispatcher.DispatchChannels", alert)
	defer span.End()
	span.SetAttributes(attribute.Int("alert.retryChannels", len(cfgs)))

	results, err := o.dispatcher.DispatchChannels(ctx, alert, cfgs)
	o.record(span, alert, results, err)
	return results, err
}

func (o *ObservabilityDispatcher) start(ctx context.Context, name string, alert domain.Alert) (context.Context, trace.Span) {
	return o.tracer.Start(ctx, name,
		trace.WithAttributes(
			attribute.String("alert.id", alert.ID),
			attribute.String("alert.investorId", alert.InvestorID),
			attribute.String("alert.priority", alert.Priority.String()),
		))
}

func (o *ObservabilityDispatcher) record(span trace.Span, alert domain.Alert, results map[domain.Channel]bool, err error) {
	delivered := 0
	for _, ok := range results {
		if ok {
			delivered++
		}
	}
	span.SetAttributes(
		attribute.Int("alert.attempted", len(results)),
		attribute.Int("alert.delivered", delivered),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.logger.Error("投递警报失败",
			elog.FieldErr(err),
			elog.String("alertID", alert.ID))
	}
}
