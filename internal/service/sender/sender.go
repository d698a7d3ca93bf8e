package sender

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gitee.com/flycash/alert-platform/internal/domain"
	"gitee.com/flycash/alert-platform/internal/errs"
	"gitee.com/flycash/alert-platform/internal/event/delivery"
	id "gitee.com/flycash/alert-platform/internal/pkg/id_generator"
	"gitee.com/flycash/alert-platform/internal/repository"
	"gitee.com/flycash/alert-platform/internal/service/channel"
	"github.com/gotomicro/ego/core/elog"
	"golang.org/x/sync/singleflight"
)

const (
	defaultPerChannelTimeout = 10 * time.Second
	defaultMaxRetries        = 3
)

// Dispatcher 警报投递器，负责一条警报在全部渠道上的并发扇出。
// 渠道层面的失败永远不会作为错误抛出去，只会体现在每个渠道的投递状态里；
// 返回的错误只可能来自持久化。
//
//go:generate mockgen -source=./sender.go -package=sendermocks -destination=./mocks/sender.mock.go Dispatcher
type Dispatcher interface {
	// Dispatch 对警报的全部启用渠道做一次扇出投递，返回渠道到是否送达的映射
	Dispatch(ctx context.Context, alert domain.Alert) (map[domain.Channel]bool, error)

	// DispatchChannels 只对指定渠道子集投递，重试扫描用它避免重发已送达的渠道
	DispatchChannels(ctx context.Context, alert domain.Alert, cfgs []domain.ChannelConfig) (map[domain.Channel]bool, error)
}

// Config 投递器配置
type Config struct {
	// PerChannelTimeout 单渠道投递超时，超时按异常处理
	PerChannelTimeout time.Duration
	// MaxRetries 单渠道的重试预算，预算耗尽的渠道不再被任何投递路径触碰
	MaxRetries int
	// FollowupDelays 首次送达后跟进提醒的延迟序列
	FollowupDelays []time.Duration
}

type dispatcher struct {
	repo         repository.AlertRepository
	followupRepo repository.FollowupRepository
	table        *channel.Table
	producer     delivery.DeliveryEventProducer
	cfg          Config
	group        singleflight.Group
	logger       *elog.Component
}

// NewDispatcher 创建警报投递器
func NewDispatcher(
	repo repository.AlertRepository,
	followupRepo repository.FollowupRepository,
	table *channel.Table,
	producer delivery.DeliveryEventProducer,
	cfg Config,
) Dispatcher {
	if cfg.PerChannelTimeout <= 0 {
		cfg.PerChannelTimeout = defaultPerChannelTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	return &dispatcher{
		repo:         repo,
		followupRepo: followupRepo,
		table:        table,
		producer:     producer,
		cfg:          cfg,
		logger:       elog.DefaultLogger,
	}
}

func (d *dispatcher) Dispatch(ctx context.Context, alert domain.Alert) (map[domain.Channel]bool, error) {
	return d.dispatch(ctx, alert, alert.EnabledChannels())
}

func (d *dispatcher) DispatchChannels(ctx context.Context, alert domain.Alert, cfgs []domain.ChannelConfig) (map[domain.Channel]bool, error) {
	return d.dispatch(ctx, alert, cfgs)
}

// dispatchResult 单飞合并后所有调用方共享的结果
type dispatchResult struct {
	results map[domain.Channel]bool
}

func (d *dispatcher) dispatch(ctx context.Context, alert domain.Alert, cfgs []domain.ChannelConfig) (map[domain.Channel]bool, error) {
	// 终态警报不再投递，视为成功但零渠道尝试
	if alert.Status.IsTerminal() {
		return map[domain.Channel]bool{}, nil
	}

	// 同一条警报同一时刻只允许一次投递在途，并发的调用合并到在途的那一次，
	// 避免 delivery_status/retry_count 的并发读改写互相覆盖
	res, err, _ := d.group.Do(alert.ID, func() (any, error) {
		results, err := d.doDispatch(ctx, alert, cfgs)
		return dispatchResult{results: results}, err
	})
	return res.(dispatchResult).results, err
}

func (d *dispatcher) doDispatch(ctx context.Context, alert domain.Alert, cfgs []domain.ChannelConfig) (map[domain.Channel]bool, error) {
	// 已送达或重试预算耗尽的渠道不允许再发起尝试，
	// 否则 retry_count 会越过预算上限
	attemptable := make([]domain.ChannelConfig, 0, len(cfgs))
	for i := range cfgs {
		cfg := cfgs[i]
		if !cfg.Enabled || !alert.CanAttempt(cfg.Channel, d.cfg.MaxRetries) {
			continue
		}
		attemptable = append(attemptable, cfg)
	}
	cfgs = attemptable
	if len(cfgs) == 0 {
		return map[domain.Channel]bool{}, nil
	}

	type outcome struct {
		kind    domain.Channel
		err     error
		asError bool
	}

	outcomes := make([]outcome, len(cfgs))
	var wg sync.WaitGroup
	for i := range cfgs {
		cfg := cfgs[i]
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err, asError := d.attempt(ctx, alert, cfg)
			outcomes[i] = outcome{kind: cfg.Channel, err: err, asError: asError}
		}(i)
	}
	// 渠道之间没有任何顺序保证，必须等全部尝试都有了结果再合并落库
	wg.Wait()

	results := make(map[domain.Channel]bool, len(cfgs))
	for _, o := range outcomes {
		if o.kind == "" {
			continue
		}
		switch {
		case o.err == nil:
			alert.MarkDelivered(o.kind)
			results[o.kind] = true
		case o.asError:
			alert.MarkError(o.kind)
			results[o.kind] = false
		default:
			alert.MarkFailed(o.kind)
			results[o.kind] = false
		}
	}

	// 任意一个渠道送达就推进到 sent，并登记跟进提醒检查点。
	// 跟进提醒本身送达后不再派生新的提醒链
	if alert.Status == domain.AlertStatusPending && alert.HasDelivered() {
		alert.Status = domain.AlertStatusSent
		alert.SentAt = time.Now()
		if !id.IsFollowupID(alert.ID) {
			if err := d.followupRepo.Schedule(ctx, alert, alert.SentAt, d.cfg.FollowupDelays); err != nil {
				// 提醒登记失败不影响本次投递结果
				d.logger.Error("登记跟进提醒检查点失败",
					elog.FieldErr(err),
					elog.String("alertID", alert.ID))
			}
		}
	}

	// 全部渠道结果合并后只落库一次
	if err := d.repo.CASUpdateDelivery(ctx, alert); err != nil {
		return results, fmt.Errorf("写回投递结果失败: %w", err)
	}

	d.produceDeliveryEvent(ctx, alert, results)
	return results, nil
}

// attempt 单渠道的一次投递尝试，渠道实现里的 panic 也会被拦在这里
func (d *dispatcher) attempt(ctx context.Context, alert domain.Alert, cfg domain.ChannelConfig) (err error, asError bool) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: 渠道 %q 投递时 panic: %v", errs.ErrSendAlertFailed, cfg.Channel, r)
			asError = true
		}
	}()

	ch, ok := d.table.Get(cfg.Channel)
	if !ok {
		d.logger.Warn("渠道没有注册发送器",
			elog.String("alertID", alert.ID),
			elog.String("channel", cfg.Channel.String()))
		return fmt.Errorf("%w: %q", errs.ErrUnsupportedChannel, cfg.Channel), true
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.cfg.PerChannelTimeout)
	defer cancel()

	err = ch.Send(sendCtx, alert.ChannelMessage(cfg))
	if err == nil {
		return nil, false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, errs.ErrChannelSendTimeout) {
		return fmt.Errorf("%w: 渠道 %q: %w", errs.ErrChannelSendTimeout, cfg.Channel, err), true
	}
	return err, false
}

// produceDeliveryEvent 旁路投递结果事件，失败只记日志
func (d *dispatcher) produceDeliveryEvent(ctx context.Context, alert domain.Alert, results map[domain.Channel]bool) {
	if d.producer == nil {
		return
	}
	evt := delivery.DeliveryEvent{
		AlertID:    alert.ID,
		InvestorID: alert.InvestorID,
		Status:     alert.Status.String(),
		Results:    make(map[string]bool, len(results)),
		OccurredAt: time.Now().UnixMilli(),
	}
	for kind, ok := range results {
		evt.Results[kind.String()] = ok
	}
	if err := d.producer.Produce(ctx, evt); err != nil {
		d.logger.Warn("投递结果事件发送失败",
			elog.FieldErr(err),
			elog.String("alertID", alert.ID))
	}
}
