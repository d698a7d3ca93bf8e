package match

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/alert-platform/internal/domain"
	"gitee.com/flycash/alert-platform/internal/errs"
	"gitee.com/flycash/alert-platform/internal/pkg/idempotent"
	"gitee.com/flycash/alert-platform/internal/pkg/mqx"
	"gitee.com/flycash/alert-platform/internal/pkg/ratelimit"
	alertsvc "gitee.com/flycash/alert-platform/internal/service/alert"
	"gitee.com/flycash/alert-platform/internal/service/sender"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/gotomicro/ego/core/elog"
)

const (
	readTimeout     = 5 * time.Second
	limitedSleep    = time.Second
	rateLimitKey    = "alert_match_consume"
	dispatchTimeout = time.Minute
)

// EventConsumer 消费撮合引擎的匹配事件，生成警报并触发首次投递。
// 消息级幂等：同一个投资人与标的的组合只生成一次警报。
type EventConsumer struct {
	svc        alertsvc.Service
	dispatcher sender.Dispatcher
	consumer   mqx.Consumer
	idempotent idempotent.IdempotencyService
	limiter    ratelimit.Limiter
	logger     *elog.Component
}

// NewEventConsumer 创建匹配事件消费者
func NewEventConsumer(
	svc alertsvc.Service,
	dispatcher sender.Dispatcher,
	consumer mqx.Consumer,
	idempotentSvc idempotent.IdempotencyService,
	limiter ratelimit.Limiter,
) (*EventConsumer, error) {
	if err := consumer.SubscribeTopics([]string{EventName}, nil); err != nil {
		return nil, fmt.Errorf("订阅匹配事件主题失败: %w", err)
	}
	return &EventConsumer{
		svc:        svc,
		dispatcher: dispatcher,
		consumer:   consumer,
		idempotent: idempotentSvc,
		limiter:    limiter,
		logger:     elog.DefaultLogger,
	}, nil
}

// Start 启动消费循环，ctx 取消后退出
func (c *EventConsumer) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if err := c.consume(ctx); err != nil {
				c.logger.Error("消费匹配事件失败", elog.FieldErr(err))
			}
		}
	}()
}

func (c *EventConsumer) consume(ctx context.Context) error {
	limited, err := c.limiter.Limit(ctx, rateLimitKey)
	if err != nil {
		return fmt.Errorf("限流器判定失败: %w", err)
	}
	if limited {
		// 被限流时不拉取消息，留在 broker 里等下一轮
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(limitedSleep):
		}
		return nil
	}

	msg, err := c.consumer.ReadMessage(readTimeout)
	if err != nil {
		var kerr kafka.Error
		if errors.As(err, &kerr) && kerr.IsTimeout() {
			return nil
		}
		return fmt.Errorf("读取消息失败: %w", err)
	}

	var evt Event
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		// 解析不了的消息重投也没用，记日志后直接提交
		c.logger.Error("匹配事件反序列化失败",
			elog.FieldErr(err),
			elog.Any("offset", msg.TopicPartition.Offset))
		_, _ = c.consumer.CommitMessage(msg)
		return nil
	}

	if err := c.handle(ctx, evt); err != nil {
		return err
	}

	if _, err := c.consumer.CommitMessage(msg); err != nil {
		return fmt.Errorf("提交消息失败: %w", err)
	}
	return nil
}

func (c *EventConsumer) handle(ctx context.Context, evt Event) error {
	key := fmt.Sprintf("%s:%s", evt.Investor.ID, evt.Opportunity.ID)
	exists, err := c.idempotent.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("幂等检查失败: %w", err)
	}
	if exists {
		c.logger.Warn("重复的匹配事件，跳过", elog.String("key", key))
		return nil
	}

	alert, err := c.svc.CreateAlert(ctx, c.toCreateReq(evt))
	if err != nil {
		if errors.Is(err, errs.ErrNoAvailableChannel) {
			// 投资人没有任何可用渠道，这条匹配没法通知
			c.logger.Warn("投资人无可用渠道，丢弃匹配事件",
				elog.String("investorID", evt.Investor.ID),
				elog.String("opportunityID", evt.Opportunity.ID))
			return nil
		}
		// 创建失败要撤销幂等标记，否则 kafka 重投的同一条事件会被当成重复丢掉
		if rerr := c.idempotent.Remove(ctx, key); rerr != nil {
			c.logger.Error("回滚幂等标记失败",
				elog.FieldErr(rerr),
				elog.String("key", key))
		}
		return fmt.Errorf("创建警报失败: %w", err)
	}

	dctx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()
	if _, err := c.dispatcher.Dispatch(dctx, alert); err != nil {
		// 首次投递落库失败由待投递扫描兜底，消息本身照常提交
		c.logger.Error("首次投递失败",
			elog.FieldErr(err),
			elog.String("alertID", alert.ID))
	}
	return nil
}

func (c *EventConsumer) toCreateReq(evt Event) alertsvc.CreateAlertReq {
	req := alertsvc.CreateAlertReq{
		Investor: domain.InvestorProfile{
			ID:          evt.Investor.ID,
			Name:        evt.Investor.Name,
			RiskProfile: evt.Investor.RiskProfile,
		},
		Opportunity: domain.Opportunity{
			ID:                   evt.Opportunity.ID,
			Name:                 evt.Opportunity.Name,
			Sector:               evt.Opportunity.Sector,
			InvestmentAmount:     evt.Opportunity.InvestmentAmount,
			Location:             evt.Opportunity.Location,
			DealType:             evt.Opportunity.DealType,
			Urgent:               evt.Opportunity.Urgent,
			CompetitiveSituation: evt.Opportunity.CompetitiveSituation,
		},
		MatchScore: evt.MatchScore,
	}
	if evt.AdditionalData != nil {
		req.Extra = &domain.ExtraContext{
			KeyMetrics:            evt.AdditionalData.KeyMetrics,
			CompetitiveAdvantages: evt.AdditionalData.CompetitiveAdvantages,
			TeamHighlights:        evt.AdditionalData.TeamHighlights,
		}
	}
	return req
}
