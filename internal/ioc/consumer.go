package ioc

import (
	"time"

	"gitee.com/flycash/alert-platform/internal/event/match"
	"gitee.com/flycash/alert-platform/internal/pkg/idempotent"
	"gitee.com/flycash/alert-platform/internal/pkg/mqx"
	"gitee.com/flycash/alert-platform/internal/pkg/ratelimit"
	alertsvc "gitee.com/flycash/alert-platform/internal/service/alert"
	"gitee.com/flycash/alert-platform/internal/service/sender"
	"github.com/gotomicro/ego/core/econf"
	"github.com/redis/go-redis/v9"
)

func InitIdempotencyService(rdb *redis.Client) idempotent.IdempotencyService {
	const (
		keyPrefix = "alert:match"
		ttl       = 7 * 24 * time.Hour
	)
	return idempotent.NewRedisIdempotencyService(rdb, keyPrefix, ttl)
}

func InitLimiter(rdb *redis.Client) ratelimit.Limiter {
	rate := econf.GetInt("alert.consumeRatePerSecond")
	if rate <= 0 {
		const defaultRate = 1000
		rate = defaultRate
	}
	return ratelimit.NewRedisSlidingWindowLimiter(rdb, time.Second, rate)
}

func InitMatchConsumer(
	svc alertsvc.Service,
	dispatcher sender.Dispatcher,
	consumer mqx.Consumer,
	idempotentSvc idempotent.IdempotencyService,
	limiter ratelimit.Limiter,
) *match.EventConsumer {
	c, err := match.NewEventConsumer(svc, dispatcher, consumer, idempotentSvc, limiter)
	if err != nil {
		panic(err)
	}
	return c
}
