package ratelimit

import (
	"context"
	_ "embed"
	"time"

	"github.com/redis/go-redis/v9"
)

//go:embed lua/slide_window.lua
var slidingWindowScript string

var _ Limiter = (*RedisSlidingWindowLimiter)(nil)

const slidingWindowKeyPrefix = "alert:ratelimit:"

// RedisSlidingWindowLimiter 基于 Redis 有序集合的滑动窗口限流器。
// 窗口内的请求数达到 rate 时开始限流，匹配事件消费用它控制拉取速率。
type RedisSlidingWindowLimiter struct {
	cmd      redis.Cmdable
	interval time.Duration
	rate     int
}

func NewRedisSlidingWindowLimiter(cmd redis.Cmdable, interval time.Duration, rate int) *RedisSlidingWindowLimiter {
	return &RedisSlidingWindowLimiter{
		cmd:      cmd,
		interval: interval,
		rate:     rate,
	}
}

func (r *RedisSlidingWindowLimiter) Limit(ctx context.Context, key string) (bool, error) {
	return r.cmd.Eval(ctx, slidingWindowScript,
		[]string{slidingWindowKeyPrefix + key},
		r.interval.Milliseconds(),
		r.rate,
		time.Now().UnixMilli(),
	).Bool()
}
