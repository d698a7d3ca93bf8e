package metrics

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

var (
	commandDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace:  "alert_platform",
			Subsystem:  "redis",
			Name:       "command_duration_seconds",
			Help:       "redis 命令耗时，按命令与结果区分",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"command", "status"},
	)

	dialCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "alert_platform",
			Subsystem: "redis",
			Name:      "dials_total",
			Help:      "redis 建连次数",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(commandDuration, dialCounter)
}

// Hook 给 redis 客户端挂上命令耗时与建连指标
type Hook struct{}

// WithMetrics 为 redis 客户端添加指标收集
func WithMetrics(client *redis.Client) *redis.Client {
	client.AddHook(&Hook{})
	return client
}

func (h *Hook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		dialCounter.WithLabelValues(statusOf(err)).Inc()
		return conn, err
	}
}

func (h *Hook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		commandDuration.WithLabelValues(cmd.Name(), statusOf(err)).
			Observe(time.Since(start).Seconds())
		return err
	}
}

// ProcessPipelineHook 整条管道按一个 pipeline 伪命令记录，
// 任意一条子命令出错就算整体出错
func (h *Hook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)

		status := statusOf(err)
		for _, cmd := range cmds {
			if cmdErr := cmd.Err(); cmdErr != nil && !errors.Is(cmdErr, redis.Nil) {
				status = "error"
				break
			}
		}
		commandDuration.WithLabelValues("pipeline", status).
			Observe(time.Since(start).Seconds())
		return err
	}
}

// redis.Nil 是未命中，不算错误
func statusOf(err error) string {
	if err != nil && !errors.Is(err, redis.Nil) {
		return "error"
	}
	return "success"
}
