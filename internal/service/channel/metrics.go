package channel

import (
	"context"
	"time"

	"gitee.com/flycash/alert-platform/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	sendDurationSummary = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "alert_channel_send_duration_seconds",
			Help:       "渠道投递警报耗时统计（秒）",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.95: 0.005, 0.99: 0.001},
			MaxAge:     time.Minute * 5,
		},
		[]string{"channel", "status"},
	)

	sendCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alert_channel_send_total",
			Help: "渠道投递警报总数",
		},
		[]string{"channel", "status"},
	)
)

func init() {
	prometheus.MustRegister(sendDurationSummary, sendCounter)
}

// MetricsChannel 为渠道实现添加指标收集的装饰器
type MetricsChannel struct {
	channel Channel
}

// NewMetricsChannel 创建一个新的带有指标收集的渠道
func NewMetricsChannel(ch Channel) *MetricsChannel {
	return &MetricsChannel{channel: ch}
}

func (m *MetricsChannel) Name() domain.Channel {
	return m.channel.Name()
}

func (m *MetricsChannel) Send(ctx context.Context, msg domain.ChannelMessage) error {
	startTime := time.Now()

	err := m.channel.Send(ctx, msg)

	const (
		successStatus = "success"
		errorStatus   = "error"
	)
	status := successStatus
	if err != nil {
		status = errorStatus
	}

	sendCounter.WithLabelValues(m.channel.Name().String(), status).Inc()
	sendDurationSummary.WithLabelValues(m.channel.Name().String(), status).
		Observe(time.Since(startTime).Seconds())

	return err
}
