package ioc

import (
	"time"

	"gitee.com/flycash/alert-platform/internal/event/delivery"
	"gitee.com/flycash/alert-platform/internal/repository"
	"gitee.com/flycash/alert-platform/internal/service/channel"
	"gitee.com/flycash/alert-platform/internal/service/sender"
	"github.com/gotomicro/ego/core/econf"
)

func InitDispatcher(
	repo repository.AlertRepository,
	followupRepo repository.FollowupRepository,
	table *channel.Table,
	producer delivery.DeliveryEventProducer,
) sender.Dispatcher {
	type Config struct {
		PerChannelTimeoutSeconds int   `yaml:"perChannelTimeoutSeconds"`
		MaxRetries               int   `yaml:"maxRetries"`
		FollowupDelaysHours      []int `yaml:"followupDelaysHours"`
	}
	var cfg Config
	if err := econf.UnmarshalKey("alert", &cfg); err != nil {
		panic(err)
	}

	delays := make([]time.Duration, 0, len(cfg.FollowupDelaysHours))
	for _, h := range cfg.FollowupDelaysHours {
		delays = append(delays, time.Duration(h)*time.Hour)
	}

	d := sender.NewDispatcher(repo, followupRepo, table, producer, sender.Config{
		PerChannelTimeout: time.Duration(cfg.PerChannelTimeoutSeconds) * time.Second,
		MaxRetries:        cfg.MaxRetries,
		FollowupDelays:    delays,
	})
	return sender.NewObservabilityDispatcher(d)
}
