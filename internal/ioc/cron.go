package ioc

import (
	alertsvc "gitee.com/flycash/alert-platform/internal/service/alert"
	"github.com/gotomicro/ego/task/ecron"
)

func Crons(c *alertsvc.StatsArchiveCron) []ecron.Ecron {
	c1 := ecron.Load("cron").Build(ecron.WithJob(c.Do))
	return []ecron.Ecron{c1}
}
