package ioc

import (
	alertsvc "gitee.com/flycash/alert-platform/internal/service/alert"
	"github.com/gotomicro/ego/core/econf"
)

func InitPriorityCalculator() *alertsvc.PriorityCalculator {
	threshold := econf.GetFloat64("alert.largeDealThreshold")
	return alertsvc.NewPriorityCalculator(threshold)
}
