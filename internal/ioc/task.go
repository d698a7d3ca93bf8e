package ioc

import (
	"context"
	"time"

	"gitee.com/flycash/alert-platform/internal/repository"
	alertsvc "gitee.com/flycash/alert-platform/internal/service/alert"
	"gitee.com/flycash/alert-platform/internal/service/followup"
	"gitee.com/flycash/alert-platform/internal/service/sender"
	"github.com/ego-component/eetcd"
	"github.com/gotomicro/ego/core/econf"
	"github.com/meoying/dlock-go"
)

// Task 后台常驻任务，Start 阻塞运行直到 ctx 取消
type Task interface {
	Start(ctx context.Context)
}

func sweepInterval() time.Duration {
	seconds := econf.GetInt("alert.sweepIntervalSeconds")
	return time.Duration(seconds) * time.Second
}

func InitRetrySweepTask(
	dclient dlock.Client,
	repo repository.AlertRepository,
	dispatcher sender.Dispatcher,
	etcdClient *eetcd.Component,
) *alertsvc.RetrySweepTask {
	maxRetries := econf.GetInt("alert.maxRetries")
	task := alertsvc.NewRetrySweepTask(dclient, repo, dispatcher, maxRetries, sweepInterval())
	WatchRetryBatchSize(etcdClient, task)
	return task
}

func InitPendingSweepTask(
	dclient dlock.Client,
	repo repository.AlertRepository,
	dispatcher sender.Dispatcher,
) *alertsvc.PendingSweepTask {
	return alertsvc.NewPendingSweepTask(dclient, repo, dispatcher, sweepInterval())
}

func InitExpirySweepTask(dclient dlock.Client, repo repository.AlertRepository) *alertsvc.ExpirySweepTask {
	return alertsvc.NewExpirySweepTask(dclient, repo, sweepInterval())
}

func InitFollowupSweepTask(dclient dlock.Client, svc *followup.Service) *followup.SweepTask {
	seconds := econf.GetInt("alert.followupSweepIntervalSeconds")
	return followup.NewSweepTask(dclient, svc, time.Duration(seconds)*time.Second)
}

func InitTasks(
	t1 *alertsvc.RetrySweepTask,
	t2 *alertsvc.PendingSweepTask,
	t3 *alertsvc.ExpirySweepTask,
	t4 *followup.SweepTask,
) []Task {
	return []Task{
		t1,
		t2,
		t3,
		t4,
	}
}
