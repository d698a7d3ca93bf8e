package followup

import (
	"context"
	"time"

	"gitee.com/flycash/alert-platform/internal/pkg/loopjob"
	"github.com/gotomicro/ego/core/elog"
	"github.com/meoying/dlock-go"
)

const defaultSweepInterval = time.Minute

// SweepTask 跟进提醒扫描任务，持有分布式锁后周期性兑现到期检查点
type SweepTask struct {
	dclient       dlock.Client
	svc           *Service
	sweepInterval time.Duration
	logger        *elog.Component
}

// NewSweepTask 创建跟进提醒扫描任务
func NewSweepTask(dclient dlock.Client, svc *Service, sweepInterval time.Duration) *SweepTask {
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}
	return &SweepTask{
		dclient:       dclient,
		svc:           svc,
		sweepInterval: sweepInterval,
		logger:        elog.DefaultLogger,
	}
}

func (t *SweepTask) Start(ctx context.Context) {
	const key = "alert_followup_sweep"
	lj := loopjob.NewInfiniteLoop(t.dclient, t.sweep, key, t.sweepInterval+time.Minute)
	lj.Run(ctx)
}

func (t *SweepTask) sweep(ctx context.Context) error {
	if err := t.svc.ProcessDue(ctx); err != nil {
		t.logger.Error("兑现到期跟进检查点失败", elog.FieldErr(err))
	}
	select {
	case <-ctx.Done():
	case <-time.After(t.sweepInterval):
	}
	return nil
}
