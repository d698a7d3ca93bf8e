package alert

import (
	"context"
	"time"

	"gitee.com/flycash/alert-platform/internal/pkg/loopjob"
	"gitee.com/flycash/alert-platform/internal/repository"
	"github.com/gotomicro/ego/core/elog"
	"github.com/meoying/dlock-go"
)

// ExpirySweepTask 过期扫描任务。把过了 expires_at 的警报置为 expired，
// 对已过期的警报重复执行没有任何效果。
type ExpirySweepTask struct {
	dclient       dlock.Client
	repo          repository.AlertRepository
	batchSize     int
	sweepInterval time.Duration
	logger        *elog.Component
}

// NewExpirySweepTask 创建过期扫描任务
func NewExpirySweepTask(dclient dlock.Client, repo repository.AlertRepository, sweepInterval time.Duration) *ExpirySweepTask {
	if sweepInterval <= 0 {
		sweepInterval = 5 * time.Minute
	}
	return &ExpirySweepTask{
		dclient:       dclient,
		repo:          repo,
		batchSize:     defaultSweepBatchSize,
		sweepInterval: sweepInterval,
		logger:        elog.DefaultLogger,
	}
}

func (t *ExpirySweepTask) Start(ctx context.Context) {
	const key = "alert_expiry_sweep"
	lj := loopjob.NewInfiniteLoop(t.dclient, t.sweep, key, t.sweepInterval+lockHoldBuffer)
	lj.Run(ctx)
}

func (t *ExpirySweepTask) sweep(ctx context.Context) error {
	for {
		cnt, err := t.repo.MarkExpired(ctx, time.Now(), t.batchSize)
		if err != nil {
			t.sleepOrDone(ctx)
			return err
		}
		if cnt > 0 {
			t.logger.Info("过期警报已标记", elog.Int64("count", cnt))
		}
		// 不足一批说明都处理完了，歇一个扫描周期
		if cnt < int64(t.batchSize) {
			break
		}
	}
	t.sleepOrDone(ctx)
	return nil
}

func (t *ExpirySweepTask) sleepOrDone(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(t.sweepInterval):
	}
}
