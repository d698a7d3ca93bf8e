package alert

import (
	"context"
	"fmt"
	"time"

	"gitee.com/flycash/alert-platform/internal/pkg/loopjob"
	"gitee.com/flycash/alert-platform/internal/repository"
	"gitee.com/flycash/alert-platform/internal/service/sender"
	"github.com/hashicorp/go-multierror"
	"github.com/meoying/dlock-go"
)

// PendingSweepTask 待投递扫描任务。捡起还停留在 pending 且未过期的警报
// 重新走一遍投递，覆盖进程重启等场景下丢失的首次投递，语义是至少一次。
type PendingSweepTask struct {
	dclient       dlock.Client
	repo          repository.AlertRepository
	dispatcher    sender.Dispatcher
	batchSize     int
	sweepInterval time.Duration
}

// NewPendingSweepTask 创建待投递扫描任务
func NewPendingSweepTask(
	dclient dlock.Client,
	repo repository.AlertRepository,
	dispatcher sender.Dispatcher,
	sweepInterval time.Duration,
) *PendingSweepTask {
	if sweepInterval <= 0 {
		sweepInterval = 5 * time.Minute
	}
	return &PendingSweepTask{
		dclient:       dclient,
		repo:          repo,
		dispatcher:    dispatcher,
		batchSize:     defaultSweepBatchSize,
		sweepInterval: sweepInterval,
	}
}

func (t *PendingSweepTask) Start(ctx context.Context) {
	const key = "alert_pending_sweep"
	lj := loopjob.NewInfiniteLoop(t.dclient, t.sweep, key, t.sweepInterval+lockHoldBuffer)
	lj.Run(ctx)
}

// sweep 一轮扫描处理一页。投递成功的警报会离开 pending 筛选集，
// 固定从头查询不会漏行，没扫到的留给下一轮。
func (t *PendingSweepTask) sweep(ctx context.Context) error {
	now := time.Now()
	var merr *multierror.Error

	alerts, err := t.repo.FindPending(ctx, now, 0, t.batchSize)
	if err != nil {
		merr = multierror.Append(merr, err)
	}

	for i := range alerts {
		if _, err := t.dispatcher.Dispatch(ctx, alerts[i]); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("补投警报 %s 失败: %w", alerts[i].ID, err))
			continue
		}
	}

	select {
	case <-ctx.Done():
	case <-time.After(t.sweepInterval):
	}
	return merr.ErrorOrNil()
}
