package alert

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"gitee.com/flycash/alert-platform/internal/domain"
	"gitee.com/flycash/alert-platform/internal/pkg/loopjob"
	"gitee.com/flycash/alert-platform/internal/repository"
	"gitee.com/flycash/alert-platform/internal/service/sender"
	"github.com/gotomicro/ego/core/elog"
	"github.com/hashicorp/go-multierror"
	"github.com/meoying/dlock-go"
)

const (
	defaultMaxRetries     = 3
	defaultSweepBatchSize = 100
	lockHoldBuffer        = time.Minute
)

// RetrySweepTask 重试扫描任务。周期性扫描未到终态的警报，
// 对还有重试预算的失败渠道重新投递，已送达的渠道不会被重发。
type RetrySweepTask struct {
	dclient       dlock.Client
	repo          repository.AlertRepository
	dispatcher    sender.Dispatcher
	maxRetries    int
	batchSize     atomic.Int64
	sweepInterval time.Duration
	logger        *elog.Component
}

// NewRetrySweepTask 创建重试扫描任务，maxRetries/sweepInterval 传 0 用默认值
func NewRetrySweepTask(
	dclient dlock.Client,
	repo repository.AlertRepository,
	dispatcher sender.Dispatcher,
	maxRetries int,
	sweepInterval time.Duration,
) *RetrySweepTask {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if sweepInterval <= 0 {
		sweepInterval = 5 * time.Minute
	}
	t := &RetrySweepTask{
		dclient:       dclient,
		repo:          repo,
		dispatcher:    dispatcher,
		maxRetries:    maxRetries,
		sweepInterval: sweepInterval,
		logger:        elog.DefaultLogger,
	}
	t.batchSize.Store(defaultSweepBatchSize)
	return t
}

// UpdateBatchSize 热更新单页扫描条数，etcd 监听回调里调用
func (t *RetrySweepTask) UpdateBatchSize(n int) {
	if n > 0 {
		t.batchSize.Store(int64(n))
	}
}

func (t *RetrySweepTask) Start(ctx context.Context) {
	const key = "alert_retry_sweep"
	lj := loopjob.NewInfiniteLoop(t.dclient, t.sweep, key, t.sweepInterval+lockHoldBuffer)
	lj.Run(ctx)
}

// sweep 一轮扫描处理一页。投递成功的警报会离开筛选集，
// 固定从头查询不会漏行，没扫到的留给下一轮。
// 单条警报的失败只记录，不中断整轮。
func (t *RetrySweepTask) sweep(ctx context.Context) error {
	now := time.Now()
	batch := int(t.batchSize.Load())
	var merr *multierror.Error

	alerts, err := t.repo.FindActive(ctx, now, 0, batch)
	if err != nil {
		merr = multierror.Append(merr, err)
	}

	for i := range alerts {
		a := alerts[i]
		retryable := a.RetryableChannels(t.maxRetries)
		if len(retryable) == 0 {
			// 没有可重试渠道：要么全部送达，要么重试预算已耗尽。
			// 耗尽的渠道永久停留在最后的失败状态，只对外暴露日志。
			if exhausted := t.exhaustedChannels(a); len(exhausted) > 0 {
				t.logger.Warn("警报存在重试预算耗尽的渠道",
					elog.String("alertID", a.ID),
					elog.Any("channels", exhausted))
			}
			continue
		}

		if _, err := t.dispatcher.DispatchChannels(ctx, a, retryable); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("重试警报 %s 失败: %w", a.ID, err))
			continue
		}
	}

	t.sleep(ctx)
	return merr.ErrorOrNil()
}

// exhaustedChannels 失败但重试预算已经用完的渠道
func (t *RetrySweepTask) exhaustedChannels(a domain.Alert) []string {
	var res []string
	for i := range a.Channels {
		ch := a.Channels[i].Channel
		if a.DeliveryStatus[ch].IsRetryable() && a.RetryCount[ch] >= t.maxRetries {
			res = append(res, ch.String())
		}
	}
	return res
}

func (t *RetrySweepTask) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(t.sweepInterval):
	}
}
