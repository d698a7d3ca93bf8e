package loopjob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gotomicro/ego/core/elog"
	"github.com/meoying/dlock-go"
)

// 在没有分布式任务调度平台的情况下，使用这个来调度后台扫描任务

const defaultTimeout = time.Second * 3

// InfiniteLoop 持有分布式锁后反复执行业务，保证同一时刻全集群只有一个实例在跑
type InfiniteLoop struct {
	dclient dlock.Client
	key     string
	holdDur time.Duration
	logger  *elog.Component
	biz     func(ctx context.Context) error
}

// NewInfiniteLoop biz 是要循环执行的业务，ctx 取消时整个循环退出。
// holdDur 是锁的持有时长，也是抢锁失败后的重试间隔。
func NewInfiniteLoop(
	dclient dlock.Client,
	biz func(ctx context.Context) error,
	key string,
	holdDur time.Duration,
) *InfiniteLoop {
	return &InfiniteLoop{
		dclient: dclient,
		key:     key,
		holdDur: holdDur,
		logger:  elog.DefaultLogger.With(elog.String("key", key)),
		biz:     biz,
	}
}

// Run 当 ctx 被取消的时候，就会退出
func (l *InfiniteLoop) Run(ctx context.Context) {
	for {
		lock, err := l.dclient.NewLock(ctx, l.key, l.holdDur)
		if err != nil {
			l.logger.Error("初始化分布式锁失败，重试", elog.FieldErr(err))
			if l.sleepOrDone(ctx) {
				return
			}
			continue
		}

		lockCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
		err = lock.Lock(lockCtx)
		cancel()
		if err != nil {
			// 锁被别的实例持有属于正常情况
			l.logger.Info("没有抢到分布式锁，稍后重试", elog.FieldErr(err))
			if l.sleepOrDone(ctx) {
				return
			}
			continue
		}

		// 在这里执行业务
		err = l.bizLoop(ctx, lock)
		// 要么是续约失败，要么是 ctx 本身已经过期了
		if err != nil {
			l.logger.Warn("任务循环中断", elog.FieldErr(err))
		}
		// 不管是什么原因，都要释放分布式锁。
		// 要摆脱 ctx 的控制，因为此时 ctx 可能已被取消，但仍需尝试解锁。
		unCtx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		//nolint:contextcheck // 原始 ctx 可能已被取消，解锁必须用新的 Context
		unErr := lock.Unlock(unCtx)
		cancel()
		if unErr != nil {
			l.logger.Error("释放分布式锁失败", elog.FieldErr(unErr))
		}

		err = ctx.Err()
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			l.logger.Info("任务被取消，退出任务循环")
			return
		default:
			if l.sleepOrDone(ctx) {
				return
			}
		}
	}
}

func (l *InfiniteLoop) bizLoop(ctx context.Context, lock dlock.Lock) error {
	for {
		err := l.biz(ctx)
		if err != nil {
			l.logger.Error("业务执行失败", elog.FieldErr(err))
		}
		if ctx.Err() != nil {
			// 要中断这个循环了
			return ctx.Err()
		}
		refCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
		err = lock.Refresh(refCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("分布式锁续约失败 %w", err)
		}
	}
}

// sleepOrDone 暂停一个持锁周期，ctx 取消时返回 true
func (l *InfiniteLoop) sleepOrDone(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		l.logger.Info("任务被取消，退出任务循环")
		return true
	case <-time.After(l.holdDur):
		return false
	}
}
