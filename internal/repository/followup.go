package repository

import (
	"context"
	"time"

	"gitee.com/flycash/alert-platform/internal/domain"
	"gitee.com/flycash/alert-platform/internal/repository/dao"
)

// FollowupCheckpoint 跟进提醒检查点领域视图
type FollowupCheckpoint struct {
	ID         int64
	AlertID    string
	DelayHours int
	DeliverAt  time.Time
}

// FollowupRepository 跟进提醒任务仓储接口
type FollowupRepository interface {
	// Schedule 为警报登记一组检查点，delays 相对 sentAt，重复登记幂等
	Schedule(ctx context.Context, alert domain.Alert, sentAt time.Time, delays []time.Duration) error

	// FindDue 查询已到期待处理的检查点
	FindDue(ctx context.Context, now time.Time, limit int) ([]FollowupCheckpoint, error)

	// MarkDone 检查点已生成提醒
	MarkDone(ctx context.Context, id int64) error

	// CancelRemaining 作废一个警报剩余的全部检查点
	CancelRemaining(ctx context.Context, alertID string) (int64, error)
}

type followupRepository struct {
	dao dao.FollowupTaskDAO
}

// NewFollowupRepository 创建跟进任务仓储实例
func NewFollowupRepository(d dao.FollowupTaskDAO) FollowupRepository {
	return &followupRepository{
		dao: d,
	}
}

func (r *followupRepository) Schedule(ctx context.Context, alert domain.Alert, sentAt time.Time, delays []time.Duration) error {
	tasks := make([]dao.FollowupTask, 0, len(delays))
	for _, delay := range delays {
		tasks = append(tasks, dao.FollowupTask{
			AlertID:    alert.ID,
			DelayHours: int(delay / time.Hour),
			DeliverAt:  sentAt.Add(delay).UnixMilli(),
			Status:     dao.FollowupStatusPending,
		})
	}
	return r.dao.BatchCreate(ctx, tasks)
}

func (r *followupRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]FollowupCheckpoint, error) {
	tasks, err := r.dao.FindDue(ctx, now.UnixMilli(), limit)
	if err != nil {
		return nil, err
	}
	checkpoints := make([]FollowupCheckpoint, len(tasks))
	for i := range tasks {
		checkpoints[i] = FollowupCheckpoint{
			ID:         tasks[i].ID,
			AlertID:    tasks[i].AlertID,
			DelayHours: tasks[i].DelayHours,
			DeliverAt:  time.UnixMilli(tasks[i].DeliverAt),
		}
	}
	return checkpoints, nil
}

func (r *followupRepository) MarkDone(ctx context.Context, id int64) error {
	return r.dao.UpdateStatus(ctx, id, dao.FollowupStatusDone)
}

func (r *followupRepository) CancelRemaining(ctx context.Context, alertID string) (int64, error) {
	return r.dao.CancelByAlertID(ctx, alertID)
}
