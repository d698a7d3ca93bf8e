package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/ego-component/egorm"
	"gorm.io/gorm"
)

// 跟进提醒任务状态
const (
	FollowupStatusPending   = "pending"   // 未到期
	FollowupStatusDone      = "done"      // 已生成提醒
	FollowupStatusCancelled = "cancelled" // 原警报已脱离 sent 状态，剩余提醒作废
)

// FollowupTask 跟进提醒任务表，每条对应原警报的一个延迟检查点
type FollowupTask struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	AlertID    string `gorm:"type:VARCHAR(128);NOT NULL;uniqueIndex:uk_alert_delay,priority:1;comment:'原警报ID'"`
	DelayHours int    `gorm:"type:INT;NOT NULL;uniqueIndex:uk_alert_delay,priority:2;comment:'相对首次投递成功的延迟小时数'"`
	DeliverAt  int64  `gorm:"NOT NULL;index:idx_status_deliver,priority:2;comment:'到期时间'"`
	Status     string `gorm:"type:ENUM('pending','done','cancelled');NOT NULL;DEFAULT:'pending';index:idx_status_deliver,priority:1;comment:'任务状态'"`
	Ctime      int64
	Utime      int64
}

// TableName 重命名表
func (FollowupTask) TableName() string {
	return "followup_tasks"
}

type FollowupTaskDAO interface {
	// BatchCreate 登记一个警报的全部检查点，重复登记静默跳过
	BatchCreate(ctx context.Context, tasks []FollowupTask) error

	// FindDue 查询已到期且未处理的任务
	FindDue(ctx context.Context, now int64, limit int) ([]FollowupTask, error)

	// UpdateStatus 推进单个任务状态
	UpdateStatus(ctx context.Context, id int64, status string) error

	// CancelByAlertID 作废一个警报尚未到期的全部任务，返回作废条数
	CancelByAlertID(ctx context.Context, alertID string) (int64, error)
}

type followupTaskDAO struct {
	db *egorm.Component
}

// NewFollowupTaskDAO 创建跟进任务DAO实例
func NewFollowupTaskDAO(db *egorm.Component) FollowupTaskDAO {
	return &followupTaskDAO{
		db: db,
	}
}

func (d *followupTaskDAO) BatchCreate(ctx context.Context, tasks []FollowupTask) error {
	if len(tasks) == 0 {
		return nil
	}
	now := time.Now().UnixMilli()
	for i := range tasks {
		tasks[i].Ctime, tasks[i].Utime = now, now
		if tasks[i].Status == "" {
			tasks[i].Status = FollowupStatusPending
		}
	}

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range tasks {
			if err := tx.Create(&tasks[i]).Error; err != nil {
				// 同一个检查点重复登记，保持幂等
				if isUniqueConstraintError(err) {
					continue
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("登记跟进提醒任务失败: %w", err)
	}
	return nil
}

func (d *followupTaskDAO) FindDue(ctx context.Context, now int64, limit int) ([]FollowupTask, error) {
	var tasks []FollowupTask
	err := d.db.WithContext(ctx).
		Where("status = ? AND deliver_at <= ?", FollowupStatusPending, now).
		Order("deliver_at ASC").
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("查询到期跟进任务失败: %w", err)
	}
	return tasks, nil
}

func (d *followupTaskDAO) UpdateStatus(ctx context.Context, id int64, status string) error {
	return d.db.WithContext(ctx).Model(&FollowupTask{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status": status,
			"utime":  time.Now().UnixMilli(),
		}).Error
}

func (d *followupTaskDAO) CancelByAlertID(ctx context.Context, alertID string) (int64, error) {
	result := d.db.WithContext(ctx).Model(&FollowupTask{}).
		Where("alert_id = ? AND status = ?", alertID, FollowupStatusPending).
		Updates(map[string]any{
			"status": FollowupStatusCancelled,
			"utime":  time.Now().UnixMilli(),
		})
	return result.RowsAffected, result.Error
}
