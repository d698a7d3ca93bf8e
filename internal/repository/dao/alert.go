package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/alert-platform/internal/errs"

	"github.com/ego-component/egorm"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

type AlertDAO interface {
	// Create 创建单条警报记录
	Create(ctx context.Context, data Alert) (Alert, error)

	// GetByID 根据ID查询警报
	GetByID(ctx context.Context, id string) (Alert, error)

	// CASUpdateDelivery 以乐观锁方式写回一次投递的合并结果
	CASUpdateDelivery(ctx context.Context, data Alert) error

	// MarkRead 将 pending/sent 状态的警报标记为已读
	MarkRead(ctx context.Context, id string, readAt int64) (int64, error)

	// MarkExpired 批量把过期警报置为 expired，返回本批处理条数
	MarkExpired(ctx context.Context, now int64, batchSize int) (int64, error)

	// FindActive 分页查询未到终态且未过期的警报，供重试扫描使用
	FindActive(ctx context.Context, now int64, offset, limit int) ([]Alert, error)

	// FindPending 分页查询待投递且未过期的警报
	FindPending(ctx context.Context, now int64, offset, limit int) ([]Alert, error)

	// ListByInvestor 查询投资人名下的警报，includeExpired 为 false 时过滤掉已过期的
	ListByInvestor(ctx context.Context, investorID string, includeExpired bool, now int64) ([]Alert, error)

	// ListInvestorIDs 指定时间之后有过警报的投资人，统计归档用
	ListInvestorIDs(ctx context.Context, since int64) ([]string, error)
}

// Alert 警报记录表
type Alert struct {
	ID             string  `gorm:"primaryKey;type:VARCHAR(128);comment:'警报ID，雪花ID或原警报ID加跟进后缀'"`
	InvestorID     string  `gorm:"type:VARCHAR(64);NOT NULL;index:idx_investor,priority:1;comment:'投资人ID'"`
	OpportunityID  string  `gorm:"type:VARCHAR(64);NOT NULL;comment:'标的ID'"`
	Title          string  `gorm:"type:VARCHAR(512);NOT NULL;comment:'渲染后的标题'"`
	Description    string  `gorm:"type:TEXT;NOT NULL;comment:'渲染后的正文'"`
	MatchScore     float64 `gorm:"type:DOUBLE;NOT NULL;comment:'匹配得分'"`
	Priority       string  `gorm:"type:ENUM('low','medium','high','urgent');NOT NULL;comment:'优先级'"`
	Status         string  `gorm:"type:ENUM('pending','sent','read','expired');NOT NULL;DEFAULT:'pending';index:idx_status_expires,priority:1;comment:'整体状态'"`
	Channels       string  `gorm:"type:TEXT;NOT NULL;comment:'渠道配置，JSON数组'"`
	DeliveryStatus string  `gorm:"type:TEXT;comment:'渠道投递结果，JSON对象'"`
	RetryCount     string  `gorm:"type:TEXT;comment:'渠道重试次数，JSON对象'"`
	SentAt         int64   `gorm:"comment:'首次投递成功时间，0表示未成功'"`
	ReadAt         int64   `gorm:"comment:'已读时间，0表示未读'"`
	ExpiresAt      int64   `gorm:"NOT NULL;index:idx_status_expires,priority:2;comment:'过期时间'"`
	Version        int     `gorm:"type:INT;NOT NULL;DEFAULT:1;comment:'版本号，用于CAS操作'"`
	Ctime          int64
	Utime          int64
}

type alertDAO struct {
	db *egorm.Component
}

// NewAlertDAO 创建警报DAO实例
func NewAlertDAO(db *egorm.Component) AlertDAO {
	return &alertDAO{
		db: db,
	}
}

func (d *alertDAO) Create(ctx context.Context, data Alert) (Alert, error) {
	now := time.Now().UnixMilli()
	data.Ctime, data.Utime = now, now
	data.Version = 1

	if err := d.db.WithContext(ctx).Create(&data).Error; err != nil {
		if isUniqueConstraintError(err) {
			return Alert{}, fmt.Errorf("%w: id=%s", errs.ErrAlertDuplicate, data.ID)
		}
		return Alert{}, err
	}
	return data, nil
}

// isUniqueConstraintError 检查是否是唯一索引冲突错误
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	me := new(mysql.MySQLError)
	if ok := errors.As(err, &me); ok {
		const uniqueIndexErrNo uint16 = 1062
		return me.Number == uniqueIndexErrNo
	}
	return false
}

func (d *alertDAO) GetByID(ctx context.Context, id string) (Alert, error) {
	var alert Alert
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&alert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Alert{}, fmt.Errorf("%w: id=%s", errs.ErrAlertNotFound, id)
		}
		return Alert{}, err
	}
	return alert, nil
}

// CASUpdateDelivery 一次投递的全部渠道结果在这里一次性落库
func (d *alertDAO) CASUpdateDelivery(ctx context.Context, data Alert) error {
	updates := map[string]any{
		"status":          data.Status,
		"delivery_status": data.DeliveryStatus,
		"retry_count":     data.RetryCount,
		"sent_at":         data.SentAt,
		"version":         gorm.Expr("version + 1"),
		"utime":           time.Now().UnixMilli(),
	}

	result := d.db.WithContext(ctx).Model(&Alert{}).
		Where("id = ? AND version = ?", data.ID, data.Version).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected < 1 {
		return fmt.Errorf("并发竞争失败 %w, id %s", errs.ErrAlertVersionMismatch, data.ID)
	}
	return nil
}

func (d *alertDAO) MarkRead(ctx context.Context, id string, readAt int64) (int64, error) {
	result := d.db.WithContext(ctx).Model(&Alert{}).
		Where("id = ? AND status IN ?", id, []string{
			AlertStatusPending,
			AlertStatusSent,
		}).
		Updates(map[string]any{
			"status":  AlertStatusRead,
			"read_at": readAt,
			"version": gorm.Expr("version + 1"),
			"utime":   time.Now().UnixMilli(),
		})
	return result.RowsAffected, result.Error
}

func (d *alertDAO) MarkExpired(ctx context.Context, now int64, batchSize int) (int64, error) {
	// MySQL 的 UPDATE 不支持直接 LIMIT 子查询自身，先查一批ID再更新
	var ids []string
	err := d.db.WithContext(ctx).Model(&Alert{}).
		Where("expires_at < ? AND status IN ?", now, []string{
			AlertStatusPending,
			AlertStatusSent,
		}).
		Limit(batchSize).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	result := d.db.WithContext(ctx).Model(&Alert{}).
		Where("id IN ? AND status IN ?", ids, []string{
			AlertStatusPending,
			AlertStatusSent,
		}).
		Updates(map[string]any{
			"status":  AlertStatusExpired,
			"version": gorm.Expr("version + 1"),
			"utime":   time.Now().UnixMilli(),
		})
	return result.RowsAffected, result.Error
}

func (d *alertDAO) FindActive(ctx context.Context, now int64, offset, limit int) ([]Alert, error) {
	var alerts []Alert
	err := d.db.WithContext(ctx).
		Where("status IN ? AND expires_at > ?", []string{
			AlertStatusPending,
			AlertStatusSent,
		}, now).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("查询活跃警报失败: %w", err)
	}
	return alerts, nil
}

func (d *alertDAO) FindPending(ctx context.Context, now int64, offset, limit int) ([]Alert, error) {
	var alerts []Alert
	err := d.db.WithContext(ctx).
		Where("status = ? AND expires_at > ?", AlertStatusPending, now).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("查询待投递警报失败: %w", err)
	}
	return alerts, nil
}

func (d *alertDAO) ListByInvestor(ctx context.Context, investorID string, includeExpired bool, now int64) ([]Alert, error) {
	db := d.db.WithContext(ctx).Where("investor_id = ?", investorID)
	if !includeExpired {
		db = db.Where("expires_at > ?", now)
	}
	var alerts []Alert
	err := db.Order("ctime DESC").Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("查询投资人警报失败: %w", err)
	}
	return alerts, nil
}

func (d *alertDAO) ListInvestorIDs(ctx context.Context, since int64) ([]string, error) {
	var ids []string
	err := d.db.WithContext(ctx).Model(&Alert{}).
		Distinct("investor_id").
		Where("ctime >= ?", since).
		Pluck("investor_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("查询投资人列表失败: %w", err)
	}
	return ids, nil
}

// 状态列的取值，与领域层保持一致
const (
	AlertStatusPending = "pending"
	AlertStatusSent    = "sent"
	AlertStatusRead    = "read"
	AlertStatusExpired = "expired"
)
