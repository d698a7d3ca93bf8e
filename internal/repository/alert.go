package repository

import (
	"context"
	"encoding/json"
	"time"

	"gitee.com/flycash/alert-platform/internal/domain"
	"gitee.com/flycash/alert-platform/internal/repository/dao"
)

// AlertRepository 警报仓储接口
type AlertRepository interface {
	// Create 创建一条警报
	Create(ctx context.Context, alert domain.Alert) (domain.Alert, error)

	// GetByID 根据ID获取警报
	GetByID(ctx context.Context, id string) (domain.Alert, error)

	// CASUpdateDelivery 以乐观锁方式写回一次投递的合并结果
	CASUpdateDelivery(ctx context.Context, alert domain.Alert) error

	// MarkRead 标记已读，返回是否发生了状态变化
	MarkRead(ctx context.Context, id string, readAt time.Time) (bool, error)

	// MarkExpired 批量把过期警报置为 expired，返回本批处理条数
	MarkExpired(ctx context.Context, now time.Time, batchSize int) (int64, error)

	// FindActive 分页查询未到终态且未过期的警报
	FindActive(ctx context.Context, now time.Time, offset, limit int) ([]domain.Alert, error)

	// FindPending 分页查询待投递且未过期的警报
	FindPending(ctx context.Context, now time.Time, offset, limit int) ([]domain.Alert, error)

	// ListByInvestor 查询投资人名下的警报
	ListByInvestor(ctx context.Context, investorID string, includeExpired bool, now time.Time) ([]domain.Alert, error)

	// ListInvestorIDs 指定时间之后有过警报的投资人
	ListInvestorIDs(ctx context.Context, since time.Time) ([]string, error)
}

// alertRepository 警报仓储实现
type alertRepository struct {
	dao dao.AlertDAO
}

// NewAlertRepository 创建警报仓储实例
func NewAlertRepository(d dao.AlertDAO) AlertRepository {
	return &alertRepository{
		dao: d,
	}
}

func (r *alertRepository) Create(ctx context.Context, alert domain.Alert) (domain.Alert, error) {
	created, err := r.dao.Create(ctx, r.toEntity(alert))
	if err != nil {
		return domain.Alert{}, err
	}
	return r.toDomain(created), nil
}

func (r *alertRepository) GetByID(ctx context.Context, id string) (domain.Alert, error) {
	entity, err := r.dao.GetByID(ctx, id)
	if err != nil {
		return domain.Alert{}, err
	}
	return r.toDomain(entity), nil
}

func (r *alertRepository) CASUpdateDelivery(ctx context.Context, alert domain.Alert) error {
	return r.dao.CASUpdateDelivery(ctx, r.toEntity(alert))
}

func (r *alertRepository) MarkRead(ctx context.Context, id string, readAt time.Time) (bool, error) {
	affected, err := r.dao.MarkRead(ctx, id, readAt.UnixMilli())
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *alertRepository) MarkExpired(ctx context.Context, now time.Time, batchSize int) (int64, error) {
	return r.dao.MarkExpired(ctx, now.UnixMilli(), batchSize)
}

func (r *alertRepository) FindActive(ctx context.Context, now time.Time, offset, limit int) ([]domain.Alert, error) {
	entities, err := r.dao.FindActive(ctx, now.UnixMilli(), offset, limit)
	if err != nil {
		return nil, err
	}
	return r.toDomains(entities), nil
}

func (r *alertRepository) FindPending(ctx context.Context, now time.Time, offset, limit int) ([]domain.Alert, error) {
	entities, err := r.dao.FindPending(ctx, now.UnixMilli(), offset, limit)
	if err != nil {
		return nil, err
	}
	return r.toDomains(entities), nil
}

func (r *alertRepository) ListByInvestor(ctx context.Context, investorID string, includeExpired bool, now time.Time) ([]domain.Alert, error) {
	entities, err := r.dao.ListByInvestor(ctx, investorID, includeExpired, now.UnixMilli())
	if err != nil {
		return nil, err
	}
	return r.toDomains(entities), nil
}

func (r *alertRepository) ListInvestorIDs(ctx context.Context, since time.Time) ([]string, error) {
	return r.dao.ListInvestorIDs(ctx, since.UnixMilli())
}

// toEntity 将领域对象转换为DAO实体
func (r *alertRepository) toEntity(alert domain.Alert) dao.Alert {
	channels, _ := alert.MarshalChannels()
	deliveryStatus, _ := alert.MarshalDeliveryStatus()
	retryCount, _ := alert.MarshalRetryCount()

	var sentAt, readAt int64
	if !alert.SentAt.IsZero() {
		sentAt = alert.SentAt.UnixMilli()
	}
	if !alert.ReadAt.IsZero() {
		readAt = alert.ReadAt.UnixMilli()
	}

	return dao.Alert{
		ID:             alert.ID,
		InvestorID:     alert.InvestorID,
		OpportunityID:  alert.OpportunityID,
		Title:          alert.Title,
		Description:    alert.Description,
		MatchScore:     alert.MatchScore,
		Priority:       string(alert.Priority),
		Status:         string(alert.Status),
		Channels:       channels,
		DeliveryStatus: deliveryStatus,
		RetryCount:     retryCount,
		SentAt:         sentAt,
		ReadAt:         readAt,
		ExpiresAt:      alert.ExpiresAt.UnixMilli(),
		Version:        alert.Version,
	}
}

// toDomain 将DAO实体转换为领域对象
func (r *alertRepository) toDomain(entity dao.Alert) domain.Alert {
	var channels []domain.ChannelConfig
	if entity.Channels != "" {
		_ = json.Unmarshal([]byte(entity.Channels), &channels)
	}
	deliveryStatus := make(map[domain.Channel]domain.DeliveryStatus)
	if entity.DeliveryStatus != "" {
		_ = json.Unmarshal([]byte(entity.DeliveryStatus), &deliveryStatus)
	}
	retryCount := make(map[domain.Channel]int)
	if entity.RetryCount != "" {
		_ = json.Unmarshal([]byte(entity.RetryCount), &retryCount)
	}

	var sentAt, readAt time.Time
	if entity.SentAt > 0 {
		sentAt = time.UnixMilli(entity.SentAt)
	}
	if entity.ReadAt > 0 {
		readAt = time.UnixMilli(entity.ReadAt)
	}

	return domain.Alert{
		ID:             entity.ID,
		InvestorID:     entity.InvestorID,
		OpportunityID:  entity.OpportunityID,
		Title:          entity.Title,
		Description:    entity.Description,
		MatchScore:     entity.MatchScore,
		Priority:       domain.AlertPriority(entity.Priority),
		Status:         domain.AlertStatus(entity.Status),
		Channels:       channels,
		DeliveryStatus: deliveryStatus,
		RetryCount:     retryCount,
		CreatedAt:      time.UnixMilli(entity.Ctime),
		SentAt:         sentAt,
		ReadAt:         readAt,
		ExpiresAt:      time.UnixMilli(entity.ExpiresAt),
		Version:        entity.Version,
	}
}

func (r *alertRepository) toDomains(entities []dao.Alert) []domain.Alert {
	alerts := make([]domain.Alert, len(entities))
	for i := range entities {
		alerts[i] = r.toDomain(entities[i])
	}
	return alerts
}
