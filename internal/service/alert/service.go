package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/alert-platform/internal/domain"
	"gitee.com/flycash/alert-platform/internal/errs"
	id "gitee.com/flycash/alert-platform/internal/pkg/id_generator"
	"gitee.com/flycash/alert-platform/internal/repository"
)

const defaultTTL = 48 * time.Hour

// CreateAlertReq 创建警报请求
type CreateAlertReq struct {
	Investor    domain.InvestorProfile
	Opportunity domain.Opportunity
	MatchScore  float64
	// TTL 警报有效期，0 表示使用默认的48小时
	TTL time.Duration
	// Extra 可选的补充信息，渲染进正文
	Extra *domain.ExtraContext
}

// Service 警报服务，负责从匹配事件构建警报以及对外的查询操作
//
//go:generate mockgen -source=./service.go -package=alertmocks -destination=./mocks/service.mock.go Service
type Service interface {
	// CreateAlert 构建并持久化一条 pending 警报。
	// 校验失败在任何持久化发生之前返回，此时没有半成品警报。
	CreateAlert(ctx context.Context, req CreateAlertReq) (domain.Alert, error)

	// GetByID 按ID查询警报
	GetByID(ctx context.Context, alertID string) (domain.Alert, error)

	// MarkRead 投资人已读。对 read 幂等，对 expired 拒绝。
	MarkRead(ctx context.Context, alertID string) error

	// ListByInvestor 投资人名下的警报，includeExpired 为 false 时过滤已过期的
	ListByInvestor(ctx context.Context, investorID string, includeExpired bool) ([]domain.Alert, error)

	// Statistics 投资人维度的警报统计
	Statistics(ctx context.Context, investorID string) (domain.AlertStatistics, error)
}

type service struct {
	repo       repository.AlertRepository
	prefRepo   repository.PreferenceRepository
	idGen      *id.Generator
	calculator *PriorityCalculator
	defaultTTL time.Duration
}

// NewService 创建警报服务实例
func NewService(
	repo repository.AlertRepository,
	prefRepo repository.PreferenceRepository,
	idGen *id.Generator,
	calculator *PriorityCalculator,
) Service {
	return &service{
		repo:       repo,
		prefRepo:   prefRepo,
		idGen:      idGen,
		calculator: calculator,
		defaultTTL: defaultTTL,
	}
}

func (s *service) CreateAlert(ctx context.Context, req CreateAlertReq) (domain.Alert, error) {
	pref, err := s.prefRepo.GetByInvestorID(ctx, req.Investor.ID)
	if err != nil {
		if !errors.Is(err, errs.ErrPreferenceNotFound) {
			return domain.Alert{}, fmt.Errorf("%w: 读取投资人偏好失败: %w", errs.ErrCreateAlertFailed, err)
		}
		// 没有偏好配置的投资人视为没有任何订阅渠道，走后面的校验报错
		pref = domain.Preferences{InvestorID: req.Investor.ID}
	}

	alertID, err := s.idGen.NextAlertID()
	if err != nil {
		return domain.Alert{}, fmt.Errorf("%w: %w", errs.ErrAlertIDGenerateFailed, err)
	}

	ttl := req.TTL
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	now := time.Now()
	alert := domain.Alert{
		ID:             alertID,
		InvestorID:     req.Investor.ID,
		OpportunityID:  req.Opportunity.ID,
		Title:          renderTitle(req.Opportunity),
		Description:    renderDescription(req.Opportunity, req.Extra),
		MatchScore:     req.MatchScore,
		Priority:       s.calculator.Calculate(req.MatchScore, req.Opportunity),
		Status:         domain.AlertStatusPending,
		Channels:       s.buildChannels(pref),
		DeliveryStatus: make(map[domain.Channel]domain.DeliveryStatus),
		RetryCount:     make(map[domain.Channel]int),
		CreatedAt:      now,
		ExpiresAt:      now.Add(ttl),
	}

	// 校验必须发生在持久化之前
	if err := alert.Validate(); err != nil {
		return domain.Alert{}, err
	}

	created, err := s.repo.Create(ctx, alert)
	if err != nil {
		return domain.Alert{}, fmt.Errorf("%w: %w", errs.ErrCreateAlertFailed, err)
	}
	return created, nil
}

// buildChannels 订阅渠道与平台支持渠道取交集，没有联系地址的渠道直接排除
func (s *service) buildChannels(pref domain.Preferences) []domain.ChannelConfig {
	supported := domain.SupportedChannels()
	channels := make([]domain.ChannelConfig, 0, len(supported))
	for _, ch := range supported {
		if !pref.Subscribed(ch) {
			continue
		}
		address, ok := pref.AddressOf(ch)
		if !ok {
			continue
		}
		channels = append(channels, domain.ChannelConfig{
			Channel: ch,
			Enabled: true,
			Address: address,
		})
	}
	return channels
}

func (s *service) GetByID(ctx context.Context, alertID string) (domain.Alert, error) {
	return s.repo.GetByID(ctx, alertID)
}

func (s *service) MarkRead(ctx context.Context, alertID string) error {
	changed, err := s.repo.MarkRead(ctx, alertID, time.Now())
	if err != nil {
		return err
	}
	if changed {
		return nil
	}

	// 没有行被更新：要么不存在，要么已经是终态
	alert, err := s.repo.GetByID(ctx, alertID)
	if err != nil {
		return err
	}
	switch alert.Status {
	case domain.AlertStatusRead:
		// 重复标记已读，幂等
		return nil
	case domain.AlertStatusExpired:
		return fmt.Errorf("%w: id=%s", errs.ErrAlertExpired, alertID)
	default:
		return fmt.Errorf("标记已读失败: id=%s, status=%s", alertID, alert.Status)
	}
}

func (s *service) ListByInvestor(ctx context.Context, investorID string, includeExpired bool) ([]domain.Alert, error) {
	return s.repo.ListByInvestor(ctx, investorID, includeExpired, time.Now())
}

func (s *service) Statistics(ctx context.Context, investorID string) (domain.AlertStatistics, error) {
	alerts, err := s.repo.ListByInvestor(ctx, investorID, true, time.Now())
	if err != nil {
		return domain.AlertStatistics{}, err
	}

	stats := domain.AlertStatistics{
		TotalAlerts: int64(len(alerts)),
		ByPriority:  make(map[domain.AlertPriority]int64),
	}
	var scoreSum float64
	for i := range alerts {
		a := alerts[i]
		scoreSum += a.MatchScore
		stats.ByPriority[a.Priority]++
		switch a.Status {
		case domain.AlertStatusRead:
			stats.ReadAlerts++
		case domain.AlertStatusExpired:
			stats.ExpiredAlerts++
		default:
		}
	}
	if len(alerts) > 0 {
		stats.AverageMatchScore = scoreSum / float64(len(alerts))
	}
	return stats, nil
}
