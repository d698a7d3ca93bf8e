package followup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/alert-platform/internal/domain"
	"gitee.com/flycash/alert-platform/internal/errs"
	id "gitee.com/flycash/alert-platform/internal/pkg/id_generator"
	"gitee.com/flycash/alert-platform/internal/repository"
	"gitee.com/flycash/alert-platform/internal/service/sender"
	"github.com/gotomicro/ego/core/elog"
	"github.com/hashicorp/go-multierror"
)

const (
	reminderTitlePrefix = "Reminder: "
	reminderBodyPrefix  = "Don't miss this opportunity!\n\n"

	defaultBatchSize = 50
)

// Service 跟进提醒服务。检查点在首次投递成功时由投递器落库，
// 这里只负责把到期的检查点兑现成提醒警报。取消不是硬取消，
// 而是兑现时重新检查原警报状态：只要不再是 sent，剩余检查点全部作废。
type Service struct {
	alertRepo    repository.AlertRepository
	followupRepo repository.FollowupRepository
	dispatcher   sender.Dispatcher
	batchSize    int
	logger       *elog.Component
}

// NewService 创建跟进提醒服务
func NewService(
	alertRepo repository.AlertRepository,
	followupRepo repository.FollowupRepository,
	dispatcher sender.Dispatcher,
) *Service {
	return &Service{
		alertRepo:    alertRepo,
		followupRepo: followupRepo,
		dispatcher:   dispatcher,
		batchSize:    defaultBatchSize,
		logger:       elog.DefaultLogger,
	}
}

// ProcessDue 兑现一批到期的检查点，单个检查点的失败不影响其余的
func (s *Service) ProcessDue(ctx context.Context) error {
	checkpoints, err := s.followupRepo.FindDue(ctx, time.Now(), s.batchSize)
	if err != nil {
		return fmt.Errorf("查询到期检查点失败: %w", err)
	}

	var merr *multierror.Error
	for i := range checkpoints {
		if err := s.processOne(ctx, checkpoints[i]); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	return merr.ErrorOrNil()
}

func (s *Service) processOne(ctx context.Context, cp repository.FollowupCheckpoint) error {
	original, err := s.alertRepo.GetByID(ctx, cp.AlertID)
	if err != nil {
		if errors.Is(err, errs.ErrAlertNotFound) {
			// 原警报没了，剩余检查点没有意义
			_, _ = s.followupRepo.CancelRemaining(ctx, cp.AlertID)
			return nil
		}
		return fmt.Errorf("读取原警报 %s 失败: %w", cp.AlertID, err)
	}

	// 已读、已过期或退回 pending 都不再提醒，静默作废剩余检查点
	if original.Status != domain.AlertStatusSent {
		cancelled, err := s.followupRepo.CancelRemaining(ctx, cp.AlertID)
		if err != nil {
			return fmt.Errorf("作废警报 %s 的剩余检查点失败: %w", cp.AlertID, err)
		}
		s.logger.Info("原警报已脱离 sent 状态，取消剩余提醒",
			elog.String("alertID", cp.AlertID),
			elog.String("status", original.Status.String()),
			elog.Int64("cancelled", cancelled))
		return nil
	}

	reminder := s.buildReminder(original, cp.DelayHours)
	created, err := s.alertRepo.Create(ctx, reminder)
	if err != nil {
		if errors.Is(err, errs.ErrAlertDuplicate) {
			// 上一轮创建成功但没来得及标记检查点，直接补标记
			return s.followupRepo.MarkDone(ctx, cp.ID)
		}
		return fmt.Errorf("创建提醒警报失败: %w", err)
	}

	if _, err := s.dispatcher.Dispatch(ctx, created); err != nil {
		s.logger.Error("提醒警报投递失败，等待重试扫描接管",
			elog.FieldErr(err),
			elog.String("alertID", created.ID))
	}
	return s.followupRepo.MarkDone(ctx, cp.ID)
}

// buildReminder 从原警报派生一条提醒警报，渠道、优先级、得分与过期时间都沿用原值
func (s *Service) buildReminder(original domain.Alert, delayHours int) domain.Alert {
	return domain.Alert{
		ID:             id.FollowupID(original.ID, delayHours),
		InvestorID:     original.InvestorID,
		OpportunityID:  original.OpportunityID,
		Title:          reminderTitlePrefix + original.Title,
		Description:    reminderBodyPrefix + original.Description,
		MatchScore:     original.MatchScore,
		Priority:       original.Priority,
		Status:         domain.AlertStatusPending,
		Channels:       original.Channels,
		DeliveryStatus: make(map[domain.Channel]domain.DeliveryStatus),
		RetryCount:     make(map[domain.Channel]int),
		CreatedAt:      time.Now(),
		ExpiresAt:      original.ExpiresAt,
	}
}
