package alert

import (
	"context"
	"time"

	"gitee.com/flycash/alert-platform/internal/repository"
	"github.com/gotomicro/ego/core/elog"
)

const statsLookback = 31 * 24 * time.Hour

// StatsArchiveCron 月度统计归档任务。把最近一个月有警报的投资人
// 逐个算一遍统计并输出，供运营侧留档。
type StatsArchiveCron struct {
	repo   repository.AlertRepository
	svc    Service
	logger *elog.Component
}

func NewStatsArchiveCron(repo repository.AlertRepository, svc Service) *StatsArchiveCron {
	return &StatsArchiveCron{
		repo:   repo,
		svc:    svc,
		logger: elog.DefaultLogger,
	}
}

func (c *StatsArchiveCron) Do(ctx context.Context) error {
	const perInvestorTimeout = 3 * time.Second

	investorIDs, err := c.repo.ListInvestorIDs(ctx, time.Now().Add(-statsLookback))
	if err != nil {
		return err
	}

	for _, investorID := range investorIDs {
		sctx, cancel := context.WithTimeout(ctx, perInvestorTimeout)
		stats, err := c.svc.Statistics(sctx, investorID)
		cancel()
		if err != nil {
			c.logger.Error("归档投资人警报统计失败",
				elog.FieldErr(err),
				elog.String("investorID", investorID))
			continue
		}
		c.logger.Info("投资人警报统计",
			elog.String("investorID", investorID),
			elog.Int64("total", stats.TotalAlerts),
			elog.Int64("read", stats.ReadAlerts),
			elog.Int64("expired", stats.ExpiredAlerts),
			elog.Any("byPriority", stats.ByPriority))
	}
	return nil
}
