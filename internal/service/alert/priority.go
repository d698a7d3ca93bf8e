package alert

import (
	"gitee.com/flycash/alert-platform/internal/domain"
)

const defaultLargeDealThreshold = 10_000_000

// 优先级分档的下界，闭区间
const (
	urgentScore = 0.9
	highScore   = 0.7
	mediumScore = 0.5
)

// 各信号的加权
const (
	urgentBonus      = 0.2
	largeDealBonus   = 0.1
	competitiveBonus = 0.1
)

// PriorityCalculator 优先级计算器。纯函数，相同输入必然得到相同输出。
type PriorityCalculator struct {
	largeDealThreshold float64
}

// NewPriorityCalculator largeDealThreshold 是大额交易加权的金额门槛（欧元），
// 传 0 使用默认的一千万
func NewPriorityCalculator(largeDealThreshold float64) *PriorityCalculator {
	if largeDealThreshold <= 0 {
		largeDealThreshold = defaultLargeDealThreshold
	}
	return &PriorityCalculator{largeDealThreshold: largeDealThreshold}
}

// Calculate 由匹配得分和标的信号算出警报优先级
func (c *PriorityCalculator) Calculate(matchScore float64, opportunity domain.Opportunity) domain.AlertPriority {
	score := matchScore

	if opportunity.Urgent {
		score += urgentBonus
	}
	if opportunity.InvestmentAmount >= c.largeDealThreshold {
		score += largeDealBonus
	}
	if opportunity.CompetitiveSituation {
		score += competitiveBonus
	}

	switch {
	case score >= urgentScore:
		return domain.PriorityUrgent
	case score >= highScore:
		return domain.PriorityHigh
	case score >= mediumScore:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}
