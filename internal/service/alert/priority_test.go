package alert

import (
	"testing"

	"gitee.com/flycash/alert-platform/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestPriorityCalculator_Calculate(t *testing.T) {
	t.Parallel()

	calculator := NewPriorityCalculator(0)

	testCases := []struct {
		name        string
		matchScore  float64
		opportunity domain.Opportunity
		want        domain.AlertPriority
	}{
		{
			name:        "高分直接urgent",
			matchScore:  0.95,
			opportunity: domain.Opportunity{InvestmentAmount: 500_000},
			want:        domain.PriorityUrgent,
		},
		{
			name:        "加急加权推到urgent",
			matchScore:  0.72,
			opportunity: domain.Opportunity{Urgent: true, InvestmentAmount: 500_000},
			want:        domain.PriorityUrgent,
		},
		{
			name:       "三个信号全中",
			matchScore: 0.55,
			opportunity: domain.Opportunity{
				Urgent:               true,
				InvestmentAmount:     15_000_000,
				CompetitiveSituation: true,
			},
			want: domain.PriorityUrgent,
		},
		{
			name:        "大额加权推到high",
			matchScore:  0.65,
			opportunity: domain.Opportunity{InvestmentAmount: 10_000_000},
			want:        domain.PriorityHigh,
		},
		{
			name:        "刚好踩在high下界",
			matchScore:  0.7,
			opportunity: domain.Opportunity{InvestmentAmount: 500_000},
			want:        domain.PriorityHigh,
		},
		{
			name:        "刚好踩在medium下界",
			matchScore:  0.5,
			opportunity: domain.Opportunity{InvestmentAmount: 500_000},
			want:        domain.PriorityMedium,
		},
		{
			name:        "竞争加权推到medium",
			matchScore:  0.45,
			opportunity: domain.Opportunity{CompetitiveSituation: true, InvestmentAmount: 500_000},
			want:        domain.PriorityMedium,
		},
		{
			name:        "低分无加权",
			matchScore:  0.3,
			opportunity: domain.Opportunity{InvestmentAmount: 500_000},
			want:        domain.PriorityLow,
		},
		{
			name:        "金额低于门槛不加权",
			matchScore:  0.65,
			opportunity: domain.Opportunity{InvestmentAmount: 9_999_999},
			want:        domain.PriorityMedium,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := calculator.Calculate(tc.matchScore, tc.opportunity)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPriorityCalculator_CustomThreshold(t *testing.T) {
	t.Parallel()

	calculator := NewPriorityCalculator(1_000_000)
	got := calculator.Calculate(0.65, domain.Opportunity{InvestmentAmount: 1_000_000})
	assert.Equal(t, domain.PriorityHigh, got)
}
