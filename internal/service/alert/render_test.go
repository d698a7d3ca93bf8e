package alert

import (
	"testing"

	"gitee.com/flycash/alert-platform/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestRenderTitle(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		opportunity domain.Opportunity
		want        string
	}{
		{
			name:        "已知行业用行业表情",
			opportunity: domain.Opportunity{Name: "TechCo", Sector: "technology"},
			want:        "💻 New technology Investment Opportunity: TechCo",
		},
		{
			name:        "行业匹配不区分大小写",
			opportunity: domain.Opportunity{Name: "MedCo", Sector: "Healthcare"},
			want:        "⚕️ New Healthcare Investment Opportunity: MedCo",
		},
		{
			name:        "未知行业用通用表情",
			opportunity: domain.Opportunity{Name: "AgriCo", Sector: "agriculture"},
			want:        "🎯 New agriculture Investment Opportunity: AgriCo",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, renderTitle(tc.opportunity))
		})
	}
}

func TestRenderDescription(t *testing.T) {
	t.Parallel()

	opportunity := domain.Opportunity{
		Name:             "TechCo",
		Sector:           "technology",
		InvestmentAmount: 2_500_000,
		Location:         "Berlin",
		DealType:         "Series A",
	}

	t.Run("没有补充信息时只有基础段落", func(t *testing.T) {
		t.Parallel()
		got := renderDescription(opportunity, nil)
		want := "Exclusive opportunity matching your investment profile:\n" +
			"TechCo (technology)\n" +
			"Investment range: €2,500,000.00\n" +
			"Location: Berlin\n" +
			"Deal type: Series A"
		assert.Equal(t, want, got)
	})

	t.Run("补充信息按组追加", func(t *testing.T) {
		t.Parallel()
		extra := &domain.ExtraContext{
			KeyMetrics:            map[string]string{"ARR": "€1.2M"},
			CompetitiveAdvantages: []string{"Proprietary tech", "Strong retention"},
			TeamHighlights:        []string{"Ex-Google founders"},
		}
		got := renderDescription(opportunity, extra)
		assert.Contains(t, got, "Key Metrics:\n- ARR: €1.2M")
		assert.Contains(t, got, "Competitive Advantages:\n- Proprietary tech\n- Strong retention")
		assert.Contains(t, got, "Team Highlights:\n- Ex-Google founders")
	})

	t.Run("缺失的分组直接跳过", func(t *testing.T) {
		t.Parallel()
		extra := &domain.ExtraContext{
			TeamHighlights: []string{"Serial entrepreneurs"},
		}
		got := renderDescription(opportunity, extra)
		assert.NotContains(t, got, "Key Metrics")
		assert.NotContains(t, got, "Competitive Advantages")
		assert.Contains(t, got, "Team Highlights:\n- Serial entrepreneurs")
	})
}

func TestFormatAmount(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		amount float64
		want   string
	}{
		{name: "千分位分组", amount: 12_345_678.9, want: "12,345,678.90"},
		{name: "不足一组", amount: 999, want: "999.00"},
		{name: "恰好一组", amount: 1_000, want: "1,000.00"},
		{name: "零", amount: 0, want: "0.00"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, formatAmount(tc.amount))
		})
	}
}
