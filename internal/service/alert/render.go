package alert

import (
	"fmt"
	"strings"

	"gitee.com/flycash/alert-platform/internal/domain"
)

// 跟进提醒在原文上加的前缀
const (
	reminderTitlePrefix = "Reminder: "
	reminderBodyPrefix  = "Don't miss this opportunity!\n\n"
)

// 行业对应的标题表情
var sectorEmoji = map[string]string{
	"technology":    "💻",
	"e-commerce":    "🛒",
	"healthcare":    "⚕️",
	"fintech":       "💳",
	"real_estate":   "🏢",
	"tourism":       "✈️",
	"education":     "📚",
	"manufacturing": "🏭",
}

// renderTitle 渲染警报标题，未知行业使用通用表情
func renderTitle(opportunity domain.Opportunity) string {
	emoji, ok := sectorEmoji[strings.ToLower(opportunity.Sector)]
	if !ok {
		emoji = "🎯"
	}
	return fmt.Sprintf("%s New %s Investment Opportunity: %s", emoji, opportunity.Sector, opportunity.Name)
}

// renderDescription 渲染警报正文。extra 的分组是可选的，缺失的分组直接略过，
// 渲染本身永远不会失败。
func renderDescription(opportunity domain.Opportunity, extra *domain.ExtraContext) string {
	var sb strings.Builder
	sb.WriteString("Exclusive opportunity matching your investment profile:\n")
	sb.WriteString(fmt.Sprintf("%s (%s)\n", opportunity.Name, opportunity.Sector))
	sb.WriteString(fmt.Sprintf("Investment range: €%s\n", formatAmount(opportunity.InvestmentAmount)))
	sb.WriteString(fmt.Sprintf("Location: %s\n", opportunity.Location))
	sb.WriteString(fmt.Sprintf("Deal type: %s", opportunity.DealType))

	if extra == nil {
		return sb.String()
	}

	if len(extra.KeyMetrics) > 0 {
		sb.WriteString("\n\nKey Metrics:")
		for metric, value := range extra.KeyMetrics {
			sb.WriteString(fmt.Sprintf("\n- %s: %s", metric, value))
		}
	}
	if len(extra.CompetitiveAdvantages) > 0 {
		sb.WriteString("\n\nCompetitive Advantages:")
		for _, advantage := range extra.CompetitiveAdvantages {
			sb.WriteString(fmt.Sprintf("\n- %s", advantage))
		}
	}
	if len(extra.TeamHighlights) > 0 {
		sb.WriteString("\n\nTeam Highlights:")
		for _, highlight := range extra.TeamHighlights {
			sb.WriteString(fmt.Sprintf("\n- %s", highlight))
		}
	}
	return sb.String()
}

// formatAmount 金额千分位格式化，保留两位小数
func formatAmount(amount float64) string {
	s := fmt.Sprintf("%.2f", amount)
	dot := strings.Index(s, ".")
	intPart, fracPart := s[:dot], s[dot:]

	neg := false
	if strings.HasPrefix(intPart, "-") {
		neg = true
		intPart = intPart[1:]
	}

	const groupSize = 3
	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	lead := len(intPart) % groupSize
	if lead > 0 {
		sb.WriteString(intPart[:lead])
		if len(intPart) > lead {
			sb.WriteByte(',')
		}
	}
	for i := lead; i < len(intPart); i += groupSize {
		sb.WriteString(intPart[i : i+groupSize])
		if i+groupSize < len(intPart) {
			sb.WriteByte(',')
		}
	}
	sb.WriteString(fracPart)
	return sb.String()
}
