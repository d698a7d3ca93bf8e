package match

// EventName 匹配事件主题，上游的撮合引擎往这里投递
const EventName = "investor_match_events"

// Event 一次"标的匹配到投资人"事件
type Event struct {
	Investor       InvestorPayload    `json:"investor"`
	Opportunity    OpportunityPayload `json:"opportunity"`
	MatchScore     float64            `json:"match_score"`
	AdditionalData *AdditionalData    `json:"additional_data,omitempty"`
}

// InvestorPayload 事件里携带的投资人快照
type InvestorPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	RiskProfile string `json:"risk_profile"`
}

// OpportunityPayload 事件里携带的标的快照
type OpportunityPayload struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	Sector               string  `json:"sector"`
	InvestmentAmount     float64 `json:"investment_amount"`
	Location             string  `json:"location"`
	DealType             string  `json:"deal_type"`
	Urgent               bool    `json:"urgent"`
	CompetitiveSituation bool    `json:"competitive_situation"`
}

// AdditionalData 可选的补充信息，渲染正文时按组追加
type AdditionalData struct {
	KeyMetrics            map[string]string `json:"key_metrics,omitempty"`
	CompetitiveAdvantages []string          `json:"competitive_advantages,omitempty"`
	TeamHighlights        []string          `json:"team_highlights,omitempty"`
}
