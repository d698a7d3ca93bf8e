package domain

// Opportunity 投资标的快照，来自匹配事件
type Opportunity struct {
	ID                   string  // 标的ID
	Name                 string  // 标的名称
	Sector               string  // 行业
	InvestmentAmount     float64 // 融资金额，欧元
	Location             string  // 所在地
	DealType             string  // 交易类型
	Urgent               bool    // 是否加急
	CompetitiveSituation bool    // 是否存在竞争性报价
}

// ExtraContext 渲染正文时附加的可选分组信息，缺失的分组直接跳过
type ExtraContext struct {
	KeyMetrics            map[string]string // 关键指标
	CompetitiveAdvantages []string          // 竞争优势
	TeamHighlights        []string          // 团队亮点
}

// InvestorProfile 投资人画像，本引擎只消费其中少量字段
type InvestorProfile struct {
	ID          string   // 投资人ID
	Name        string   // 姓名
	RiskProfile string   // 风险偏好
	Badges      []string // 平台徽章
}
