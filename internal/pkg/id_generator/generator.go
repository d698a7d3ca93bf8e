package id

import (
	"fmt"
	"strings"

	"github.com/sony/sonyflake"
)

const followupIDSep = "_followup_"

// Generator 警报ID生成器，基于 sonyflake
type Generator struct {
	sf *sonyflake.Sonyflake
}

// NewGenerator 创建一个新的ID生成器
func NewGenerator() *Generator {
	return &Generator{
		sf: sonyflake.NewSonyflake(sonyflake.Settings{}),
	}
}

// NextAlertID 生成一个新的警报ID
func (g *Generator) NextAlertID() (string, error) {
	id, err := g.sf.NextID()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("alert_%d", id), nil
}

// FollowupID 由原警报ID和延迟小时数派生出跟进提醒的ID
func FollowupID(alertID string, delayHours int) string {
	return fmt.Sprintf("%s%s%d", alertID, followupIDSep, delayHours)
}

// IsFollowupID 判断一个警报ID是否是跟进提醒的派生ID
func IsFollowupID(alertID string) bool {
	return strings.Contains(alertID, followupIDSep)
}
