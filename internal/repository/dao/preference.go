package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gitee.com/flycash/alert-platform/internal/errs"

	"github.com/ego-component/egorm"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Preference 投资人渠道偏好表
type Preference struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	InvestorID string `gorm:"type:VARCHAR(64);NOT NULL;uniqueIndex:uk_investor;comment:'投资人ID'"`
	Channels   string `gorm:"type:TEXT;NOT NULL;comment:'订阅渠道，JSON数组'"`
	Addresses  string `gorm:"type:TEXT;NOT NULL;comment:'渠道地址，JSON对象'"`
	Ctime      int64
	Utime      int64
}

// TableName 重命名表
func (Preference) TableName() string {
	return "investor_preferences"
}

type PreferenceDAO interface {
	GetByInvestorID(ctx context.Context, investorID string) (Preference, error)
	Save(ctx context.Context, pref Preference) (Preference, error)
}

type preferenceDAO struct {
	db *egorm.Component
}

// NewPreferenceDAO 创建一个新的PreferenceDAO实例
func NewPreferenceDAO(db *egorm.Component) PreferenceDAO {
	return &preferenceDAO{
		db: db,
	}
}

func (p *preferenceDAO) GetByInvestorID(ctx context.Context, investorID string) (Preference, error) {
	var pref Preference
	err := p.db.WithContext(ctx).Where("investor_id = ?", investorID).First(&pref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Preference{}, fmt.Errorf("%w: investorID=%s", errs.ErrPreferenceNotFound, investorID)
		}
		return Preference{}, err
	}
	return pref, nil
}

// Save 保存偏好配置，存在则覆盖
func (p *preferenceDAO) Save(ctx context.Context, pref Preference) (Preference, error) {
	now := time.Now().UnixMilli()
	pref.Ctime = now
	pref.Utime = now

	result := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "investor_id"}},
		DoUpdates: clause.AssignmentColumns(preferenceUpdateColumns),
	}).Create(&pref)
	if result.Error != nil {
		return Preference{}, result.Error
	}
	return pref, nil
}

var preferenceUpdateColumns = []string{
	"channels",
	"addresses",
	"utime",
}
