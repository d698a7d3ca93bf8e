package repository

import (
	"context"
	"encoding/json"
	"errors"

	"gitee.com/flycash/alert-platform/internal/domain"
	"gitee.com/flycash/alert-platform/internal/repository/cache"
	"gitee.com/flycash/alert-platform/internal/repository/cache/local"
	prefredis "gitee.com/flycash/alert-platform/internal/repository/cache/redis"
	"gitee.com/flycash/alert-platform/internal/repository/dao"
	"github.com/gotomicro/ego/core/elog"
)

// PreferenceRepository 投资人偏好仓储接口
type PreferenceRepository interface {
	// GetByInvestorID 获取投资人的渠道偏好
	GetByInvestorID(ctx context.Context, investorID string) (domain.Preferences, error)

	// Save 保存投资人的渠道偏好，存在则覆盖
	Save(ctx context.Context, pref domain.Preferences) (domain.Preferences, error)
}

// preferenceRepository 本地缓存 -> redis -> 数据库 的读路径，写路径同步刷新两级缓存
type preferenceRepository struct {
	dao    dao.PreferenceDAO
	local  *local.Cache
	redis  *prefredis.Cache
	logger *elog.Component
}

// NewPreferenceRepository 创建偏好仓储实例
func NewPreferenceRepository(d dao.PreferenceDAO, localCache *local.Cache, redisCache *prefredis.Cache) PreferenceRepository {
	return &preferenceRepository{
		dao:    d,
		local:  localCache,
		redis:  redisCache,
		logger: elog.DefaultLogger,
	}
}

func (r *preferenceRepository) GetByInvestorID(ctx context.Context, investorID string) (domain.Preferences, error) {
	pref, err := r.local.Get(ctx, investorID)
	if err == nil {
		return pref, nil
	}

	pref, err = r.redis.Get(ctx, investorID)
	if err == nil {
		_ = r.local.Set(ctx, pref)
		return pref, nil
	}
	if !errors.Is(err, cache.ErrKeyNotFound) {
		r.logger.Warn("读取redis偏好缓存失败", elog.FieldErr(err), elog.String("investorID", investorID))
	}

	entity, err := r.dao.GetByInvestorID(ctx, investorID)
	if err != nil {
		return domain.Preferences{}, err
	}
	pref = r.toDomain(entity)

	if err := r.redis.Set(ctx, pref); err != nil {
		r.logger.Warn("回填redis偏好缓存失败", elog.FieldErr(err), elog.String("investorID", investorID))
	}
	_ = r.local.Set(ctx, pref)
	return pref, nil
}

func (r *preferenceRepository) Save(ctx context.Context, pref domain.Preferences) (domain.Preferences, error) {
	saved, err := r.dao.Save(ctx, r.toEntity(pref))
	if err != nil {
		return domain.Preferences{}, err
	}

	res := r.toDomain(saved)
	if err := r.redis.Set(ctx, res); err != nil {
		r.logger.Warn("刷新redis偏好缓存失败", elog.FieldErr(err), elog.String("investorID", pref.InvestorID))
	}
	_ = r.local.Set(ctx, res)
	return res, nil
}

// toEntity 将领域对象转换为DAO实体
func (r *preferenceRepository) toEntity(pref domain.Preferences) dao.Preference {
	channels, _ := json.Marshal(pref.Channels)
	addresses, _ := json.Marshal(pref.Addresses)
	return dao.Preference{
		InvestorID: pref.InvestorID,
		Channels:   string(channels),
		Addresses:  string(addresses),
	}
}

// toDomain 将DAO实体转换为领域对象
func (r *preferenceRepository) toDomain(entity dao.Preference) domain.Preferences {
	var channels []domain.Channel
	if entity.Channels != "" {
		_ = json.Unmarshal([]byte(entity.Channels), &channels)
	}
	addresses := make(map[string]string)
	if entity.Addresses != "" {
		_ = json.Unmarshal([]byte(entity.Addresses), &addresses)
	}
	return domain.Preferences{
		InvestorID: entity.InvestorID,
		Channels:   channels,
		Addresses:  addresses,
	}
}
