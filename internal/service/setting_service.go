package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/groupvial/internal/cache"
	"github.com/groupvial/internal/constants"
	"github.com/groupvial/internal/logger"
	"github.com/groupvial/internal/models"
	"github.com/groupvial/internal/repository"

	"golang.org/x/sync/singleflight"
)

// FeatureFlags 站点功能开关
type FeatureFlags = cache.FeatureFlags

// SettingService 设置业务服务
type SettingService struct {
	repo  repository.SettingRepository
	group singleflight.Group
}

// NewSettingService 创建设置服务
func NewSettingService(repo repository.SettingRepository) *SettingService {
	return &SettingService{repo: repo}
}

// DefaultFeatureFlags 未配置时全部开启
func DefaultFeatureFlags() FeatureFlags {
	return FeatureFlags{
		RegionsEnabled:    true,
		GroupBuyEnabled:   true,
		IndividualEnabled: true,
	}
}

// GetConfig 获取站点配置（合并默认值）
func (s *SettingService) GetConfig(defaults map[string]interface{}) (map[string]interface{}, error) {
	data := make(map[string]interface{})
	for k, v := range defaults {
		data[k] = v
	}

	setting, err := s.repo.GetByKey(constants.SettingKeySiteConfig)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return data, nil
	}

	for k, v := range setting.ValueJSON {
		data[k] = v
	}
	return data, nil
}

// GetByKey 获取设置
func (s *SettingService) GetByKey(key string) (models.JSON, error) {
	setting, err := s.repo.GetByKey(key)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return nil, nil
	}
	return setting.ValueJSON, nil
}

// Update 设置值
func (s *SettingService) Update(ctx context.Context, key string, value map[string]interface{}) (models.JSON, error) {
	key = strings.TrimSpace(key)
	if !isSupportedSettingKey(key) {
		return nil, ErrSettingInvalid
	}
	normalized := normalizeSettingValueByKey(key, value)

	setting, err := s.repo.Upsert(key, normalized)
	if err != nil {
		return nil, err
	}
	if key == constants.SettingKeyFeatureFlags {
		if err := cache.DelFeatureFlags(ctx); err != nil {
			logger.Warnw("setting_feature_flags_cache_invalidate_failed", "error", err)
		}
	}
	if err := cache.DelPublicConfig(ctx); err != nil {
		logger.Warnw("setting_public_config_cache_invalidate_failed", "key", key, "error", err)
	}
	return setting.ValueJSON, nil
}

// FeatureFlags 读取功能开关（缓存优先，并发加载合并）
func (s *SettingService) FeatureFlags(ctx context.Context) (FeatureFlags, error) {
	if cached, hit, err := cache.GetFeatureFlags(ctx); err != nil {
		logger.Warnw("setting_feature_flags_cache_read_failed", "error", err)
	} else if hit {
		return *cached, nil
	}

	value, err, _ := s.group.Do(constants.SettingKeyFeatureFlags, func() (interface{}, error) {
		raw, err := s.GetByKey(constants.SettingKeyFeatureFlags)
		if err != nil {
			return nil, err
		}
		flags := featureFlagsFromJSON(raw)
		flags.UpdatedAt = time.Now().Unix()
		if err := cache.SetFeatureFlags(ctx, &flags); err != nil {
			logger.Warnw("setting_feature_flags_cache_write_failed", "error", err)
		}
		return flags, nil
	})
	if err != nil {
		return DefaultFeatureFlags(), err
	}
	return value.(FeatureFlags), nil
}

// RequireMode 校验购买模式对应的功能是否开启
func (s *SettingService) RequireMode(ctx context.Context, mode string) error {
	flags, err := s.FeatureFlags(ctx)
	if err != nil {
		return err
	}
	switch mode {
	case constants.PurchaseModeIndividual:
		if !flags.IndividualEnabled {
			return ErrFeatureDisabled
		}
	case constants.PurchaseModeGroupBuy:
		if !flags.GroupBuyEnabled {
			return ErrFeatureDisabled
		}
	case constants.PurchaseModeSubGroup:
		if !flags.RegionsEnabled {
			return ErrFeatureDisabled
		}
	default:
		return ErrInvalidCartLine
	}
	return nil
}

// PublicConfig 前台公开配置
func (s *SettingService) PublicConfig(ctx context.Context, defaults map[string]interface{}) (map[string]interface{}, error) {
	site, err := s.GetConfig(defaults)
	if err != nil {
		return nil, err
	}
	flags, err := s.FeatureFlags(ctx)
	if err != nil {
		return nil, err
	}
	site["features"] = map[string]bool{
		constants.SettingFieldRegionsEnabled:    flags.RegionsEnabled,
		constants.SettingFieldGroupBuyEnabled:   flags.GroupBuyEnabled,
		constants.SettingFieldIndividualEnabled: flags.IndividualEnabled,
	}
	return site, nil
}

func featureFlagsFromJSON(raw models.JSON) FeatureFlags {
	defaults := DefaultFeatureFlags()
	if raw == nil {
		return defaults
	}
	return FeatureFlags{
		RegionsEnabled:    raw.Bool(constants.SettingFieldRegionsEnabled, defaults.RegionsEnabled),
		GroupBuyEnabled:   raw.Bool(constants.SettingFieldGroupBuyEnabled, defaults.GroupBuyEnabled),
		IndividualEnabled: raw.Bool(constants.SettingFieldIndividualEnabled, defaults.IndividualEnabled),
	}
}

func parseSettingInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), nil
		}
		if f, err := v.Float64(); err == nil {
			return int(f), nil
		}
		return 0, fmt.Errorf("invalid json number")
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, fmt.Errorf("empty string")
		}
		parsed, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, err
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("unsupported type %T", value)
	}
}
