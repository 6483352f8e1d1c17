package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	featureFlagsCacheTTL = 5 * time.Minute
	publicConfigCacheTTL = 30 * time.Second
)

// FeatureFlags 功能开关快照
type FeatureFlags struct {
	RegionsEnabled    bool  `json:"regions_enabled"`
	GroupBuyEnabled   bool  `json:"group_buy_enabled"`
	IndividualEnabled bool  `json:"individual_purchase_enabled"`
	UpdatedAt         int64 `json:"updated_at"`
}

func featureFlagsKey() string {
	return "settings:feature_flags"
}

func publicConfigKey() string {
	return "public:config"
}

func cartKey(cartID string) string {
	return fmt.Sprintf("cart:%s", cartID)
}

// BatchChannel 批次进度频道名
func BatchChannel(batchID uint) string {
	return fmt.Sprintf("batch:%d:progress", batchID)
}

// GetFeatureFlags 读取功能开关缓存
func GetFeatureFlags(ctx context.Context) (*FeatureFlags, bool, error) {
	var flags FeatureFlags
	hit, err := GetJSON(ctx, featureFlagsKey(), &flags)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &flags, true, nil
}

// SetFeatureFlags 写入功能开关缓存
func SetFeatureFlags(ctx context.Context, flags *FeatureFlags) error {
	if flags == nil {
		return nil
	}
	return SetJSON(ctx, featureFlagsKey(), flags, featureFlagsCacheTTL)
}

// DelFeatureFlags 删除功能开关缓存
func DelFeatureFlags(ctx context.Context) error {
	return Del(ctx, featureFlagsKey())
}

// GetPublicConfig 读取前台配置缓存
func GetPublicConfig(ctx context.Context) (map[string]interface{}, bool, error) {
	var data map[string]interface{}
	hit, err := GetJSON(ctx, publicConfigKey(), &data)
	if err != nil || !hit {
		return nil, hit, err
	}
	return data, true, nil
}

// SetPublicConfig 写入前台配置缓存
func SetPublicConfig(ctx context.Context, data map[string]interface{}) error {
	return SetJSON(ctx, publicConfigKey(), data, publicConfigCacheTTL)
}

// DelPublicConfig 删除前台配置缓存
func DelPublicConfig(ctx context.Context) error {
	return Del(ctx, publicConfigKey())
}

// GetCart 读取购物车原始数据
func GetCart(ctx context.Context, cartID string, dest interface{}) (bool, error) {
	return GetJSON(ctx, cartKey(cartID), dest)
}

// SetCart 写入购物车并刷新过期时间
func SetCart(ctx context.Context, cartID string, value interface{}, ttl time.Duration) error {
	return SetJSON(ctx, cartKey(cartID), value, ttl)
}

// DelCart 删除购物车
func DelCart(ctx context.Context, cartID string) error {
	return Del(ctx, cartKey(cartID))
}
