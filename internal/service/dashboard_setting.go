package service

import (
	"github.com/groupvial/internal/constants"
	"github.com/groupvial/internal/models"
)

// DashboardAlertSetting 仪表盘告警规则配置
type DashboardAlertSetting struct {
	PendingOrdersThreshold int64 `json:"pending_orders_threshold"`
	UnpaidOrdersThreshold  int64 `json:"unpaid_orders_threshold"`
	NearFullPercent        int   `json:"near_full_percent"`
}

// DashboardRankingSetting 仪表盘排行规则配置
type DashboardRankingSetting struct {
	TopProductsLimit int `json:"top_products_limit"`
	OpenBatchesLimit int `json:"open_batches_limit"`
}

// DashboardSetting 仪表盘配置
type DashboardSetting struct {
	Alert   DashboardAlertSetting   `json:"alert"`
	Ranking DashboardRankingSetting `json:"ranking"`
}

// DashboardDefaultSetting 默认仪表盘配置
func DashboardDefaultSetting() DashboardSetting {
	return NormalizeDashboardSetting(DashboardSetting{
		Alert: DashboardAlertSetting{
			PendingOrdersThreshold: 20,
			UnpaidOrdersThreshold:  20,
			NearFullPercent:        90,
		},
		Ranking: DashboardRankingSetting{
			TopProductsLimit: 5,
			OpenBatchesLimit: 10,
		},
	})
}

// NormalizeDashboardSetting 归一化仪表盘配置
func NormalizeDashboardSetting(setting DashboardSetting) DashboardSetting {
	if setting.Alert.PendingOrdersThreshold < 1 || setting.Alert.PendingOrdersThreshold > 100000 {
		setting.Alert.PendingOrdersThreshold = 20
	}
	if setting.Alert.UnpaidOrdersThreshold < 1 || setting.Alert.UnpaidOrdersThreshold > 100000 {
		setting.Alert.UnpaidOrdersThreshold = 20
	}
	if setting.Alert.NearFullPercent < 50 || setting.Alert.NearFullPercent > 100 {
		setting.Alert.NearFullPercent = 90
	}

	if setting.Ranking.TopProductsLimit < 1 || setting.Ranking.TopProductsLimit > 20 {
		setting.Ranking.TopProductsLimit = 5
	}
	if setting.Ranking.OpenBatchesLimit < 1 || setting.Ranking.OpenBatchesLimit > 50 {
		setting.Ranking.OpenBatchesLimit = 10
	}

	return setting
}

// DashboardSettingToMap 将仪表盘配置转换为设置存储结构
func DashboardSettingToMap(setting DashboardSetting) map[string]interface{} {
	normalized := NormalizeDashboardSetting(setting)
	return map[string]interface{}{
		"alert": map[string]interface{}{
			"pending_orders_threshold": normalized.Alert.PendingOrdersThreshold,
			"unpaid_orders_threshold":  normalized.Alert.UnpaidOrdersThreshold,
			"near_full_percent":        normalized.Alert.NearFullPercent,
		},
		"ranking": map[string]interface{}{
			"top_products_limit": normalized.Ranking.TopProductsLimit,
			"open_batches_limit": normalized.Ranking.OpenBatchesLimit,
		},
	}
}

func dashboardSettingFromJSON(raw models.JSON, fallback DashboardSetting) DashboardSetting {
	result := fallback

	alertRaw, ok := raw["alert"].(map[string]interface{})
	if ok {
		if value, exists := alertRaw["pending_orders_threshold"]; exists {
			if parsed, err := parseSettingInt(value); err == nil {
				result.Alert.PendingOrdersThreshold = int64(parsed)
			}
		}
		if value, exists := alertRaw["unpaid_orders_threshold"]; exists {
			if parsed, err := parseSettingInt(value); err == nil {
				result.Alert.UnpaidOrdersThreshold = int64(parsed)
			}
		}
		if value, exists := alertRaw["near_full_percent"]; exists {
			if parsed, err := parseSettingInt(value); err == nil {
				result.Alert.NearFullPercent = parsed
			}
		}
	}

	rankingRaw, ok := raw["ranking"].(map[string]interface{})
	if ok {
		if value, exists := rankingRaw["top_products_limit"]; exists {
			if parsed, err := parseSettingInt(value); err == nil {
				result.Ranking.TopProductsLimit = parsed
			}
		}
		if value, exists := rankingRaw["open_batches_limit"]; exists {
			if parsed, err := parseSettingInt(value); err == nil {
				result.Ranking.OpenBatchesLimit = parsed
			}
		}
	}

	return NormalizeDashboardSetting(result)
}

// GetDashboardSetting 获取仪表盘设置（优先 settings，空时回退默认）
func (s *SettingService) GetDashboardSetting() (DashboardSetting, error) {
	fallback := DashboardDefaultSetting()
	if s == nil {
		return fallback, nil
	}
	value, err := s.GetByKey(constants.SettingKeyDashboardConfig)
	if err != nil {
		return fallback, err
	}
	if value == nil {
		return fallback, nil
	}
	return dashboardSettingFromJSON(value, fallback), nil
}
