package service

import (
	"strings"

	"github.com/groupvial/internal/constants"
	"github.com/groupvial/internal/models"
)

const settingSiteTextMaxRuneSize = 200

var supportedSettingKeys = map[string]struct{}{
	constants.SettingKeyFeatureFlags:    {},
	constants.SettingKeySiteConfig:      {},
	constants.SettingKeyDashboardConfig: {},
}

func isSupportedSettingKey(key string) bool {
	_, ok := supportedSettingKeys[key]
	return ok
}

// normalizeSettingValueByKey 按设置键执行归一化，避免非法值入库。
func normalizeSettingValueByKey(key string, value map[string]interface{}) models.JSON {
	switch key {
	case constants.SettingKeyFeatureFlags:
		return normalizeFeatureFlagsSetting(value)
	case constants.SettingKeySiteConfig:
		return normalizeSiteSetting(value)
	case constants.SettingKeyDashboardConfig:
		return models.JSON(DashboardSettingToMap(dashboardSettingFromJSON(models.JSON(value), DashboardDefaultSetting())))
	default:
		return models.JSON(value)
	}
}

// normalizeFeatureFlagsSetting 只保留三个开关字段，缺省为开启。
func normalizeFeatureFlagsSetting(value map[string]interface{}) models.JSON {
	fields := []string{
		constants.SettingFieldRegionsEnabled,
		constants.SettingFieldGroupBuyEnabled,
		constants.SettingFieldIndividualEnabled,
	}
	normalized := make(models.JSON, len(fields))
	for _, field := range fields {
		raw, ok := value[field]
		if !ok {
			normalized[field] = true
			continue
		}
		normalized[field] = parseSettingBool(raw)
	}
	return normalized
}

// normalizeSiteSetting 归一化站点配置结构。
func normalizeSiteSetting(value map[string]interface{}) models.JSON {
	normalized := make(models.JSON, len(value)+3)
	for key, raw := range value {
		normalized[key] = raw
	}
	normalized[constants.SettingFieldSiteName] = normalizeSettingTextWithRuneLimit(value[constants.SettingFieldSiteName], settingSiteTextMaxRuneSize)
	normalized[constants.SettingFieldContactHandle] = normalizeSettingTextWithRuneLimit(value[constants.SettingFieldContactHandle], settingSiteTextMaxRuneSize)

	provider := strings.ToLower(normalizeSettingText(value["messaging_provider"]))
	switch provider {
	case constants.MessagingWhatsApp, constants.MessagingTelegram, constants.MessagingMessenger:
	default:
		provider = ""
	}
	normalized["messaging_provider"] = provider
	normalized["currency"] = constants.SiteCurrencyDefault
	return normalized
}

func normalizeSettingText(raw interface{}) string {
	text, ok := raw.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(text)
}

func normalizeSettingTextWithRuneLimit(raw interface{}, maxRuneCount int) string {
	text := normalizeSettingText(raw)
	if text == "" || maxRuneCount <= 0 {
		return text
	}

	runes := []rune(text)
	if len(runes) <= maxRuneCount {
		return text
	}
	return string(runes[:maxRuneCount])
}

func parseSettingBool(raw interface{}) bool {
	switch value := raw.(type) {
	case bool:
		return value
	case int:
		return value != 0
	case int64:
		return value != 0
	case float64:
		return value != 0
	case string:
		normalized := strings.ToLower(strings.TrimSpace(value))
		return normalized == "1" || normalized == "true" || normalized == "yes" || normalized == "on"
	default:
		return false
	}
}
