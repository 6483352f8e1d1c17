package service

import (
	"context"
	"testing"

	"github.com/groupvial/internal/constants"
)

func TestUpdateDashboardSettingNormalized(t *testing.T) {
	repo := newMockSettingRepo()
	svc := NewSettingService(repo)

	input := map[string]interface{}{
		"alert": map[string]interface{}{
			"pending_orders_threshold": 9999999,
			"unpaid_orders_threshold":  "35",
			"near_full_percent":        10,
		},
		"ranking": map[string]interface{}{
			"top_products_limit": 999,
			"open_batches_limit": -1,
		},
	}

	result, err := svc.Update(context.Background(), constants.SettingKeyDashboardConfig, input)
	if err != nil {
		t.Fatalf("update dashboard config failed: %v", err)
	}

	alert, ok := result["alert"].(map[string]interface{})
	if !ok {
		t.Fatalf("invalid alert payload type: %T", result["alert"])
	}
	ranking, ok := result["ranking"].(map[string]interface{})
	if !ok {
		t.Fatalf("invalid ranking payload type: %T", result["ranking"])
	}

	assertSettingIntValue(t, alert, "pending_orders_threshold", 20)
	assertSettingIntValue(t, alert, "unpaid_orders_threshold", 35)
	assertSettingIntValue(t, alert, "near_full_percent", 90)
	assertSettingIntValue(t, ranking, "top_products_limit", 5)
	assertSettingIntValue(t, ranking, "open_batches_limit", 10)

	setting, err := svc.GetDashboardSetting()
	if err != nil {
		t.Fatalf("get dashboard setting failed: %v", err)
	}
	if setting.Alert.UnpaidOrdersThreshold != 35 {
		t.Fatalf("stored threshold not read back: %+v", setting.Alert)
	}
}

func TestUpdateDashboardSettingFallbackWhenMissing(t *testing.T) {
	repo := newMockSettingRepo()
	svc := NewSettingService(repo)

	result, err := svc.Update(context.Background(), constants.SettingKeyDashboardConfig, map[string]interface{}{})
	if err != nil {
		t.Fatalf("update dashboard config failed: %v", err)
	}

	alert, ok := result["alert"].(map[string]interface{})
	if !ok {
		t.Fatalf("invalid alert payload type: %T", result["alert"])
	}
	ranking, ok := result["ranking"].(map[string]interface{})
	if !ok {
		t.Fatalf("invalid ranking payload type: %T", result["ranking"])
	}

	assertSettingIntValue(t, alert, "pending_orders_threshold", 20)
	assertSettingIntValue(t, alert, "unpaid_orders_threshold", 20)
	assertSettingIntValue(t, alert, "near_full_percent", 90)
	assertSettingIntValue(t, ranking, "top_products_limit", 5)
	assertSettingIntValue(t, ranking, "open_batches_limit", 10)
}

func assertSettingIntValue(t *testing.T, data map[string]interface{}, key string, expected int) {
	t.Helper()
	value, exists := data[key]
	if !exists {
		t.Fatalf("missing key %s", key)
	}
	parsed, err := parseSettingInt(value)
	if err != nil {
		t.Fatalf("parse key %s failed: %v", key, err)
	}
	if parsed != expected {
		t.Fatalf("unexpected value for %s, expected %d got %d", key, expected, parsed)
	}
}
