package service

import (
	"context"
	"testing"

	"github.com/groupvial/internal/constants"
	"github.com/groupvial/internal/models"
)

type mockSettingRepo struct {
	store map[string]models.JSON
	reads int
}

func newMockSettingRepo() *mockSettingRepo {
	return &mockSettingRepo{store: map[string]models.JSON{}}
}

func (m *mockSettingRepo) GetByKey(key string) (*models.Setting, error) {
	m.reads++
	value, ok := m.store[key]
	if !ok {
		return nil, nil
	}
	return &models.Setting{Key: key, ValueJSON: value}, nil
}

func (m *mockSettingRepo) Upsert(key string, value models.JSON) (*models.Setting, error) {
	m.store[key] = value
	return &models.Setting{Key: key, ValueJSON: value}, nil
}

func TestUpdateFeatureFlagsNormalized(t *testing.T) {
	repo := newMockSettingRepo()
	svc := NewSettingService(repo)

	result, err := svc.Update(context.Background(), constants.SettingKeyFeatureFlags, map[string]interface{}{
		constants.SettingFieldRegionsEnabled:  "off",
		constants.SettingFieldGroupBuyEnabled: 1,
		"unknown":                             true,
	})
	if err != nil {
		t.Fatalf("update feature flags failed: %v", err)
	}
	if result[constants.SettingFieldRegionsEnabled] != false {
		t.Fatalf("expected regions disabled, got %v", result[constants.SettingFieldRegionsEnabled])
	}
	if result[constants.SettingFieldGroupBuyEnabled] != true {
		t.Fatalf("expected group buy enabled, got %v", result[constants.SettingFieldGroupBuyEnabled])
	}
	if result[constants.SettingFieldIndividualEnabled] != true {
		t.Fatalf("expected missing individual flag to default on")
	}
	if _, ok := result["unknown"]; ok {
		t.Fatalf("unexpected unknown field kept")
	}
}

func TestUpdateSiteSettingNormalized(t *testing.T) {
	repo := newMockSettingRepo()
	svc := NewSettingService(repo)

	result, err := svc.Update(context.Background(), constants.SettingKeySiteConfig, map[string]interface{}{
		constants.SettingFieldSiteName:      "  Peptide PH  ",
		constants.SettingFieldContactHandle: 123,
		"messaging_provider":                " Telegram ",
		"currency":                          "USD",
		"extra":                             "keep",
	})
	if err != nil {
		t.Fatalf("update site config failed: %v", err)
	}
	if result[constants.SettingFieldSiteName] != "Peptide PH" {
		t.Fatalf("unexpected site name: %v", result[constants.SettingFieldSiteName])
	}
	if result[constants.SettingFieldContactHandle] != "" {
		t.Fatalf("non-string contact handle should be cleared")
	}
	if result["messaging_provider"] != constants.MessagingTelegram {
		t.Fatalf("unexpected provider: %v", result["messaging_provider"])
	}
	if result["currency"] != constants.SiteCurrencyDefault {
		t.Fatalf("currency should be fixed, got %v", result["currency"])
	}
	if result["extra"] != "keep" {
		t.Fatalf("unexpected extra field: %v", result["extra"])
	}
}

func TestUpdateRejectsUnknownKey(t *testing.T) {
	svc := NewSettingService(newMockSettingRepo())
	if _, err := svc.Update(context.Background(), "smtp_config", map[string]interface{}{}); err != ErrSettingInvalid {
		t.Fatalf("expected ErrSettingInvalid, got %v", err)
	}
}

func TestFeatureFlagsGateModes(t *testing.T) {
	repo := newMockSettingRepo()
	svc := NewSettingService(repo)
	ctx := context.Background()

	flags, err := svc.FeatureFlags(ctx)
	if err != nil {
		t.Fatalf("load flags failed: %v", err)
	}
	if !flags.RegionsEnabled || !flags.GroupBuyEnabled || !flags.IndividualEnabled {
		t.Fatalf("expected all flags on by default: %+v", flags)
	}

	if _, err := svc.Update(ctx, constants.SettingKeyFeatureFlags, map[string]interface{}{
		constants.SettingFieldIndividualEnabled: false,
	}); err != nil {
		t.Fatalf("update flags failed: %v", err)
	}
	if err := svc.RequireMode(ctx, constants.PurchaseModeIndividual); err != ErrFeatureDisabled {
		t.Fatalf("expected individual purchase disabled, got %v", err)
	}
	if err := svc.RequireMode(ctx, constants.PurchaseModeGroupBuy); err != nil {
		t.Fatalf("expected group buy allowed, got %v", err)
	}
	if err := svc.RequireMode(ctx, "wholesale"); err != ErrInvalidCartLine {
		t.Fatalf("expected invalid mode error, got %v", err)
	}

	cfg, err := svc.PublicConfig(ctx, map[string]interface{}{"currency": constants.SiteCurrencyDefault})
	if err != nil {
		t.Fatalf("public config failed: %v", err)
	}
	features := cfg["features"].(map[string]bool)
	if features[constants.SettingFieldIndividualEnabled] {
		t.Fatalf("expected individual flag off in public config")
	}
}
