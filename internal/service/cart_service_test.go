package service

import (
	"context"
	"errors"
	"testing"

	"github.com/groupvial/internal/config"
	"github.com/groupvial/internal/constants"
	"github.com/groupvial/internal/models"
)

func TestCartServiceClampsToRemainingCapacity(t *testing.T) {
	f := newServiceFixture(t, config.OrderConfig{})
	product := seedProduct(t, f.db, "bpc-157", 200)
	batch, items := seedBatch(t, f.db, constants.BatchKindGroupBuy, constants.BatchStatusActive, nil, []*models.Product{product}, []int{10})
	presetVials(t, f.db, batch.ID, items[0], 7)

	c, err := f.cartService.Create(context.Background())
	if err != nil {
		t.Fatalf("create cart failed: %v", err)
	}
	c, err = f.cartService.AddItem(context.Background(), c.ID, AddCartItemInput{
		Mode:           constants.PurchaseModeGroupBuy,
		BatchProductID: items[0].ID,
		Quantity:       5,
	})
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	lines := c.Lines()
	if len(lines) != 1 || lines[0].Quantity() != 3 || lines[0].MaxQuantity() != 3 {
		t.Fatalf("expected quantity clamped to 3, got %+v", lines)
	}

	presetVials(t, f.db, batch.ID, items[0], 9)
	c, err = f.cartService.Get(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if lines := c.Lines(); len(lines) != 1 || lines[0].Quantity() != 1 {
		t.Fatalf("expected refreshed quantity 1, got %+v", lines)
	}

	presetVials(t, f.db, batch.ID, items[0], 10)
	if _, err := f.cartService.AddItem(context.Background(), c.ID, AddCartItemInput{
		Mode:           constants.PurchaseModeGroupBuy,
		BatchProductID: items[0].ID,
		Quantity:       1,
	}); !errors.Is(err, ErrCapacityInsufficient) {
		t.Fatalf("full membership should reject, got %v", err)
	}
}

func TestCartServiceSwitchingModeReplacesCart(t *testing.T) {
	f := newServiceFixture(t, config.OrderConfig{})
	product := seedProduct(t, f.db, "tb-500", 300)
	_, items := seedBatch(t, f.db, constants.BatchKindGroupBuy, constants.BatchStatusActive, nil, []*models.Product{product}, []int{10})

	c, err := f.cartService.Create(context.Background())
	if err != nil {
		t.Fatalf("create cart failed: %v", err)
	}
	if _, err := f.cartService.AddItem(context.Background(), c.ID, AddCartItemInput{
		Mode:           constants.PurchaseModeGroupBuy,
		BatchProductID: items[0].ID,
		Quantity:       2,
	}); err != nil {
		t.Fatalf("add group buy item failed: %v", err)
	}
	c, err = f.cartService.AddItem(context.Background(), c.ID, AddCartItemInput{
		Mode:      constants.PurchaseModeIndividual,
		ProductID: product.ID,
		Unit:      constants.UnitBox,
		Quantity:  1,
	})
	if err != nil {
		t.Fatalf("add individual item failed: %v", err)
	}
	if c.Mode() != constants.PurchaseModeIndividual || c.Len() != 1 || c.TotalVials() != 10 {
		t.Fatalf("expected a single individual box line, got mode=%s len=%d vials=%d", c.Mode(), c.Len(), c.TotalVials())
	}
	if got := c.Subtotal().String(); got != "2700.00" {
		t.Fatalf("expected box subtotal 2700.00, got %s", got)
	}
}

func TestCartServiceLimitsLinesAndQuantities(t *testing.T) {
	f := newServiceFixture(t, config.OrderConfig{MaxLines: 1})
	a := seedProduct(t, f.db, "semax", 100)
	b := seedProduct(t, f.db, "selank", 100)

	c, err := f.cartService.Create(context.Background())
	if err != nil {
		t.Fatalf("create cart failed: %v", err)
	}
	add := func(productID uint, qty int) error {
		_, err := f.cartService.AddItem(context.Background(), c.ID, AddCartItemInput{
			Mode:      constants.PurchaseModeIndividual,
			ProductID: productID,
			Quantity:  qty,
		})
		return err
	}
	if err := add(a.ID, 0); !errors.Is(err, ErrInvalidCartLine) {
		t.Fatalf("zero quantity should be invalid, got %v", err)
	}
	if err := add(a.ID, 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := add(a.ID, 1); err != nil {
		t.Fatalf("same line should merge, got %v", err)
	}
	if err := add(b.ID, 1); !errors.Is(err, ErrTooManyLines) {
		t.Fatalf("expected line limit, got %v", err)
	}

	updated, err := f.cartService.SetQuantity(context.Background(), c.ID, updatedKey(t, f, c.ID), 0)
	if err != nil {
		t.Fatalf("set quantity failed: %v", err)
	}
	if !updated.IsEmpty() || updated.Mode() != "" {
		t.Fatalf("zero quantity should empty the cart, got len=%d mode=%q", updated.Len(), updated.Mode())
	}
	if _, err := f.cartService.Get(context.Background(), "missing"); !errors.Is(err, ErrCartNotFound) {
		t.Fatalf("expected cart not found, got %v", err)
	}
}

func TestCartServiceRespectsFeatureFlags(t *testing.T) {
	f := newServiceFixture(t, config.OrderConfig{})
	product := seedProduct(t, f.db, "aod-9604", 150)
	if _, err := f.settings.Update(context.Background(), constants.SettingKeyFeatureFlags, map[string]interface{}{
		constants.SettingFieldIndividualEnabled: false,
	}); err != nil {
		t.Fatalf("update flags failed: %v", err)
	}
	c, err := f.cartService.Create(context.Background())
	if err != nil {
		t.Fatalf("create cart failed: %v", err)
	}
	_, err = f.cartService.AddItem(context.Background(), c.ID, AddCartItemInput{
		Mode:      constants.PurchaseModeIndividual,
		ProductID: product.ID,
		Quantity:  1,
	})
	if !errors.Is(err, ErrFeatureDisabled) {
		t.Fatalf("expected feature disabled, got %v", err)
	}
}

func updatedKey(t *testing.T, f *serviceFixture, cartID string) string {
	t.Helper()
	c, err := f.cartService.Get(context.Background(), cartID)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	lines := c.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d", len(lines))
	}
	if lines[0].Quantity() != 3 {
		t.Fatalf("expected merged quantity 3, got %d", lines[0].Quantity())
	}
	return lines[0].Key()
}

func TestCartServiceSetQuantityClampsOutOfRange(t *testing.T) {
	f := newServiceFixture(t, config.OrderConfig{})
	product := seedProduct(t, f.db, "cjc-1295", 180)
	batch, items := seedBatch(t, f.db, constants.BatchKindGroupBuy, constants.BatchStatusActive, nil, []*models.Product{product}, []int{10})
	presetVials(t, f.db, batch.ID, items[0], 6)

	c, err := f.cartService.Create(context.Background())
	if err != nil {
		t.Fatalf("create cart failed: %v", err)
	}
	c, err = f.cartService.AddItem(context.Background(), c.ID, AddCartItemInput{
		Mode:           constants.PurchaseModeGroupBuy,
		BatchProductID: items[0].ID,
		Quantity:       2,
	})
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	key := c.Lines()[0].Key()

	c, err = f.cartService.SetQuantity(context.Background(), c.ID, key, 50)
	if err != nil {
		t.Fatalf("set quantity above capacity failed: %v", err)
	}
	if lines := c.Lines(); len(lines) != 1 || lines[0].Quantity() != 4 {
		t.Fatalf("expected quantity clamped to remaining 4, got %+v", lines)
	}

	c, err = f.cartService.SetQuantity(context.Background(), c.ID, key, -3)
	if err != nil {
		t.Fatalf("negative quantity should clamp, got %v", err)
	}
	if !c.IsEmpty() {
		t.Fatalf("negative quantity should remove the line, got len=%d", c.Len())
	}
}
