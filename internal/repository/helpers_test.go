package repository

import (
	"fmt"
	"strings"
	"testing"

	"github.com/groupvial/internal/constants"
	"github.com/groupvial/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

func createTestProduct(t *testing.T, db *gorm.DB, slug string, pricePerVial int64) *models.Product {
	t.Helper()
	product := &models.Product{
		Slug:         slug,
		Name:         strings.ToUpper(slug),
		Category:     "recovery",
		PricePerVial: models.NewMoney(pricePerVial),
		PricePerBox:  models.NewMoney(pricePerVial * 10),
		VialsPerBox:  10,
		IsActive:     true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func createTestBatch(t *testing.T, db *gorm.DB, status string, products map[*models.Product]int) (*models.Batch, []models.BatchProduct) {
	t.Helper()
	batch := &models.Batch{
		Name:            "test batch",
		Kind:            constants.BatchKindGroupBuy,
		Status:          status,
		DiscountPercent: decimal.Zero,
		OwnerUserID:     1,
	}
	if err := db.Create(batch).Error; err != nil {
		t.Fatalf("create batch failed: %v", err)
	}
	items := make([]models.BatchProduct, 0, len(products))
	total := 0
	for product, target := range products {
		item := models.BatchProduct{
			BatchID:      batch.ID,
			ProductID:    product.ID,
			TargetVials:  target,
			PricePerVial: product.PricePerVial,
		}
		if err := db.Create(&item).Error; err != nil {
			t.Fatalf("create batch product failed: %v", err)
		}
		items = append(items, item)
		total += target
	}
	if err := db.Model(batch).Update("target_vials", total).Error; err != nil {
		t.Fatalf("update batch target failed: %v", err)
	}
	batch.TargetVials = total
	return batch, items
}
