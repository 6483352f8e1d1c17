package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/groupvial/internal/cart"
	"github.com/groupvial/internal/config"
	"github.com/groupvial/internal/constants"
	"github.com/groupvial/internal/events"
	"github.com/groupvial/internal/models"
	"github.com/groupvial/internal/realtime"
	"github.com/groupvial/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:svc_%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
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

func seedProduct(t *testing.T, db *gorm.DB, slug string, pricePerVial int64) *models.Product {
	t.Helper()
	product := &models.Product{
		Slug:         slug,
		Name:         strings.ToUpper(slug),
		Category:     "recovery",
		PricePerVial: models.NewMoney(pricePerVial),
		PricePerBox:  models.NewMoney(pricePerVial * 9),
		VialsPerBox:  10,
		IsActive:     true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func seedUser(t *testing.T, db *gorm.DB, subject, role string) *models.User {
	t.Helper()
	user := &models.User{
		AuthSubject: subject,
		Email:       subject + "@example.com",
		Name:        subject,
		Role:        role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func seedRegion(t *testing.T, db *gorm.DB, slug string, hostUserID *uint) *models.Region {
	t.Helper()
	region := &models.Region{
		Slug:          slug,
		Name:          strings.ToUpper(slug),
		ContactHandle: "+639170000000",
		HostUserID:    hostUserID,
		IsActive:      true,
	}
	if err := db.Create(region).Error; err != nil {
		t.Fatalf("create region failed: %v", err)
	}
	return region
}

// seedBatch 创建批次及成员商品，targets 为每个商品的目标支数
func seedBatch(t *testing.T, db *gorm.DB, kind, status string, regionID *uint, products []*models.Product, targets []int) (*models.Batch, []models.BatchProduct) {
	t.Helper()
	batch := &models.Batch{
		Name:            "batch " + kind,
		Kind:            kind,
		Status:          status,
		DiscountPercent: decimal.Zero,
		OwnerUserID:     1,
		RegionID:        regionID,
	}
	if err := db.Create(batch).Error; err != nil {
		t.Fatalf("create batch failed: %v", err)
	}
	items := make([]models.BatchProduct, 0, len(products))
	total := 0
	for i, product := range products {
		item := models.BatchProduct{
			BatchID:      batch.ID,
			ProductID:    product.ID,
			TargetVials:  targets[i],
			PricePerVial: product.PricePerVial,
		}
		if err := db.Create(&item).Error; err != nil {
			t.Fatalf("create batch product failed: %v", err)
		}
		items = append(items, item)
		total += targets[i]
	}
	if err := db.Model(batch).Update("target_vials", total).Error; err != nil {
		t.Fatalf("update batch target failed: %v", err)
	}
	batch.TargetVials = total
	return batch, items
}

// presetVials 直接设置成员商品与批次的已认购支数
func presetVials(t *testing.T, db *gorm.DB, batchID uint, item models.BatchProduct, current int) {
	t.Helper()
	if err := db.Model(&models.BatchProduct{}).Where("id = ?", item.ID).Update("current_vials", current).Error; err != nil {
		t.Fatalf("preset membership vials failed: %v", err)
	}
	if err := db.Model(&models.Batch{}).Where("id = ?", batchID).Update("current_vials", gorm.Expr("current_vials + ?", current)).Error; err != nil {
		t.Fatalf("preset batch vials failed: %v", err)
	}
}

type serviceFixture struct {
	db           *gorm.DB
	batchRepo    repository.BatchRepository
	orderRepo    repository.OrderRepository
	productRepo  repository.ProductRepository
	regionRepo   repository.RegionRepository
	userRepo     repository.UserRepository
	settings     *SettingService
	hub          *realtime.MemoryHub
	carts        *cart.MemoryStore
	batchService *BatchService
	checkout     *CheckoutService
	orders       *OrderService
	cartService  *CartService
	cartSeq      int
}

func newServiceFixture(t *testing.T, orderCfg config.OrderConfig) *serviceFixture {
	t.Helper()
	db := openServiceTestDB(t)
	f := &serviceFixture{
		db:          db,
		batchRepo:   repository.NewBatchRepository(db),
		orderRepo:   repository.NewOrderRepository(db),
		productRepo: repository.NewProductRepository(db),
		regionRepo:  repository.NewRegionRepository(db),
		userRepo:    repository.NewUserRepository(db),
		hub:         realtime.NewMemoryHub(),
		carts:       cart.NewMemoryStore(time.Hour),
	}
	f.settings = NewSettingService(repository.NewSettingRepository(db))
	f.batchService = NewBatchService(f.batchRepo, f.productRepo, f.regionRepo, nil, f.hub)
	f.checkout = NewCheckoutService(
		f.batchRepo,
		f.orderRepo,
		f.productRepo,
		f.regionRepo,
		f.settings,
		f.batchService,
		nil,
		f.carts,
		nil,
		events.NopPublisher{},
		orderCfg,
		config.MessagingConfig{Provider: constants.MessagingWhatsApp, DefaultHandle: "+639171234567"},
	)
	f.orders = NewOrderService(f.orderRepo, f.batchRepo, f.regionRepo, f.batchService, nil, events.NopPublisher{})
	f.cartService = NewCartService(f.carts, f.productRepo, f.batchRepo, f.settings, orderCfg)
	return f
}

// groupBuyCart 保存一个团购购物车
func (f *serviceFixture) groupBuyCart(t *testing.T, batch *models.Batch, item models.BatchProduct, qty int) string {
	t.Helper()
	f.cartSeq++
	c := cart.New(fmt.Sprintf("cart-%d-%d", item.ID, f.cartSeq))
	line := cart.GroupBuyLine{
		BatchID:        batch.ID,
		BatchProductID: item.ID,
		ProductID:      item.ProductID,
		ProductName:    "item",
		PricePerVial:   item.PricePerVial,
		Qty:            qty,
		Max:            cart.Unbounded,
	}
	if err := c.Add(line); err != nil {
		t.Fatalf("add cart line failed: %v", err)
	}
	if err := f.carts.Save(context.Background(), c); err != nil {
		t.Fatalf("save cart failed: %v", err)
	}
	return c.ID
}

func (f *serviceFixture) reloadBatch(t *testing.T, id uint) *models.Batch {
	t.Helper()
	batch, err := f.batchRepo.GetByIDWithProducts(id)
	if err != nil || batch == nil {
		t.Fatalf("reload batch failed: %v", err)
	}
	return batch
}
