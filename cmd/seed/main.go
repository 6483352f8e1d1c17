package main

import (
	"errors"

	"github.com/groupvial/internal/config"
	"github.com/groupvial/internal/logger"
	"github.com/groupvial/internal/models"

	"gorm.io/gorm"
)

type seedProduct struct {
	Slug        string
	Name        string
	Category    string
	Description string
	VialPrice   int64
	BoxPrice    int64
	Strength    string
	SortOrder   int
}

// 商品目录（价格单位：比索）
var catalog = []seedProduct{
	{Slug: "bpc-157", Name: "BPC-157", Category: "recovery", Description: "Body protection compound, 10mg lyophilized.", VialPrice: 450, BoxPrice: 4200, Strength: "10mg", SortOrder: 100},
	{Slug: "tb-500", Name: "TB-500", Category: "recovery", Description: "Thymosin beta-4 fragment, 10mg lyophilized.", VialPrice: 650, BoxPrice: 6000, Strength: "10mg", SortOrder: 95},
	{Slug: "ghk-cu", Name: "GHK-Cu", Category: "skin", Description: "Copper peptide, 50mg lyophilized.", VialPrice: 380, BoxPrice: 3500, Strength: "50mg", SortOrder: 90},
	{Slug: "semaglutide", Name: "Semaglutide", Category: "metabolic", Description: "GLP-1 receptor agonist, 5mg lyophilized.", VialPrice: 900, BoxPrice: 8500, Strength: "5mg", SortOrder: 85},
	{Slug: "tirzepatide", Name: "Tirzepatide", Category: "metabolic", Description: "Dual GIP/GLP-1 agonist, 10mg lyophilized.", VialPrice: 1200, BoxPrice: 11500, Strength: "10mg", SortOrder: 80},
	{Slug: "retatrutide", Name: "Retatrutide", Category: "metabolic", Description: "Triple agonist, 10mg lyophilized.", VialPrice: 1600, BoxPrice: 15000, Strength: "10mg", SortOrder: 75},
	{Slug: "ipamorelin", Name: "Ipamorelin", Category: "growth", Description: "Growth hormone secretagogue, 5mg lyophilized.", VialPrice: 420, BoxPrice: 3900, Strength: "5mg", SortOrder: 70},
	{Slug: "cjc-1295-no-dac", Name: "CJC-1295 (no DAC)", Category: "growth", Description: "GHRH analogue, 5mg lyophilized.", VialPrice: 480, BoxPrice: 4500, Strength: "5mg", SortOrder: 65},
	{Slug: "nad-plus", Name: "NAD+", Category: "longevity", Description: "Nicotinamide adenine dinucleotide, 500mg.", VialPrice: 700, BoxPrice: 6500, Strength: "500mg", SortOrder: 60},
	{Slug: "selank", Name: "Selank", Category: "cognitive", Description: "Anxiolytic heptapeptide, 5mg lyophilized.", VialPrice: 400, BoxPrice: 3700, Strength: "5mg", SortOrder: 55},
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, false); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	created, skipped, err := seedCatalog(models.DB, catalog)
	if err != nil {
		stdLog.Fatalf("Failed to seed catalog: %v", err)
	}
	logger.Infow("seed_catalog_done", "created", created, "skipped", skipped, "total", len(catalog))
}

// seedCatalog 按 slug 幂等写入商品，已存在的跳过
func seedCatalog(db *gorm.DB, items []seedProduct) (created int, skipped int, err error) {
	for _, item := range items {
		var existing models.Product
		lookupErr := db.Unscoped().Where("slug = ?", item.Slug).First(&existing).Error
		if lookupErr == nil {
			logger.Debugw("seed_product_exists", "slug", item.Slug)
			skipped++
			continue
		}
		if !errors.Is(lookupErr, gorm.ErrRecordNotFound) {
			return created, skipped, lookupErr
		}
		product := item.toModel()
		if err := db.Create(&product).Error; err != nil {
			return created, skipped, err
		}
		logger.Infow("seed_product_created", "slug", product.Slug, "product_id", product.ID)
		created++
	}
	return created, skipped, nil
}

func (p seedProduct) toModel() models.Product {
	return models.Product{
		Slug:         p.Slug,
		Name:         p.Name,
		Category:     p.Category,
		Description:  p.Description,
		PricePerVial: models.NewMoney(p.VialPrice),
		PricePerBox:  models.NewMoney(p.BoxPrice),
		VialsPerBox:  10,
		SpecificationsJSON: models.JSON(map[string]interface{}{
			"strength": p.Strength,
			"form":     "lyophilized powder",
		}),
		IsActive:  true,
		SortOrder: p.SortOrder,
	}
}
