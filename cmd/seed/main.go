package main

import (
	"fmt"
	"time"

	"github.com/nutri-next/internal/config"
	"github.com/nutri-next/internal/constants"
	"github.com/nutri-next/internal/logger"
	"github.com/nutri-next/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 口味字典
	flavors := []models.Flavor{
		{Slug: "vanilla", Name: "香草", SortOrder: 30},
		{Slug: "chocolate", Name: "巧克力", SortOrder: 20},
		{Slug: "strawberry", Name: "草莓", SortOrder: 10},
	}
	for _, flavor := range flavors {
		var existing models.Flavor
		if err := models.DB.Where("slug = ?", flavor.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&flavor).Error; err != nil {
				stdLog.Printf("Failed to create flavor %s: %v", flavor.Slug, err)
			} else {
				stdLog.Printf("Created flavor: %s", flavor.Slug)
			}
		} else {
			stdLog.Printf("Flavor already exists: %s", flavor.Slug)
		}
	}

	// 重量字典
	weights := []models.Weight{
		{Slug: "1kg", Label: "1kg", Grams: 1000, SortOrder: 30},
		{Slug: "2kg", Label: "2kg", Grams: 2000, SortOrder: 20},
		{Slug: "5lb", Label: "5lb", Grams: 2268, SortOrder: 10},
	}
	for _, weight := range weights {
		var existing models.Weight
		if err := models.DB.Where("slug = ?", weight.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&weight).Error; err != nil {
				stdLog.Printf("Failed to create weight %s: %v", weight.Slug, err)
			} else {
				stdLog.Printf("Created weight: %s", weight.Slug)
			}
		} else {
			stdLog.Printf("Weight already exists: %s", weight.Slug)
		}
	}

	flavorIDs := map[string]uint{}
	var flavorList []models.Flavor
	if err := models.DB.Find(&flavorList).Error; err != nil {
		stdLog.Fatalf("Failed to load flavors: %v", err)
	}
	for _, flavor := range flavorList {
		flavorIDs[flavor.Slug] = flavor.ID
	}

	weightIDs := map[string]uint{}
	var weightList []models.Weight
	if err := models.DB.Find(&weightList).Error; err != nil {
		stdLog.Fatalf("Failed to load weights: %v", err)
	}
	for _, weight := range weightList {
		weightIDs[weight.Slug] = weight.ID
	}

	// 商品与变体
	products := []struct {
		product  models.Product
		variants []seedVariant
	}{
		{
			product: models.Product{
				Slug:        "whey-isolate",
				Name:        "分离乳清蛋白粉",
				Description: "快速吸收的分离乳清蛋白，每份 27g 蛋白质。",
				Images: models.StringArray([]string{
					"https://images.unsplash.com/photo-1593095948071-474c5cc2989d?w=800",
				}),
				Tags:            models.StringArray([]string{"Protein", "Whey"}),
				FlavorOptionIDs: models.UintArray{flavorIDs["vanilla"], flavorIDs["chocolate"], flavorIDs["strawberry"]},
				WeightOptionIDs: models.UintArray{weightIDs["1kg"], weightIDs["2kg"], weightIDs["5lb"]},
				IsActive:        true,
				SortOrder:       30,
			},
			variants: []seedVariant{
				{sku: "WI-VAN-1KG", flavor: "vanilla", weight: "1kg", price: "39.99", stock: 50},
				{sku: "WI-VAN-2KG", flavor: "vanilla", weight: "2kg", price: "69.99", sale: "59.99", stock: 30},
				{sku: "WI-CHO-1KG", flavor: "chocolate", weight: "1kg", price: "39.99", stock: 40},
				{sku: "WI-CHO-5LB", flavor: "chocolate", weight: "5lb", price: "79.99", stock: 20},
				{sku: "WI-STR-1KG", flavor: "strawberry", weight: "1kg", price: "41.99", stock: 15},
			},
		},
		{
			product: models.Product{
				Slug:        "creatine-monohydrate",
				Name:        "一水肌酸",
				Description: "微粉化一水肌酸，无味易溶。",
				Images: models.StringArray([]string{
					"https://images.unsplash.com/photo-1693996045300-521d9a1bb680?w=800",
				}),
				Tags:            models.StringArray([]string{"Creatine"}),
				WeightOptionIDs: models.UintArray{weightIDs["1kg"]},
				IsActive:        true,
				SortOrder:       20,
			},
			variants: []seedVariant{
				{sku: "CM-1KG", weight: "1kg", price: "24.99", stock: 100},
			},
		},
	}

	for _, entry := range products {
		product := entry.product
		var existing models.Product
		if err := models.DB.Where("slug = ?", product.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&product).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", product.Slug, err)
				continue
			}
			stdLog.Printf("Created product: %s", product.Slug)
		} else {
			product = existing
			stdLog.Printf("Product already exists: %s", product.Slug)
		}

		for _, sv := range entry.variants {
			var existingVariant models.ProductVariant
			if err := models.DB.Where("sku_code = ?", sv.sku).First(&existingVariant).Error; err == nil {
				stdLog.Printf("Variant already exists: %s", sv.sku)
				continue
			}
			variant := models.ProductVariant{
				ProductID:         product.ID,
				SKUCode:           sv.sku,
				PriceAmount:       mustMoney(sv.price),
				AvailableQuantity: sv.stock,
				IsActive:          true,
			}
			if sv.flavor != "" {
				id := flavorIDs[sv.flavor]
				variant.FlavorID = &id
			}
			if sv.weight != "" {
				id := weightIDs[sv.weight]
				variant.WeightID = &id
			}
			if sv.sale != "" {
				sale := mustMoney(sv.sale)
				variant.SalePriceAmount = &sale
			}
			if err := models.DB.Create(&variant).Error; err != nil {
				stdLog.Printf("Failed to create variant %s: %v", sv.sku, err)
			} else {
				stdLog.Printf("Created variant: %s", sv.sku)
			}
		}
	}

	// 优惠券
	now := time.Now()
	monthLater := now.AddDate(0, 1, 0)
	coupons := []models.Coupon{
		{
			Code:        "WELCOME10",
			Type:        constants.CouponTypePercentage,
			Value:       mustMoney("10"),
			MinSubtotal: mustMoney("0"),
			MaxUses:     0,
			StartsAt:    &now,
			EndsAt:      &monthLater,
			IsActive:    true,
		},
		{
			Code:        "SAVE15",
			Type:        constants.CouponTypeFixedAmount,
			Value:       mustMoney("15"),
			MinSubtotal: mustMoney("60"),
			MaxUses:     100,
			StartsAt:    &now,
			EndsAt:      &monthLater,
			IsActive:    true,
		},
	}
	for _, coupon := range coupons {
		var existing models.Coupon
		if err := models.DB.Where("code = ?", coupon.Code).First(&existing).Error; err != nil {
			if err := models.DB.Create(&coupon).Error; err != nil {
				stdLog.Printf("Failed to create coupon %s: %v", coupon.Code, err)
			} else {
				stdLog.Printf("Created coupon: %s", coupon.Code)
			}
		} else {
			stdLog.Printf("Coupon already exists: %s", coupon.Code)
		}
	}

	// 演示用户（正式账号由外部认证服务同步）
	demoUser := models.User{Email: "demo@example.com", DisplayName: "Demo", Status: constants.UserStatusActive}
	var existingUser models.User
	if err := models.DB.Where("email = ?", demoUser.Email).First(&existingUser).Error; err != nil {
		if err := models.DB.Create(&demoUser).Error; err != nil {
			stdLog.Printf("Failed to create demo user: %v", err)
		} else {
			stdLog.Printf("Created demo user: %s", demoUser.Email)
		}
	} else {
		stdLog.Printf("Demo user already exists: %s", demoUser.Email)
	}

	fmt.Println("Seed completed.")
}

type seedVariant struct {
	sku    string
	flavor string
	weight string
	price  string
	sale   string
	stock  int
}

func mustMoney(value string) models.Money {
	return models.NewMoneyFromDecimal(decimal.RequireFromString(value))
}
