package repository

import (
	"sync"
	"testing"

	"github.com/nutri-next/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupVariantRepositoryTest(t *testing.T) (*GormVariantRepository, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Flavor{}, &models.Weight{}, &models.Product{}, &models.ProductVariant{}); err != nil {
		t.Fatalf("migrate variant tables failed: %v", err)
	}
	return NewVariantRepository(db), db
}

func createTestVariant(t *testing.T, repo *GormVariantRepository, db *gorm.DB, sku string, available int, reserved int) *models.ProductVariant {
	t.Helper()
	product := &models.Product{
		Slug:     "whey-" + sku,
		Name:     "乳清蛋白粉",
		IsActive: true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	variant := &models.ProductVariant{
		ProductID:         product.ID,
		SKUCode:           sku,
		PriceAmount:       models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		AvailableQuantity: available,
		ReservedQuantity:  reserved,
		IsActive:          true,
	}
	if err := repo.Create(variant); err != nil {
		t.Fatalf("create variant failed: %v", err)
	}
	return variant
}

func TestVariantStockReserveReleaseConsumeLifecycle(t *testing.T) {
	repo, db := setupVariantRepositoryTest(t)
	variant := createTestVariant(t, repo, db, "WP-LIFECYCLE", 10, 0)

	affected, err := repo.ReserveStock(variant.ID, 3)
	if err != nil {
		t.Fatalf("reserve stock failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("reserve affected want 1 got %d", affected)
	}

	affected, err = repo.ConsumeStock(variant.ID, 2)
	if err != nil {
		t.Fatalf("consume stock failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("consume affected want 1 got %d", affected)
	}

	affected, err = repo.ReleaseStock(variant.ID, 1)
	if err != nil {
		t.Fatalf("release stock failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("release affected want 1 got %d", affected)
	}

	var got models.ProductVariant
	if err := db.First(&got, variant.ID).Error; err != nil {
		t.Fatalf("reload variant failed: %v", err)
	}
	if got.AvailableQuantity != 8 {
		t.Fatalf("available want 8 got %d", got.AvailableQuantity)
	}
	if got.ReservedQuantity != 0 {
		t.Fatalf("reserved want 0 got %d", got.ReservedQuantity)
	}
}

func TestVariantStockReserveRejectsOverAvailable(t *testing.T) {
	repo, db := setupVariantRepositoryTest(t)
	variant := createTestVariant(t, repo, db, "WP-OVERSELL", 1, 0)

	affected, err := repo.ReserveStock(variant.ID, 1)
	if err != nil {
		t.Fatalf("first reserve failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("first reserve affected want 1 got %d", affected)
	}

	// 剩余库存不足时条件更新不命中，两个并发下单只会有一个成功。
	affected, err = repo.ReserveStock(variant.ID, 1)
	if err != nil {
		t.Fatalf("second reserve failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("second reserve affected want 0 got %d", affected)
	}

	var got models.ProductVariant
	if err := db.First(&got, variant.ID).Error; err != nil {
		t.Fatalf("reload variant failed: %v", err)
	}
	if got.AvailableQuantity != 0 {
		t.Fatalf("available want 0 got %d", got.AvailableQuantity)
	}
	if got.ReservedQuantity != 1 {
		t.Fatalf("reserved want 1 got %d", got.ReservedQuantity)
	}
}

func TestVariantStockReserveConcurrentLastUnit(t *testing.T) {
	repo, db := setupVariantRepositoryTest(t)
	// 内存库按连接隔离，收紧连接池让两个 goroutine 落在同一个库上。
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	variant := createTestVariant(t, repo, db, "WP-LASTUNIT", 1, 0)

	results := make(chan int64, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			affected, err := repo.ReserveStock(variant.ID, 1)
			if err != nil {
				t.Errorf("concurrent reserve failed: %v", err)
				return
			}
			results <- affected
		}()
	}
	wg.Wait()
	close(results)

	var succeeded int
	for affected := range results {
		if affected == 1 {
			succeeded++
		}
	}
	if succeeded != 1 {
		t.Fatalf("concurrent reserves on last unit: want exactly 1 success got %d", succeeded)
	}

	var got models.ProductVariant
	if err := db.First(&got, variant.ID).Error; err != nil {
		t.Fatalf("reload variant failed: %v", err)
	}
	if got.AvailableQuantity != 0 || got.ReservedQuantity != 1 {
		t.Fatalf("stock after concurrent reserve want 0/1 got %d/%d", got.AvailableQuantity, got.ReservedQuantity)
	}
}

func TestVariantStockReleaseRejectsOverReserved(t *testing.T) {
	repo, db := setupVariantRepositoryTest(t)
	variant := createTestVariant(t, repo, db, "WP-RELEASE", 5, 2)

	affected, err := repo.ReleaseStock(variant.ID, 3)
	if err != nil {
		t.Fatalf("release over reserved failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("release over reserved affected want 0 got %d", affected)
	}

	affected, err = repo.ReleaseStock(variant.ID, 2)
	if err != nil {
		t.Fatalf("release exact reserved failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("release exact reserved affected want 1 got %d", affected)
	}
}
