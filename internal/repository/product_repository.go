package repository

import (
	"errors"
	"strings"

	"github.com/nutri-next/internal/constants"
	"github.com/nutri-next/internal/models"

	"gorm.io/gorm"
)

// minEffectivePriceSQL 计算商品下所有启用变体的最低生效价（促销价优先）。
const minEffectivePriceSQL = "(SELECT MIN(CASE WHEN pv.sale_price_amount IS NOT NULL AND pv.sale_price_amount > 0 AND pv.sale_price_amount < pv.price_amount THEN pv.sale_price_amount ELSE pv.price_amount END) FROM product_variants pv WHERE pv.product_id = products.id AND pv.is_active = TRUE AND pv.deleted_at IS NULL)"

// ProductRepository 商品数据访问接口
type ProductRepository interface {
	List(filter ProductListFilter) ([]models.Product, int64, error)
	GetBySlug(slug string, onlyActive bool) (*models.Product, error)
	GetByID(id uint) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id uint) error
	CountBySlug(slug string, excludeID *uint) (int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) ProductRepository
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) ProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// Transaction 执行事务
func (r *GormProductRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

func (r *GormProductRepository) preloadVariants(query *gorm.DB, onlyActive bool) *gorm.DB {
	if onlyActive {
		return query.Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("sort_order DESC, id ASC")
		}).Preload("Variants.Flavor").Preload("Variants.Weight")
	}
	return query.Preload("Variants", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order DESC, id ASC")
	}).Preload("Variants.Flavor").Preload("Variants.Weight")
}

// List 商品列表
func (r *GormProductRepository) List(filter ProductListFilter) ([]models.Product, int64, error) {
	var products []models.Product

	query := r.db.Model(&models.Product{})
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("(slug LIKE ? OR name LIKE ? OR description LIKE ?)", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	query = r.preloadVariants(query, filter.OnlyActive)

	switch strings.ToLower(strings.TrimSpace(filter.Sort)) {
	case constants.ProductSortPrice:
		// 按启用变体的最低生效价升序，无变体的商品排最后。
		query = query.Order(minEffectivePriceSQL + " ASC NULLS LAST").Order("id ASC")
	default:
		query = query.Order("sort_order DESC, created_at DESC")
	}

	if err := query.Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// GetBySlug 根据 slug 获取商品
func (r *GormProductRepository) GetBySlug(slug string, onlyActive bool) (*models.Product, error) {
	query := r.db.Where("slug = ?", slug)
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	query = r.preloadVariants(query, onlyActive)

	var product models.Product
	if err := query.First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// GetByID 根据 ID 获取商品
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.preloadVariants(r.db, false).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// Create 创建商品
func (r *GormProductRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

// Update 更新商品
func (r *GormProductRepository) Update(product *models.Product) error {
	return r.db.Save(product).Error
}

// Delete 删除商品
func (r *GormProductRepository) Delete(id uint) error {
	return r.db.Delete(&models.Product{}, id).Error
}

// CountBySlug 统计 slug 数量
func (r *GormProductRepository) CountBySlug(slug string, excludeID *uint) (int64, error) {
	var count int64
	query := r.db.Model(&models.Product{}).Where("slug = ?", slug)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
