package repository

import (
	"errors"

	"github.com/nutri-next/internal/models"

	"gorm.io/gorm"
)

// VariantRepository 商品变体数据访问接口
type VariantRepository interface {
	ListByProduct(productID uint, onlyActive bool) ([]models.ProductVariant, error)
	GetByID(id uint) (*models.ProductVariant, error)
	ListByIDs(ids []uint) ([]models.ProductVariant, error)
	Create(variant *models.ProductVariant) error
	Update(variant *models.ProductVariant) error
	Delete(id uint) error
	ReserveStock(variantID uint, quantity int) (int64, error)
	ReleaseStock(variantID uint, quantity int) (int64, error)
	ConsumeStock(variantID uint, quantity int) (int64, error)
	RestockStock(variantID uint, quantity int) (int64, error)
	CountByOption(flavorID, weightID *uint) (int64, error)
	WithTx(tx *gorm.DB) VariantRepository
}

// GormVariantRepository GORM 实现
type GormVariantRepository struct {
	db *gorm.DB
}

// NewVariantRepository 创建变体仓库
func NewVariantRepository(db *gorm.DB) *GormVariantRepository {
	return &GormVariantRepository{db: db}
}

// WithTx 绑定事务
func (r *GormVariantRepository) WithTx(tx *gorm.DB) VariantRepository {
	if tx == nil {
		return r
	}
	return &GormVariantRepository{db: tx}
}

// ListByProduct 获取商品下的变体列表
func (r *GormVariantRepository) ListByProduct(productID uint, onlyActive bool) ([]models.ProductVariant, error) {
	var variants []models.ProductVariant
	query := r.db.Preload("Flavor").Preload("Weight").Where("product_id = ?", productID)
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Order("sort_order DESC, id ASC").Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

// GetByID 根据 ID 获取变体
func (r *GormVariantRepository) GetByID(id uint) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.Preload("Flavor").Preload("Weight").First(&variant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &variant, nil
}

// ListByIDs 批量获取变体
func (r *GormVariantRepository) ListByIDs(ids []uint) ([]models.ProductVariant, error) {
	if len(ids) == 0 {
		return []models.ProductVariant{}, nil
	}
	var variants []models.ProductVariant
	if err := r.db.Preload("Flavor").Preload("Weight").Where("id IN ?", ids).Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

// Create 创建变体
func (r *GormVariantRepository) Create(variant *models.ProductVariant) error {
	return r.db.Create(variant).Error
}

// Update 更新变体
func (r *GormVariantRepository) Update(variant *models.ProductVariant) error {
	return r.db.Save(variant).Error
}

// Delete 删除变体
func (r *GormVariantRepository) Delete(id uint) error {
	return r.db.Delete(&models.ProductVariant{}, id).Error
}

// ReserveStock 预占库存（可售转占用，条件更新保证不超卖）
func (r *GormVariantRepository) ReserveStock(variantID uint, quantity int) (int64, error) {
	if variantID == 0 || quantity <= 0 {
		return 0, errors.New("invalid stock reserve params")
	}
	result := r.db.Model(&models.ProductVariant{}).
		Where("id = ? AND available_quantity >= ?", variantID, quantity).
		Updates(map[string]interface{}{
			"available_quantity": gorm.Expr("available_quantity - ?", quantity),
			"reserved_quantity":  gorm.Expr("reserved_quantity + ?", quantity),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ReleaseStock 释放库存占用（取消或退款后占用转可售）
func (r *GormVariantRepository) ReleaseStock(variantID uint, quantity int) (int64, error) {
	if variantID == 0 || quantity <= 0 {
		return 0, errors.New("invalid stock release params")
	}
	result := r.db.Model(&models.ProductVariant{}).
		Where("id = ? AND reserved_quantity >= ?", variantID, quantity).
		Updates(map[string]interface{}{
			"available_quantity": gorm.Expr("available_quantity + ?", quantity),
			"reserved_quantity":  gorm.Expr("reserved_quantity - ?", quantity),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ConsumeStock 消耗库存占用（支付成功后扣减占用）
func (r *GormVariantRepository) ConsumeStock(variantID uint, quantity int) (int64, error) {
	if variantID == 0 || quantity <= 0 {
		return 0, errors.New("invalid stock consume params")
	}
	result := r.db.Model(&models.ProductVariant{}).
		Where("id = ? AND reserved_quantity >= ?", variantID, quantity).
		UpdateColumn("reserved_quantity", gorm.Expr("reserved_quantity - ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// RestockStock 回补可售库存（支付后取消或退款，占用已消耗）
func (r *GormVariantRepository) RestockStock(variantID uint, quantity int) (int64, error) {
	if variantID == 0 || quantity <= 0 {
		return 0, errors.New("invalid stock restock params")
	}
	result := r.db.Model(&models.ProductVariant{}).
		Where("id = ?", variantID).
		UpdateColumn("available_quantity", gorm.Expr("available_quantity + ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CountByOption 统计引用指定口味/重量选项的变体数量（删除选项前校验）
func (r *GormVariantRepository) CountByOption(flavorID, weightID *uint) (int64, error) {
	query := r.db.Model(&models.ProductVariant{})
	if flavorID != nil {
		query = query.Where("flavor_id = ?", *flavorID)
	}
	if weightID != nil {
		query = query.Where("weight_id = ?", *weightID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
