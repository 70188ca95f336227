package repository

import (
	"errors"

	"github.com/nutri-next/internal/models"

	"gorm.io/gorm"
)

// WeightRepository 重量选项数据访问接口
type WeightRepository interface {
	List() ([]models.Weight, error)
	GetByID(id uint) (*models.Weight, error)
	ListByIDs(ids []uint) ([]models.Weight, error)
	Create(weight *models.Weight) error
	Update(weight *models.Weight) error
	Delete(id uint) error
	WithTx(tx *gorm.DB) WeightRepository
}

// GormWeightRepository GORM 实现
type GormWeightRepository struct {
	db *gorm.DB
}

// NewWeightRepository 创建重量仓库
func NewWeightRepository(db *gorm.DB) *GormWeightRepository {
	return &GormWeightRepository{db: db}
}

// WithTx 绑定事务
func (r *GormWeightRepository) WithTx(tx *gorm.DB) WeightRepository {
	if tx == nil {
		return r
	}
	return &GormWeightRepository{db: tx}
}

// List 获取重量列表
func (r *GormWeightRepository) List() ([]models.Weight, error) {
	var weights []models.Weight
	if err := r.db.Order("sort_order DESC, grams ASC, id ASC").Find(&weights).Error; err != nil {
		return nil, err
	}
	return weights, nil
}

// GetByID 根据 ID 获取重量
func (r *GormWeightRepository) GetByID(id uint) (*models.Weight, error) {
	var weight models.Weight
	if err := r.db.First(&weight, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &weight, nil
}

// ListByIDs 批量获取重量
func (r *GormWeightRepository) ListByIDs(ids []uint) ([]models.Weight, error) {
	if len(ids) == 0 {
		return []models.Weight{}, nil
	}
	var weights []models.Weight
	if err := r.db.Where("id IN ?", ids).Find(&weights).Error; err != nil {
		return nil, err
	}
	return weights, nil
}

// Create 创建重量
func (r *GormWeightRepository) Create(weight *models.Weight) error {
	return r.db.Create(weight).Error
}

// Update 更新重量
func (r *GormWeightRepository) Update(weight *models.Weight) error {
	return r.db.Save(weight).Error
}

// Delete 删除重量
func (r *GormWeightRepository) Delete(id uint) error {
	return r.db.Delete(&models.Weight{}, id).Error
}
