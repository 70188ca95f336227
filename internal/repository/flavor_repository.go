package repository

import (
	"errors"

	"github.com/nutri-next/internal/models"

	"gorm.io/gorm"
)

// FlavorRepository 口味选项数据访问接口
type FlavorRepository interface {
	List() ([]models.Flavor, error)
	GetByID(id uint) (*models.Flavor, error)
	ListByIDs(ids []uint) ([]models.Flavor, error)
	Create(flavor *models.Flavor) error
	Update(flavor *models.Flavor) error
	Delete(id uint) error
	WithTx(tx *gorm.DB) FlavorRepository
}

// GormFlavorRepository GORM 实现
type GormFlavorRepository struct {
	db *gorm.DB
}

// NewFlavorRepository 创建口味仓库
func NewFlavorRepository(db *gorm.DB) *GormFlavorRepository {
	return &GormFlavorRepository{db: db}
}

// WithTx 绑定事务
func (r *GormFlavorRepository) WithTx(tx *gorm.DB) FlavorRepository {
	if tx == nil {
		return r
	}
	return &GormFlavorRepository{db: tx}
}

// List 获取口味列表
func (r *GormFlavorRepository) List() ([]models.Flavor, error) {
	var flavors []models.Flavor
	if err := r.db.Order("sort_order DESC, id ASC").Find(&flavors).Error; err != nil {
		return nil, err
	}
	return flavors, nil
}

// GetByID 根据 ID 获取口味
func (r *GormFlavorRepository) GetByID(id uint) (*models.Flavor, error) {
	var flavor models.Flavor
	if err := r.db.First(&flavor, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &flavor, nil
}

// ListByIDs 批量获取口味
func (r *GormFlavorRepository) ListByIDs(ids []uint) ([]models.Flavor, error) {
	if len(ids) == 0 {
		return []models.Flavor{}, nil
	}
	var flavors []models.Flavor
	if err := r.db.Where("id IN ?", ids).Find(&flavors).Error; err != nil {
		return nil, err
	}
	return flavors, nil
}

// Create 创建口味
func (r *GormFlavorRepository) Create(flavor *models.Flavor) error {
	return r.db.Create(flavor).Error
}

// Update 更新口味
func (r *GormFlavorRepository) Update(flavor *models.Flavor) error {
	return r.db.Save(flavor).Error
}

// Delete 删除口味
func (r *GormFlavorRepository) Delete(id uint) error {
	return r.db.Delete(&models.Flavor{}, id).Error
}
