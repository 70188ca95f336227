package models

import (
	"time"

	"gorm.io/gorm"
)

// Weight 规格重量选项表（跨商品共享的维度字典）
type Weight struct {
	ID        uint           `gorm:"primarykey" json:"id"`              // 主键
	Slug      string         `gorm:"uniqueIndex;not null" json:"slug"`  // 唯一标识
	Label     string         `gorm:"not null" json:"label"`             // 展示名称（如 2lb / 5lb）
	Grams     int            `gorm:"not null;default:0" json:"grams"`   // 克数（用于排序与运费计算）
	SortOrder int            `gorm:"default:0;index" json:"sort_order"` // 排序权重
	CreatedAt time.Time      `gorm:"index" json:"created_at"`           // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`                        // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                    // 软删除时间
}

// TableName 指定表名
func (Weight) TableName() string {
	return "weights"
}
