package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表
type Product struct {
	ID              uint           `gorm:"primarykey" json:"id"`                // 主键
	Slug            string         `gorm:"uniqueIndex;not null" json:"slug"`    // 唯一标识
	Name            string         `gorm:"not null" json:"name"`                // 商品名称
	Description     string         `gorm:"type:text" json:"description"`        // 商品描述
	Images          StringArray    `gorm:"type:json" json:"images"`             // 图片数组
	Tags            StringArray    `gorm:"type:json" json:"tags"`               // 标签数组
	NutritionJSON   JSON           `gorm:"type:json" json:"nutrition"`          // 营养成分表
	FlavorOptionIDs UintArray      `gorm:"type:json" json:"flavor_option_ids"`  // 口味选项ID（按声明顺序，空表示无口味维度）
	WeightOptionIDs UintArray      `gorm:"type:json" json:"weight_option_ids"`  // 重量选项ID（按声明顺序，空表示无重量维度）
	IsActive        bool           `gorm:"default:true;index" json:"is_active"` // 是否上架
	SortOrder       int            `gorm:"default:0;index" json:"sort_order"`   // 排序权重
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`             // 创建时间
	UpdatedAt       time.Time      `json:"updated_at"`                          // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                      // 软删除时间

	// 关联
	Variants []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"` // 变体列表
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
