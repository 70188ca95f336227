package models

import (
	"time"

	"gorm.io/gorm"
)

// ProductVariant 商品变体表（口味 × 重量组合，维度可为空）
type ProductVariant struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                                          // 主键
	ProductID         uint           `gorm:"not null;index;uniqueIndex:idx_variant_combination" json:"product_id"`         // 商品ID
	SKUCode           string         `gorm:"column:sku_code;type:varchar(64);not null;uniqueIndex" json:"sku_code"`        // SKU编码（全局唯一）
	FlavorID          *uint          `gorm:"index;uniqueIndex:idx_variant_combination" json:"flavor_id,omitempty"`         // 口味ID（无口味维度时为空）
	WeightID          *uint          `gorm:"index;uniqueIndex:idx_variant_combination" json:"weight_id,omitempty"`         // 重量ID（无重量维度时为空）
	PriceAmount       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price_amount"`                    // 标价
	SalePriceAmount   *Money         `gorm:"type:decimal(20,2)" json:"sale_price_amount,omitempty"`                        // 促销价（空表示不促销）
	AvailableQuantity int            `gorm:"not null;default:0" json:"available_quantity"`                                 // 可售库存
	ReservedQuantity  int            `gorm:"not null;default:0" json:"reserved_quantity"`                                  // 占用库存（待支付订单）
	IsActive          bool           `gorm:"default:true;index" json:"is_active"`                                          // 是否启用
	SortOrder         int            `gorm:"default:0;index" json:"sort_order"`                                            // 排序权重
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                                                      // 创建时间
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`                                                      // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                                               // 软删除时间

	// 关联
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
	Flavor  *Flavor  `gorm:"foreignKey:FlavorID" json:"flavor,omitempty"`   // 关联口味
	Weight  *Weight  `gorm:"foreignKey:WeightID" json:"weight,omitempty"`   // 关联重量
}

// TableName 指定表名
func (ProductVariant) TableName() string {
	return "product_variants"
}

// EffectivePrice 返回当前生效价格（促销价优先）
func (v ProductVariant) EffectivePrice() Money {
	if v.SalePriceAmount != nil && v.SalePriceAmount.IsPositive() && v.SalePriceAmount.LessThan(v.PriceAmount.Decimal) {
		return *v.SalePriceAmount
	}
	return v.PriceAmount
}

// InStock 返回是否有可售库存
func (v ProductVariant) InStock() bool {
	return v.AvailableQuantity > 0
}
