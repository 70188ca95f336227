package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderItem 订单项表（下单时刻的商品与变体快照）
type OrderItem struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                      // 主键
	OrderID     uint           `gorm:"index;not null" json:"order_id"`                            // 订单ID
	ProductID   uint           `gorm:"index;not null" json:"product_id"`                          // 商品ID
	VariantID   uint           `gorm:"index;not null" json:"variant_id"`                          // 变体ID
	ProductName string         `gorm:"not null" json:"product_name"`                              // 商品名称快照
	ProductSlug string         `gorm:"not null" json:"product_slug"`                              // 商品标识快照
	SKUCode     string         `gorm:"column:sku_code;type:varchar(64)" json:"sku_code"`          // SKU编码快照
	FlavorName  string         `gorm:"type:varchar(100)" json:"flavor_name,omitempty"`            // 口味名称快照
	WeightLabel string         `gorm:"type:varchar(100)" json:"weight_label,omitempty"`           // 重量名称快照
	UnitPrice   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`   // 单价（下单时刻生效价）
	Quantity    int            `gorm:"not null" json:"quantity"`                                  // 数量
	TotalPrice  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"`  // 行小计
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                                // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
