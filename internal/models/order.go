package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID                  uint           `gorm:"primarykey" json:"id"`                                          // 主键
	OrderNo             string         `gorm:"uniqueIndex;not null" json:"order_no"`                          // 订单编号
	UserID              uint           `gorm:"index;not null" json:"user_id"`                                 // 用户ID
	Status              string         `gorm:"index;not null" json:"status"`                                  // 订单状态
	Currency            string         `gorm:"not null" json:"currency"`                                      // 币种
	SubtotalAmount      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal_amount"`  // 行小计合计
	DiscountAmount      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"`  // 优惠金额
	TotalAmount         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`     // 实付金额
	CouponID            *uint          `gorm:"index" json:"coupon_id,omitempty"`                              // 优惠券ID
	CouponCode          string         `gorm:"type:varchar(64)" json:"coupon_code,omitempty"`                 // 优惠码快照
	CouponType          string         `gorm:"type:varchar(20)" json:"coupon_type,omitempty"`                 // 优惠券类型快照
	CouponValue         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"coupon_value"`     // 优惠券数值快照
	ShippingAddressJSON JSON           `gorm:"type:json" json:"shipping_address"`                             // 收货地址快照
	ClientIP            string         `gorm:"type:varchar(64)" json:"client_ip,omitempty"`                   // 下单客户端IP
	ExpiresAt           *time.Time     `gorm:"index" json:"expires_at"`                                       // 支付过期时间
	PaidAt              *time.Time     `gorm:"index" json:"paid_at"`                                          // 支付时间
	ShippedAt           *time.Time     `json:"shipped_at"`                                                    // 发货时间
	DeliveredAt         *time.Time     `json:"delivered_at"`                                                  // 送达时间
	CancelledAt         *time.Time     `gorm:"index" json:"cancelled_at"`                                     // 取消时间
	CancelledBy         string         `gorm:"type:varchar(20)" json:"cancelled_by,omitempty"`                // 取消操作者（customer/admin）
	CancelReason        string         `gorm:"type:varchar(500)" json:"cancel_reason,omitempty"`              // 取消原因
	RefundedAt          *time.Time     `json:"refunded_at"`                                                   // 退款时间
	StockReleased       bool           `gorm:"not null;default:false" json:"-"`                               // 库存是否已释放（取消/退款后置位）
	CreatedAt           time.Time      `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt           time.Time      `gorm:"index" json:"updated_at"`                                       // 更新时间
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间

	// 关联
	Items    []OrderItem    `gorm:"foreignKey:OrderID" json:"items,omitempty"`    // 订单项
	Tracking *OrderTracking `gorm:"foreignKey:OrderID" json:"tracking,omitempty"` // 物流记录
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
