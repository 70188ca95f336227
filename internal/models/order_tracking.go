package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderTracking 订单物流记录（发货时创建，每单一条）
type OrderTracking struct {
	ID             uint           `gorm:"primarykey" json:"id"`                               // 主键
	OrderID        uint           `gorm:"uniqueIndex;not null" json:"order_id"`               // 订单ID
	Carrier        string         `gorm:"not null" json:"carrier"`                            // 承运商
	TrackingNumber string         `gorm:"not null" json:"tracking_number"`                    // 运单号
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                            // 创建时间
	UpdatedAt      time.Time      `json:"updated_at"`                                         // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                     // 软删除时间

	// 关联
	Updates []TrackingUpdate `gorm:"foreignKey:TrackingID" json:"updates,omitempty"` // 物流轨迹（只追加）
}

// TableName 指定表名
func (OrderTracking) TableName() string {
	return "order_trackings"
}

// TrackingUpdate 物流轨迹节点（只追加，不修改不删除）
type TrackingUpdate struct {
	ID          uint      `gorm:"primarykey" json:"id"`               // 主键
	TrackingID  uint      `gorm:"index;not null" json:"tracking_id"`  // 物流记录ID
	Status      string    `gorm:"not null" json:"status"`             // 轨迹状态描述
	Location    string    `gorm:"type:varchar(200)" json:"location"`  // 所在地
	OccurredAt  time.Time `gorm:"index;not null" json:"occurred_at"`  // 发生时间
	CreatedAt   time.Time `gorm:"index" json:"created_at"`            // 创建时间
}

// TableName 指定表名
func (TrackingUpdate) TableName() string {
	return "tracking_updates"
}
