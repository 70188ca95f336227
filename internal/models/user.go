package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表（账号与凭证由外部认证服务管理，这里仅保留订单归属所需字段）
type User struct {
	ID          uint           `gorm:"primarykey" json:"id"`              // 主键
	Email       string         `gorm:"uniqueIndex;not null" json:"email"` // 邮箱
	DisplayName string         `gorm:"default:''" json:"display_name"`    // 昵称
	Status      string         `gorm:"default:'active'" json:"status"`    // 账号状态
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`           // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                        // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                    // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
