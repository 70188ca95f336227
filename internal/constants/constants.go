package constants

// 订单状态常量
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusPaid       = "paid"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

// 优惠券类型常量
const (
	CouponTypePercentage  = "percentage"
	CouponTypeFixedAmount = "fixed_amount"
)

// 取消操作者常量
const (
	CancelActorCustomer = "customer"
	CancelActorAdmin    = "admin"
	CancelActorSystem   = "system"
)

// 队列名称常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型常量
const (
	TaskOrderStatusNotify  = "order:status_notify"
	TaskOrderTimeoutCancel = "order:timeout_cancel"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 商品列表排序方式常量
const (
	ProductSortNewest = "newest"
	ProductSortPrice  = "price"
)
