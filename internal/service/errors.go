package service

import "errors"

// 商品与变体
var (
	ErrProductNotFound     = errors.New("product not found")
	ErrProductNotAvailable = errors.New("product not available")
	ErrVariantNotFound     = errors.New("variant not found")
	ErrOptionInUse         = errors.New("option referenced by variants")
)

// 库存与下单
var (
	ErrOutOfStock       = errors.New("variant out of stock")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrInvalidOrderItem = errors.New("invalid order item")
)

// 优惠券
var (
	ErrCouponNotFound      = errors.New("coupon not found")
	ErrCouponInactive      = errors.New("coupon inactive")
	ErrCouponExpired       = errors.New("coupon out of validity window")
	ErrCouponExhausted     = errors.New("coupon usage exhausted")
	ErrCouponMinimumNotMet = errors.New("coupon minimum order amount not met")
	ErrCouponInvalid       = errors.New("coupon invalid")
)

// 订单状态机
var (
	ErrOrderNotFound          = errors.New("order not found")
	ErrInvalidTransition      = errors.New("invalid order status transition")
	ErrCancellationNotAllowed = errors.New("order cancellation not allowed")
	ErrCancelReasonRequired   = errors.New("cancel reason required")
	ErrTrackingInfoRequired   = errors.New("tracking carrier and number required")
	ErrTrackingNotAvailable   = errors.New("tracking not available")
)

// 内部失败包装
var (
	ErrOrderFetchFailed  = errors.New("order fetch failed")
	ErrOrderCreateFailed = errors.New("order create failed")
	ErrOrderUpdateFailed = errors.New("order update failed")
	ErrQueueUnavailable  = errors.New("queue unavailable")
)
