package service

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/nutri-next/internal/constants"
	"github.com/nutri-next/internal/logger"
	"github.com/nutri-next/internal/models"
	"github.com/nutri-next/internal/queue"
	"github.com/nutri-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService 订单服务
type OrderService struct {
	orderRepo       repository.OrderRepository
	productRepo     repository.ProductRepository
	variantRepo     repository.VariantRepository
	couponRepo      repository.CouponRepository
	couponUsageRepo repository.CouponUsageRepository
	pricing         *PricingService
	queueClient     *queue.Client
	currency        string
	expireMinutes   int
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository, variantRepo repository.VariantRepository, couponRepo repository.CouponRepository, couponUsageRepo repository.CouponUsageRepository, pricing *PricingService, queueClient *queue.Client, currency string, expireMinutes int) *OrderService {
	return &OrderService{
		orderRepo:       orderRepo,
		productRepo:     productRepo,
		variantRepo:     variantRepo,
		couponRepo:      couponRepo,
		couponUsageRepo: couponUsageRepo,
		pricing:         pricing,
		queueClient:     queueClient,
		currency:        currency,
		expireMinutes:   expireMinutes,
	}
}

// CreateOrderItemInput 下单行输入
type CreateOrderItemInput struct {
	VariantID uint
	Quantity  int
}

// CreateOrderInput 创建订单输入
type CreateOrderInput struct {
	UserID          uint
	Items           []CreateOrderItemInput
	CouponCode      string
	ShippingAddress models.JSON
	ClientIP        string
}

// UpdateOrderStatusInput 管理端状态变更输入
type UpdateOrderStatusInput struct {
	Status         string
	Reason         string
	Carrier        string
	TrackingNumber string
}

// AppendTrackingInput 追加物流轨迹输入
type AppendTrackingInput struct {
	Status     string
	Location   string
	OccurredAt *time.Time
}

// OrderPreview 订单金额预览
type OrderPreview struct {
	Currency       string             `json:"currency"`
	SubtotalAmount models.Money       `json:"subtotal_amount"`
	DiscountAmount models.Money       `json:"discount_amount"`
	TotalAmount    models.Money       `json:"total_amount"`
	CouponCode     string             `json:"coupon_code,omitempty"`
	Items          []OrderPreviewItem `json:"items"`
}

// OrderPreviewItem 订单行金额预览
type OrderPreviewItem struct {
	ProductID   uint         `json:"product_id"`
	VariantID   uint         `json:"variant_id"`
	ProductName string       `json:"product_name"`
	SKUCode     string       `json:"sku_code"`
	FlavorName  string       `json:"flavor_name,omitempty"`
	WeightLabel string       `json:"weight_label,omitempty"`
	UnitPrice   models.Money `json:"unit_price"`
	Quantity    int          `json:"quantity"`
	TotalPrice  models.Money `json:"total_price"`
}

// OrderStatusView 订单状态视图（当前状态 + 合法目标状态）
type OrderStatusView struct {
	OrderID      uint     `json:"order_id"`
	OrderNo      string   `json:"order_no"`
	Status       string   `json:"status"`
	NextStatuses []string `json:"next_statuses"`
}

type orderBuildResult struct {
	Items          []models.OrderItem
	SubtotalAmount decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
	AppliedCoupon  *models.Coupon
}

// PreviewOrder 金额试算，无副作用
func (s *OrderService) PreviewOrder(input CreateOrderInput) (*OrderPreview, error) {
	result, err := s.buildOrderResult(input)
	if err != nil {
		return nil, err
	}
	preview := &OrderPreview{
		Currency:       s.currency,
		SubtotalAmount: models.NewMoneyFromDecimal(result.SubtotalAmount),
		DiscountAmount: models.NewMoneyFromDecimal(result.DiscountAmount),
		TotalAmount:    models.NewMoneyFromDecimal(result.TotalAmount),
		Items:          make([]OrderPreviewItem, 0, len(result.Items)),
	}
	if result.AppliedCoupon != nil {
		preview.CouponCode = result.AppliedCoupon.Code
	}
	for _, item := range result.Items {
		preview.Items = append(preview.Items, OrderPreviewItem{
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			ProductName: item.ProductName,
			SKUCode:     item.SKUCode,
			FlavorName:  item.FlavorName,
			WeightLabel: item.WeightLabel,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			TotalPrice:  item.TotalPrice,
		})
	}
	return preview, nil
}

// buildOrderResult 校验下单行并计算金额（下单与试算共用）
func (s *OrderService) buildOrderResult(input CreateOrderInput) (*orderBuildResult, error) {
	if input.UserID == 0 || len(input.Items) == 0 {
		return nil, ErrInvalidOrderItem
	}
	mergedItems := mergeCreateOrderItems(input.Items)

	result := &orderBuildResult{SubtotalAmount: decimal.Zero}
	for _, line := range mergedItems {
		if line.VariantID == 0 || line.Quantity <= 0 {
			return nil, ErrInvalidOrderItem
		}
		variant, err := s.variantRepo.GetByID(line.VariantID)
		if err != nil {
			return nil, err
		}
		if variant == nil || !variant.IsActive {
			return nil, ErrVariantNotFound
		}
		product, err := s.productRepo.GetByID(variant.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil || !product.IsActive {
			return nil, ErrProductNotAvailable
		}

		lineTotal, err := s.pricing.LineSubtotal(variant, line.Quantity)
		if err != nil {
			return nil, err
		}

		item := models.OrderItem{
			ProductID:   product.ID,
			VariantID:   variant.ID,
			ProductName: product.Name,
			ProductSlug: product.Slug,
			SKUCode:     variant.SKUCode,
			UnitPrice:   variant.EffectivePrice(),
			Quantity:    line.Quantity,
			TotalPrice:  lineTotal,
		}
		if variant.Flavor != nil {
			item.FlavorName = variant.Flavor.Name
		}
		if variant.Weight != nil {
			item.WeightLabel = variant.Weight.Label
		}
		result.Items = append(result.Items, item)
		result.SubtotalAmount = result.SubtotalAmount.Add(lineTotal.Decimal)
	}

	result.DiscountAmount = decimal.Zero
	if strings.TrimSpace(input.CouponCode) != "" {
		quote, err := s.pricing.ApplyCouponCode(models.NewMoneyFromDecimal(result.SubtotalAmount), input.CouponCode, time.Now())
		if err != nil {
			return nil, err
		}
		result.AppliedCoupon = quote.Coupon
		result.DiscountAmount = quote.Discount.Decimal
	}
	result.TotalAmount = result.SubtotalAmount.Sub(result.DiscountAmount)
	if result.TotalAmount.IsNegative() {
		result.TotalAmount = decimal.Zero
	}
	return result, nil
}

// CreateOrder 创建订单：校验、预占库存、消耗优惠券、落库快照在同一事务内完成
func (s *OrderService) CreateOrder(input CreateOrderInput) (*models.Order, error) {
	result, err := s.buildOrderResult(input)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	expiresAt := now.Add(time.Duration(s.resolveExpireMinutes()) * time.Minute)
	order := &models.Order{
		OrderNo:             generateOrderNo(),
		UserID:              input.UserID,
		Status:              constants.OrderStatusPending,
		Currency:            s.currency,
		SubtotalAmount:      models.NewMoneyFromDecimal(result.SubtotalAmount),
		DiscountAmount:      models.NewMoneyFromDecimal(result.DiscountAmount),
		TotalAmount:         models.NewMoneyFromDecimal(result.TotalAmount),
		ShippingAddressJSON: input.ShippingAddress,
		ClientIP:            strings.TrimSpace(input.ClientIP),
		ExpiresAt:           &expiresAt,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if result.AppliedCoupon != nil {
		order.CouponID = &result.AppliedCoupon.ID
		order.CouponCode = result.AppliedCoupon.Code
		order.CouponType = result.AppliedCoupon.Type
		order.CouponValue = result.AppliedCoupon.Value
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		variantRepo := s.variantRepo.WithTx(tx)

		if err := orderRepo.Create(order, result.Items); err != nil {
			return err
		}

		for _, item := range result.Items {
			affected, err := variantRepo.ReserveStock(item.VariantID, item.Quantity)
			if err != nil {
				return err
			}
			if affected == 0 {
				return ErrOutOfStock
			}
		}

		if result.AppliedCoupon != nil {
			couponRepo := s.couponRepo.WithTx(tx)
			usageRepo := s.couponUsageRepo.WithTx(tx)
			affected, err := couponRepo.IncrementUsedCount(result.AppliedCoupon.ID)
			if err != nil {
				return err
			}
			if affected == 0 {
				return ErrCouponExhausted
			}
			usage := &models.CouponUsage{
				CouponID:       result.AppliedCoupon.ID,
				UserID:         input.UserID,
				OrderID:        order.ID,
				DiscountAmount: models.NewMoneyFromDecimal(result.DiscountAmount),
				CreatedAt:      now,
			}
			if err := usageRepo.Create(usage); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrOutOfStock) {
			return nil, ErrOutOfStock
		}
		if errors.Is(err, ErrCouponExhausted) {
			return nil, ErrCouponExhausted
		}
		logger.Errorw("order_create_failed", "order_no", order.OrderNo, "error", err)
		return nil, ErrOrderCreateFailed
	}

	if s.queueClient != nil {
		if err := s.queueClient.EnqueueOrderTimeoutCancel(queue.OrderTimeoutCancelPayload{
			OrderID: order.ID,
		}, time.Until(expiresAt)); err != nil {
			// 读取路径的懒取消兜底超时处理，入队失败不回滚订单。
			logger.Warnw("order_enqueue_timeout_cancel_failed",
				"order_id", order.ID,
				"order_no", order.OrderNo,
				"error", err,
			)
		}
	}

	full, err := s.orderRepo.GetByID(order.ID)
	if err == nil && full != nil {
		return full, nil
	}
	return order, nil
}

// CancelOrderByCustomer 客户自助取消：仅 pending / processing 允许
func (s *OrderService) CancelOrderByCustomer(orderID uint, userID uint, reason string) (*models.Order, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrCancelReasonRequired
	}
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if isTerminalOrderStatus(order.Status) {
		return nil, invalidTransitionError(order.Status, constants.OrderStatusCancelled)
	}
	if !customerCancellable(order.Status) {
		return nil, ErrCancellationNotAllowed
	}
	if err := s.cancelOrder(order, constants.CancelActorCustomer, reason); err != nil {
		return nil, err
	}
	s.notifyStatus(order.ID, constants.OrderStatusCancelled)
	return order, nil
}

// cancelOrder 取消订单并精确一次地释放库存，未到终态的取消一律回滚优惠券用量。
// 状态列上的条件更新是唯一保护：并发取消只有一个请求命中。
func (s *OrderService) cancelOrder(order *models.Order, actor, reason string) error {
	if order == nil {
		return ErrOrderNotFound
	}
	now := time.Now()
	fromStatus := order.Status
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		variantRepo := s.variantRepo.WithTx(tx)

		updates := map[string]interface{}{
			"cancelled_at":   now,
			"cancelled_by":   actor,
			"cancel_reason":  reason,
			"stock_released": true,
			"updated_at":     now,
		}
		affected, err := orderRepo.UpdateStatusFrom(order.ID, fromStatus, constants.OrderStatusCancelled, updates)
		if err != nil {
			return ErrOrderUpdateFailed
		}
		if affected == 0 {
			return invalidTransitionError(fromStatus, constants.OrderStatusCancelled)
		}

		if !order.StockReleased {
			for _, item := range order.Items {
				if err := s.releaseLine(variantRepo, fromStatus, item); err != nil {
					return err
				}
			}
		}

		if order.CouponID != nil {
			couponRepo := s.couponRepo.WithTx(tx)
			usageRepo := s.couponUsageRepo.WithTx(tx)
			if err := usageRepo.DeleteByOrder(order.ID); err != nil {
				return err
			}
			if err := couponRepo.DecrementUsedCount(*order.CouponID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return err
		}
		if errors.Is(err, ErrOrderUpdateFailed) {
			return ErrOrderUpdateFailed
		}
		logger.Errorw("order_cancel_failed", "order_id", order.ID, "error", err)
		return ErrOrderUpdateFailed
	}
	order.Status = constants.OrderStatusCancelled
	order.CancelledAt = &now
	order.CancelledBy = actor
	order.CancelReason = reason
	order.StockReleased = true
	order.UpdatedAt = now
	return nil
}

// releaseLine 按取消前状态回补库存：支付前释放占用，支付后直接回补可售
func (s *OrderService) releaseLine(variantRepo repository.VariantRepository, fromStatus string, item models.OrderItem) error {
	var affected int64
	var err error
	if fromStatus == constants.OrderStatusPaid {
		affected, err = variantRepo.RestockStock(item.VariantID, item.Quantity)
	} else {
		affected, err = variantRepo.ReleaseStock(item.VariantID, item.Quantity)
	}
	if err != nil {
		return err
	}
	if affected == 0 {
		logger.Warnw("order_stock_release_skipped",
			"variant_id", item.VariantID,
			"quantity", item.Quantity,
			"from_status", fromStatus,
		)
	}
	return nil
}

// UpdateOrderStatus 管理端状态变更：只接受迁移表中的边
func (s *OrderService) UpdateOrderStatus(orderID uint, input UpdateOrderStatusInput) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	target := normalizeOrderStatus(input.Status)
	if !isValidOrderStatus(target) || !isTransitionAllowed(order.Status, target) {
		return nil, invalidTransitionError(order.Status, target)
	}

	switch target {
	case constants.OrderStatusProcessing:
		if err := s.transitionSimple(order, target, nil); err != nil {
			return nil, err
		}
	case constants.OrderStatusPaid:
		if err := s.transitionPaid(order); err != nil {
			return nil, err
		}
	case constants.OrderStatusShipped:
		if err := s.transitionShipped(order, input.Carrier, input.TrackingNumber); err != nil {
			return nil, err
		}
	case constants.OrderStatusDelivered:
		now := time.Now()
		if err := s.transitionSimple(order, target, map[string]interface{}{"delivered_at": now}); err != nil {
			return nil, err
		}
		order.DeliveredAt = &now
	case constants.OrderStatusCancelled:
		reason := strings.TrimSpace(input.Reason)
		if reason == "" {
			return nil, ErrCancelReasonRequired
		}
		if err := s.cancelOrder(order, constants.CancelActorAdmin, reason); err != nil {
			return nil, err
		}
	case constants.OrderStatusRefunded:
		if err := s.transitionRefunded(order); err != nil {
			return nil, err
		}
	default:
		return nil, invalidTransitionError(order.Status, target)
	}

	s.notifyStatus(order.ID, target)

	full, err := s.orderRepo.GetByID(order.ID)
	if err == nil && full != nil {
		return full, nil
	}
	return order, nil
}

func (s *OrderService) transitionSimple(order *models.Order, target string, extra map[string]interface{}) error {
	now := time.Now()
	updates := map[string]interface{}{"updated_at": now}
	for k, v := range extra {
		updates[k] = v
	}
	affected, err := s.orderRepo.UpdateStatusFrom(order.ID, order.Status, target, updates)
	if err != nil {
		return ErrOrderUpdateFailed
	}
	if affected == 0 {
		return invalidTransitionError(order.Status, target)
	}
	order.Status = target
	order.UpdatedAt = now
	return nil
}

func (s *OrderService) transitionPaid(order *models.Order) error {
	now := time.Now()
	fromStatus := order.Status
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		variantRepo := s.variantRepo.WithTx(tx)
		updates := map[string]interface{}{
			"paid_at":    now,
			"updated_at": now,
		}
		affected, err := orderRepo.UpdateStatusFrom(order.ID, fromStatus, constants.OrderStatusPaid, updates)
		if err != nil {
			return ErrOrderUpdateFailed
		}
		if affected == 0 {
			return invalidTransitionError(fromStatus, constants.OrderStatusPaid)
		}
		// 支付成功后占用转已售。
		for _, item := range order.Items {
			affected, err := variantRepo.ConsumeStock(item.VariantID, item.Quantity)
			if err != nil {
				return err
			}
			if affected == 0 {
				logger.Warnw("order_stock_consume_skipped",
					"variant_id", item.VariantID,
					"quantity", item.Quantity,
				)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return err
		}
		return ErrOrderUpdateFailed
	}
	order.Status = constants.OrderStatusPaid
	order.PaidAt = &now
	order.UpdatedAt = now
	return nil
}

func (s *OrderService) transitionShipped(order *models.Order, carrier, trackingNumber string) error {
	carrier = strings.TrimSpace(carrier)
	trackingNumber = strings.TrimSpace(trackingNumber)
	if carrier == "" || trackingNumber == "" {
		return ErrTrackingInfoRequired
	}
	now := time.Now()
	fromStatus := order.Status
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		variantRepo := s.variantRepo.WithTx(tx)
		updates := map[string]interface{}{
			"shipped_at": now,
			"updated_at": now,
		}
		affected, err := orderRepo.UpdateStatusFrom(order.ID, fromStatus, constants.OrderStatusShipped, updates)
		if err != nil {
			return ErrOrderUpdateFailed
		}
		if affected == 0 {
			return invalidTransitionError(fromStatus, constants.OrderStatusShipped)
		}
		// 未经 paid 直接发货时占用尚未消耗，发货即视为售出。
		if order.PaidAt == nil {
			for _, item := range order.Items {
				affected, err := variantRepo.ConsumeStock(item.VariantID, item.Quantity)
				if err != nil {
					return err
				}
				if affected == 0 {
					logger.Warnw("order_stock_consume_skipped",
						"variant_id", item.VariantID,
						"quantity", item.Quantity,
					)
				}
			}
		}
		tracking := &models.OrderTracking{
			OrderID:        order.ID,
			Carrier:        carrier,
			TrackingNumber: trackingNumber,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := orderRepo.CreateTracking(tracking); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return err
		}
		return ErrOrderUpdateFailed
	}
	order.Status = constants.OrderStatusShipped
	order.ShippedAt = &now
	order.UpdatedAt = now
	return nil
}

// transitionRefunded 退款（仅 paid 可达）：回补库存并记录退款时间
func (s *OrderService) transitionRefunded(order *models.Order) error {
	now := time.Now()
	fromStatus := order.Status
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		variantRepo := s.variantRepo.WithTx(tx)
		updates := map[string]interface{}{
			"refunded_at":    now,
			"stock_released": true,
			"updated_at":     now,
		}
		affected, err := orderRepo.UpdateStatusFrom(order.ID, fromStatus, constants.OrderStatusRefunded, updates)
		if err != nil {
			return ErrOrderUpdateFailed
		}
		if affected == 0 {
			return invalidTransitionError(fromStatus, constants.OrderStatusRefunded)
		}
		if !order.StockReleased {
			for _, item := range order.Items {
				if _, err := variantRepo.RestockStock(item.VariantID, item.Quantity); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return err
		}
		return ErrOrderUpdateFailed
	}
	order.Status = constants.OrderStatusRefunded
	order.RefundedAt = &now
	order.StockReleased = true
	order.UpdatedAt = now
	return nil
}

// AppendTrackingUpdate 追加物流轨迹：记录只增不删
func (s *OrderService) AppendTrackingUpdate(orderID uint, input AppendTrackingInput) (*models.TrackingUpdate, error) {
	status := strings.TrimSpace(input.Status)
	if status == "" {
		return nil, ErrTrackingInfoRequired
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusShipped && order.Status != constants.OrderStatusDelivered {
		return nil, ErrTrackingNotAvailable
	}
	tracking, err := s.orderRepo.GetTrackingByOrderID(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if tracking == nil {
		return nil, ErrTrackingNotAvailable
	}

	occurredAt := time.Now()
	if input.OccurredAt != nil {
		occurredAt = *input.OccurredAt
	}
	update := &models.TrackingUpdate{
		TrackingID: tracking.ID,
		Status:     status,
		Location:   strings.TrimSpace(input.Location),
		OccurredAt: occurredAt,
		CreatedAt:  time.Now(),
	}
	if err := s.orderRepo.AppendTrackingUpdate(update); err != nil {
		return nil, ErrOrderUpdateFailed
	}
	return update, nil
}

// CancelExpiredOrder 超时取消（异步任务与懒检查共用）
func (s *OrderService) CancelExpiredOrder(orderID uint) (*models.Order, error) {
	if orderID == 0 {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPending {
		return order, nil
	}
	if order.ExpiresAt == nil || order.ExpiresAt.After(time.Now()) {
		return order, nil
	}
	if err := s.cancelOrder(order, constants.CancelActorSystem, "payment window expired"); err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			// 并发路径已经取消过了。
			return s.orderRepo.GetByID(orderID)
		}
		return nil, err
	}
	s.notifyStatus(order.ID, constants.OrderStatusCancelled)
	return order, nil
}

// ensureOrderCancelledIfExpired 读取时懒同步过期订单状态
func (s *OrderService) ensureOrderCancelledIfExpired(order *models.Order) error {
	if order == nil {
		return nil
	}
	if order.Status != constants.OrderStatusPending {
		return nil
	}
	if order.ExpiresAt == nil || order.ExpiresAt.After(time.Now()) {
		return nil
	}
	if err := s.cancelOrder(order, constants.CancelActorSystem, "payment window expired"); err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return nil
		}
		return err
	}
	s.notifyStatus(order.ID, constants.OrderStatusCancelled)
	return nil
}

func (s *OrderService) ensureOrdersCancelledIfExpired(orders []models.Order) error {
	for i := range orders {
		if err := s.ensureOrderCancelledIfExpired(&orders[i]); err != nil {
			return err
		}
	}
	return nil
}

// GetOrderByUser 获取用户订单详情
func (s *OrderService) GetOrderByUser(orderID uint, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if err := s.ensureOrderCancelledIfExpired(order); err != nil {
		return nil, ErrOrderUpdateFailed
	}
	return order, nil
}

// ListOrdersByUser 获取用户订单列表
func (s *OrderService) ListOrdersByUser(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	if filter.UserID == 0 {
		return nil, 0, ErrOrderFetchFailed
	}
	orders, total, err := s.orderRepo.ListByUser(filter)
	if err != nil {
		return nil, 0, ErrOrderFetchFailed
	}
	if err := s.ensureOrdersCancelledIfExpired(orders); err != nil {
		return nil, 0, ErrOrderUpdateFailed
	}
	return orders, total, nil
}

// ListOrdersForAdmin 管理端订单列表
func (s *OrderService) ListOrdersForAdmin(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	orders, total, err := s.orderRepo.ListAdmin(filter)
	if err != nil {
		return nil, 0, ErrOrderFetchFailed
	}
	if err := s.ensureOrdersCancelledIfExpired(orders); err != nil {
		return nil, 0, ErrOrderUpdateFailed
	}
	return orders, total, nil
}

// GetOrderForAdmin 管理端订单详情
func (s *OrderService) GetOrderForAdmin(orderID uint) (*models.Order, error) {
	if orderID == 0 {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if err := s.ensureOrderCancelledIfExpired(order); err != nil {
		return nil, ErrOrderUpdateFailed
	}
	return order, nil
}

// GetOrderStatusView 管理端状态视图
func (s *OrderService) GetOrderStatusView(orderID uint) (*OrderStatusView, error) {
	order, err := s.GetOrderForAdmin(orderID)
	if err != nil {
		return nil, err
	}
	return &OrderStatusView{
		OrderID:      order.ID,
		OrderNo:      order.OrderNo,
		Status:       order.Status,
		NextStatuses: NextStatuses(order.Status),
	}, nil
}

func (s *OrderService) notifyStatus(orderID uint, status string) {
	if s.queueClient == nil {
		return
	}
	if err := s.queueClient.EnqueueOrderStatusNotify(queue.OrderStatusNotifyPayload{
		OrderID: orderID,
		Status:  status,
	}); err != nil {
		logger.Warnw("order_enqueue_status_notify_failed",
			"order_id", orderID,
			"status", status,
			"error", err,
		)
	}
}

func (s *OrderService) resolveExpireMinutes() int {
	if s.expireMinutes > 0 {
		return s.expireMinutes
	}
	return 30
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("NN%s%s", now, randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}

// mergeCreateOrderItems 合并重复变体的下单行
func mergeCreateOrderItems(items []CreateOrderItemInput) []CreateOrderItemInput {
	merged := make([]CreateOrderItemInput, 0, len(items))
	index := make(map[uint]int, len(items))
	for _, item := range items {
		if pos, ok := index[item.VariantID]; ok {
			merged[pos].Quantity += item.Quantity
			continue
		}
		index[item.VariantID] = len(merged)
		merged = append(merged, item)
	}
	return merged
}
