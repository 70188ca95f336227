package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nutri-next/internal/constants"
	"github.com/nutri-next/internal/models"
	"github.com/nutri-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T) (*OrderService, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Flavor{},
		&models.Weight{},
		&models.Product{},
		&models.ProductVariant{},
		&models.Coupon{},
		&models.CouponUsage{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderTracking{},
		&models.TrackingUpdate{},
	); err != nil {
		t.Fatalf("migrate order tables failed: %v", err)
	}
	models.DB = db

	couponRepo := repository.NewCouponRepository(db)
	svc := NewOrderService(
		repository.NewOrderRepository(db),
		repository.NewProductRepository(db),
		repository.NewVariantRepository(db),
		couponRepo,
		repository.NewCouponUsageRepository(db),
		NewPricingService(couponRepo),
		nil,
		"USD",
		30,
	)
	return svc, db
}

func createOrderTestVariant(t *testing.T, db *gorm.DB, sku string, price int64, available int) *models.ProductVariant {
	t.Helper()
	flavor := &models.Flavor{Slug: "vanilla-" + sku, Name: "香草"}
	if err := db.Create(flavor).Error; err != nil {
		t.Fatalf("create flavor failed: %v", err)
	}
	weight := &models.Weight{Slug: "1kg-" + sku, Label: "1kg", Grams: 1000}
	if err := db.Create(weight).Error; err != nil {
		t.Fatalf("create weight failed: %v", err)
	}
	product := &models.Product{
		Slug:            "whey-" + strings.ToLower(sku),
		Name:            "乳清蛋白粉",
		FlavorOptionIDs: models.UintArray{flavor.ID},
		WeightOptionIDs: models.UintArray{weight.ID},
		IsActive:        true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	variant := &models.ProductVariant{
		ProductID:         product.ID,
		SKUCode:           sku,
		FlavorID:          &flavor.ID,
		WeightID:          &weight.ID,
		PriceAmount:       models.NewMoneyFromDecimal(decimal.NewFromInt(price)),
		AvailableQuantity: available,
		IsActive:          true,
	}
	if err := db.Create(variant).Error; err != nil {
		t.Fatalf("create variant failed: %v", err)
	}
	return variant
}

func reloadOrderTestVariant(t *testing.T, db *gorm.DB, id uint) *models.ProductVariant {
	t.Helper()
	var variant models.ProductVariant
	if err := db.First(&variant, id).Error; err != nil {
		t.Fatalf("reload variant failed: %v", err)
	}
	return &variant
}

func TestCreateOrderReservesStockAndSnapshotsItems(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	variant := createOrderTestVariant(t, db, "WP-CREATE", 100, 10)

	order, err := svc.CreateOrder(CreateOrderInput{
		UserID: 1,
		Items: []CreateOrderItemInput{
			{VariantID: variant.ID, Quantity: 2},
		},
		ShippingAddress: models.JSON{"city": "Austin"},
		ClientIP:        "203.0.113.7",
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.Status != constants.OrderStatusPending {
		t.Fatalf("status want pending got %s", order.Status)
	}
	if !strings.HasPrefix(order.OrderNo, "NN") {
		t.Fatalf("order no want NN prefix got %s", order.OrderNo)
	}
	if order.ExpiresAt == nil || !order.ExpiresAt.After(time.Now()) {
		t.Fatalf("expires_at must be in the future, got %v", order.ExpiresAt)
	}
	if len(order.Items) != 1 {
		t.Fatalf("items want 1 got %d", len(order.Items))
	}
	item := order.Items[0]
	if item.SKUCode != "WP-CREATE" || item.ProductName != "乳清蛋白粉" {
		t.Fatalf("item snapshot wrong: %+v", item)
	}
	if item.FlavorName != "香草" || item.WeightLabel != "1kg" {
		t.Fatalf("item option snapshot wrong: %+v", item)
	}
	if order.SubtotalAmount.String() != "200.00" || order.TotalAmount.String() != "200.00" {
		t.Fatalf("amounts want 200.00 got subtotal=%s total=%s", order.SubtotalAmount.String(), order.TotalAmount.String())
	}

	got := reloadOrderTestVariant(t, db, variant.ID)
	if got.AvailableQuantity != 8 || got.ReservedQuantity != 2 {
		t.Fatalf("stock want 8/2 got %d/%d", got.AvailableQuantity, got.ReservedQuantity)
	}
}

func TestCreateOrderRejectsQuantityOverStock(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	variant := createOrderTestVariant(t, db, "WP-QTY", 100, 3)

	_, err := svc.CreateOrder(CreateOrderInput{
		UserID: 1,
		Items:  []CreateOrderItemInput{{VariantID: variant.ID, Quantity: 4}},
	})
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("want ErrInvalidQuantity got %v", err)
	}

	got := reloadOrderTestVariant(t, db, variant.ID)
	if got.AvailableQuantity != 3 || got.ReservedQuantity != 0 {
		t.Fatalf("stock must be untouched, got %d/%d", got.AvailableQuantity, got.ReservedQuantity)
	}
}

func TestCreateOrderMergesDuplicateVariantLines(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	variant := createOrderTestVariant(t, db, "WP-MERGE", 50, 10)

	order, err := svc.CreateOrder(CreateOrderInput{
		UserID: 1,
		Items: []CreateOrderItemInput{
			{VariantID: variant.ID, Quantity: 1},
			{VariantID: variant.ID, Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if len(order.Items) != 1 {
		t.Fatalf("merged items want 1 got %d", len(order.Items))
	}
	if order.Items[0].Quantity != 3 {
		t.Fatalf("merged quantity want 3 got %d", order.Items[0].Quantity)
	}
}

func TestCreateOrderConsumesCouponWithUsageLimit(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	variant := createOrderTestVariant(t, db, "WP-COUPON", 100, 20)
	coupon := &models.Coupon{
		Code:     "SAVE10",
		Type:     constants.CouponTypePercentage,
		Value:    models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		MaxUses:  1,
		IsActive: true,
	}
	if err := db.Create(coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	order, err := svc.CreateOrder(CreateOrderInput{
		UserID:     1,
		Items:      []CreateOrderItemInput{{VariantID: variant.ID, Quantity: 2}},
		CouponCode: "save10",
	})
	if err != nil {
		t.Fatalf("create order with coupon failed: %v", err)
	}
	if order.DiscountAmount.String() != "20.00" || order.TotalAmount.String() != "180.00" {
		t.Fatalf("discount want 20.00/180.00 got %s/%s", order.DiscountAmount.String(), order.TotalAmount.String())
	}
	if order.CouponCode != "SAVE10" {
		t.Fatalf("coupon code snapshot want SAVE10 got %s", order.CouponCode)
	}

	var gotCoupon models.Coupon
	if err := db.First(&gotCoupon, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if gotCoupon.UsedCount != 1 {
		t.Fatalf("used count want 1 got %d", gotCoupon.UsedCount)
	}
	var usageCount int64
	if err := db.Model(&models.CouponUsage{}).Where("order_id = ?", order.ID).Count(&usageCount).Error; err != nil {
		t.Fatalf("count usage failed: %v", err)
	}
	if usageCount != 1 {
		t.Fatalf("usage count want 1 got %d", usageCount)
	}

	_, err = svc.CreateOrder(CreateOrderInput{
		UserID:     2,
		Items:      []CreateOrderItemInput{{VariantID: variant.ID, Quantity: 1}},
		CouponCode: "SAVE10",
	})
	if !errors.Is(err, ErrCouponExhausted) {
		t.Fatalf("second use want ErrCouponExhausted got %v", err)
	}
}

func TestCancelOrderByCustomerScenario(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	variant := createOrderTestVariant(t, db, "WP-CANCEL", 100, 5)

	order, err := svc.CreateOrder(CreateOrderInput{
		UserID: 7,
		Items:  []CreateOrderItemInput{{VariantID: variant.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if _, err := svc.CancelOrderByCustomer(order.ID, 7, "  "); !errors.Is(err, ErrCancelReasonRequired) {
		t.Fatalf("blank reason want ErrCancelReasonRequired got %v", err)
	}

	cancelled, err := svc.CancelOrderByCustomer(order.ID, 7, "changed mind")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled {
		t.Fatalf("status want cancelled got %s", cancelled.Status)
	}
	if cancelled.CancelledBy != constants.CancelActorCustomer || cancelled.CancelReason != "changed mind" {
		t.Fatalf("cancel audit wrong: by=%s reason=%s", cancelled.CancelledBy, cancelled.CancelReason)
	}
	if cancelled.CancelledAt == nil {
		t.Fatalf("cancelled_at must be set")
	}

	got := reloadOrderTestVariant(t, db, variant.ID)
	if got.AvailableQuantity != 5 || got.ReservedQuantity != 0 {
		t.Fatalf("stock must be fully released, got %d/%d", got.AvailableQuantity, got.ReservedQuantity)
	}

	// 已取消订单再次取消按非法迁移处理。
	if _, err := svc.CancelOrderByCustomer(order.ID, 7, "again"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second cancel want ErrInvalidTransition got %v", err)
	}
	got = reloadOrderTestVariant(t, db, variant.ID)
	if got.AvailableQuantity != 5 {
		t.Fatalf("stock must not be released twice, got %d", got.AvailableQuantity)
	}
}

func TestCancelOrderByCustomerRollsBackCoupon(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	variant := createOrderTestVariant(t, db, "WP-CXLCOUPON", 200, 5)
	coupon := &models.Coupon{
		Code:     "MINUS20",
		Type:     constants.CouponTypeFixedAmount,
		Value:    models.NewMoneyFromDecimal(decimal.NewFromInt(20)),
		MaxUses:  1,
		IsActive: true,
	}
	if err := db.Create(coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	order, err := svc.CreateOrder(CreateOrderInput{
		UserID:     15,
		Items:      []CreateOrderItemInput{{VariantID: variant.ID, Quantity: 1}},
		CouponCode: "MINUS20",
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if _, err := svc.CancelOrderByCustomer(order.ID, 15, "changed mind"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	// 客户取消不应永久吃掉一次用量。
	var gotCoupon models.Coupon
	if err := db.First(&gotCoupon, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if gotCoupon.UsedCount != 0 {
		t.Fatalf("used count must roll back to 0, got %d", gotCoupon.UsedCount)
	}
	var usageCount int64
	if err := db.Model(&models.CouponUsage{}).Where("order_id = ?", order.ID).Count(&usageCount).Error; err != nil {
		t.Fatalf("count usage failed: %v", err)
	}
	if usageCount != 0 {
		t.Fatalf("usage rows must be removed, got %d", usageCount)
	}

	_, err = svc.CreateOrder(CreateOrderInput{
		UserID:     16,
		Items:      []CreateOrderItemInput{{VariantID: variant.ID, Quantity: 1}},
		CouponCode: "MINUS20",
	})
	if err != nil {
		t.Fatalf("coupon must be reusable after customer cancel: %v", err)
	}
}

func TestCancelOrderByCustomerRejectedAfterPayment(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	variant := createOrderTestVariant(t, db, "WP-PAIDCXL", 100, 5)

	order, err := svc.CreateOrder(CreateOrderInput{
		UserID: 3,
		Items:  []CreateOrderItemInput{{VariantID: variant.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if _, err := svc.UpdateOrderStatus(order.ID, UpdateOrderStatusInput{Status: constants.OrderStatusPaid}); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}

	if _, err := svc.CancelOrderByCustomer(order.ID, 3, "late regret"); !errors.Is(err, ErrCancellationNotAllowed) {
		t.Fatalf("cancel after paid want ErrCancellationNotAllowed got %v", err)
	}
}

func TestUpdateOrderStatusFullLifecycle(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	variant := createOrderTestVariant(t, db, "WP-LIFE", 100, 5)

	order, err := svc.CreateOrder(CreateOrderInput{
		UserID: 4,
		Items:  []CreateOrderItemInput{{VariantID: variant.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	order, err = svc.UpdateOrderStatus(order.ID, UpdateOrderStatusInput{Status: constants.OrderStatusProcessing})
	if err != nil {
		t.Fatalf("to processing failed: %v", err)
	}

	order, err = svc.UpdateOrderStatus(order.ID, UpdateOrderStatusInput{Status: constants.OrderStatusPaid})
	if err != nil {
		t.Fatalf("to paid failed: %v", err)
	}
	if order.PaidAt == nil {
		t.Fatalf("paid_at must be set")
	}
	got := reloadOrderTestVariant(t, db, variant.ID)
	if got.AvailableQuantity != 3 || got.ReservedQuantity != 0 {
		t.Fatalf("paid must consume reservation, got %d/%d", got.AvailableQuantity, got.ReservedQuantity)
	}

	if _, err := svc.UpdateOrderStatus(order.ID, UpdateOrderStatusInput{Status: constants.OrderStatusShipped}); !errors.Is(err, ErrTrackingInfoRequired) {
		t.Fatalf("ship without tracking want ErrTrackingInfoRequired got %v", err)
	}

	order, err = svc.UpdateOrderStatus(order.ID, UpdateOrderStatusInput{
		Status:         constants.OrderStatusShipped,
		Carrier:        "UPS",
		TrackingNumber: "1Z999",
	})
	if err != nil {
		t.Fatalf("to shipped failed: %v", err)
	}
	if order.ShippedAt == nil {
		t.Fatalf("shipped_at must be set")
	}
	if order.Tracking == nil || order.Tracking.Carrier != "UPS" || order.Tracking.TrackingNumber != "1Z999" {
		t.Fatalf("tracking record wrong: %+v", order.Tracking)
	}

	order, err = svc.UpdateOrderStatus(order.ID, UpdateOrderStatusInput{Status: constants.OrderStatusDelivered})
	if err != nil {
		t.Fatalf("to delivered failed: %v", err)
	}
	if order.DeliveredAt == nil {
		t.Fatalf("delivered_at must be set")
	}

	// 终态没有出边。
	if _, err := svc.UpdateOrderStatus(order.ID, UpdateOrderStatusInput{Status: constants.OrderStatusShipped, Carrier: "UPS", TrackingNumber: "1Z999"}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("delivered to shipped want ErrInvalidTransition got %v", err)
	}
	if _, err := svc.UpdateOrderStatus(order.ID, UpdateOrderStatusInput{Status: constants.OrderStatusDelivered}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("same-status update want ErrInvalidTransition got %v", err)
	}
}

func TestUpdateOrderStatusRejectsSkippingStates(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	variant := createOrderTestVariant(t, db, "WP-SKIP", 100, 5)

	order, err := svc.CreateOrder(CreateOrderInput{
		UserID: 5,
		Items:  []CreateOrderItemInput{{VariantID: variant.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if _, err := svc.UpdateOrderStatus(order.ID, UpdateOrderStatusInput{Status: constants.OrderStatusDelivered}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pending to delivered want ErrInvalidTransition got %v", err)
	}
	if _, err := svc.UpdateOrderStatus(order.ID, UpdateOrderStatusInput{Status: constants.OrderStatusRefunded}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pending to refunded want ErrInvalidTransition got %v", err)
	}
	if _, err := svc.UpdateOrderStatus(order.ID, UpdateOrderStatusInput{Status: "unknown"}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("unknown status want ErrInvalidTransition got %v", err)
	}
}

func TestInvalidTransitionErrorNamesBothStates(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	variant := createOrderTestVariant(t, db, "WP-NAMES", 100, 5)

	order, err := svc.CreateOrder(CreateOrderInput{
		UserID: 14,
		Items:  []CreateOrderItemInput{{VariantID: variant.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	_, err = svc.UpdateOrderStatus(order.ID, UpdateOrderStatusInput{Status: constants.OrderStatusDelivered})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("want ErrInvalidTransition got %v", err)
	}
	if !strings.Contains(err.Error(), constants.OrderStatusPending) || !strings.Contains(err.Error(), constants.OrderStatusDelivered) {
		t.Fatalf("rejection must name current and requested states, got %q", err.Error())
	}

	// 终态订单的客户取消同样要带上两个状态。
	if _, err := svc.UpdateOrderStatus(order.ID, UpdateOrderStatusInput{Status: constants.OrderStatusCancelled, Reason: "cleanup"}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	_, err = svc.CancelOrderByCustomer(order.ID, 14, "again")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("want ErrInvalidTransition got %v", err)
	}
	if !strings.Contains(err.Error(), constants.OrderStatusCancelled) {
		t.Fatalf("rejection must name current state, got %q", err.Error())
	}
}

func TestShipUnpaidOrderConsumesReservation(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	variant := createOrderTestVariant(t, db, "WP-SHIPUNPAID", 100, 5)

	order, err := svc.CreateOrder(CreateOrderInput{
		UserID: 17,
		Items:  []CreateOrderItemInput{{VariantID: variant.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if _, err := svc.UpdateOrderStatus(order.ID, UpdateOrderStatusInput{Status: constants.OrderStatusProcessing}); err != nil {
		t.Fatalf("to processing failed: %v", err)
	}

	// processing 直接发货（货到付款类场景）不能让占用悬挂。
	if _, err := svc.UpdateOrderStatus(order.ID, UpdateOrderStatusInput{
		Status:         constants.OrderStatusShipped,
		Carrier:        "UPS",
		TrackingNumber: "1Z888",
	}); err != nil {
		t.Fatalf("to shipped failed: %v", err)
	}

	got := reloadOrderTestVariant(t, db, variant.ID)
	if got.AvailableQuantity != 3 || got.ReservedQuantity != 0 {
		t.Fatalf("ship unpaid must consume reservation, got %d/%d", got.AvailableQuantity, got.ReservedQuantity)
	}
}

func TestRefundRestoresAvailableStock(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	variant := createOrderTestVariant(t, db, "WP-REFUND", 100, 5)

	order, err := svc.CreateOrder(CreateOrderInput{
		UserID: 6,
		Items:  []CreateOrderItemInput{{VariantID: variant.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if _, err := svc.UpdateOrderStatus(order.ID, UpdateOrderStatusInput{Status: constants.OrderStatusPaid}); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}

	got := reloadOrderTestVariant(t, db, variant.ID)
	if got.AvailableQuantity != 3 {
		t.Fatalf("after paid available want 3 got %d", got.AvailableQuantity)
	}

	order, err = svc.UpdateOrderStatus(order.ID, UpdateOrderStatusInput{Status: constants.OrderStatusRefunded})
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if order.RefundedAt == nil {
		t.Fatalf("refunded_at must be set")
	}

	got = reloadOrderTestVariant(t, db, variant.ID)
	if got.AvailableQuantity != 5 || got.ReservedQuantity != 0 {
		t.Fatalf("refund must restock, got %d/%d", got.AvailableQuantity, got.ReservedQuantity)
	}
}

func TestAdminCancelRollsBackCoupon(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	variant := createOrderTestVariant(t, db, "WP-ROLLBACK", 200, 5)
	coupon := &models.Coupon{
		Code:     "MINUS50",
		Type:     constants.CouponTypeFixedAmount,
		Value:    models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		IsActive: true,
	}
	if err := db.Create(coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	order, err := svc.CreateOrder(CreateOrderInput{
		UserID:     8,
		Items:      []CreateOrderItemInput{{VariantID: variant.ID, Quantity: 1}},
		CouponCode: "MINUS50",
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if _, err := svc.UpdateOrderStatus(order.ID, UpdateOrderStatusInput{Status: constants.OrderStatusCancelled}); !errors.Is(err, ErrCancelReasonRequired) {
		t.Fatalf("admin cancel without reason want ErrCancelReasonRequired got %v", err)
	}

	order, err = svc.UpdateOrderStatus(order.ID, UpdateOrderStatusInput{
		Status: constants.OrderStatusCancelled,
		Reason: "fraud suspicion",
	})
	if err != nil {
		t.Fatalf("admin cancel failed: %v", err)
	}
	if order.CancelledBy != constants.CancelActorAdmin {
		t.Fatalf("cancelled_by want admin got %s", order.CancelledBy)
	}

	var gotCoupon models.Coupon
	if err := db.First(&gotCoupon, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if gotCoupon.UsedCount != 0 {
		t.Fatalf("used count must roll back to 0, got %d", gotCoupon.UsedCount)
	}
	var usageCount int64
	if err := db.Model(&models.CouponUsage{}).Where("order_id = ?", order.ID).Count(&usageCount).Error; err != nil {
		t.Fatalf("count usage failed: %v", err)
	}
	if usageCount != 0 {
		t.Fatalf("usage rows must be removed, got %d", usageCount)
	}
}

func TestExpiredPendingOrderLazyCancelledOnRead(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	variant := createOrderTestVariant(t, db, "WP-EXPIRE", 100, 5)

	order, err := svc.CreateOrder(CreateOrderInput{
		UserID: 9,
		Items:  []CreateOrderItemInput{{VariantID: variant.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	past := time.Now().Add(-time.Minute)
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).Update("expires_at", past).Error; err != nil {
		t.Fatalf("backdate expires_at failed: %v", err)
	}

	got, err := svc.GetOrderByUser(order.ID, 9)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if got.Status != constants.OrderStatusCancelled {
		t.Fatalf("expired order status want cancelled got %s", got.Status)
	}
	if got.CancelledBy != constants.CancelActorSystem {
		t.Fatalf("cancelled_by want system got %s", got.CancelledBy)
	}

	gotVariant := reloadOrderTestVariant(t, db, variant.ID)
	if gotVariant.AvailableQuantity != 5 || gotVariant.ReservedQuantity != 0 {
		t.Fatalf("expired cancel must release stock, got %d/%d", gotVariant.AvailableQuantity, gotVariant.ReservedQuantity)
	}
}

func TestCancelExpiredOrderIgnoresNonExpired(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	variant := createOrderTestVariant(t, db, "WP-FRESH", 100, 5)

	order, err := svc.CreateOrder(CreateOrderInput{
		UserID: 10,
		Items:  []CreateOrderItemInput{{VariantID: variant.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	got, err := svc.CancelExpiredOrder(order.ID)
	if err != nil {
		t.Fatalf("cancel expired failed: %v", err)
	}
	if got.Status != constants.OrderStatusPending {
		t.Fatalf("unexpired order must stay pending, got %s", got.Status)
	}
}

func TestAppendTrackingUpdateOnlyAfterShipment(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	variant := createOrderTestVariant(t, db, "WP-TRACK", 100, 5)

	order, err := svc.CreateOrder(CreateOrderInput{
		UserID: 11,
		Items:  []CreateOrderItemInput{{VariantID: variant.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if _, err := svc.AppendTrackingUpdate(order.ID, AppendTrackingInput{Status: "in_transit"}); !errors.Is(err, ErrTrackingNotAvailable) {
		t.Fatalf("tracking before shipment want ErrTrackingNotAvailable got %v", err)
	}

	if _, err := svc.UpdateOrderStatus(order.ID, UpdateOrderStatusInput{Status: constants.OrderStatusPaid}); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if _, err := svc.UpdateOrderStatus(order.ID, UpdateOrderStatusInput{
		Status:         constants.OrderStatusShipped,
		Carrier:        "FedEx",
		TrackingNumber: "FX12345",
	}); err != nil {
		t.Fatalf("mark shipped failed: %v", err)
	}

	first, err := svc.AppendTrackingUpdate(order.ID, AppendTrackingInput{Status: "in_transit", Location: "Memphis"})
	if err != nil {
		t.Fatalf("append tracking failed: %v", err)
	}
	if first.ID == 0 {
		t.Fatalf("tracking update must persist")
	}
	if _, err := svc.AppendTrackingUpdate(order.ID, AppendTrackingInput{Status: "out_for_delivery"}); err != nil {
		t.Fatalf("append second tracking failed: %v", err)
	}

	got, err := svc.GetOrderForAdmin(order.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if got.Tracking == nil || len(got.Tracking.Updates) != 2 {
		t.Fatalf("tracking updates want 2 got %+v", got.Tracking)
	}
	if got.Tracking.Updates[0].Status != "in_transit" {
		t.Fatalf("updates must keep append order, got %+v", got.Tracking.Updates)
	}
}

func TestPreviewOrderHasNoSideEffects(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	variant := createOrderTestVariant(t, db, "WP-PREVIEW", 100, 5)
	coupon := &models.Coupon{
		Code:     "SAVE10",
		Type:     constants.CouponTypePercentage,
		Value:    models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		IsActive: true,
	}
	if err := db.Create(coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	preview, err := svc.PreviewOrder(CreateOrderInput{
		UserID:     12,
		Items:      []CreateOrderItemInput{{VariantID: variant.ID, Quantity: 2}},
		CouponCode: "save10",
	})
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if preview.SubtotalAmount.String() != "200.00" || preview.DiscountAmount.String() != "20.00" || preview.TotalAmount.String() != "180.00" {
		t.Fatalf("preview amounts wrong: %s/%s/%s", preview.SubtotalAmount.String(), preview.DiscountAmount.String(), preview.TotalAmount.String())
	}

	got := reloadOrderTestVariant(t, db, variant.ID)
	if got.AvailableQuantity != 5 || got.ReservedQuantity != 0 {
		t.Fatalf("preview must not touch stock, got %d/%d", got.AvailableQuantity, got.ReservedQuantity)
	}
	var gotCoupon models.Coupon
	if err := db.First(&gotCoupon, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if gotCoupon.UsedCount != 0 {
		t.Fatalf("preview must not consume coupon, got used=%d", gotCoupon.UsedCount)
	}
	var orderCount int64
	if err := db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("preview must not create orders, got %d", orderCount)
	}
}

func TestNextStatusesView(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	variant := createOrderTestVariant(t, db, "WP-NEXT", 100, 5)

	order, err := svc.CreateOrder(CreateOrderInput{
		UserID: 13,
		Items:  []CreateOrderItemInput{{VariantID: variant.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	view, err := svc.GetOrderStatusView(order.ID)
	if err != nil {
		t.Fatalf("status view failed: %v", err)
	}
	want := []string{constants.OrderStatusProcessing, constants.OrderStatusPaid, constants.OrderStatusCancelled}
	if len(view.NextStatuses) != len(want) {
		t.Fatalf("next statuses want %v got %v", want, view.NextStatuses)
	}
	for i := range want {
		if view.NextStatuses[i] != want[i] {
			t.Fatalf("next statuses want %v got %v", want, view.NextStatuses)
		}
	}
}
