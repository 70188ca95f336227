package service

import (
	"strings"
	"time"

	"github.com/nutri-next/internal/constants"
	"github.com/nutri-next/internal/models"
	"github.com/nutri-next/internal/repository"

	"github.com/shopspring/decimal"
)

// PricingService 价格与优惠计算服务
type PricingService struct {
	couponRepo repository.CouponRepository
}

// NewPricingService 创建价格服务
func NewPricingService(couponRepo repository.CouponRepository) *PricingService {
	return &PricingService{couponRepo: couponRepo}
}

// CouponQuote 优惠券应用结果
type CouponQuote struct {
	Coupon   *models.Coupon
	Discount models.Money
	Total    models.Money
}

// NormalizeCouponCode 优惠码归一化：入口处统一去空白并大写
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// LineSubtotal 计算订单行小计：(促销价 ?? 标价) × 数量。
// 数量小于 1 或超过当前可售库存时返回 ErrInvalidQuantity。
func (s *PricingService) LineSubtotal(variant *models.ProductVariant, quantity int) (models.Money, error) {
	if variant == nil {
		return models.Money{}, ErrVariantNotFound
	}
	if quantity < 1 || quantity > variant.AvailableQuantity {
		return models.Money{}, ErrInvalidQuantity
	}
	unit := variant.EffectivePrice()
	return models.NewMoneyFromDecimal(unit.Decimal.Mul(decimal.NewFromInt(int64(quantity)))), nil
}

// ApplyCouponCode 按优惠码应用优惠券（入口归一化后查库再校验）
func (s *PricingService) ApplyCouponCode(subtotal models.Money, code string, now time.Time) (*CouponQuote, error) {
	normalized := NormalizeCouponCode(code)
	if normalized == "" {
		return nil, ErrCouponNotFound
	}
	coupon, err := s.couponRepo.GetByCode(normalized)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	return s.ApplyCoupon(subtotal, coupon, now)
}

// ApplyCoupon 校验并计算优惠金额。校验按固定顺序执行，第一个失败项即为返回错误：
// 停用 → 有效期窗口 → 次数耗尽 → 最低消费 → 计算折扣。
func (s *PricingService) ApplyCoupon(subtotal models.Money, coupon *models.Coupon, now time.Time) (*CouponQuote, error) {
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	if !coupon.IsActive {
		return nil, ErrCouponInactive
	}
	if coupon.StartsAt != nil && now.Before(*coupon.StartsAt) {
		return nil, ErrCouponExpired
	}
	if coupon.EndsAt != nil && now.After(*coupon.EndsAt) {
		return nil, ErrCouponExpired
	}
	if coupon.MaxUses > 0 && coupon.UsedCount >= coupon.MaxUses {
		return nil, ErrCouponExhausted
	}
	if coupon.MinSubtotal.Decimal.GreaterThan(decimal.Zero) && subtotal.Decimal.LessThan(coupon.MinSubtotal.Decimal) {
		return nil, ErrCouponMinimumNotMet
	}

	discount, err := calculateDiscount(coupon, subtotal)
	if err != nil {
		return nil, err
	}
	// 折扣不得超过小计，实付不为负。
	if discount.Decimal.GreaterThan(subtotal.Decimal) {
		discount = models.NewMoneyFromDecimal(subtotal.Decimal)
	}
	if discount.Decimal.IsNegative() {
		discount = models.NewMoneyFromDecimal(decimal.Zero)
	}

	return &CouponQuote{
		Coupon:   coupon,
		Discount: discount,
		Total:    models.NewMoneyFromDecimal(subtotal.Decimal.Sub(discount.Decimal)),
	}, nil
}

func calculateDiscount(coupon *models.Coupon, subtotal models.Money) (models.Money, error) {
	value := coupon.Value.Decimal
	switch strings.ToLower(strings.TrimSpace(coupon.Type)) {
	case constants.CouponTypePercentage:
		if value.LessThanOrEqual(decimal.Zero) || value.GreaterThan(decimal.NewFromInt(100)) {
			return models.Money{}, ErrCouponInvalid
		}
		return models.NewMoneyFromDecimal(subtotal.Decimal.Mul(value).Div(decimal.NewFromInt(100))), nil
	case constants.CouponTypeFixedAmount:
		if value.LessThanOrEqual(decimal.Zero) {
			return models.Money{}, ErrCouponInvalid
		}
		return models.NewMoneyFromDecimal(decimal.Min(value, subtotal.Decimal)), nil
	default:
		return models.Money{}, ErrCouponInvalid
	}
}
