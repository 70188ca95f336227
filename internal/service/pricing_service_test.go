package service

import (
	"errors"
	"testing"
	"time"

	"github.com/nutri-next/internal/constants"
	"github.com/nutri-next/internal/models"

	"github.com/shopspring/decimal"
)

func moneyFromInt(v int64) models.Money {
	return models.NewMoneyFromDecimal(decimal.NewFromInt(v))
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestLineSubtotalUsesSalePriceAndValidatesQuantity(t *testing.T) {
	pricing := NewPricingService(nil)
	sale := moneyFromInt(80)
	variant := &models.ProductVariant{
		PriceAmount:       moneyFromInt(100),
		SalePriceAmount:   &sale,
		AvailableQuantity: 5,
		IsActive:          true,
	}

	subtotal, err := pricing.LineSubtotal(variant, 3)
	if err != nil {
		t.Fatalf("line subtotal failed: %v", err)
	}
	if subtotal.String() != "240.00" {
		t.Fatalf("subtotal want 240.00 got %s", subtotal.String())
	}

	if _, err := pricing.LineSubtotal(variant, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("quantity 0 want ErrInvalidQuantity got %v", err)
	}
	if _, err := pricing.LineSubtotal(variant, 6); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("quantity over stock want ErrInvalidQuantity got %v", err)
	}
}

func TestLineSubtotalIgnoresSalePriceAbovePrice(t *testing.T) {
	pricing := NewPricingService(nil)
	sale := moneyFromInt(120)
	variant := &models.ProductVariant{
		PriceAmount:       moneyFromInt(100),
		SalePriceAmount:   &sale,
		AvailableQuantity: 5,
	}

	subtotal, err := pricing.LineSubtotal(variant, 1)
	if err != nil {
		t.Fatalf("line subtotal failed: %v", err)
	}
	if subtotal.String() != "100.00" {
		t.Fatalf("subtotal want 100.00 got %s", subtotal.String())
	}
}

func TestApplyCouponValidationOrder(t *testing.T) {
	pricing := NewPricingService(nil)
	now := time.Now()

	cases := []struct {
		name    string
		coupon  *models.Coupon
		wantErr error
	}{
		{
			name: "inactive_wins_over_expired",
			coupon: &models.Coupon{
				Code:     "SAVE10",
				Type:     constants.CouponTypePercentage,
				Value:    moneyFromInt(10),
				IsActive: false,
				EndsAt:   timePtr(now.Add(-time.Hour)),
			},
			wantErr: ErrCouponInactive,
		},
		{
			name: "not_started_maps_to_expired",
			coupon: &models.Coupon{
				Code:     "SAVE10",
				Type:     constants.CouponTypePercentage,
				Value:    moneyFromInt(10),
				IsActive: true,
				StartsAt: timePtr(now.Add(time.Hour)),
			},
			wantErr: ErrCouponExpired,
		},
		{
			name: "past_end_date",
			coupon: &models.Coupon{
				Code:     "SAVE10",
				Type:     constants.CouponTypePercentage,
				Value:    moneyFromInt(10),
				IsActive: true,
				EndsAt:   timePtr(now.Add(-time.Hour)),
			},
			wantErr: ErrCouponExpired,
		},
		{
			name: "exhausted",
			coupon: &models.Coupon{
				Code:      "SAVE10",
				Type:      constants.CouponTypePercentage,
				Value:     moneyFromInt(10),
				IsActive:  true,
				MaxUses:   3,
				UsedCount: 3,
			},
			wantErr: ErrCouponExhausted,
		},
		{
			name: "minimum_not_met",
			coupon: &models.Coupon{
				Code:        "SAVE10",
				Type:        constants.CouponTypePercentage,
				Value:       moneyFromInt(10),
				IsActive:    true,
				MinSubtotal: moneyFromInt(500),
			},
			wantErr: ErrCouponMinimumNotMet,
		},
	}

	for _, tc := range cases {
		_, err := pricing.ApplyCoupon(moneyFromInt(400), tc.coupon, now)
		if !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s: want %v got %v", tc.name, tc.wantErr, err)
		}
	}
}

func TestApplyCouponPercentageScenario(t *testing.T) {
	pricing := NewPricingService(nil)
	now := time.Now()
	coupon := &models.Coupon{
		Code:        "SAVE10",
		Type:        constants.CouponTypePercentage,
		Value:       moneyFromInt(10),
		MinSubtotal: moneyFromInt(500),
		IsActive:    true,
	}

	if _, err := pricing.ApplyCoupon(moneyFromInt(400), coupon, now); !errors.Is(err, ErrCouponMinimumNotMet) {
		t.Fatalf("subtotal 400 want ErrCouponMinimumNotMet got %v", err)
	}

	quote, err := pricing.ApplyCoupon(moneyFromInt(1000), coupon, now)
	if err != nil {
		t.Fatalf("apply coupon failed: %v", err)
	}
	if quote.Discount.String() != "100.00" {
		t.Fatalf("discount want 100.00 got %s", quote.Discount.String())
	}
	if quote.Total.String() != "900.00" {
		t.Fatalf("total want 900.00 got %s", quote.Total.String())
	}
}

func TestApplyCouponFixedAmountClampedToSubtotal(t *testing.T) {
	pricing := NewPricingService(nil)
	coupon := &models.Coupon{
		Code:     "MINUS200",
		Type:     constants.CouponTypeFixedAmount,
		Value:    moneyFromInt(200),
		IsActive: true,
	}

	quote, err := pricing.ApplyCoupon(moneyFromInt(150), coupon, time.Now())
	if err != nil {
		t.Fatalf("apply coupon failed: %v", err)
	}
	if quote.Discount.String() != "150.00" {
		t.Fatalf("discount want clamp to 150.00 got %s", quote.Discount.String())
	}
	if quote.Total.String() != "0.00" {
		t.Fatalf("total want 0.00 got %s", quote.Total.String())
	}
	if quote.Total.Decimal.IsNegative() {
		t.Fatalf("total must never be negative")
	}
}

func TestNormalizeCouponCode(t *testing.T) {
	if got := NormalizeCouponCode("  save10 "); got != "SAVE10" {
		t.Fatalf("normalize want SAVE10 got %s", got)
	}
}
