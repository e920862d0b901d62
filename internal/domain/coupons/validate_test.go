package coupons

import (
	"errors"
	"testing"
	"time"
)

func intPtr(n int) *int { return &n }

func summerCoupon() *Coupon {
	return &Coupon{
		ID:                1,
		Code:              "SUMMER25",
		DiscountType:      DiscountPercentage,
		DiscountAmount:    25,
		MinBookingAmount:  2000,
		MaxDiscountAmount: intPtr(1000),
		StartsAt:          time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndsAt:            time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		UsageLimit:        intPtr(100),
		PerUserLimit:      2,
		IsActive:          true,
		Status:            StatusActive,
	}
}

func TestValidateFailFastOrder(t *testing.T) {
	now := time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(*Coupon)
		amount int
		prior  int
		now    time.Time
		want   error
	}{
		{"inactive flag", func(c *Coupon) { c.IsActive = false }, 3000, 0, now, ErrInactive},
		{"disabled status", func(c *Coupon) { c.Status = StatusDisabled }, 3000, 0, now, ErrInactive},
		{"before window", nil, 3000, 0, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), ErrExpired},
		{"after window", nil, 3000, 0, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), ErrExpired},
		{"exhausted", func(c *Coupon) { c.UsageCount = 100 }, 3000, 0, now, ErrExhausted},
		{"below minimum", nil, 1999, 0, now, ErrBelowMinimum},
		{"per-user limit", nil, 3000, 2, now, ErrPerUserLimit},
		{"valid", nil, 3000, 1, now, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := summerCoupon()
			if tt.mutate != nil {
				tt.mutate(c)
			}
			_, err := c.Validate(tt.amount, tt.prior, tt.now)
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidateInactiveBeatsExpiry(t *testing.T) {
	// Rule 1 fires before rule 2 even when both are violated.
	c := summerCoupon()
	c.IsActive = false
	_, err := c.Validate(3000, 0, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, ErrInactive) {
		t.Errorf("Validate() = %v, want ErrInactive first", err)
	}
}

func TestPercentageDiscountCappedAtMax(t *testing.T) {
	now := time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)
	c := summerCoupon()

	// 25% of 2000 = 500, under the ₹1000 cap.
	d, err := c.Validate(2000, 0, now)
	if err != nil {
		t.Fatal(err)
	}
	if d != 500 {
		t.Errorf("discount = %d, want 500", d)
	}

	// 25% of 8000 = 2000, clamped to the cap.
	d, err = c.Validate(8000, 0, now)
	if err != nil {
		t.Fatal(err)
	}
	if d != 1000 {
		t.Errorf("discount = %d, want capped 1000", d)
	}
}

func TestPercentageWithoutCap(t *testing.T) {
	now := time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)
	c := summerCoupon()
	c.MaxDiscountAmount = nil

	d, err := c.Validate(8000, 0, now)
	if err != nil {
		t.Fatal(err)
	}
	if d != 2000 {
		t.Errorf("discount = %d, want uncapped 2000", d)
	}
}

func TestFixedDiscountNeverExceedsAmount(t *testing.T) {
	now := time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)
	c := &Coupon{
		Code:           "FLAT3000",
		DiscountType:   DiscountFixed,
		DiscountAmount: 3000,
		StartsAt:       now.Add(-time.Hour),
		EndsAt:         now.Add(time.Hour),
		IsActive:       true,
		Status:         StatusActive,
	}

	d, err := c.Validate(2500, 0, now)
	if err != nil {
		t.Fatal(err)
	}
	if d != 2500 {
		t.Errorf("discount = %d, want clamped 2500", d)
	}
}

func TestUnlimitedUsage(t *testing.T) {
	now := time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)
	c := summerCoupon()
	c.UsageLimit = nil
	c.UsageCount = 1_000_000

	if _, err := c.Validate(3000, 0, now); err != nil {
		t.Errorf("nil usage limit must never exhaust, got %v", err)
	}
}
