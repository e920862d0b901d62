package coupons

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("coupon not found")
	ErrInactive     = errors.New("coupon is not active")
	ErrExpired      = errors.New("coupon is outside its validity window")
	ErrExhausted    = errors.New("coupon usage limit reached")
	ErrBelowMinimum = errors.New("booking amount below coupon minimum")
	ErrPerUserLimit = errors.New("coupon per-user limit reached")
)

type DiscountType string

const (
	DiscountFixed      DiscountType = "fixed"
	DiscountPercentage DiscountType = "percentage"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
)

type Coupon struct {
	ID                int64        `json:"id"`
	Code              string       `json:"code"`
	DiscountType      DiscountType `json:"discount_type"`
	DiscountAmount    int          `json:"discount_amount"` // percent for percentage type, rupees for fixed
	MinBookingAmount  int          `json:"min_booking_amount"`
	MaxDiscountAmount *int         `json:"max_discount_amount,omitempty"` // percentage type only
	StartsAt          time.Time    `json:"starts_at"`
	EndsAt            time.Time    `json:"ends_at"`
	UsageLimit        *int         `json:"usage_limit,omitempty"` // nil means unlimited
	UsageCount        int          `json:"usage_count"`
	PerUserLimit      int          `json:"per_user_limit"`
	IsActive          bool         `json:"is_active"`
	Status            Status       `json:"status"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// Validate runs the redemption rules in order and fails on the first
// violation. priorUserUses is how many earlier bookings by this user
// reference the coupon; pass 0 when no user is supplied. Returns the
// discount the coupon grants on bookingAmount.
func (c *Coupon) Validate(bookingAmount, priorUserUses int, now time.Time) (int, error) {
	if !c.IsActive || c.Status != StatusActive {
		return 0, ErrInactive
	}
	if now.Before(c.StartsAt) || now.After(c.EndsAt) {
		return 0, ErrExpired
	}
	if c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit {
		return 0, ErrExhausted
	}
	if bookingAmount < c.MinBookingAmount {
		return 0, ErrBelowMinimum
	}
	if c.PerUserLimit > 0 && priorUserUses >= c.PerUserLimit {
		return 0, ErrPerUserLimit
	}
	return c.discount(bookingAmount), nil
}

func (c *Coupon) discount(bookingAmount int) int {
	switch c.DiscountType {
	case DiscountPercentage:
		d := bookingAmount * c.DiscountAmount / 100
		if c.MaxDiscountAmount != nil && d > *c.MaxDiscountAmount {
			d = *c.MaxDiscountAmount
		}
		return d
	default: // fixed
		d := c.DiscountAmount
		if d > bookingAmount {
			d = bookingAmount
		}
		return d
	}
}
