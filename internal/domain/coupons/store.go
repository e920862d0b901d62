package coupons

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const queryTimeout = time.Second * 5

type Store interface {
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	CountUserRedemptions(ctx context.Context, couponID, userID int64) (int, error)
	Create(ctx context.Context, c *Coupon) error
	RedeemTx(ctx context.Context, tx pgx.Tx, couponID int64) error
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

func (r *Repository) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const query = `
        SELECT id, code, discount_type, discount_amount, min_booking_amount,
               max_discount_amount, starts_at, ends_at, usage_limit, usage_count,
               per_user_limit, is_active, status, created_at, updated_at
        FROM coupons
        WHERE code = $1
    `
	var c Coupon
	err := r.db.QueryRow(ctx, query, code).Scan(
		&c.ID,
		&c.Code,
		&c.DiscountType,
		&c.DiscountAmount,
		&c.MinBookingAmount,
		&c.MaxDiscountAmount,
		&c.StartsAt,
		&c.EndsAt,
		&c.UsageLimit,
		&c.UsageCount,
		&c.PerUserLimit,
		&c.IsActive,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}
	return &c, nil
}

// CountUserRedemptions counts earlier bookings by this user that reference
// the coupon. Terminal bookings still count: a redemption is a redemption.
func (r *Repository) CountUserRedemptions(ctx context.Context, couponID, userID int64) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const query = `SELECT COUNT(*) FROM bookings WHERE coupon_id = $1 AND user_id = $2`
	var n int
	if err := r.db.QueryRow(ctx, query, couponID, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count coupon redemptions: %w", err)
	}
	return n, nil
}

func (r *Repository) Create(ctx context.Context, c *Coupon) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const query = `
        INSERT INTO coupons (
            code, discount_type, discount_amount, min_booking_amount,
            max_discount_amount, starts_at, ends_at, usage_limit,
            per_user_limit, is_active, status
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id, usage_count, created_at, updated_at
    `
	err := r.db.QueryRow(ctx, query,
		c.Code,
		c.DiscountType,
		c.DiscountAmount,
		c.MinBookingAmount,
		c.MaxDiscountAmount,
		c.StartsAt,
		c.EndsAt,
		c.UsageLimit,
		c.PerUserLimit,
		c.IsActive,
		c.Status,
	).Scan(&c.ID, &c.UsageCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create coupon: %w", err)
	}
	return nil
}

// RedeemTx increments the usage counter inside the caller's transaction.
// The WHERE clause is the exhaustion guard: two concurrent redemptions of a
// coupon at its last remaining use race on this row, and exactly one sees a
// rows-affected of 1. The loser's whole booking transaction rolls back.
func (r *Repository) RedeemTx(ctx context.Context, tx pgx.Tx, couponID int64) error {
	const query = `
        UPDATE coupons
        SET usage_count = usage_count + 1,
            updated_at  = NOW()
        WHERE id = $1
          AND (usage_limit IS NULL OR usage_count < usage_limit)
    `
	res, err := tx.Exec(ctx, query, couponID)
	if err != nil {
		return fmt.Errorf("failed to redeem coupon: %w", err)
	}
	if res.RowsAffected() == 0 {
		return ErrExhausted
	}
	return nil
}
