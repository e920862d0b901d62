package topups

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gaadi/internal/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const queryTimeout = time.Second * 5

type Store interface {
	GetTopup(ctx context.Context, id int64) (*Topup, error)
	ListTopups(ctx context.Context) ([]Topup, error)
	Apply(ctx context.Context, bookingID, topupID int64) (*BookingTopup, error)
	MarkPaid(ctx context.Context, bookingTopupID int64, paymentRef string) error
	MarkFailed(ctx context.Context, bookingTopupID int64) error
	LedgerForBooking(ctx context.Context, bookingID int64) ([]BookingTopup, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

func (r *Repository) GetTopup(ctx context.Context, id int64) (*Topup, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const query = `
        SELECT id, name, duration_days, price, is_active, created_at
        FROM topups
        WHERE id = $1 AND is_active = TRUE
    `
	var t Topup
	err := r.db.QueryRow(ctx, query, id).Scan(&t.ID, &t.Name, &t.DurationDays, &t.Price, &t.IsActive, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get topup: %w", err)
	}
	return &t, nil
}

func (r *Repository) ListTopups(ctx context.Context) ([]Topup, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const query = `
        SELECT id, name, duration_days, price, is_active, created_at
        FROM topups
        WHERE is_active = TRUE
        ORDER BY duration_days
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list topups: %w", err)
	}
	defer rows.Close()

	var out []Topup
	for rows.Next() {
		var t Topup
		if err := rows.Scan(&t.ID, &t.Name, &t.DurationDays, &t.Price, &t.IsActive, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Apply records an extension purchase against an active rental. The current
// effective end (booked end or latest paid extension) is read under the
// booking row lock so stacked topups chain correctly even when bought in
// quick succession.
func (r *Repository) Apply(ctx context.Context, bookingID, topupID int64) (*BookingTopup, error) {
	topup, err := r.GetTopup(ctx, topupID)
	if err != nil {
		return nil, err
	}

	var bt BookingTopup
	err = database.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		const read = `
            SELECT status, end_date, COALESCE(extension_till, end_date)
            FROM bookings
            WHERE id = $1
            FOR UPDATE
        `
		var (
			status       string
			endDate      time.Time
			effectiveEnd time.Time
		)
		err := tx.QueryRow(ctx, read, bookingID).Scan(&status, &endDate, &effectiveEnd)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrLedgerNotFound
		}
		if err != nil {
			return fmt.Errorf("read booking: %w", err)
		}
		if status != "active" {
			return ErrBookingInactive
		}

		if endDate.After(effectiveEnd) {
			effectiveEnd = endDate
		}

		bt = BookingTopup{
			BookingID:       bookingID,
			TopupID:         topup.ID,
			OriginalEndDate: effectiveEnd,
			NewEndDate:      effectiveEnd.AddDate(0, 0, topup.DurationDays),
			Amount:          topup.Price,
			PaymentStatus:   PaymentPending,
		}

		const insert = `
            INSERT INTO booking_topups (
                booking_id, topup_id, original_end_date, new_end_date, amount, payment_status
            ) VALUES ($1, $2, $3, $4, $5, $6)
            RETURNING id, created_at, updated_at
        `
		return tx.QueryRow(ctx, insert,
			bt.BookingID, bt.TopupID, bt.OriginalEndDate, bt.NewEndDate, bt.Amount, bt.PaymentStatus,
		).Scan(&bt.ID, &bt.CreatedAt, &bt.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}
	return &bt, nil
}

// MarkPaid settles a ledger entry and pushes the booking's effective end
// date forward, both in one transaction. GREATEST keeps an out-of-order
// settlement from shortening an already extended rental.
func (r *Repository) MarkPaid(ctx context.Context, bookingTopupID int64, paymentRef string) error {
	return database.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		const settle = `
            UPDATE booking_topups
            SET payment_status = 'completed', payment_ref = $2, updated_at = NOW()
            WHERE id = $1 AND payment_status IN ('pending', 'failed')
            RETURNING booking_id, new_end_date
        `
		var (
			bookingID  int64
			newEndDate time.Time
		)
		err := tx.QueryRow(ctx, settle, bookingTopupID, paymentRef).Scan(&bookingID, &newEndDate)
		if errors.Is(err, pgx.ErrNoRows) {
			return r.classifySettleFailure(ctx, bookingTopupID)
		}
		if err != nil {
			return fmt.Errorf("settle booking topup: %w", err)
		}

		const extend = `
            UPDATE bookings
            SET extension_till = GREATEST(COALESCE(extension_till, end_date), $2),
                updated_at = NOW()
            WHERE id = $1
        `
		if _, err := tx.Exec(ctx, extend, bookingID, newEndDate); err != nil {
			return fmt.Errorf("extend booking: %w", err)
		}
		return nil
	})
}

// MarkFailed flags a failed settlement attempt on a ledger entry. The entry
// remains settleable: a retried payment that later succeeds still lands
// through MarkPaid.
func (r *Repository) MarkFailed(ctx context.Context, bookingTopupID int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const q = `
        UPDATE booking_topups
        SET payment_status = 'failed', updated_at = NOW()
        WHERE id = $1 AND payment_status <> 'completed'
    `
	if _, err := r.db.Exec(ctx, q, bookingTopupID); err != nil {
		return fmt.Errorf("mark booking topup failed: %w", err)
	}
	return nil
}

func (r *Repository) classifySettleFailure(ctx context.Context, id int64) error {
	var status PaymentStatus
	err := r.db.QueryRow(ctx, `SELECT payment_status FROM booking_topups WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrLedgerNotFound
	}
	if err != nil {
		return fmt.Errorf("read booking topup: %w", err)
	}
	if status == PaymentCompleted {
		return ErrAlreadyPaid
	}
	return ErrLedgerNotFound
}

func (r *Repository) LedgerForBooking(ctx context.Context, bookingID int64) ([]BookingTopup, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const query = `
        SELECT id, booking_id, topup_id, original_end_date, new_end_date,
               amount, payment_status, payment_ref, created_at, updated_at
        FROM booking_topups
        WHERE booking_id = $1
        ORDER BY created_at
    `
	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		return nil, fmt.Errorf("list booking topups: %w", err)
	}
	defer rows.Close()

	var out []BookingTopup
	for rows.Next() {
		var bt BookingTopup
		if err := rows.Scan(
			&bt.ID,
			&bt.BookingID,
			&bt.TopupID,
			&bt.OriginalEndDate,
			&bt.NewEndDate,
			&bt.Amount,
			&bt.PaymentStatus,
			&bt.PaymentRef,
			&bt.CreatedAt,
			&bt.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, bt)
	}
	return out, rows.Err()
}
