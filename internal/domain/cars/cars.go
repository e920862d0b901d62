package cars

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("car not found")

const queryTimeout = time.Second * 5

type Status string

const (
	StatusAvailable   Status = "available"
	StatusBooked      Status = "booked"
	StatusMaintenance Status = "maintenance"
	StatusUnavailable Status = "unavailable"
)

// Bookable reports whether the status flag permits new bookings at all.
// This is only the fast path; the overlap query on bookings is authoritative.
func (s Status) Bookable() bool {
	return s == StatusAvailable || s == StatusBooked
}

// Car is the slice of the catalog record the booking engine consumes.
type Car struct {
	ID              int64  `json:"id"`
	VendorID        int64  `json:"vendor_id"`
	Name            string `json:"name"`
	ParkingID       int64  `json:"parking_id"`
	Price           int    `json:"price"`          // list price per day
	DiscountPrice   int    `json:"discount_price"` // 0 when not set
	InsuranceAmount int    `json:"insurance_amount"`
	Status          Status `json:"status"`
}

type Store interface {
	GetByID(ctx context.Context, id int64) (*Car, error)
	GetForUpdateTx(ctx context.Context, tx pgx.Tx, id int64) (*Car, error)
	SetStatusTx(ctx context.Context, tx pgx.Tx, id int64, status Status) error
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

const carColumns = `id, vendor_id, name, parking_id, price, discount_price, insurance_amount, status`

func (r *Repository) GetByID(ctx context.Context, id int64) (*Car, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM cars WHERE id = $1`, carColumns)
	return scanCar(r.db.QueryRow(ctx, query, id))
}

// GetForUpdateTx locks the car row for the rest of the transaction. Booking
// creation takes this lock before the overlap check so two concurrent
// creations for the same car serialize instead of both passing the check.
func (r *Repository) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id int64) (*Car, error) {
	query := fmt.Sprintf(`SELECT %s FROM cars WHERE id = $1 FOR UPDATE`, carColumns)
	return scanCar(tx.QueryRow(ctx, query, id))
}

func (r *Repository) SetStatusTx(ctx context.Context, tx pgx.Tx, id int64, status Status) error {
	const query = `UPDATE cars SET status = $1, updated_at = NOW() WHERE id = $2`
	res, err := tx.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update car status: %w", err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCar(row pgx.Row) (*Car, error) {
	var c Car
	err := row.Scan(
		&c.ID,
		&c.VendorID,
		&c.Name,
		&c.ParkingID,
		&c.Price,
		&c.DiscountPrice,
		&c.InsuranceAmount,
		&c.Status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get car: %w", err)
	}
	return &c, nil
}
