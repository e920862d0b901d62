package parkings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("parking not found")

const queryTimeout = time.Second * 5

// Parking is a physical site with an operator (the PIC) who hands vehicles
// over and receives them back.
type Parking struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Address        string `json:"address"`
	PicUserID      int64  `json:"pic_user_id"`
	DeliveryCharge int    `json:"delivery_charge"` // flat charge for home delivery from this site
	IsActive       bool   `json:"is_active"`
}

type Store interface {
	GetByID(ctx context.Context, id int64) (*Parking, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Parking, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const query = `
        SELECT id, name, address, pic_user_id, delivery_charge, is_active
        FROM parkings
        WHERE id = $1
    `
	var p Parking
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Address,
		&p.PicUserID,
		&p.DeliveryCharge,
		&p.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get parking: %w", err)
	}
	return &p, nil
}
