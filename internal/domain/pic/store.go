package pic

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
	Create(ctx context.Context, v *Verification) error
	GetByID(ctx context.Context, id int64) (*Verification, error)
	GetLatest(ctx context.Context, carID int64, stage Stage) (*Verification, error)
	Update(ctx context.Context, v *Verification, inspectorID int64) error
	AddImages(ctx context.Context, id, inspectorID int64, urls []string) error
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, v *Verification) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const query = `
        INSERT INTO pic_verifications (
            car_id, parking_id, inspector_id, stage,
            engine_condition, body_condition, interior_condition, tire_condition,
            rc_verified, insurance_verified, pollution_verified,
            pic_comments, vendor_comments, images, status
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        RETURNING id, created_at, updated_at
    `
	if v.Status == "" {
		v.Status = StatusPending
	}
	err := r.db.QueryRow(ctx, query,
		v.CarID,
		v.ParkingID,
		v.InspectorID,
		v.Stage,
		v.EngineCondition,
		v.BodyCondition,
		v.InteriorCondition,
		v.TireCondition,
		v.RCVerified,
		v.InsuranceVerified,
		v.PollutionVerified,
		v.PicComments,
		v.VendorComments,
		v.Images,
		v.Status,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create verification: %w", err)
	}
	return nil
}

const verificationColumns = `
    id, car_id, parking_id, inspector_id, stage,
    engine_condition, body_condition, interior_condition, tire_condition,
    rc_verified, insurance_verified, pollution_verified,
    pic_comments, vendor_comments, images, status, created_at, updated_at`

func scanVerification(row pgx.Row) (*Verification, error) {
	var v Verification
	err := row.Scan(
		&v.ID,
		&v.CarID,
		&v.ParkingID,
		&v.InspectorID,
		&v.Stage,
		&v.EngineCondition,
		&v.BodyCondition,
		&v.InteriorCondition,
		&v.TireCondition,
		&v.RCVerified,
		&v.InsuranceVerified,
		&v.PollutionVerified,
		&v.PicComments,
		&v.VendorComments,
		&v.Images,
		&v.Status,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan verification: %w", err)
	}
	return &v, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Verification, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT` + verificationColumns + ` FROM pic_verifications WHERE id = $1`
	return scanVerification(r.db.QueryRow(ctx, query, id))
}

// GetLatest returns the most recent inspection of a car for a stage. The
// booking engine uses it to tie an inspection to the current rental.
func (r *Repository) GetLatest(ctx context.Context, carID int64, stage Stage) (*Verification, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT` + verificationColumns + `
        FROM pic_verifications
        WHERE car_id = $1 AND stage = $2
        ORDER BY created_at DESC
        LIMIT 1`
	return scanVerification(r.db.QueryRow(ctx, query, carID, stage))
}

// Update rewrites a verification's findings. Only the creating inspector
// may touch it, and only until it is finalized.
func (r *Repository) Update(ctx context.Context, v *Verification, inspectorID int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const query = `
        UPDATE pic_verifications
        SET engine_condition = $2,
            body_condition = $3,
            interior_condition = $4,
            tire_condition = $5,
            rc_verified = $6,
            insurance_verified = $7,
            pollution_verified = $8,
            pic_comments = $9,
            vendor_comments = $10,
            status = $11,
            updated_at = NOW()
        WHERE id = $1
          AND inspector_id = $12
          AND status NOT IN ('approved', 'rejected')
    `
	res, err := r.db.Exec(ctx, query,
		v.ID,
		v.EngineCondition,
		v.BodyCondition,
		v.InteriorCondition,
		v.TireCondition,
		v.RCVerified,
		v.InsuranceVerified,
		v.PollutionVerified,
		v.PicComments,
		v.VendorComments,
		v.Status,
		inspectorID,
	)
	if err != nil {
		return fmt.Errorf("update verification: %w", err)
	}
	if res.RowsAffected() == 0 {
		return r.classifyUpdateFailure(ctx, v.ID, inspectorID)
	}
	return nil
}

func (r *Repository) AddImages(ctx context.Context, id, inspectorID int64, urls []string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const query = `
        UPDATE pic_verifications
        SET images = images || $2, updated_at = NOW()
        WHERE id = $1
          AND inspector_id = $3
          AND status NOT IN ('approved', 'rejected')
    `
	res, err := r.db.Exec(ctx, query, id, urls, inspectorID)
	if err != nil {
		return fmt.Errorf("add verification images: %w", err)
	}
	if res.RowsAffected() == 0 {
		return r.classifyUpdateFailure(ctx, id, inspectorID)
	}
	return nil
}

func (r *Repository) classifyUpdateFailure(ctx context.Context, id, inspectorID int64) error {
	var owner int64
	var status Status
	err := r.db.QueryRow(ctx, `SELECT inspector_id, status FROM pic_verifications WHERE id = $1`, id).Scan(&owner, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read verification: %w", err)
	}
	if owner != inspectorID {
		return ErrNotOwner
	}
	if status.Finalized() {
		return ErrFinalized
	}
	return ErrNotFound
}
