package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gaadi/internal/database"
	"gaadi/internal/domain/cars"
	"gaadi/internal/domain/coupons"
	"gaadi/internal/otp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	hashids "github.com/speps/go-hashids/v2"
)

const queryTimeout = time.Second * 5

// activeStatuses are the booking states that block a car's calendar.
const activeStatuses = `('pending', 'advance_paid', 'confirmed', 'active')`

type Store interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id int64) (*Booking, error)
	IsAvailable(ctx context.Context, carID int64, start, end time.Time) (bool, error)
	MarkAdvancePaid(ctx context.Context, id int64, paymentRef string) error
	Confirm(ctx context.Context, id, approverID int64, comments string) error
	Deny(ctx context.Context, id, approverID int64, comments string) error
	SetOTP(ctx context.Context, id int64, hash string, expiresAt time.Time) error
	OTPChallenge(ctx context.Context, id int64) (otp.Challenge, error)
	Activate(ctx context.Context, id, verifierID int64) error
	SetUserConfirmed(ctx context.Context, id int64) error
	RecordFinalPayment(ctx context.Context, id int64, paymentRef string) error
	MarkAdvanceFailed(ctx context.Context, id int64) error
	MarkFinalFailed(ctx context.Context, id int64) error
	Complete(ctx context.Context, id int64) error
	Cancel(ctx context.Context, id int64, adminOverride bool) error
	Reschedule(ctx context.Context, id int64, newStart, newEnd, newPickup time.Time) error
	ListByUser(ctx context.Context, userID int64, filter BookingFilter) ([]Booking, error)
}

type Repository struct {
	db      *pgxpool.Pool
	cars    cars.Store
	coupons coupons.Store
	ref     *hashids.HashID
}

func NewRepository(db *pgxpool.Pool, carStore cars.Store, couponStore coupons.Store, refSalt string) (Store, error) {
	hd := hashids.NewData()
	hd.Salt = refSalt
	hd.MinLength = 8
	hd.Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, fmt.Errorf("booking reference encoder: %w", err)
	}
	return &Repository{db: db, cars: carStore, coupons: couponStore, ref: h}, nil
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// overlapExists runs the authoritative availability check: any non-terminal
// booking for the car whose window (extended by paid topups) collides with
// the requested one. excludeID skips the booking being rescheduled.
func overlapExists(ctx context.Context, q querier, carID int64, start, end time.Time, excludeID int64) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM bookings
            WHERE car_id = $1
              AND id <> $4
              AND status IN ` + activeStatuses + `
              AND start_date < $3
              AND GREATEST(end_date, COALESCE(extension_till, end_date)) > $2
        )
    `
	var exists bool
	if err := q.QueryRow(ctx, query, carID, start, end, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("overlap check: %w", err)
	}
	return exists, nil
}

// IsAvailable answers the pre-flight availability question. The status flag
// is only a fast path; a stale flag can never hide a real conflict because
// creation re-checks overlap under the car row lock.
func (r *Repository) IsAvailable(ctx context.Context, carID int64, start, end time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	car, err := r.cars.GetByID(ctx, carID)
	if err != nil {
		return false, err
	}
	if !car.Status.Bookable() {
		return false, nil
	}

	conflict, err := overlapExists(ctx, r.db, carID, start, end, 0)
	if err != nil {
		return false, err
	}
	return !conflict, nil
}

// Create persists a priced booking in pending state. Availability, coupon
// redemption and the insert are one atomic unit: the car row lock serializes
// concurrent creations, and the coupon's conditional update makes the last
// remaining use race safe.
func (r *Repository) Create(ctx context.Context, b *Booking) error {
	return database.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		car, err := r.cars.GetForUpdateTx(ctx, tx, b.CarID)
		if err != nil {
			return err
		}
		if !car.Status.Bookable() {
			return ErrUnavailable
		}

		conflict, err := overlapExists(ctx, tx, b.CarID, b.StartDate, b.EndDate, 0)
		if err != nil {
			return err
		}
		if conflict {
			return ErrUnavailable
		}

		if b.CouponID != nil {
			if err := r.coupons.RedeemTx(ctx, tx, *b.CouponID); err != nil {
				return err
			}
		}

		toolsJSON, err := json.Marshal(b.Tools)
		if err != nil {
			return fmt.Errorf("encode tools: %w", err)
		}

		const insert = `
            INSERT INTO bookings (
                user_id, car_id, pickup_parking_id, dropoff_parking_id,
                start_date, end_date, pickup_date, max_reschedule_count,
                base_price, insurance_amount, delivery_charges, discount_amount,
                coupon_id, total_price, advance_amount, remaining_amount,
                status, advance_payment_status, final_payment_status,
                delivery_type, delivery_address, contact_phone,
                condition_images, tool_images, tools
            ) VALUES (
                $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
                $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25
            )
            RETURNING id, created_at, updated_at
        `
		b.Status = StatusPending
		b.AdvancePaymentStatus = PaymentPending
		b.FinalPaymentStatus = PaymentPending
		if b.MaxRescheduleCount <= 0 {
			b.MaxRescheduleCount = DefaultMaxReschedules
		}

		err = tx.QueryRow(ctx, insert,
			b.UserID,
			b.CarID,
			b.PickupParkingID,
			b.DropoffParkingID,
			b.StartDate,
			b.EndDate,
			b.PickupDate,
			b.MaxRescheduleCount,
			b.BasePrice,
			b.InsuranceAmount,
			b.DeliveryCharges,
			b.DiscountAmount,
			b.CouponID,
			b.TotalPrice,
			b.AdvanceAmount,
			b.RemainingAmount,
			b.Status,
			b.AdvancePaymentStatus,
			b.FinalPaymentStatus,
			b.DeliveryType,
			b.DeliveryAddress,
			b.ContactPhone,
			b.ConditionImages,
			b.ToolImages,
			toolsJSON,
		).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}

		code, err := r.ref.EncodeInt64([]int64{b.ID})
		if err != nil {
			return fmt.Errorf("encode reference: %w", err)
		}
		b.ReferenceCode = "GD-" + code
		if _, err := tx.Exec(ctx, `UPDATE bookings SET reference_code = $1 WHERE id = $2`, b.ReferenceCode, b.ID); err != nil {
			return fmt.Errorf("set reference: %w", err)
		}

		if err := r.cars.SetStatusTx(ctx, tx, b.CarID, cars.StatusBooked); err != nil {
			return err
		}

		return insertStatusEvent(ctx, tx, b.ID, StatusPending, b.UserID, "booking created")
	})
}

// insertStatusEvent appends one audit row per transition, in the same
// transaction as the transition itself.
func insertStatusEvent(ctx context.Context, tx pgx.Tx, bookingID int64, status Status, actorID int64, note string) error {
	const q = `
        INSERT INTO booking_status_events (booking_id, status, actor_id, note)
        VALUES ($1, $2, $3, $4)
    `
	if _, err := tx.Exec(ctx, q, bookingID, status, actorID, note); err != nil {
		return fmt.Errorf("insert status event: %w", err)
	}
	return nil
}

// classifyTransitionFailure turns a zero-row guarded update into the right
// sentinel: the booking is gone, the transition was already applied by a
// racing caller, or the booking simply is not in the required state.
func classifyTransitionFailure(ctx context.Context, q querier, id int64, to Status) error {
	var cur Status
	err := q.QueryRow(ctx, `SELECT status FROM bookings WHERE id = $1`, id).Scan(&cur)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read booking status: %w", err)
	}
	if cur == to {
		return ErrStaleWrite
	}
	return ErrIllegalTransition
}

// MarkAdvancePaid moves pending -> advance_paid when the payment subsystem
// reports the advance milestone completed. The status guard in the WHERE
// clause makes a duplicated webhook a no-op error, never a double apply.
func (r *Repository) MarkAdvancePaid(ctx context.Context, id int64, paymentRef string) error {
	return database.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		const q = `
            UPDATE bookings
            SET status = 'advance_paid',
                advance_payment_status = 'completed',
                advance_payment_ref = $2,
                updated_at = NOW()
            WHERE id = $1 AND status = 'pending'
        `
		res, err := tx.Exec(ctx, q, id, paymentRef)
		if err != nil {
			return fmt.Errorf("mark advance paid: %w", err)
		}
		if res.RowsAffected() == 0 {
			return classifyTransitionFailure(ctx, tx, id, StatusAdvancePaid)
		}
		return insertStatusEvent(ctx, tx, id, StatusAdvancePaid, 0, "advance payment "+paymentRef)
	})
}

// gatePickupDecision locks the booking row and checks that the latest
// pre-pickup inspection recorded for the car since the booking was placed
// carries the verdict the requested transition needs.
func gatePickupDecision(ctx context.Context, tx pgx.Tx, id int64, to Status) error {
	const read = `
        SELECT status, car_id, created_at
        FROM bookings
        WHERE id = $1
        FOR UPDATE
    `
	var (
		status    Status
		carID     int64
		createdAt time.Time
	)
	err := tx.QueryRow(ctx, read, id).Scan(&status, &carID, &createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read booking: %w", err)
	}
	if status != StatusAdvancePaid {
		if status == to {
			return ErrStaleWrite
		}
		return ErrIllegalTransition
	}

	const latest = `
        SELECT status
        FROM pic_verifications
        WHERE car_id = $1 AND stage = 'pre_pickup' AND created_at >= $2
        ORDER BY created_at DESC
        LIMIT 1
    `
	var verdict string
	err = tx.QueryRow(ctx, latest, carID, createdAt).Scan(&verdict)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrPickupInspectionPending
	}
	if err != nil {
		return fmt.Errorf("read pre-pickup inspection: %w", err)
	}
	if !pickupDecisionAllowed(to, verdict) {
		return ErrPickupInspectionPending
	}
	return nil
}

// Confirm records the PIC's approved pre-pickup inspection and moves
// advance_paid -> confirmed. The inspection verdict is checked under the
// booking row lock; without an approved sheet the transition is refused.
func (r *Repository) Confirm(ctx context.Context, id, approverID int64, comments string) error {
	return database.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		if err := gatePickupDecision(ctx, tx, id, StatusConfirmed); err != nil {
			return err
		}

		const q = `
            UPDATE bookings
            SET status = 'confirmed',
                pic_approved = TRUE,
                pic_approved_at = NOW(),
                pic_approved_by = $2,
                pic_comments = $3,
                updated_at = NOW()
            WHERE id = $1 AND status = 'advance_paid'
        `
		res, err := tx.Exec(ctx, q, id, approverID, comments)
		if err != nil {
			return fmt.Errorf("confirm booking: %w", err)
		}
		if res.RowsAffected() == 0 {
			return classifyTransitionFailure(ctx, tx, id, StatusConfirmed)
		}
		return insertStatusEvent(ctx, tx, id, StatusConfirmed, approverID, "pre-pickup inspection approved")
	})
}

// Deny is the PIC rejecting the vehicle's condition before pickup, backed by
// a rejected pre-pickup inspection. The car goes back on the market in the
// same transaction.
func (r *Repository) Deny(ctx context.Context, id, approverID int64, comments string) error {
	return database.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		if err := gatePickupDecision(ctx, tx, id, StatusDenied); err != nil {
			return err
		}

		const q = `
            UPDATE bookings
            SET status = 'denied',
                pic_approved = FALSE,
                pic_approved_at = NOW(),
                pic_approved_by = $2,
                pic_comments = $3,
                updated_at = NOW()
            WHERE id = $1 AND status = 'advance_paid'
            RETURNING car_id
        `
		var carID int64
		err := tx.QueryRow(ctx, q, id, approverID, comments).Scan(&carID)
		if errors.Is(err, pgx.ErrNoRows) {
			return classifyTransitionFailure(ctx, tx, id, StatusDenied)
		}
		if err != nil {
			return fmt.Errorf("deny booking: %w", err)
		}

		if err := r.cars.SetStatusTx(ctx, tx, carID, cars.StatusAvailable); err != nil {
			return err
		}
		return insertStatusEvent(ctx, tx, id, StatusDenied, approverID, "pre-pickup inspection rejected")
	})
}

// SetOTP stores a freshly issued pickup code. Only a confirmed, unverified
// booking may receive one.
func (r *Repository) SetOTP(ctx context.Context, id int64, hash string, expiresAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const q = `
        UPDATE bookings
        SET otp_hash = $2, otp_expires_at = $3, updated_at = NOW()
        WHERE id = $1 AND status = 'confirmed' AND otp_verified = FALSE
    `
	res, err := r.db.Exec(ctx, q, id, hash, expiresAt)
	if err != nil {
		return fmt.Errorf("set otp: %w", err)
	}
	if res.RowsAffected() == 0 {
		return classifyTransitionFailure(ctx, r.db, id, StatusConfirmed)
	}
	return nil
}

func (r *Repository) OTPChallenge(ctx context.Context, id int64) (otp.Challenge, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const q = `SELECT otp_hash, otp_expires_at, otp_verified FROM bookings WHERE id = $1`
	var (
		hash      *string
		expiresAt *time.Time
		verified  bool
	)
	err := r.db.QueryRow(ctx, q, id).Scan(&hash, &expiresAt, &verified)
	if errors.Is(err, pgx.ErrNoRows) {
		return otp.Challenge{}, ErrNotFound
	}
	if err != nil {
		return otp.Challenge{}, fmt.Errorf("read otp challenge: %w", err)
	}

	c := otp.Challenge{Verified: verified}
	if hash != nil {
		c.Hash = *hash
	}
	if expiresAt != nil {
		c.ExpiresAt = *expiresAt
	}
	return c, nil
}

// Activate is the OTP-gated handover: confirmed -> active, records the
// actual pickup time and burns the code. The otp_verified guard makes the
// code single-use even under racing verify calls.
func (r *Repository) Activate(ctx context.Context, id, verifierID int64) error {
	return database.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		const q = `
            UPDATE bookings
            SET status = 'active',
                otp_verified = TRUE,
                otp_verified_by = $2,
                actual_pickup_date = NOW(),
                updated_at = NOW()
            WHERE id = $1 AND status = 'confirmed' AND otp_verified = FALSE
        `
		res, err := tx.Exec(ctx, q, id, verifierID)
		if err != nil {
			return fmt.Errorf("activate booking: %w", err)
		}
		if res.RowsAffected() == 0 {
			return classifyTransitionFailure(ctx, tx, id, StatusActive)
		}
		return insertStatusEvent(ctx, tx, id, StatusActive, verifierID, "otp verified, vehicle handed over")
	})
}

// SetUserConfirmed records the customer's acknowledgement of the vehicle's
// condition at handover.
func (r *Repository) SetUserConfirmed(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const q = `
        UPDATE bookings
        SET user_confirmed = TRUE, user_confirmed_at = NOW(), updated_at = NOW()
        WHERE id = $1 AND status IN ('confirmed', 'active')
    `
	res, err := r.db.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("set user confirmed: %w", err)
	}
	if res.RowsAffected() == 0 {
		return classifyTransitionFailure(ctx, r.db, id, StatusActive)
	}
	return nil
}

// RecordFinalPayment flags the final milestone as paid. It does not advance
// the status: completion additionally needs the approved return inspection.
func (r *Repository) RecordFinalPayment(ctx context.Context, id int64, paymentRef string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const q = `
        UPDATE bookings
        SET final_payment_status = 'completed', final_payment_ref = $2, updated_at = NOW()
        WHERE id = $1 AND status = 'active' AND final_payment_status <> 'completed'
    `
	res, err := r.db.Exec(ctx, q, id, paymentRef)
	if err != nil {
		return fmt.Errorf("record final payment: %w", err)
	}
	if res.RowsAffected() == 0 {
		return classifyTransitionFailure(ctx, r.db, id, StatusActive)
	}
	return nil
}

// MarkAdvanceFailed flags a failed advance attempt. The booking stays
// pending and a later successful callback still lands through
// MarkAdvancePaid. A failure arriving after the booking has moved on is a
// deliberate no-op.
func (r *Repository) MarkAdvanceFailed(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const q = `
        UPDATE bookings
        SET advance_payment_status = 'failed', updated_at = NOW()
        WHERE id = $1 AND status = 'pending'
    `
	if _, err := r.db.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("mark advance failed: %w", err)
	}
	return nil
}

// MarkFinalFailed flags a failed final-payment attempt on an active rental.
func (r *Repository) MarkFinalFailed(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const q = `
        UPDATE bookings
        SET final_payment_status = 'failed', updated_at = NOW()
        WHERE id = $1 AND status = 'active' AND final_payment_status <> 'completed'
    `
	if _, err := r.db.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("mark final failed: %w", err)
	}
	return nil
}

// Complete closes the rental: both guards (approved return inspection,
// completed final payment) are evaluated under the booking row lock so a
// racing callback cannot slip between check and set.
func (r *Repository) Complete(ctx context.Context, id int64) error {
	return database.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		const read = `
            SELECT status, final_payment_status, car_id, actual_pickup_date
            FROM bookings
            WHERE id = $1
            FOR UPDATE
        `
		var (
			status       Status
			finalPayment PaymentStatus
			carID        int64
			pickedUpAt   *time.Time
		)
		err := tx.QueryRow(ctx, read, id).Scan(&status, &finalPayment, &carID, &pickedUpAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("read booking: %w", err)
		}
		if status != StatusActive {
			if status == StatusCompleted {
				return ErrStaleWrite
			}
			return ErrIllegalTransition
		}
		if finalPayment != PaymentCompleted {
			return ErrFinalPaymentPending
		}

		// The return inspection is tied to the booking through the car and
		// the rental window.
		const inspection = `
            SELECT EXISTS (
                SELECT 1 FROM pic_verifications
                WHERE car_id = $1 AND stage = 'return' AND status = 'approved'
                  AND created_at >= COALESCE($2::timestamptz, NOW() - INTERVAL '90 days')
            )
        `
		var approved bool
		if err := tx.QueryRow(ctx, inspection, carID, pickedUpAt).Scan(&approved); err != nil {
			return fmt.Errorf("check return inspection: %w", err)
		}
		if !approved {
			return ErrReturnInspectionPending
		}

		const q = `
            UPDATE bookings
            SET status = 'completed', updated_at = NOW()
            WHERE id = $1 AND status = 'active'
        `
		if _, err := tx.Exec(ctx, q, id); err != nil {
			return fmt.Errorf("complete booking: %w", err)
		}

		if err := r.cars.SetStatusTx(ctx, tx, carID, cars.StatusAvailable); err != nil {
			return err
		}
		return insertStatusEvent(ctx, tx, id, StatusCompleted, 0, "rental completed")
	})
}

// Cancel is terminal with no rollback path. User-initiated cancellation is
// refused once the vehicle has been physically handed over; adminOverride
// bypasses that single guard, nothing else.
func (r *Repository) Cancel(ctx context.Context, id int64, adminOverride bool) error {
	return database.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		const read = `
            SELECT status, actual_pickup_date, car_id
            FROM bookings
            WHERE id = $1
            FOR UPDATE
        `
		var (
			status     Status
			pickedUpAt *time.Time
			carID      int64
		)
		err := tx.QueryRow(ctx, read, id).Scan(&status, &pickedUpAt, &carID)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("read booking: %w", err)
		}
		if status.IsTerminal() {
			if status == StatusCancelled {
				return ErrStaleWrite
			}
			return ErrIllegalTransition
		}
		if !adminOverride && pickedUpAt != nil {
			return ErrHandedOver
		}

		const q = `UPDATE bookings SET status = 'cancelled', updated_at = NOW() WHERE id = $1`
		if _, err := tx.Exec(ctx, q, id); err != nil {
			return fmt.Errorf("cancel booking: %w", err)
		}

		if err := r.cars.SetStatusTx(ctx, tx, carID, cars.StatusAvailable); err != nil {
			return err
		}
		return insertStatusEvent(ctx, tx, id, StatusCancelled, 0, "booking cancelled")
	})
}

// Reschedule moves the rental window before handover. Bounded by the
// per-booking reschedule budget; keeps the first pickup date for the record;
// invalidates a pickup code whose expiry no longer fits the new window.
func (r *Repository) Reschedule(ctx context.Context, id int64, newStart, newEnd, newPickup time.Time) error {
	return database.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		const read = `
            SELECT status, car_id, pickup_date, original_pickup_date,
                   reschedule_count, max_reschedule_count, otp_expires_at
            FROM bookings
            WHERE id = $1
            FOR UPDATE
        `
		var (
			status         Status
			carID          int64
			pickupDate     time.Time
			originalPickup *time.Time
			count          int
			maxCount       int
			otpExpiresAt   *time.Time
		)
		err := tx.QueryRow(ctx, read, id).Scan(
			&status, &carID, &pickupDate, &originalPickup, &count, &maxCount, &otpExpiresAt,
		)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("read booking: %w", err)
		}

		if status != StatusPending && status != StatusAdvancePaid {
			return ErrIllegalTransition
		}
		if count >= maxCount {
			return ErrRescheduleLimit
		}

		conflict, err := overlapExists(ctx, tx, carID, newStart, newEnd, id)
		if err != nil {
			return err
		}
		if conflict {
			return ErrUnavailable
		}

		// A code minted for the old pickup window is stale once the window
		// moves far enough, even if it has not expired yet.
		dropOTP := false
		if otpExpiresAt != nil {
			dropOTP = otp.NeedsRegeneration(*otpExpiresAt, otp.ExpiryFor(newPickup, time.Now()))
		}

		const q = `
            UPDATE bookings
            SET start_date = $2,
                end_date = $3,
                pickup_date = $4,
                original_pickup_date = COALESCE(original_pickup_date, $5),
                reschedule_count = reschedule_count + 1,
                otp_hash = CASE WHEN $6 THEN NULL ELSE otp_hash END,
                otp_expires_at = CASE WHEN $6 THEN NULL ELSE otp_expires_at END,
                updated_at = NOW()
            WHERE id = $1
        `
		if _, err := tx.Exec(ctx, q, id, newStart, newEnd, newPickup, pickupDate, dropOTP); err != nil {
			return fmt.Errorf("reschedule booking: %w", err)
		}
		return nil
	})
}

const bookingColumns = `
    id, reference_code, user_id, car_id, pickup_parking_id, dropoff_parking_id,
    start_date, end_date, pickup_date, actual_pickup_date, original_pickup_date,
    extension_till, reschedule_count, max_reschedule_count,
    base_price, insurance_amount, delivery_charges, discount_amount, coupon_id,
    total_price, advance_amount, remaining_amount,
    status, advance_payment_status, final_payment_status,
    advance_payment_ref, final_payment_ref,
    pic_approved, pic_approved_at, pic_approved_by, pic_comments,
    user_confirmed, user_confirmed_at,
    otp_hash, otp_expires_at, otp_verified, otp_verified_by,
    delivery_type, delivery_address, contact_phone,
    condition_images, tool_images, tools,
    created_at, updated_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var toolsJSON []byte
	err := row.Scan(
		&b.ID,
		&b.ReferenceCode,
		&b.UserID,
		&b.CarID,
		&b.PickupParkingID,
		&b.DropoffParkingID,
		&b.StartDate,
		&b.EndDate,
		&b.PickupDate,
		&b.ActualPickupDate,
		&b.OriginalPickupDate,
		&b.ExtensionTill,
		&b.RescheduleCount,
		&b.MaxRescheduleCount,
		&b.BasePrice,
		&b.InsuranceAmount,
		&b.DeliveryCharges,
		&b.DiscountAmount,
		&b.CouponID,
		&b.TotalPrice,
		&b.AdvanceAmount,
		&b.RemainingAmount,
		&b.Status,
		&b.AdvancePaymentStatus,
		&b.FinalPaymentStatus,
		&b.AdvancePaymentRef,
		&b.FinalPaymentRef,
		&b.PicApproved,
		&b.PicApprovedAt,
		&b.PicApprovedBy,
		&b.PicComments,
		&b.UserConfirmed,
		&b.UserConfirmedAt,
		&b.OTPHash,
		&b.OTPExpiresAt,
		&b.OTPVerified,
		&b.OTPVerifiedBy,
		&b.DeliveryType,
		&b.DeliveryAddress,
		&b.ContactPhone,
		&b.ConditionImages,
		&b.ToolImages,
		&toolsJSON,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan booking: %w", err)
	}
	if len(toolsJSON) > 0 {
		if err := json.Unmarshal(toolsJSON, &b.Tools); err != nil {
			return nil, fmt.Errorf("decode tools: %w", err)
		}
	}
	return &b, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT` + bookingColumns + ` FROM bookings WHERE id = $1`
	return scanBooking(r.db.QueryRow(ctx, query, id))
}

func (r *Repository) ListByUser(ctx context.Context, userID int64, filter BookingFilter) ([]Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `SELECT` + bookingColumns + ` FROM bookings WHERE user_id = $1`
	args := []any{userID}
	idx := 2

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, *filter.Status)
		idx++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, filter.limit(), filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}
