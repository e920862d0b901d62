package topups

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("topup not found")
	ErrLedgerNotFound  = errors.New("booking topup not found")
	ErrBookingInactive = errors.New("extensions require an active rental")
	ErrAlreadyPaid     = errors.New("booking topup already paid")
)

// Topup is a purchasable duration-extension product.
type Topup struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	DurationDays int       `json:"duration_days"`
	Price        int       `json:"price"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// BookingTopup is one ledger entry: a single application of a topup to a
// booking. Immutable after creation except for the payment status.
type BookingTopup struct {
	ID              int64         `json:"id"`
	BookingID       int64         `json:"booking_id"`
	TopupID         int64         `json:"topup_id"`
	OriginalEndDate time.Time     `json:"original_end_date"`
	NewEndDate      time.Time     `json:"new_end_date"`
	Amount          int           `json:"amount"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	PaymentRef      *string       `json:"payment_ref,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// EffectiveEnd resolves the authoritative end date from the ledger: the
// latest paid extension wins, the booked end date stands when none is paid.
func EffectiveEnd(bookedEnd time.Time, ledger []BookingTopup) time.Time {
	end := bookedEnd
	for _, bt := range ledger {
		if bt.PaymentStatus == PaymentCompleted && bt.NewEndDate.After(end) {
			end = bt.NewEndDate
		}
	}
	return end
}
