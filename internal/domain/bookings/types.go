package bookings

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("booking not found")
	ErrUnavailable       = errors.New("car is not available for the requested dates")
	ErrIllegalTransition = errors.New("booking is not in a state that allows this transition")
	ErrStaleWrite        = errors.New("booking was modified concurrently")
	ErrRescheduleLimit   = errors.New("reschedule limit reached")
	ErrHandedOver        = errors.New("booking cannot be cancelled after vehicle handover")
	// ErrFinalPaymentPending and ErrReturnInspectionPending block completion.
	// Either way the booking stays active past its end date, which is the
	// operational signal the parking staff act on.
	ErrFinalPaymentPending     = errors.New("final payment not completed")
	ErrReturnInspectionPending = errors.New("no approved return inspection for this rental")
	ErrPickupInspectionPending = errors.New("no pre-pickup inspection backing this decision")
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusAdvancePaid Status = "advance_paid"
	StatusConfirmed   Status = "confirmed"
	StatusActive      Status = "active"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
	StatusDenied      Status = "denied"
)

func (s Status) String() string { return string(s) }

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAdvancePaid, StatusConfirmed, StatusActive,
		StatusCompleted, StatusCancelled, StatusDenied:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the booking has reached a final state. Terminal
// bookings refuse every further lifecycle mutation.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusDenied
}

// pickupDecisionAllowed reports whether the recorded pre-pickup inspection
// verdict backs the requested approval transition. Confirming needs an
// approved sheet, denying a rejected one; pending and recheck back neither.
func pickupDecisionAllowed(to Status, verdict string) bool {
	switch to {
	case StatusConfirmed:
		return verdict == "approved"
	case StatusDenied:
		return verdict == "rejected"
	default:
		return false
	}
}

// transitions is the authoritative table. Rescheduling is deliberately
// absent: it mutates the schedule, never the status.
var transitions = map[Status][]Status{
	StatusPending:     {StatusAdvancePaid, StatusCancelled, StatusDenied},
	StatusAdvancePaid: {StatusConfirmed, StatusCancelled, StatusDenied},
	StatusConfirmed:   {StatusActive, StatusCancelled, StatusDenied},
	StatusActive:      {StatusCompleted, StatusCancelled, StatusDenied},
}

// CanTransition reports whether the status table permits from -> to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Overlaps is the open-interval date conflict predicate: an existing rental
// blocks a request when existing.start < request.end AND existing.end >
// request.start. Windows that merely touch do not conflict.
func Overlaps(existingStart, existingEnd, reqStart, reqEnd time.Time) bool {
	return existingStart.Before(reqEnd) && existingEnd.After(reqStart)
}

type DeliveryType string

const (
	DeliveryPickup DeliveryType = "pickup"
	DeliveryHome   DeliveryType = "delivery"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Tool is one item of loose equipment handed over with the vehicle
// (jack, stepney, toolkit) with its condition photo.
type Tool struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

const DefaultMaxReschedules = 3

// Booking is the central aggregate. The pricing block is written once at
// creation; the only later schedule mutation besides reschedule is
// ExtensionTill, advanced by paid topups.
type Booking struct {
	ID               int64  `json:"id"`
	ReferenceCode    string `json:"reference_code"`
	UserID           int64  `json:"user_id"`
	CarID            int64  `json:"car_id"`
	PickupParkingID  int64  `json:"pickup_parking_id"`
	DropoffParkingID int64  `json:"dropoff_parking_id"`

	StartDate          time.Time  `json:"start_date"`
	EndDate            time.Time  `json:"end_date"`
	PickupDate         time.Time  `json:"pickup_date"`
	ActualPickupDate   *time.Time `json:"actual_pickup_date,omitempty"`
	OriginalPickupDate *time.Time `json:"original_pickup_date,omitempty"`
	ExtensionTill      *time.Time `json:"extension_till,omitempty"`
	RescheduleCount    int        `json:"reschedule_count"`
	MaxRescheduleCount int        `json:"max_reschedule_count"`

	BasePrice       int    `json:"base_price"`
	InsuranceAmount int    `json:"insurance_amount"`
	DeliveryCharges int    `json:"delivery_charges"`
	DiscountAmount  int    `json:"discount_amount"`
	CouponID        *int64 `json:"coupon_id,omitempty"`
	TotalPrice      int    `json:"total_price"`
	AdvanceAmount   int    `json:"advance_amount"`
	RemainingAmount int    `json:"remaining_amount"`

	Status               Status        `json:"status"`
	AdvancePaymentStatus PaymentStatus `json:"advance_payment_status"`
	FinalPaymentStatus   PaymentStatus `json:"final_payment_status"`
	AdvancePaymentRef    *string       `json:"advance_payment_ref,omitempty"`
	FinalPaymentRef      *string       `json:"final_payment_ref,omitempty"`

	PicApproved   bool       `json:"pic_approved"`
	PicApprovedAt *time.Time `json:"pic_approved_at,omitempty"`
	PicApprovedBy *int64     `json:"pic_approved_by,omitempty"`
	PicComments   *string    `json:"pic_comments,omitempty"`

	UserConfirmed   bool       `json:"user_confirmed"`
	UserConfirmedAt *time.Time `json:"user_confirmed_at,omitempty"`

	OTPHash       *string    `json:"-"`
	OTPExpiresAt  *time.Time `json:"otp_expires_at,omitempty"`
	OTPVerified   bool       `json:"otp_verified"`
	OTPVerifiedBy *int64     `json:"otp_verified_by,omitempty"`

	DeliveryType    DeliveryType `json:"delivery_type"`
	DeliveryAddress *string      `json:"delivery_address,omitempty"`
	ContactPhone    *string      `json:"contact_phone,omitempty"`

	ConditionImages []string `json:"condition_images,omitempty"`
	ToolImages      []string `json:"tool_images,omitempty"`
	Tools           []Tool   `json:"tools,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EffectiveEnd is the date the car is due back: the latest paid extension,
// or the booked end date when none exists.
func (b *Booking) EffectiveEnd() time.Time {
	if b.ExtensionTill != nil && b.ExtensionTill.After(b.EndDate) {
		return *b.ExtensionTill
	}
	return b.EndDate
}

// BookingFilter narrows ListByUser.
type BookingFilter struct {
	Status *Status
	Limit  int
	Offset int
}

func (f BookingFilter) limit() int {
	if f.Limit <= 0 || f.Limit > 50 {
		return 20
	}
	return f.Limit
}
