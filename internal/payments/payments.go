package payments

import (
	"context"
	"errors"
	"fmt"

	"gaadi/internal/domain/bookings"
	"gaadi/internal/domain/topups"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrUnknownMilestone = errors.New("unknown payment milestone")
	ErrUnknownStatus    = errors.New("unknown payment status")
)

// Milestone names which slice of the booking price an event settles.
type Milestone string

const (
	MilestoneAdvance Milestone = "advance"
	MilestoneFinal   Milestone = "final"
	MilestoneTopup   Milestone = "topup"
)

type EventStatus string

const (
	StatusCompleted EventStatus = "completed"
	StatusFailed    EventStatus = "failed"
)

// Event is a normalized gateway callback. Advance and final milestones
// address the booking; topup milestones address the extension ledger row.
type Event struct {
	BookingID      int64       `json:"booking_id"`
	BookingTopupID int64       `json:"booking_topup_id,omitempty"`
	Milestone      Milestone   `json:"milestone"`
	Status         EventStatus `json:"status"`
	Reference      string      `json:"reference"`
}

// NewReference mints the idempotency key handed to the gateway when a
// payment is initiated. It comes back on the callback as Event.Reference.
func NewReference() string {
	return uuid.New().String()
}

// Reconciler applies settled gateway events to booking state.
type Reconciler struct {
	bookings bookings.Store
	topups   topups.Store
	logger   *zap.SugaredLogger
}

func NewReconciler(b bookings.Store, t topups.Store, logger *zap.SugaredLogger) *Reconciler {
	return &Reconciler{bookings: b, topups: t, logger: logger}
}

// OnPaymentEvent routes one gateway event to the matching state change.
// A failed event only flags the payment status; the booking stays where it
// was and the user can retry. Some gateways omit the reference on failures,
// so a fallback is minted before anything is recorded.
func (r *Reconciler) OnPaymentEvent(ctx context.Context, ev Event) error {
	if ev.Reference == "" {
		ev.Reference = NewReference()
	}

	switch ev.Status {
	case StatusFailed:
		return r.recordFailure(ctx, ev)
	case StatusCompleted:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStatus, ev.Status)
	}

	switch ev.Milestone {
	case MilestoneAdvance:
		return r.bookings.MarkAdvancePaid(ctx, ev.BookingID, ev.Reference)
	case MilestoneFinal:
		return r.bookings.RecordFinalPayment(ctx, ev.BookingID, ev.Reference)
	case MilestoneTopup:
		return r.topups.MarkPaid(ctx, ev.BookingTopupID, ev.Reference)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMilestone, ev.Milestone)
	}
}

// recordFailure flags the failed milestone and absorbs storage errors: a
// gateway retrying a failure callback cannot make the outcome any better.
func (r *Reconciler) recordFailure(ctx context.Context, ev Event) error {
	r.logger.Warnw("payment failed", "milestone", ev.Milestone, "booking_id", ev.BookingID, "reference", ev.Reference)

	var err error
	switch ev.Milestone {
	case MilestoneAdvance:
		err = r.bookings.MarkAdvanceFailed(ctx, ev.BookingID)
	case MilestoneFinal:
		err = r.bookings.MarkFinalFailed(ctx, ev.BookingID)
	case MilestoneTopup:
		err = r.topups.MarkFailed(ctx, ev.BookingTopupID)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMilestone, ev.Milestone)
	}
	if err != nil {
		r.logger.Errorw("record payment failure", "milestone", ev.Milestone, "booking_id", ev.BookingID, "error", err)
	}
	return nil
}
