package payments

import (
	"context"
	"errors"
	"testing"

	"gaadi/internal/domain/bookings"
	"gaadi/internal/domain/topups"

	"go.uber.org/zap"
)

type fakeBookings struct {
	bookings.Store
	advanceID       int64
	finalID         int64
	advanceFailedID int64
	finalFailedID   int64
	ref             string
}

func (f *fakeBookings) MarkAdvancePaid(ctx context.Context, id int64, paymentRef string) error {
	f.advanceID = id
	f.ref = paymentRef
	return nil
}

func (f *fakeBookings) RecordFinalPayment(ctx context.Context, id int64, paymentRef string) error {
	f.finalID = id
	f.ref = paymentRef
	return nil
}

func (f *fakeBookings) MarkAdvanceFailed(ctx context.Context, id int64) error {
	f.advanceFailedID = id
	return nil
}

func (f *fakeBookings) MarkFinalFailed(ctx context.Context, id int64) error {
	f.finalFailedID = id
	return nil
}

type fakeTopups struct {
	topups.Store
	paidID   int64
	failedID int64
	ref      string
}

func (f *fakeTopups) MarkPaid(ctx context.Context, bookingTopupID int64, paymentRef string) error {
	f.paidID = bookingTopupID
	f.ref = paymentRef
	return nil
}

func (f *fakeTopups) MarkFailed(ctx context.Context, bookingTopupID int64) error {
	f.failedID = bookingTopupID
	return nil
}

func newTestReconciler() (*Reconciler, *fakeBookings, *fakeTopups) {
	b := &fakeBookings{}
	t := &fakeTopups{}
	return NewReconciler(b, t, zap.NewNop().Sugar()), b, t
}

func TestOnPaymentEventRoutesAdvance(t *testing.T) {
	r, b, _ := newTestReconciler()

	ev := Event{BookingID: 42, Milestone: MilestoneAdvance, Status: StatusCompleted, Reference: "ref-1"}
	if err := r.OnPaymentEvent(context.Background(), ev); err != nil {
		t.Fatalf("OnPaymentEvent: %v", err)
	}
	if b.advanceID != 42 || b.ref != "ref-1" {
		t.Errorf("advance not routed: id=%d ref=%q", b.advanceID, b.ref)
	}
	if b.finalID != 0 {
		t.Errorf("final payment recorded for an advance event")
	}
}

func TestOnPaymentEventRoutesFinal(t *testing.T) {
	r, b, _ := newTestReconciler()

	ev := Event{BookingID: 7, Milestone: MilestoneFinal, Status: StatusCompleted, Reference: "ref-2"}
	if err := r.OnPaymentEvent(context.Background(), ev); err != nil {
		t.Fatalf("OnPaymentEvent: %v", err)
	}
	if b.finalID != 7 {
		t.Errorf("final payment not routed, got id %d", b.finalID)
	}
}

func TestOnPaymentEventRoutesTopup(t *testing.T) {
	r, _, tp := newTestReconciler()

	ev := Event{BookingID: 7, BookingTopupID: 99, Milestone: MilestoneTopup, Status: StatusCompleted, Reference: "ref-3"}
	if err := r.OnPaymentEvent(context.Background(), ev); err != nil {
		t.Fatalf("OnPaymentEvent: %v", err)
	}
	if tp.paidID != 99 {
		t.Errorf("topup settlement routed to id %d, want ledger row 99", tp.paidID)
	}
}

func TestOnPaymentEventRecordsFailures(t *testing.T) {
	r, b, tp := newTestReconciler()

	ev := Event{BookingID: 42, Milestone: MilestoneAdvance, Status: StatusFailed, Reference: "ref-4"}
	if err := r.OnPaymentEvent(context.Background(), ev); err != nil {
		t.Fatalf("failed event should not error: %v", err)
	}
	if b.advanceFailedID != 42 {
		t.Errorf("advance failure flagged on id %d, want 42", b.advanceFailedID)
	}
	if b.advanceID != 0 || tp.paidID != 0 {
		t.Errorf("failed event must not settle anything")
	}

	ev = Event{BookingID: 42, Milestone: MilestoneFinal, Status: StatusFailed}
	if err := r.OnPaymentEvent(context.Background(), ev); err != nil {
		t.Fatalf("failed final event: %v", err)
	}
	if b.finalFailedID != 42 {
		t.Errorf("final failure flagged on id %d, want 42", b.finalFailedID)
	}

	ev = Event{BookingTopupID: 9, Milestone: MilestoneTopup, Status: StatusFailed}
	if err := r.OnPaymentEvent(context.Background(), ev); err != nil {
		t.Fatalf("failed topup event: %v", err)
	}
	if tp.failedID != 9 {
		t.Errorf("topup failure flagged on ledger row %d, want 9", tp.failedID)
	}
}

func TestOnPaymentEventMintsMissingReference(t *testing.T) {
	r, b, _ := newTestReconciler()

	ev := Event{BookingID: 42, Milestone: MilestoneAdvance, Status: StatusCompleted}
	if err := r.OnPaymentEvent(context.Background(), ev); err != nil {
		t.Fatalf("OnPaymentEvent: %v", err)
	}
	if b.ref == "" {
		t.Error("a reference should be minted when the gateway omits one")
	}
}

func TestOnPaymentEventRejectsUnknowns(t *testing.T) {
	r, _, _ := newTestReconciler()

	err := r.OnPaymentEvent(context.Background(), Event{Milestone: "refund", Status: StatusCompleted})
	if !errors.Is(err, ErrUnknownMilestone) {
		t.Errorf("unknown milestone: got %v", err)
	}

	err = r.OnPaymentEvent(context.Background(), Event{Milestone: MilestoneAdvance, Status: "settled"})
	if !errors.Is(err, ErrUnknownStatus) {
		t.Errorf("unknown status: got %v", err)
	}
}

func TestNewReferenceUnique(t *testing.T) {
	a, b := NewReference(), NewReference()
	if a == "" || a == b {
		t.Errorf("references must be unique and non-empty: %q %q", a, b)
	}
}
