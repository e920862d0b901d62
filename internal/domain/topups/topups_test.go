package topups

import (
	"testing"
	"time"
)

func d(day int) time.Time {
	return time.Date(2025, 8, day, 0, 0, 0, 0, time.UTC)
}

func TestEffectiveEndNoLedger(t *testing.T) {
	if got := EffectiveEnd(d(17), nil); !got.Equal(d(17)) {
		t.Errorf("EffectiveEnd = %v, want booked end %v", got, d(17))
	}
}

func TestEffectiveEndIgnoresUnpaid(t *testing.T) {
	ledger := []BookingTopup{
		{NewEndDate: d(20), PaymentStatus: PaymentPending},
		{NewEndDate: d(22), PaymentStatus: PaymentFailed},
	}
	if got := EffectiveEnd(d(17), ledger); !got.Equal(d(17)) {
		t.Errorf("unpaid topups must not extend: got %v, want %v", got, d(17))
	}
}

func TestEffectiveEndStacks(t *testing.T) {
	ledger := []BookingTopup{
		{OriginalEndDate: d(17), NewEndDate: d(19), PaymentStatus: PaymentCompleted},
		{OriginalEndDate: d(19), NewEndDate: d(22), PaymentStatus: PaymentCompleted},
		{OriginalEndDate: d(22), NewEndDate: d(23), PaymentStatus: PaymentPending},
	}
	if got := EffectiveEnd(d(17), ledger); !got.Equal(d(22)) {
		t.Errorf("EffectiveEnd = %v, want latest paid %v", got, d(22))
	}
}

func TestEffectiveEndUnordered(t *testing.T) {
	// Settlement callbacks can arrive out of order; the latest date still wins.
	ledger := []BookingTopup{
		{NewEndDate: d(22), PaymentStatus: PaymentCompleted},
		{NewEndDate: d(19), PaymentStatus: PaymentCompleted},
	}
	if got := EffectiveEnd(d(17), ledger); !got.Equal(d(22)) {
		t.Errorf("EffectiveEnd = %v, want %v", got, d(22))
	}
}
