package bookings

import (
	"testing"
	"time"
)

func d(day int) time.Time {
	return time.Date(2025, 8, day, 0, 0, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name             string
		exStart, exEnd   time.Time
		reqStart, reqEnd time.Time
		want             bool
	}{
		{"straddles start", d(15), d(17), d(16), d(18), true},
		{"straddles end", d(16), d(18), d(15), d(17), true},
		{"contained", d(15), d(20), d(16), d(17), true},
		{"containing", d(16), d(17), d(15), d(20), true},
		{"identical", d(15), d(17), d(15), d(17), true},
		{"touching after", d(15), d(17), d(17), d(19), false},
		{"touching before", d(17), d(19), d(15), d(17), false},
		{"disjoint", d(10), d(12), d(15), d(17), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.exStart, tt.exEnd, tt.reqStart, tt.reqEnd); got != tt.want {
				t.Errorf("Overlaps(%v-%v vs %v-%v) = %v, want %v",
					tt.exStart.Day(), tt.exEnd.Day(), tt.reqStart.Day(), tt.reqEnd.Day(), got, tt.want)
			}
		})
	}
}

func TestEffectiveEnd(t *testing.T) {
	b := Booking{EndDate: d(17)}
	if got := b.EffectiveEnd(); !got.Equal(d(17)) {
		t.Errorf("no extension: effective end = %v, want %v", got, d(17))
	}

	ext := d(20)
	b.ExtensionTill = &ext
	if got := b.EffectiveEnd(); !got.Equal(d(20)) {
		t.Errorf("extended: effective end = %v, want %v", got, d(20))
	}

	// An extension that somehow precedes the booked end never shortens it.
	early := d(16)
	b.ExtensionTill = &early
	if got := b.EffectiveEnd(); !got.Equal(d(17)) {
		t.Errorf("earlier extension: effective end = %v, want %v", got, d(17))
	}
}

func TestBookingFilterLimit(t *testing.T) {
	if got := (BookingFilter{}).limit(); got != 20 {
		t.Errorf("default limit = %d, want 20", got)
	}
	if got := (BookingFilter{Limit: 500}).limit(); got != 20 {
		t.Errorf("oversized limit = %d, want clamped 20", got)
	}
	if got := (BookingFilter{Limit: 5}).limit(); got != 5 {
		t.Errorf("limit = %d, want 5", got)
	}
}
