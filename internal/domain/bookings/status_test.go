package bookings

import "testing"

func TestCanTransitionHappyPath(t *testing.T) {
	path := []Status{StatusPending, StatusAdvancePaid, StatusConfirmed, StatusActive, StatusCompleted}
	for i := 0; i < len(path)-1; i++ {
		if !CanTransition(path[i], path[i+1]) {
			t.Errorf("%s -> %s should be legal", path[i], path[i+1])
		}
	}
}

func TestCanTransitionNoSkips(t *testing.T) {
	illegal := []struct{ from, to Status }{
		{StatusPending, StatusConfirmed},
		{StatusPending, StatusActive},
		{StatusPending, StatusCompleted},
		{StatusAdvancePaid, StatusActive},
		{StatusAdvancePaid, StatusCompleted},
		{StatusConfirmed, StatusCompleted},
		{StatusActive, StatusConfirmed}, // no going backwards
		{StatusConfirmed, StatusAdvancePaid},
	}
	for _, tt := range illegal {
		if CanTransition(tt.from, tt.to) {
			t.Errorf("%s -> %s must be illegal", tt.from, tt.to)
		}
	}
}

func TestCancelAndDenyReachableFromNonTerminal(t *testing.T) {
	for _, from := range []Status{StatusPending, StatusAdvancePaid, StatusConfirmed, StatusActive} {
		if !CanTransition(from, StatusCancelled) {
			t.Errorf("%s -> cancelled should be legal", from)
		}
		if !CanTransition(from, StatusDenied) {
			t.Errorf("%s -> denied should be legal", from)
		}
	}
}

func TestTerminalStatesAreFinal(t *testing.T) {
	terminals := []Status{StatusCompleted, StatusCancelled, StatusDenied}
	all := []Status{
		StatusPending, StatusAdvancePaid, StatusConfirmed, StatusActive,
		StatusCompleted, StatusCancelled, StatusDenied,
	}
	for _, from := range terminals {
		if !from.IsTerminal() {
			t.Errorf("%s should be terminal", from)
		}
		for _, to := range all {
			if CanTransition(from, to) {
				t.Errorf("terminal %s must not transition to %s", from, to)
			}
		}
	}
}

func TestPickupDecisionNeedsMatchingVerdict(t *testing.T) {
	tests := []struct {
		to      Status
		verdict string
		want    bool
	}{
		{StatusConfirmed, "approved", true},
		{StatusConfirmed, "rejected", false},
		{StatusConfirmed, "pending", false},
		{StatusConfirmed, "recheck", false},
		{StatusConfirmed, "", false}, // no inspection recorded at all
		{StatusDenied, "rejected", true},
		{StatusDenied, "approved", false},
		{StatusDenied, "pending", false},
		{StatusDenied, "", false},
		{StatusActive, "approved", false}, // only the approval pair is gated here
	}
	for _, tt := range tests {
		if got := pickupDecisionAllowed(tt.to, tt.verdict); got != tt.want {
			t.Errorf("pickupDecisionAllowed(%s, %q) = %v, want %v", tt.to, tt.verdict, got, tt.want)
		}
	}
}

func TestStatusValidity(t *testing.T) {
	for _, s := range []Status{
		StatusPending, StatusAdvancePaid, StatusConfirmed, StatusActive,
		StatusCompleted, StatusCancelled, StatusDenied,
	} {
		if !s.IsValid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Status("rescheduled").IsValid() {
		t.Error("rescheduled is not a primary status")
	}
}
