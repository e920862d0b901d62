package pricing

import (
	"testing"
	"time"
)

func TestRentalDays(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2025, 8, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{"same day", day(15), day(15), 1},
		{"two days", day(15), day(16), 2},
		{"three days", day(15), day(17), 3},
		{"reversed range", day(17), day(15), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RentalDays(tt.start, tt.end); got != tt.want {
				t.Errorf("RentalDays() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestComputeInvariants(t *testing.T) {
	inputs := []Input{
		{ListPrice: 2000, Days: 2, InsuranceAmount: 500, DeliveryCharges: 100, DiscountAmount: 500},
		{ListPrice: 1500, DiscountPrice: 1200, Days: 3, InsuranceAmount: 300},
		{ListPrice: 999, Days: 1, DiscountAmount: 5000}, // discount larger than total
		{ListPrice: 701, Days: 1},                       // odd total
		{ListPrice: 0, Days: 5},
	}

	for _, in := range inputs {
		b := Compute(in)

		if b.TotalPrice != b.BasePrice+b.InsuranceAmount+b.DeliveryCharges-b.DiscountAmount {
			t.Errorf("total %d does not equal base %d + insurance %d + delivery %d - discount %d",
				b.TotalPrice, b.BasePrice, b.InsuranceAmount, b.DeliveryCharges, b.DiscountAmount)
		}
		if b.AdvanceAmount+b.RemainingAmount != b.TotalPrice {
			t.Errorf("advance %d + remaining %d != total %d", b.AdvanceAmount, b.RemainingAmount, b.TotalPrice)
		}
		if b.TotalPrice < 0 || b.DiscountAmount < 0 {
			t.Errorf("negative amounts in breakdown: %+v", b)
		}
		if b.DiscountAmount > b.TotalBeforeDiscount {
			t.Errorf("discount %d exceeds total before discount %d", b.DiscountAmount, b.TotalBeforeDiscount)
		}
	}
}

func TestComputeDocumentedExample(t *testing.T) {
	// ₹2000/day car, 2-day window priced as a single day by the catalog
	// anchor, insurance ₹500, delivery ₹100, 25% coupon capped at ₹1000.
	b := Compute(Input{
		ListPrice:       2000,
		Days:            1,
		InsuranceAmount: 500,
		DeliveryCharges: 100,
		DiscountAmount:  500,
	})

	if b.TotalBeforeDiscount != 2600 {
		t.Errorf("total before discount = %d, want 2600", b.TotalBeforeDiscount)
	}
	if b.TotalPrice != 2100 {
		t.Errorf("total = %d, want 2100", b.TotalPrice)
	}
	if b.AdvanceAmount != 1050 || b.RemainingAmount != 1050 {
		t.Errorf("split = %d/%d, want 1050/1050", b.AdvanceAmount, b.RemainingAmount)
	}
}

func TestComputeIdempotent(t *testing.T) {
	in := Input{ListPrice: 1800, DiscountPrice: 1600, Days: 4, InsuranceAmount: 450, DeliveryCharges: 150, DiscountAmount: 320}
	first := Compute(in)
	second := Compute(in)
	if first != second {
		t.Errorf("Compute is not deterministic: %+v vs %+v", first, second)
	}
}

func TestComputeDiscountedPriceWins(t *testing.T) {
	b := Compute(Input{ListPrice: 2000, DiscountPrice: 1500, Days: 2})
	if b.BasePrice != 3000 {
		t.Errorf("base price = %d, want discounted 1500 x 2 = 3000", b.BasePrice)
	}
}
