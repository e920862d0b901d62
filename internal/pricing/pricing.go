package pricing

import "time"

// Input carries everything the calculator needs for one booking quote.
// Amounts are whole rupees, the same unit the cars catalog stores.
type Input struct {
	ListPrice       int // catalog price per day
	DiscountPrice   int // discounted price per day, 0 when not set
	Days            int
	InsuranceAmount int
	DeliveryCharges int
	DiscountAmount  int // coupon discount, already computed by the coupon engine
}

// Breakdown is the binding price split persisted on the booking. It is
// computed once at creation and never recomputed for the same inputs.
type Breakdown struct {
	BasePrice           int `json:"base_price"`
	InsuranceAmount     int `json:"insurance_amount"`
	DeliveryCharges     int `json:"delivery_charges"`
	DiscountAmount      int `json:"discount_amount"`
	TotalBeforeDiscount int `json:"total_before_discount"`
	TotalPrice          int `json:"total_price"`
	AdvanceAmount       int `json:"advance_amount"`
	RemainingAmount     int `json:"remaining_amount"`
}

// PerDayPrice picks the discounted catalog price when one is set.
func PerDayPrice(listPrice, discountPrice int) int {
	if discountPrice > 0 {
		return discountPrice
	}
	return listPrice
}

// RentalDays returns the inclusive day count of a rental window. A booking
// from the 15th to the 17th spans three chargeable days. Non-positive ranges
// are rejected by the availability check before pricing runs.
func RentalDays(start, end time.Time) int {
	days := int(end.Sub(start).Hours()/24) + 1
	if days < 1 {
		return 0
	}
	return days
}

// Compute builds the billing breakdown. Pure and deterministic: extensions
// re-run it with identical inputs and must get identical output.
func Compute(in Input) Breakdown {
	basePrice := PerDayPrice(in.ListPrice, in.DiscountPrice) * in.Days

	totalBeforeDiscount := basePrice + in.InsuranceAmount + in.DeliveryCharges

	discount := in.DiscountAmount
	if discount < 0 {
		discount = 0
	}
	if discount > totalBeforeDiscount {
		discount = totalBeforeDiscount
	}

	total := totalBeforeDiscount - discount
	if total < 0 {
		total = 0
	}

	// Fixed 50/50 business rule: half up front, half on return. Odd totals
	// round the advance up so advance+remaining always equals total.
	advance := (total + 1) / 2

	return Breakdown{
		BasePrice:           basePrice,
		InsuranceAmount:     in.InsuranceAmount,
		DeliveryCharges:     in.DeliveryCharges,
		DiscountAmount:      discount,
		TotalBeforeDiscount: totalBeforeDiscount,
		TotalPrice:          total,
		AdvanceAmount:       advance,
		RemainingAmount:     total - advance,
	}
}
