package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"gaadi/internal/domain/bookings"
	"gaadi/internal/domain/users"
	"gaadi/internal/mailer"
	"gaadi/internal/notifications"
	"gaadi/internal/pricing"

	"github.com/go-chi/chi/v5"
)

// CreateBookingPayload represents the JSON payload to book a car.
type CreateBookingPayload struct {
	CarID            int64           `json:"car_id" validate:"required"`
	PickupParkingID  int64           `json:"pickup_parking_id" validate:"required"`
	DropoffParkingID int64           `json:"dropoff_parking_id" validate:"required"`
	StartDate        time.Time       `json:"start_date" validate:"required"`
	EndDate          time.Time       `json:"end_date" validate:"required,gtfield=StartDate"`
	PickupDate       *time.Time      `json:"pickup_date,omitempty"`
	DeliveryType     string          `json:"delivery_type" validate:"required,oneof=pickup delivery"`
	DeliveryAddress  string          `json:"delivery_address" validate:"omitempty,max=255"`
	ContactPhone     string          `json:"contact_phone" validate:"omitempty,nepaliphone"`
	CouponCode       string          `json:"coupon_code" validate:"omitempty,max=30"`
	Tools            []bookings.Tool `json:"tools" validate:"omitempty,dive"`
}

func (app *application) createBookingHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		app.unauthorizedErrorResponse(w, r, errors.New("check Bearer token"))
		return
	}

	var payload CreateBookingPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if payload.DeliveryType == string(bookings.DeliveryHome) {
		if payload.DeliveryAddress == "" {
			app.badRequestResponse(w, r, errors.New("delivery_address is required for home delivery"))
			return
		}
		if payload.ContactPhone == "" {
			app.badRequestResponse(w, r, errors.New("contact_phone is required for home delivery"))
			return
		}
	}

	ctx := r.Context()

	car, err := app.store.Cars.GetByID(ctx, payload.CarID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	pickupParking, err := app.store.Parkings.GetByID(ctx, payload.PickupParkingID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}
	if _, err := app.store.Parkings.GetByID(ctx, payload.DropoffParkingID); err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	days := pricing.RentalDays(payload.StartDate, payload.EndDate)
	if days < 1 {
		app.badRequestResponse(w, r, errors.New("end_date must be after start_date"))
		return
	}

	deliveryCharges := 0
	if payload.DeliveryType == string(bookings.DeliveryHome) {
		deliveryCharges = pickupParking.DeliveryCharge
	}

	basePrice := pricing.PerDayPrice(car.Price, car.DiscountPrice) * days

	// Coupon discounts apply to the rental charge only, never to insurance
	// or delivery.
	var couponID *int64
	discountAmount := 0
	if payload.CouponCode != "" {
		coupon, err := app.store.Coupons.GetByCode(ctx, payload.CouponCode)
		if err != nil {
			app.domainErrorResponse(w, r, err)
			return
		}
		priorUses, err := app.store.Coupons.CountUserRedemptions(ctx, coupon.ID, user.ID)
		if err != nil {
			app.internalServerError(w, r, err)
			return
		}
		discountAmount, err = coupon.Validate(basePrice, priorUses, time.Now())
		if err != nil {
			app.domainErrorResponse(w, r, err)
			return
		}
		couponID = &coupon.ID
	}

	breakdown := pricing.Compute(pricing.Input{
		ListPrice:       car.Price,
		DiscountPrice:   car.DiscountPrice,
		Days:            days,
		InsuranceAmount: car.InsuranceAmount,
		DeliveryCharges: deliveryCharges,
		DiscountAmount:  discountAmount,
	})

	pickupDate := payload.StartDate
	if payload.PickupDate != nil {
		pickupDate = *payload.PickupDate
	}

	var deliveryAddress *string
	if payload.DeliveryAddress != "" {
		deliveryAddress = &payload.DeliveryAddress
	}
	var contactPhone *string
	if payload.ContactPhone != "" {
		contactPhone = &payload.ContactPhone
	}

	booking := &bookings.Booking{
		UserID:           user.ID,
		CarID:            car.ID,
		PickupParkingID:  payload.PickupParkingID,
		DropoffParkingID: payload.DropoffParkingID,
		StartDate:        payload.StartDate,
		EndDate:          payload.EndDate,
		PickupDate:       pickupDate,
		BasePrice:        breakdown.BasePrice,
		InsuranceAmount:  breakdown.InsuranceAmount,
		DeliveryCharges:  breakdown.DeliveryCharges,
		DiscountAmount:   breakdown.DiscountAmount,
		CouponID:         couponID,
		TotalPrice:       breakdown.TotalPrice,
		AdvanceAmount:    breakdown.AdvanceAmount,
		RemainingAmount:  breakdown.RemainingAmount,
		DeliveryType:     bookings.DeliveryType(payload.DeliveryType),
		DeliveryAddress:  deliveryAddress,
		ContactPhone:     contactPhone,
		Tools:            payload.Tools,
	}

	if err := app.store.Bookings.Create(ctx, booking); err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.notifyBooking(r, user.ID, notifications.BookingCreated, booking.ReferenceCode)

	app.jsonResponse(w, http.StatusCreated, booking)
}

func (app *application) getBookingHandler(w http.ResponseWriter, r *http.Request) {
	booking, user, ok := app.bookingFromRequest(w, r)
	if !ok {
		return
	}

	if booking.UserID != user.ID && user.Role == users.RoleUser {
		app.forbiddenResponse(w, r)
		return
	}

	app.jsonResponse(w, http.StatusOK, booking)
}

func (app *application) listMyBookingsHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		app.unauthorizedErrorResponse(w, r, errors.New("unauthorized request"))
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	var status *bookings.Status
	if s := q.Get("status"); s != "" {
		st := bookings.Status(s)
		if !st.IsValid() {
			app.badRequestResponse(w, r, fmt.Errorf("unknown status %q", s))
			return
		}
		status = &st
	}

	filter := bookings.BookingFilter{
		Status: status,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}

	list, err := app.store.Bookings.ListByUser(r.Context(), user.ID, filter)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, list)
}

func (app *application) cancelBookingHandler(w http.ResponseWriter, r *http.Request) {
	booking, user, ok := app.bookingFromRequest(w, r)
	if !ok {
		return
	}

	isAdmin := user.Role == users.RoleAdmin
	if booking.UserID != user.ID && !isAdmin {
		app.forbiddenResponse(w, r)
		return
	}

	if err := app.store.Bookings.Cancel(r.Context(), booking.ID, isAdmin); err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.notifyBooking(r, booking.UserID, notifications.BookingCancelled, booking.ReferenceCode)

	w.WriteHeader(http.StatusNoContent)
}

// ReschedulePayload represents the JSON payload to move a booking window.
type ReschedulePayload struct {
	StartDate  time.Time  `json:"start_date" validate:"required"`
	EndDate    time.Time  `json:"end_date" validate:"required,gtfield=StartDate"`
	PickupDate *time.Time `json:"pickup_date,omitempty"`
}

func (app *application) rescheduleBookingHandler(w http.ResponseWriter, r *http.Request) {
	booking, user, ok := app.bookingFromRequest(w, r)
	if !ok {
		return
	}

	if booking.UserID != user.ID && user.Role != users.RoleAdmin {
		app.forbiddenResponse(w, r)
		return
	}

	var payload ReschedulePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	pickupDate := payload.StartDate
	if payload.PickupDate != nil {
		pickupDate = *payload.PickupDate
	}

	err := app.store.Bookings.Reschedule(r.Context(), booking.ID, payload.StartDate, payload.EndDate, pickupDate)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	updated, err := app.store.Bookings.GetByID(r.Context(), booking.ID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, updated)
}

func (app *application) userConfirmBookingHandler(w http.ResponseWriter, r *http.Request) {
	booking, user, ok := app.bookingFromRequest(w, r)
	if !ok {
		return
	}

	if booking.UserID != user.ID {
		app.forbiddenResponse(w, r)
		return
	}

	if err := app.store.Bookings.SetUserConfirmed(r.Context(), booking.ID); err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ApprovalPayload carries the PIC's comments on a confirm or deny decision.
type ApprovalPayload struct {
	Comments string `json:"comments" validate:"omitempty,max=500"`
}

func (app *application) confirmBookingHandler(w http.ResponseWriter, r *http.Request) {
	booking, user, ok := app.bookingFromRequest(w, r)
	if !ok {
		return
	}

	var payload ApprovalPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Bookings.Confirm(r.Context(), booking.ID, user.ID, payload.Comments); err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.notifyBooking(r, booking.UserID, notifications.BookingConfirmed, booking.ReferenceCode)
	app.emailBookingUpdate(r, booking, mailer.BookingConfirmedTemplate, "")

	w.WriteHeader(http.StatusNoContent)
}

func (app *application) denyBookingHandler(w http.ResponseWriter, r *http.Request) {
	booking, user, ok := app.bookingFromRequest(w, r)
	if !ok {
		return
	}

	var payload ApprovalPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Bookings.Deny(r.Context(), booking.ID, user.ID, payload.Comments); err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.notifyBooking(r, booking.UserID, notifications.BookingDenied, booking.ReferenceCode)
	app.emailBookingUpdate(r, booking, mailer.BookingDeniedTemplate, payload.Comments)

	w.WriteHeader(http.StatusNoContent)
}

func (app *application) completeBookingHandler(w http.ResponseWriter, r *http.Request) {
	booking, _, ok := app.bookingFromRequest(w, r)
	if !ok {
		return
	}

	if err := app.store.Bookings.Complete(r.Context(), booking.ID); err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.notifyBooking(r, booking.UserID, notifications.BookingCompleted, booking.ReferenceCode)
	app.emailBookingUpdate(r, booking, mailer.BookingCompletedTemplate, "")

	w.WriteHeader(http.StatusNoContent)
}

func (app *application) carAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	carID, err := strconv.ParseInt(chi.URLParam(r, "carID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid carID: %w", err))
		return
	}

	q := r.URL.Query()
	start, err := time.Parse(time.RFC3339, q.Get("start"))
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid start: %w", err))
		return
	}
	end, err := time.Parse(time.RFC3339, q.Get("end"))
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid end: %w", err))
		return
	}
	if !start.Before(end) {
		app.badRequestResponse(w, r, errors.New("start must be before end"))
		return
	}

	available, err := app.store.Bookings.IsAvailable(r.Context(), carID, start, end)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]bool{"available": available})
}

// bookingFromRequest loads the booking addressed by the URL and the caller,
// answering the error responses itself. ok=false means a response was sent.
func (app *application) bookingFromRequest(w http.ResponseWriter, r *http.Request) (*bookings.Booking, *users.User, bool) {
	user := getUserFromContext(r)
	if user == nil {
		app.unauthorizedErrorResponse(w, r, errors.New("check Bearer token"))
		return nil, nil, false
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "bookingID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid bookingID: %w", err))
		return nil, nil, false
	}

	booking, err := app.store.Bookings.GetByID(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return nil, nil, false
	}

	return booking, user, true
}

func (app *application) notifyBooking(r *http.Request, userID int64, event notifications.BookingEvent, reference string) {
	if err := notifications.SendBookingNotification(r.Context(), app.push, app.store.PushTokens, userID, event, reference); err != nil {
		app.logger.Warnw("push notification failed", "event", event, "reference", reference, "error", err)
	}
}

func (app *application) emailBookingUpdate(r *http.Request, booking *bookings.Booking, template, reason string) {
	user, err := app.store.Users.GetByID(r.Context(), booking.UserID)
	if err != nil {
		app.logger.Warnw("email skipped, user lookup failed", "booking_id", booking.ID, "error", err)
		return
	}

	car, err := app.store.Cars.GetByID(r.Context(), booking.CarID)
	if err != nil {
		app.logger.Warnw("email skipped, car lookup failed", "booking_id", booking.ID, "error", err)
		return
	}

	data := map[string]any{
		"Username":      user.FirstName,
		"Reference":     booking.ReferenceCode,
		"CarName":       car.Name,
		"PickupDate":    booking.PickupDate.Format("Mon, 2 Jan 2006 3:04 PM"),
		"EndDate":       booking.EffectiveEnd().Format("Mon, 2 Jan 2006"),
		"AdvanceAmount": booking.AdvanceAmount,
		"FinalAmount":   booking.RemainingAmount,
		"TotalAmount":   booking.TotalPrice,
		"Reason":        reason,
	}

	status, err := app.mailer.Send(template, user.FirstName, user.Email, data)
	if err != nil {
		app.logger.Errorw("error sending booking email", "booking_id", booking.ID, "error", err)
		return
	}
	app.logger.Infow("booking email sent", "booking_id", booking.ID, "status_code", status)
}
