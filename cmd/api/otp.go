package main

import (
	"net/http"
	"time"

	"gaadi/internal/otp"
)

// generateOTPHandler issues the pickup code for a confirmed booking. The
// code goes back to the booking owner only; the parking operator never sees
// it until the renter reads it out at handover.
func (app *application) generateOTPHandler(w http.ResponseWriter, r *http.Request) {
	booking, user, ok := app.bookingFromRequest(w, r)
	if !ok {
		return
	}

	if booking.UserID != user.ID {
		app.forbiddenResponse(w, r)
		return
	}

	now := time.Now()
	expiry := otp.ExpiryFor(booking.PickupDate, now)

	// An unexpired, unverified code stays valid unless the pickup moved
	// enough to shift its expiry window.
	if booking.OTPExpiresAt != nil && !booking.OTPVerified &&
		booking.OTPExpiresAt.After(now) && !otp.NeedsRegeneration(*booking.OTPExpiresAt, expiry) {
		app.jsonResponse(w, http.StatusOK, map[string]any{
			"expires_at": booking.OTPExpiresAt,
			"reissued":   false,
		})
		return
	}

	code, hash, err := otp.Generate()
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Bookings.SetOTP(r.Context(), booking.ID, hash, expiry); err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, map[string]any{
		"code":       code,
		"expires_at": expiry,
		"reissued":   true,
	})
}

// VerifyOTPPayload carries the code the renter reads out at the parking.
type VerifyOTPPayload struct {
	Code string `json:"code" validate:"required,len=4,numeric"`
}

func (app *application) verifyOTPHandler(w http.ResponseWriter, r *http.Request) {
	booking, user, ok := app.bookingFromRequest(w, r)
	if !ok {
		return
	}

	var payload VerifyOTPPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	challenge, err := app.store.Bookings.OTPChallenge(r.Context(), booking.ID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if err := challenge.Verify(payload.Code, time.Now()); err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	// Verification and activation are one step: the keys change hands the
	// moment the code checks out.
	if err := app.store.Bookings.Activate(r.Context(), booking.ID, user.ID); err != nil {
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
