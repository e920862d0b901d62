package main

import (
	"net/http"

	"gaadi/internal/domain/users"
	"gaadi/internal/payments"
)

func (app *application) listTopupsHandler(w http.ResponseWriter, r *http.Request) {
	topups, err := app.store.Topups.ListTopups(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, topups)
}

// ApplyTopupPayload selects the extension product to apply.
type ApplyTopupPayload struct {
	TopupID int64 `json:"topup_id" validate:"required"`
}

// applyTopupHandler books an extension against an active rental. The
// returned payment reference is what the gateway callback must echo for the
// settlement to land on this ledger row.
func (app *application) applyTopupHandler(w http.ResponseWriter, r *http.Request) {
	booking, user, ok := app.bookingFromRequest(w, r)
	if !ok {
		return
	}

	if booking.UserID != user.ID {
		app.forbiddenResponse(w, r)
		return
	}

	var payload ApplyTopupPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	entry, err := app.store.Topups.Apply(r.Context(), booking.ID, payload.TopupID)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, map[string]any{
		"booking_topup":     entry,
		"payment_reference": payments.NewReference(),
	})
}

func (app *application) listBookingTopupsHandler(w http.ResponseWriter, r *http.Request) {
	booking, user, ok := app.bookingFromRequest(w, r)
	if !ok {
		return
	}

	if booking.UserID != user.ID && user.Role == users.RoleUser {
		app.forbiddenResponse(w, r)
		return
	}

	ledger, err := app.store.Topups.LedgerForBooking(r.Context(), booking.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, ledger)
}
