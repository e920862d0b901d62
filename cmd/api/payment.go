package main

import (
	"net/http"

	"gaadi/internal/notifications"
	"gaadi/internal/payments"
)

// paymentWebhookHandler receives normalized gateway callbacks. The gateway
// retries on non-2xx, so validation failures return 400 while transient
// engine errors return 500 and let the retry do its job.
func (app *application) paymentWebhookHandler(w http.ResponseWriter, r *http.Request) {
	var event payments.Event
	if err := readJSON(w, r, &event); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.reconciler.OnPaymentEvent(r.Context(), event); err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	if event.Status == payments.StatusCompleted && event.Milestone == payments.MilestoneTopup && event.BookingID != 0 {
		if booking, err := app.store.Bookings.GetByID(r.Context(), event.BookingID); err == nil {
			app.notifyBooking(r, booking.UserID, notifications.BookingExtended, booking.ReferenceCode)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
