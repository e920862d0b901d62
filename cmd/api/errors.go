package main

import (
	"errors"
	"net/http"

	"gaadi/internal/domain/bookings"
	"gaadi/internal/domain/cars"
	"gaadi/internal/domain/coupons"
	"gaadi/internal/domain/parkings"
	"gaadi/internal/domain/pic"
	"gaadi/internal/domain/topups"
	"gaadi/internal/domain/users"
	"gaadi/internal/otp"
)

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusInternalServerError, "the server encountered a problem")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusBadRequest, err.Error())
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("not found", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusNotFound, "not found")
}

func (app *application) conflictResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("conflict", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusConflict, err.Error())
}

func (app *application) unprocessableEntityResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unprocessable", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
}

func (app *application) unauthorizedErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) unauthorizedBasicErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized basic", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)
	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) forbiddenResponse(w http.ResponseWriter, r *http.Request) {
	app.logger.Warnw("forbidden", "method", r.Method, "path", r.URL.Path)

	writeJSONError(w, http.StatusForbidden, "forbidden")
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter string) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path)

	w.Header().Set("Retry-After", retryAfter)
	writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, retry after: "+retryAfter)
}

// domainErrorResponse maps engine sentinels onto HTTP responses so handlers
// stay thin. Anything unrecognized falls through as a 500.
func (app *application) domainErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, bookings.ErrNotFound),
		errors.Is(err, cars.ErrNotFound),
		errors.Is(err, parkings.ErrNotFound),
		errors.Is(err, users.ErrNotFound),
		errors.Is(err, coupons.ErrNotFound),
		errors.Is(err, pic.ErrNotFound),
		errors.Is(err, topups.ErrNotFound),
		errors.Is(err, topups.ErrLedgerNotFound),
		errors.Is(err, otp.ErrNotFound):
		app.notFoundResponse(w, r, err)

	case errors.Is(err, bookings.ErrUnavailable),
		errors.Is(err, bookings.ErrIllegalTransition),
		errors.Is(err, bookings.ErrStaleWrite),
		errors.Is(err, bookings.ErrHandedOver),
		errors.Is(err, topups.ErrAlreadyPaid),
		errors.Is(err, pic.ErrFinalized):
		app.conflictResponse(w, r, err)

	case errors.Is(err, bookings.ErrRescheduleLimit),
		errors.Is(err, bookings.ErrFinalPaymentPending),
		errors.Is(err, bookings.ErrReturnInspectionPending),
		errors.Is(err, bookings.ErrPickupInspectionPending),
		errors.Is(err, topups.ErrBookingInactive):
		app.unprocessableEntityResponse(w, r, err)

	case errors.Is(err, coupons.ErrInactive),
		errors.Is(err, coupons.ErrExpired),
		errors.Is(err, coupons.ErrExhausted),
		errors.Is(err, coupons.ErrBelowMinimum),
		errors.Is(err, coupons.ErrPerUserLimit),
		errors.Is(err, otp.ErrMalformed),
		errors.Is(err, otp.ErrMismatch),
		errors.Is(err, otp.ErrAlreadyVerified):
		app.badRequestResponse(w, r, err)

	case errors.Is(err, otp.ErrExpired):
		app.logger.Warnw("otp expired", "method", r.Method, "path", r.URL.Path)
		writeJSONError(w, http.StatusGone, err.Error())

	case errors.Is(err, pic.ErrNotOwner):
		app.forbiddenResponse(w, r)

	default:
		app.internalServerError(w, r, err)
	}
}
