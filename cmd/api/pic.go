package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gaadi/internal/domain/pic"

	"github.com/go-chi/chi/v5"
)

// VerificationPayload is the inspection sheet a PIC fills in at handover or
// return.
type VerificationPayload struct {
	CarID     int64  `json:"car_id" validate:"required"`
	ParkingID int64  `json:"parking_id" validate:"required"`
	Stage     string `json:"stage" validate:"required,oneof=pre_pickup return"`

	EngineCondition   string `json:"engine_condition" validate:"required,oneof=excellent good fair poor"`
	BodyCondition     string `json:"body_condition" validate:"required,oneof=excellent good fair poor"`
	InteriorCondition string `json:"interior_condition" validate:"required,oneof=excellent good fair poor"`
	TireCondition     string `json:"tire_condition" validate:"required,oneof=excellent good fair poor"`

	RCVerified        bool `json:"rc_verified"`
	InsuranceVerified bool `json:"insurance_verified"`
	PollutionVerified bool `json:"pollution_verified"`

	PicComments    string `json:"pic_comments" validate:"omitempty,max=500"`
	VendorComments string `json:"vendor_comments" validate:"omitempty,max=500"`
	Status         string `json:"status" validate:"omitempty,oneof=pending approved rejected recheck"`
}

func (p VerificationPayload) toModel(inspectorID int64) *pic.Verification {
	v := &pic.Verification{
		CarID:             p.CarID,
		ParkingID:         p.ParkingID,
		InspectorID:       inspectorID,
		Stage:             pic.Stage(p.Stage),
		EngineCondition:   pic.Grade(p.EngineCondition),
		BodyCondition:     pic.Grade(p.BodyCondition),
		InteriorCondition: pic.Grade(p.InteriorCondition),
		TireCondition:     pic.Grade(p.TireCondition),
		RCVerified:        p.RCVerified,
		InsuranceVerified: p.InsuranceVerified,
		PollutionVerified: p.PollutionVerified,
		Status:            pic.Status(p.Status),
	}
	if s := strings.TrimSpace(p.PicComments); s != "" {
		v.PicComments = &s
	}
	if s := strings.TrimSpace(p.VendorComments); s != "" {
		v.VendorComments = &s
	}
	return v
}

func (app *application) createVerificationHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		app.unauthorizedErrorResponse(w, r, errors.New("check Bearer token"))
		return
	}

	var payload VerificationPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := payload.toModel(user.ID)
	if err := app.store.Verifications.Create(r.Context(), v); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, v)
}

func (app *application) getVerificationHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "verificationID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid verificationID: %w", err))
		return
	}

	v, err := app.store.Verifications.GetByID(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, v)
}

// latestVerificationHandler returns the most recent inspection of a car for
// a stage. PICs check it before confirming or denying a booking, since the
// approval transition requires a matching verdict.
func (app *application) latestVerificationHandler(w http.ResponseWriter, r *http.Request) {
	carID, err := strconv.ParseInt(r.URL.Query().Get("car_id"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid car_id: %w", err))
		return
	}

	stage := pic.Stage(r.URL.Query().Get("stage"))
	if stage != pic.StagePrePickup && stage != pic.StageReturn {
		app.badRequestResponse(w, r, fmt.Errorf("unknown stage %q", stage))
		return
	}

	v, err := app.store.Verifications.GetLatest(r.Context(), carID, stage)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, v)
}

func (app *application) updateVerificationHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	if user == nil {
		app.unauthorizedErrorResponse(w, r, errors.New("check Bearer token"))
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "verificationID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid verificationID: %w", err))
		return
	}

	var payload VerificationPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := payload.toModel(user.ID)
	v.ID = id
	if v.Status == "" {
		v.Status = pic.StatusPending
	}

	if err := app.store.Verifications.Update(r.Context(), v, user.ID); err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	updated, err := app.store.Verifications.GetByID(r.Context(), id)
	if err != nil {
		app.domainErrorResponse(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, updated)
}
