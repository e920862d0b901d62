package pic

import (
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("verification not found")
	ErrFinalized = errors.New("verification already finalized")
	ErrNotOwner  = errors.New("verification belongs to another inspector")
)

type Stage string

const (
	StagePrePickup Stage = "pre_pickup"
	StageReturn    Stage = "return"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusRecheck  Status = "recheck"
)

// Finalized verifications are immutable; recheck sends the PIC back out to
// the vehicle, so it stays open.
func (s Status) Finalized() bool {
	return s == StatusApproved || s == StatusRejected
}

type Grade string

const (
	GradeExcellent Grade = "excellent"
	GradeGood      Grade = "good"
	GradeFair      Grade = "fair"
	GradePoor      Grade = "poor"
)

func (g Grade) IsValid() bool {
	switch g {
	case GradeExcellent, GradeGood, GradeFair, GradePoor:
		return true
	default:
		return false
	}
}

// Verification is one physical inspection of a car by the parking operator,
// at handover or at return.
type Verification struct {
	ID          int64 `json:"id"`
	CarID       int64 `json:"car_id"`
	ParkingID   int64 `json:"parking_id"`
	InspectorID int64 `json:"inspector_id"`
	Stage       Stage `json:"stage"`

	EngineCondition   Grade `json:"engine_condition"`
	BodyCondition     Grade `json:"body_condition"`
	InteriorCondition Grade `json:"interior_condition"`
	TireCondition     Grade `json:"tire_condition"`

	RCVerified        bool `json:"rc_verified"`
	InsuranceVerified bool `json:"insurance_verified"`
	PollutionVerified bool `json:"pollution_verified"`

	PicComments    *string  `json:"pic_comments,omitempty"`
	VendorComments *string  `json:"vendor_comments,omitempty"`
	Images         []string `json:"images,omitempty"`

	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
