// internal/domain/models/bloodrequest.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Blood request statuses.
const (
	RequestStatusPending    = "pending"
	RequestStatusMatched    = "matched"
	RequestStatusInProgress = "in_progress"
	RequestStatusCompleted  = "completed"
	RequestStatusCancelled  = "cancelled"
	RequestStatusExpired    = "expired"
)

// Urgency levels on a blood request.
const (
	UrgencyLow      = "low"
	UrgencyMedium   = "medium"
	UrgencyHigh     = "high"
	UrgencyCritical = "critical"
)

// RequestTTLDays is how long a pending request stays open before it is
// considered expired.
const RequestTTLDays = 7

// Matched donor response statuses.
const (
	MatchAccepted = "accepted"
	MatchDeclined = "declined"
)

// MatchedDonor records one donor's response to a request.
type MatchedDonor struct {
	DonorID     primitive.ObjectID `bson:"donor_id" json:"donor_id"`
	Status      string             `bson:"status" json:"status"`
	RespondedAt time.Time          `bson:"responded_at" json:"responded_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

// CompletedDonation records a verified unit transfer against a request.
type CompletedDonation struct {
	DonorID   primitive.ObjectID `bson:"donor_id" json:"donor_id"`
	Units     int                `bson:"units" json:"units"`
	DonatedAt time.Time          `bson:"donated_at" json:"donated_at"`
}

// PatientInfo describes who the blood is for.
type PatientInfo struct {
	Name     string `bson:"name" json:"name"`
	Age      int    `bson:"age,omitempty" json:"age,omitempty"`
	Gender   string `bson:"gender,omitempty" json:"gender,omitempty"`
	Relation string `bson:"relation,omitempty" json:"relation,omitempty"`
}

// HospitalInfo is where the donation is needed. City drives the donor
// fan-out match.
type HospitalInfo struct {
	Name          string `bson:"name" json:"name"`
	Address       string `bson:"address,omitempty" json:"address,omitempty"`
	City          string `bson:"city" json:"city"`
	State         string `bson:"state,omitempty" json:"state,omitempty"`
	Pincode       string `bson:"pincode,omitempty" json:"pincode,omitempty"`
	ContactPerson string `bson:"contact_person,omitempty" json:"contact_person,omitempty"`
}

// BloodRequest is a recipient's open request for blood, with the
// donor responses and completed donations embedded on the document.
type BloodRequest struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RequesterID primitive.ObjectID `bson:"requester_id" json:"requester_id"`

	BloodGroup    string       `bson:"blood_group" json:"blood_group"`
	UnitsRequired int          `bson:"units_required" json:"units_required"`
	Urgency       string       `bson:"urgency" json:"urgency"`
	Patient       PatientInfo  `bson:"patient" json:"patient"`
	Hospital      HospitalInfo `bson:"hospital" json:"hospital"`
	NeededBy      time.Time    `bson:"needed_by" json:"needed_by"`
	Description   string       `bson:"description,omitempty" json:"description,omitempty"`
	Notes         string       `bson:"notes,omitempty" json:"notes,omitempty"`
	ContactPhone  string       `bson:"contact_phone" json:"contact_phone"`

	Status             string              `bson:"status" json:"status"`
	MatchedDonors      []MatchedDonor      `bson:"matched_donors" json:"matched_donors"`
	CompletedDonations []CompletedDonation `bson:"completed_donations" json:"completed_donations"`
	TotalUnitsReceived int                 `bson:"total_units_received" json:"total_units_received"`

	IsVerified       bool                `bson:"is_verified" json:"is_verified"`
	VerifiedBy       *primitive.ObjectID `bson:"verified_by,omitempty" json:"verified_by,omitempty"`
	VerificationDate *time.Time          `bson:"verification_date,omitempty" json:"verification_date,omitempty"`

	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsExpiredAt reports whether a still-pending request has passed its
// deadline. Only pending requests expire; anything already matched or
// further along keeps its status.
func (r BloodRequest) IsExpiredAt(t time.Time) bool {
	return r.Status == RequestStatusPending && t.After(r.ExpiresAt)
}

// ResponseOf returns the donor's recorded response, if any.
func (r BloodRequest) ResponseOf(donorID primitive.ObjectID) *MatchedDonor {
	for i := range r.MatchedDonors {
		if r.MatchedDonors[i].DonorID == donorID {
			return &r.MatchedDonors[i]
		}
	}
	return nil
}

// AcceptedDonorIDs returns the donors who accepted this request.
func (r BloodRequest) AcceptedDonorIDs() []primitive.ObjectID {
	var ids []primitive.ObjectID
	for _, m := range r.MatchedDonors {
		if m.Status == MatchAccepted {
			ids = append(ids, m.DonorID)
		}
	}
	return ids
}

// UrgencyScore ranks urgency levels for sorting, critical highest.
func UrgencyScore(u string) int {
	switch u {
	case UrgencyCritical:
		return 4
	case UrgencyHigh:
		return 3
	case UrgencyMedium:
		return 2
	case UrgencyLow:
		return 1
	}
	return 0
}

// IsValidUrgency reports whether u is a recognized urgency level.
func IsValidUrgency(u string) bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}
