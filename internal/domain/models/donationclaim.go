// internal/domain/models/donationclaim.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Donation claim statuses.
const (
	ClaimStatusPending  = "pending"
	ClaimStatusVerified = "verified"
	ClaimStatusRejected = "rejected"
)

// DonationClaim is a donor's self-reported donation awaiting admin
// verification. Verified claims update the donor's record and badges.
type DonationClaim struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DonorID primitive.ObjectID `bson:"donor_id" json:"donor_id"`
	UserID  primitive.ObjectID `bson:"user_id" json:"user_id"`

	DonatedAt time.Time           `bson:"donated_at" json:"donated_at"`
	Location  string              `bson:"location" json:"location"`
	Units     int                 `bson:"units" json:"units"`
	Notes     string              `bson:"notes,omitempty" json:"notes,omitempty"`
	RequestID *primitive.ObjectID `bson:"request_id,omitempty" json:"request_id,omitempty"`
	CampID    *primitive.ObjectID `bson:"camp_id,omitempty" json:"camp_id,omitempty"`

	Status          string              `bson:"status" json:"status"`
	ReviewedBy      *primitive.ObjectID `bson:"reviewed_by,omitempty" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time          `bson:"reviewed_at,omitempty" json:"reviewed_at,omitempty"`
	RejectionReason string              `bson:"rejection_reason,omitempty" json:"rejection_reason,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
