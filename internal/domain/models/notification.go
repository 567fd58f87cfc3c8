// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types.
const (
	NotifyBloodRequest      = "blood_request"
	NotifyDonorMatch        = "donor_match"
	NotifyDonationComplete  = "donation_complete"
	NotifyRequestCancelled  = "request_cancelled"
	NotifyCampAnnouncement  = "camp_announcement"
	NotifyCampRegistration  = "camp_registration"
	NotifyCampCancelled     = "camp_cancelled"
	NotifyClaimVerified     = "claim_verified"
	NotifyClaimRejected     = "claim_rejected"
	NotifyAdminAnnouncement = "admin_announcement"
	NotifySystemAlert       = "system_alert"
)

// Notification priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Notification is an in-app message for one user. Data carries
// type-specific references such as the request or camp the message is
// about.
type Notification struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`

	Type     string         `bson:"type" json:"type"`
	Title    string         `bson:"title" json:"title"`
	Message  string         `bson:"message" json:"message"`
	Priority string         `bson:"priority" json:"priority"`
	Data     map[string]any `bson:"data,omitempty" json:"data,omitempty"`

	IsRead bool       `bson:"is_read" json:"is_read"`
	ReadAt *time.Time `bson:"read_at,omitempty" json:"read_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
