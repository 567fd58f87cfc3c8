// internal/domain/models/donationcamp.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Donation camp statuses. Camps move scheduled -> ongoing -> completed
// lazily as reads and writes observe the clock, or to cancelled by an
// admin.
const (
	CampStatusScheduled = "scheduled"
	CampStatusOngoing   = "ongoing"
	CampStatusPaused    = "paused"
	CampStatusCompleted = "completed"
	CampStatusCancelled = "cancelled"
)

// Roster entry statuses.
const (
	CampRegStatusRegistered = "registered"
	CampRegStatusCheckedIn  = "checked_in"
	CampRegStatusDonated    = "donated"
	CampRegStatusCancelled  = "cancelled"
)

// CampRegistration is one donor's slot on a camp roster.
type CampRegistration struct {
	DonorID      primitive.ObjectID `bson:"donor_id" json:"donor_id"`
	RegisteredAt time.Time          `bson:"registered_at" json:"registered_at"`
	Status       string             `bson:"status" json:"status"`
	SlotTime     string             `bson:"slot_time,omitempty" json:"slot_time,omitempty"`
}

// OrganizerInfo identifies who is running the camp.
type OrganizerInfo struct {
	Name    string              `bson:"name" json:"name"`
	Contact string              `bson:"contact,omitempty" json:"contact,omitempty"`
	UserID  *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`
}

// CampLocation is the venue address. City drives list filters.
type CampLocation struct {
	Address string `bson:"address,omitempty" json:"address,omitempty"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`
	Pincode string `bson:"pincode,omitempty" json:"pincode,omitempty"`
}

// CampRequirements are the screening bounds announced for a camp.
// Zero values mean the default eligibility rules apply.
type CampRequirements struct {
	MinAge      int      `bson:"min_age,omitempty" json:"min_age,omitempty"`
	MaxAge      int      `bson:"max_age,omitempty" json:"max_age,omitempty"`
	MinWeightKG float64  `bson:"min_weight_kg,omitempty" json:"min_weight_kg,omitempty"`
	Documents   []string `bson:"documents,omitempty" json:"documents,omitempty"`
}

// DonationCamp is a scheduled blood-donation drive with an embedded
// roster of registered donors.
type DonationCamp struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	Name        string        `bson:"name" json:"name"`
	Description string        `bson:"description,omitempty" json:"description,omitempty"`
	Venue       string        `bson:"venue" json:"venue"`
	Location    CampLocation  `bson:"location,omitempty" json:"location,omitempty"`
	StartDate   time.Time     `bson:"start_date" json:"start_date"`
	EndDate     time.Time     `bson:"end_date" json:"end_date"`
	StartTime   string        `bson:"start_time,omitempty" json:"start_time,omitempty"`
	EndTime     string        `bson:"end_time,omitempty" json:"end_time,omitempty"`
	Organizer   OrganizerInfo `bson:"organizer" json:"organizer"`

	MaxParticipants  int                `bson:"max_participants" json:"max_participants"`
	RegisteredDonors []CampRegistration `bson:"registered_donors" json:"registered_donors"`

	Requirements        CampRequirements `bson:"requirements,omitempty" json:"requirements,omitempty"`
	TargetBloodGroups   []string         `bson:"target_blood_groups,omitempty" json:"target_blood_groups,omitempty"`
	SpecialInstructions string           `bson:"special_instructions,omitempty" json:"special_instructions,omitempty"`
	IsPublic            bool             `bson:"is_public" json:"is_public"`

	TotalDonations int `bson:"total_donations" json:"total_donations"`
	TotalUnits     int `bson:"total_units" json:"total_units"`

	Status    string    `bson:"status" json:"status"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// EffectiveStatusAt maps the stored status to what the clock says it
// should be. Cancelled and completed are terminal; paused is held
// until an admin resumes the camp.
func (c DonationCamp) EffectiveStatusAt(t time.Time) string {
	switch c.Status {
	case CampStatusCancelled, CampStatusCompleted, CampStatusPaused:
		return c.Status
	}
	if t.After(c.EndDate) {
		return CampStatusCompleted
	}
	if !t.Before(c.StartDate) {
		return CampStatusOngoing
	}
	return CampStatusScheduled
}

// SlotsLeft returns how many roster slots remain.
func (c DonationCamp) SlotsLeft() int {
	return c.MaxParticipants - len(c.RegisteredDonors)
}

// RegistrationOpenAt reports whether a donor may still register at t:
// the camp has not ended, is scheduled or ongoing, and has free slots.
func (c DonationCamp) RegistrationOpenAt(t time.Time) bool {
	if t.After(c.EndDate) {
		return false
	}
	s := c.EffectiveStatusAt(t)
	if s != CampStatusScheduled && s != CampStatusOngoing {
		return false
	}
	return c.SlotsLeft() > 0
}

// IsRegistered reports whether the donor is on the roster.
func (c DonationCamp) IsRegistered(donorID primitive.ObjectID) bool {
	for _, r := range c.RegisteredDonors {
		if r.DonorID == donorID {
			return true
		}
	}
	return false
}
