// internal/domain/models/donor.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Blood group values accepted on donor profiles and blood requests.
var BloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// BloodGroupUnknown marks a placeholder donor profile created when a
// user adds the donor role without completing their details.
const BloodGroupUnknown = "Unknown"

// IsValidBloodGroup reports whether g is one of the eight recognized groups.
func IsValidBloodGroup(g string) bool {
	for _, bg := range BloodGroups {
		if bg == g {
			return true
		}
	}
	return false
}

// Badge names awarded on verified donations.
const (
	BadgeFirstDonation = "first_donation"
	BadgeRegularDonor  = "regular_donor"
	BadgeLifesaver     = "lifesaver"
)

// Eligibility bounds. A donor must wait MinDonationGapDays between
// donations and be within the age window at donation time.
const (
	MinDonorAge        = 18
	MaxDonorAge        = 65
	MinDonorWeightKG   = 45
	MinDonationGapDays = 90
)

// MedicalConditions is the self-reported screening checklist. Any true
// flag disqualifies the donor; Other is informational only.
type MedicalConditions struct {
	Diabetes     bool   `bson:"diabetes" json:"diabetes"`
	Hypertension bool   `bson:"hypertension" json:"hypertension"`
	HeartDisease bool   `bson:"heart_disease" json:"heart_disease"`
	Hepatitis    bool   `bson:"hepatitis" json:"hepatitis"`
	HIV          bool   `bson:"hiv" json:"hiv"`
	Other        string `bson:"other,omitempty" json:"other,omitempty"`
}

// Any reports whether at least one disqualifying condition is set.
func (m MedicalConditions) Any() bool {
	return m.Diabetes || m.Hypertension || m.HeartDisease || m.Hepatitis || m.HIV
}

// DonorLocation is where the donor can be reached. City drives the
// request fan-out match.
type DonorLocation struct {
	Address string `bson:"address,omitempty" json:"address,omitempty"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`
	Pincode string `bson:"pincode,omitempty" json:"pincode,omitempty"`
}

// EmergencyContact is who to reach if something goes wrong at a drive.
type EmergencyContact struct {
	Name  string `bson:"name,omitempty" json:"name,omitempty"`
	Phone string `bson:"phone,omitempty" json:"phone,omitempty"`
}

// Badge is an earned achievement with the time it was awarded.
type Badge struct {
	Name     string    `bson:"name" json:"name"`
	EarnedAt time.Time `bson:"earned_at" json:"earned_at"`
}

// Donor is the donor-side profile for a user. One per user.
type Donor struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`

	BloodGroup        string            `bson:"blood_group" json:"blood_group"`
	DateOfBirth       time.Time         `bson:"date_of_birth" json:"date_of_birth"`
	WeightKG          float64           `bson:"weight_kg" json:"weight_kg"`
	HeightCM          float64           `bson:"height_cm,omitempty" json:"height_cm,omitempty"`
	LastDonationDate  *time.Time        `bson:"last_donation_date,omitempty" json:"last_donation_date,omitempty"`
	TotalDonations    int               `bson:"total_donations" json:"total_donations"`
	IsAvailable       bool              `bson:"is_available" json:"is_available"`
	AvailabilityNotes string            `bson:"availability_notes,omitempty" json:"availability_notes,omitempty"`
	Medical           MedicalConditions `bson:"medical_conditions" json:"medical_conditions"`
	Location          DonorLocation     `bson:"location" json:"location"`
	Emergency         EmergencyContact  `bson:"emergency_contact,omitempty" json:"emergency_contact,omitempty"`
	Badges            []Badge           `bson:"badges" json:"badges"`

	IsVerified       bool       `bson:"is_verified" json:"is_verified"`
	VerificationDate *time.Time `bson:"verification_date,omitempty" json:"verification_date,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// AgeAt returns the donor's age in whole years at t, by calendar date.
func (d Donor) AgeAt(t time.Time) int {
	age := t.Year() - d.DateOfBirth.Year()
	anniversary := d.DateOfBirth.AddDate(age, 0, 0)
	if anniversary.After(t) {
		age--
	}
	return age
}

// EligibilityAt evaluates the screening rules at t and returns every
// reason the donor fails, or an empty slice when eligible.
func (d Donor) EligibilityAt(t time.Time) []string {
	var reasons []string
	age := d.AgeAt(t)
	if age < MinDonorAge || age > MaxDonorAge {
		reasons = append(reasons, "age must be between 18 and 65")
	}
	if d.WeightKG < MinDonorWeightKG {
		reasons = append(reasons, "weight must be at least 45 kg")
	}
	if d.LastDonationDate != nil {
		next := d.LastDonationDate.AddDate(0, 0, MinDonationGapDays)
		if t.Before(next) {
			reasons = append(reasons, "must wait 90 days between donations")
		}
	}
	if d.Medical.Any() {
		reasons = append(reasons, "disqualifying medical condition reported")
	}
	return reasons
}

// IsEligibleAt reports whether the donor passes every screening rule at t.
func (d Donor) IsEligibleAt(t time.Time) bool {
	return len(d.EligibilityAt(t)) == 0
}

// NextEligibleDate returns when the donation-gap rule next permits a
// donation, or nil when no prior donation constrains it.
func (d Donor) NextEligibleDate() *time.Time {
	if d.LastDonationDate == nil {
		return nil
	}
	next := d.LastDonationDate.AddDate(0, 0, MinDonationGapDays)
	return &next
}

// BadgesForCount returns the badge names a donor with total verified
// donations ought to hold.
func BadgesForCount(total int) []string {
	var names []string
	if total >= 1 {
		names = append(names, BadgeFirstDonation)
	}
	if total >= 5 {
		names = append(names, BadgeRegularDonor)
	}
	if total >= 10 {
		names = append(names, BadgeLifesaver)
	}
	return names
}

// HasBadge reports whether the donor already earned the named badge.
func (d Donor) HasBadge(name string) bool {
	for _, b := range d.Badges {
		if b.Name == name {
			return true
		}
	}
	return false
}
