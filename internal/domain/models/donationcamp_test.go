package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEffectiveStatusAt(t *testing.T) {
	now := time.Now()
	c := DonationCamp{
		Status:    CampStatusScheduled,
		StartDate: now.Add(24 * time.Hour),
		EndDate:   now.Add(48 * time.Hour),
	}
	assert.Equal(t, CampStatusScheduled, c.EffectiveStatusAt(now))
	assert.Equal(t, CampStatusOngoing, c.EffectiveStatusAt(now.Add(25*time.Hour)))
	assert.Equal(t, CampStatusCompleted, c.EffectiveStatusAt(now.Add(49*time.Hour)))

	c.Status = CampStatusCancelled
	assert.Equal(t, CampStatusCancelled, c.EffectiveStatusAt(now.Add(49*time.Hour)))
}

func TestRegistrationOpenAt(t *testing.T) {
	now := time.Now()
	c := DonationCamp{
		Status:          CampStatusScheduled,
		StartDate:       now.Add(-time.Hour),
		EndDate:         now.Add(time.Hour),
		MaxParticipants: 2,
	}
	assert.True(t, c.RegistrationOpenAt(now), "ongoing with free slots")

	c.RegisteredDonors = []CampRegistration{
		{DonorID: primitive.NewObjectID()},
		{DonorID: primitive.NewObjectID()},
	}
	assert.False(t, c.RegistrationOpenAt(now), "roster full")
	assert.Equal(t, 0, c.SlotsLeft())

	c.RegisteredDonors = nil
	assert.False(t, c.RegistrationOpenAt(now.Add(2*time.Hour)), "past end date")

	c.Status = CampStatusCancelled
	assert.False(t, c.RegistrationOpenAt(now))
}

func TestIsRegistered(t *testing.T) {
	id := primitive.NewObjectID()
	c := DonationCamp{RegisteredDonors: []CampRegistration{{DonorID: id}}}
	assert.True(t, c.IsRegistered(id))
	assert.False(t, c.IsRegistered(primitive.NewObjectID()))
}
