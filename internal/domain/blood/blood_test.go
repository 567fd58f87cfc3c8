package blood

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUniversalDonorAndRecipient(t *testing.T) {
	all := []string{"O-", "O+", "A-", "A+", "B-", "B+", "AB-", "AB+"}
	for _, g := range all {
		assert.True(t, CanDonateTo("O-", g), "O- should donate to %s", g)
		assert.True(t, CanDonateTo(g, "AB+"), "%s should donate to AB+", g)
	}
}

func TestRhNegativeNeverReceivesPositive(t *testing.T) {
	for _, donor := range []string{"O+", "A+", "B+", "AB+"} {
		for _, recipient := range []string{"O-", "A-", "B-", "AB-"} {
			assert.False(t, CanDonateTo(donor, recipient), "%s -> %s", donor, recipient)
		}
	}
}

func TestCanDonateToSelf(t *testing.T) {
	for _, g := range []string{"O-", "O+", "A-", "A+", "B-", "B+", "AB-", "AB+"} {
		assert.True(t, CanDonateTo(g, g))
	}
}

func TestCompatibleDonors(t *testing.T) {
	assert.Equal(t, []string{"O-"}, CompatibleDonors("O-"))
	assert.Equal(t, []string{"O-", "O+", "A-", "A+"}, CompatibleDonors("A+"))
	assert.Equal(t, []string{"O-", "O+", "A-", "A+", "B-", "B+", "AB-", "AB+"}, CompatibleDonors("AB+"))
	assert.Nil(t, CompatibleDonors("C+"))
}

func TestCompatibleRecipientsCopies(t *testing.T) {
	got := CompatibleRecipients("A-")
	assert.Equal(t, []string{"A-", "A+", "AB-", "AB+"}, got)
	got[0] = "X"
	assert.Equal(t, []string{"A-", "A+", "AB-", "AB+"}, CompatibleRecipients("A-"))
}

func TestUnknownGroups(t *testing.T) {
	assert.False(t, CanDonateTo("X", "A+"))
	assert.False(t, CanDonateTo("A+", "X"))
	assert.Nil(t, CompatibleRecipients("X"))
}
