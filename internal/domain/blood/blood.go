// internal/domain/blood/blood.go
//
// Package blood holds the ABO/Rh compatibility rules used to decide
// which donors can serve a request.
package blood

// compatibleRecipients maps a donor's group to the recipient groups it
// can serve.
var compatibleRecipients = map[string][]string{
	"O-":  {"O-", "O+", "A-", "A+", "B-", "B+", "AB-", "AB+"},
	"O+":  {"O+", "A+", "B+", "AB+"},
	"A-":  {"A-", "A+", "AB-", "AB+"},
	"A+":  {"A+", "AB+"},
	"B-":  {"B-", "B+", "AB-", "AB+"},
	"B+":  {"B+", "AB+"},
	"AB-": {"AB-", "AB+"},
	"AB+": {"AB+"},
}

// CanDonateTo reports whether blood from donorGroup is safe for
// recipientGroup. Unknown groups are never compatible.
func CanDonateTo(donorGroup, recipientGroup string) bool {
	for _, g := range compatibleRecipients[donorGroup] {
		if g == recipientGroup {
			return true
		}
	}
	return false
}

// CompatibleDonors returns the donor groups that can serve a recipient
// of the given group, or nil for an unknown group.
func CompatibleDonors(recipientGroup string) []string {
	var donors []string
	for _, dg := range orderedGroups {
		if CanDonateTo(dg, recipientGroup) {
			donors = append(donors, dg)
		}
	}
	return donors
}

// CompatibleRecipients returns the recipient groups a donor of the
// given group can serve, or nil for an unknown group.
func CompatibleRecipients(donorGroup string) []string {
	groups, ok := compatibleRecipients[donorGroup]
	if !ok {
		return nil
	}
	out := make([]string, len(groups))
	copy(out, groups)
	return out
}

// orderedGroups keeps CompatibleDonors output stable.
var orderedGroups = []string{"O-", "O+", "A-", "A+", "B-", "B+", "AB-", "AB+"}
