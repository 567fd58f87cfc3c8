// internal/app/system/inputval/validators.go
package inputval

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/openblood/donorhub/internal/domain/models"
)

// registerDomainRules wires the custom validate tags used by request
// payloads: bloodgroup, urgency, objectid, userrole.
func registerDomainRules(v *validator.Validate) {
	must := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	must("bloodgroup", func(fl validator.FieldLevel) bool {
		return IsValidBloodGroup(fl.Field().String())
	})
	must("urgency", func(fl validator.FieldLevel) bool {
		return models.IsValidUrgency(strings.ToLower(strings.TrimSpace(fl.Field().String())))
	})
	must("objectid", func(fl validator.FieldLevel) bool {
		return IsValidObjectID(fl.Field().String())
	})
	must("userrole", func(fl validator.FieldLevel) bool {
		switch strings.ToLower(strings.TrimSpace(fl.Field().String())) {
		case models.RoleDonor, models.RoleRecipient:
			return true
		}
		return false
	})
}

// IsValidBloodGroup reports whether s names one of the eight groups,
// after trimming and case-folding.
func IsValidBloodGroup(s string) bool {
	return models.IsValidBloodGroup(strings.ToUpper(strings.TrimSpace(s)))
}

// IsValidObjectID reports whether s is a 24-character hex Mongo ID.
func IsValidObjectID(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 24 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
