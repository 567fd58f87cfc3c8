// internal/app/system/normalize/normalize.go
//
// Package normalize trims and canonicalizes user input before it is
// validated or stored. Keep these helpers tiny; anything that can
// reject a value belongs in inputval.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a person's name, preserving case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Phone trims a phone number and strips interior spaces and dashes.
func Phone(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "-", "")
	return s
}

// BloodGroup trims and uppercases a blood group so "o+" matches "O+".
func BloodGroup(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Role lowercases and trims a role name.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Status lowercases and trims a status value.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Urgency lowercases and trims an urgency level.
func Urgency(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a free-form query value, preserving case.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
