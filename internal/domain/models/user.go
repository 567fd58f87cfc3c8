// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role values a user can hold. A user keeps a primary Role (what they
// registered as) plus a Roles set that grows via the add-role flow.
const (
	RoleDonor     = "donor"
	RoleRecipient = "recipient"
	RoleAdmin     = "admin"
)

// User represents donors, recipients, and admins.
//
// NOTE:
//   - Donor health/location data is not embedded on User.
//     Use the donors collection to find a user's donor profile.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Phone        string             `bson:"phone" json:"phone"`
	Department   string             `bson:"department" json:"department"`
	Year         string             `bson:"year,omitempty" json:"year,omitempty"`

	// Role is what the user registered as; Roles is the full set. Roles
	// always contains Role and may gain more via the add-role flow.
	Role  string   `bson:"role" json:"role"`
	Roles []string `bson:"roles" json:"roles"`

	IsEmailVerified bool       `bson:"is_email_verified" json:"is_email_verified"`
	IsActive        bool       `bson:"is_active" json:"is_active"`
	LastLogin       *time.Time `bson:"last_login,omitempty" json:"last_login,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasRole reports whether the user's role set contains role.
func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
