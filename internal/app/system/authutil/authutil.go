// internal/app/system/authutil/authutil.go
//
// Password hashing helpers shared by the auth flows. bcrypt with the
// default cost is plenty for a login path that is rate limited.
package authutil

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong is returned when the password exceeds bcrypt's
// 72-byte input limit.
var ErrPasswordTooLong = errors.New("password too long")

// MinPasswordLen is the shortest password accepted at registration and
// password change.
const MinPasswordLen = 6

// HashPassword returns a bcrypt hash of pw.
func HashPassword(pw string) (string, error) {
	if len(pw) > 72 {
		return "", ErrPasswordTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether pw matches the stored bcrypt hash.
func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
