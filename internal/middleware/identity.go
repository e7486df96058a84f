package middleware

// identity.go carries the authenticated caller through the echo context.
// Claims never touch the request body; handlers read them from here.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const identityKey = "identity"

// Identity is what the guard learned from a verified bearer token.
type Identity struct {
	UserID  uint64
	IsAdmin bool
	Purpose string
}

// SetIdentity stores id on the context.
func SetIdentity(c echo.Context, id Identity) {
	c.Set(identityKey, id)
}

// IdentityFrom returns the caller identity stored by JWTAuth.
func IdentityFrom(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityKey).(Identity)
	return id, ok
}

// userID is the rate-limit key component for the caller, "anon" before login.
func userID(c echo.Context) string {
	if id, ok := IdentityFrom(c); ok && id.UserID != 0 {
		return strconv.FormatUint(id.UserID, 10)
	}
	return "anon"
}
