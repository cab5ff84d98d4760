package auth

import (
	"strconv"

	"github.com/famiglia/ops-console/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID int64
	Email  string
	Role   enums.UserRole
	JTI    string
}

// AccessTokenClaims represents the typed JWT stored in the admin cookie.
// The user id travels in the registered "sub" claim.
type AccessTokenClaims struct {
	Email string         `json:"email"`
	Role  enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// UserID decodes the numeric subject.
func (c *AccessTokenClaims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}
