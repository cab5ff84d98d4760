package auth

import (
	"time"

	"github.com/famiglia/ops-console/internal/users"
)

// LoginRequest captures the credentials posted to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult carries the minted token for the cookie writer. The token never
// leaves the server in a response body.
type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	User        *users.UserDTO
}
