package gateway

import (
	"context"
	"errors"
	"fmt"
)

// ErrRateLimited is returned when the gateway answers HTTP 429. The caller
// is expected to back off for its full cooldown window.
var ErrRateLimited = errors.New("gateway rate limited")

// ErrUnavailable is returned for transport failures and undecodable
// responses. It carries no server message; retry is at the user's hand.
var ErrUnavailable = errors.New("gateway unavailable")

// StatusError is a non-2xx, non-429 gateway response. Message is the
// server-supplied human-readable string when the body could be decoded.
type StatusError struct {
	Status  int
	Message string
}

// Error describes the error operation and its observable behavior.
func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway status %d", e.Status)
	}
	return fmt.Sprintf("gateway status %d: %s", e.Status, e.Message)
}

// EmailCheck is the gateway's answer to a check-email call. It drives the
// entire routing decision after the entry screen.
type EmailCheck struct {
	Exists            bool `json:"exists"`
	AllowPortalAccess bool `json:"allow_portal_access"`
	HasPassword       bool `json:"has_password"`
	EmailVerified     bool `json:"email_verified"`
}

// User is the optional account payload returned alongside a token.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// AuthResult is returned by a successful credential exchange (password
// login or OTP verification). Token is the opaque bearer credential.
type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

// SignupRequest carries the fields for account creation. The gateway
// sends the first OTP itself as part of a successful signup.
type SignupRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
}

// SignupResult describes the signup operation outcome.
type SignupResult struct {
	Message string `json:"message"`
}

// OTPMode tells the gateway why a code is being requested.
type OTPMode string

const (
	// OTPLogin is an exported constant or variable used by the gateway contract.
	OTPLogin OTPMode = "login"
	// OTPSignup is an exported constant or variable used by the gateway contract.
	OTPSignup OTPMode = "signup"
)

// Client is the remote auth gateway contract consumed by portalflow.
// Implementations must be safe for concurrent use.
type Client interface {
	CheckEmail(ctx context.Context, email string) (EmailCheck, error)
	Login(ctx context.Context, email, password string) (AuthResult, error)
	RequestOTP(ctx context.Context, email string, mode OTPMode) error
	VerifyOTP(ctx context.Context, email, otp string) (AuthResult, error)
	SetPassword(ctx context.Context, email, password string) error
	Signup(ctx context.Context, req SignupRequest) (SignupResult, error)
}
