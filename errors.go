package portalflow

import (
	"errors"
	"fmt"
)

var (
	// ErrFlowNotReady is an exported constant or variable used by the flow controller.
	ErrFlowNotReady = errors.New("flow controller not initialized")
	// ErrFlowNotFound is an exported constant or variable used by the flow controller.
	ErrFlowNotFound = errors.New("flow not found")
	// ErrFlowBusy is returned when a second submission arrives for a flow
	// while a previous one is still in flight. No gateway call is made.
	ErrFlowBusy = errors.New("flow submission already in flight")
	// ErrStepMismatch is an exported constant or variable used by the flow controller.
	ErrStepMismatch = errors.New("operation not valid for current step")
	// ErrEmailInvalid is an exported constant or variable used by the flow controller.
	ErrEmailInvalid = errors.New("invalid email address")
	// ErrPortalAccessDisabled is an exported constant or variable used by the flow controller.
	ErrPortalAccessDisabled = errors.New("portal access disabled for this account")
	// ErrAccountNotFound is returned for an unknown email when the signup
	// branch is disabled by configuration.
	ErrAccountNotFound = errors.New("no account for email")
	// ErrInvalidCredentials is an exported constant or variable used by the flow controller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrOTPInvalid is an exported constant or variable used by the flow controller.
	ErrOTPInvalid = errors.New("invalid one-time password")
	// ErrOTPCooldown is returned when a resend is attempted while the local
	// cooldown is still positive. No gateway call is made.
	ErrOTPCooldown = errors.New("otp resend cooldown active")
	// ErrOTPRateLimited is returned when the gateway answers an OTP request
	// with HTTP 429. A full cooldown window is forced locally.
	ErrOTPRateLimited = errors.New("otp request rate limited by gateway")
	// ErrPasswordPolicy is an exported constant or variable used by the flow controller.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrPasswordMismatch is an exported constant or variable used by the flow controller.
	ErrPasswordMismatch = errors.New("password confirmation does not match")
	// ErrPhoneInvalid is an exported constant or variable used by the flow controller.
	ErrPhoneInvalid = errors.New("invalid phone number")
	// ErrNameRequired is an exported constant or variable used by the flow controller.
	ErrNameRequired = errors.New("name is required")
	// ErrSignupFailed is an exported constant or variable used by the flow controller.
	ErrSignupFailed = errors.New("signup rejected by gateway")
	// ErrNotAuthenticated is an exported constant or variable used by the flow controller.
	ErrNotAuthenticated = errors.New("no valid auth token for flow")
	// ErrGatewayUnavailable is an exported constant or variable used by the flow controller.
	ErrGatewayUnavailable = errors.New("auth gateway unavailable")
)

// FieldError is a locally detected, field-scoped validation failure. It is
// returned before any gateway call is made and wraps one of the validation
// sentinels above so callers can match with errors.Is.
type FieldError struct {
	Field string
	Err   error
}

// Error describes the error operation and its observable behavior.
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

// Unwrap describes the unwrap operation and its observable behavior.
func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldErr(field string, err error) error {
	return &FieldError{Field: field, Err: err}
}
