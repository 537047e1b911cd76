package portalflow

import (
	"errors"
	"time"
)

// Config defines a public type used by portalflow APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	OTP      OTPConfig
	Password PasswordConfig
	Signup   SignupConfig
	Session  SessionConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
OTP CONFIG
====================================
*/

// OTPConfig defines a public type used by portalflow APIs.
//
// OTPConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type OTPConfig struct {
	// Digits is the expected code length. Codes of any other length are
	// rejected locally, before the gateway is consulted.
	Digits int

	// ResendCooldown is the minimum interval between OTP requests for one
	// flow. Resends inside the window are rejected without a network call.
	// A gateway 429 forces a full window regardless of elapsed time.
	ResendCooldown time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines a public type used by portalflow APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	MinLength int
}

// SignupConfig defines a public type used by portalflow APIs.
//
// SignupConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SignupConfig struct {
	// Enabled gates the signup branch. When false, an unknown email is a
	// terminal failure instead of a route to the signup screen.
	Enabled bool
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by portalflow APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	RedisPrefix string

	// FlowTTL bounds how long an unfinished flow record survives. It is
	// the tab-session analog: an abandoned wizard expires server-side.
	FlowTTL time.Duration

	// TokenTTL bounds the durable token record. Zero means the record is
	// kept until logout or the bearer token itself expires.
	TokenTTL time.Duration
}

// AuditConfig defines a public type used by portalflow APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by portalflow APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration used when a Builder is created
// without an explicit [Builder.WithConfig] call.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		OTP: OTPConfig{
			Digits:         6,
			ResendCooldown: 60 * time.Second,
		},
		Password: PasswordConfig{
			MinLength: 8,
		},
		Signup: SignupConfig{
			Enabled: true,
		},
		Session: SessionConfig{
			RedisPrefix: "pf",
			FlowTTL:     30 * time.Minute,
			TokenTTL:    0,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	if c.OTP.Digits < 4 || c.OTP.Digits > 10 {
		return errors.New("OTP Digits must be between 4 and 10")
	}
	if c.OTP.ResendCooldown <= 0 {
		return errors.New("OTP ResendCooldown must be > 0")
	}

	if c.Password.MinLength < 8 {
		return errors.New("Password MinLength must be >= 8")
	}

	if c.Session.RedisPrefix == "" {
		return errors.New("Session RedisPrefix must not be empty")
	}
	if c.Session.FlowTTL <= 0 {
		return errors.New("Session FlowTTL must be > 0")
	}
	if c.Session.TokenTTL < 0 {
		return errors.New("Session TokenTTL must be >= 0")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when Audit is enabled")
	}

	return nil
}
