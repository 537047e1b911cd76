package session

// HasPassword tri-state. The account's password status is unknown until
// the gateway's check-email call answers; routing decisions must not be
// made from the zero value.
const (
	HasPasswordUnknown uint8 = 0
	HasPasswordNo      uint8 = 1
	HasPasswordYes     uint8 = 2
)

// Record defines a public type used by portalflow APIs.
//
// Record instances are owned by the flow engine: callers receive copies
// through the flow state snapshot and never mutate a Record directly.
type Record struct {
	FlowID   string
	TenantID string

	// Email is the address being authenticated. SignupEmail survives a
	// switch into the signup branch so the signup form can prefill it.
	Email       string
	SignupEmail string

	HasPassword   uint8
	EmailVerified bool

	// OTPRequested and LastOTPRequestUnix drive the derived resend
	// cooldown. CooldownUntilUnix is a forced deadline written when the
	// gateway rate-limits a request; it wins when later than the
	// natural window.
	OTPRequested       bool
	LastOTPRequestUnix int64
	CooldownUntilUnix  int64

	Step    uint8
	OTPMode uint8

	CreatedAt int64
	ExpiresAt int64
}

// TokenRecord defines a public type used by portalflow APIs.
//
// It carries the gateway-issued bearer token and the user profile that
// came with it. Stored as JSON since it is read by frontends, not by
// the hot flow path.
type TokenRecord struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id,omitempty"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`

	IssuedAtUnix  int64 `json:"issued_at"`
	ExpiresAtUnix int64 `json:"expires_at,omitempty"`
}
