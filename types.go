package portalflow

import "time"

// Step identifies the screen the flow is currently presenting. It is a
// tagged state: the flow record carries exactly one Step at a time, and
// every operation validates the step before doing anything else, so
// contradictory flag combinations are unrepresentable.
type Step uint8

const (
	// StepEnterEmail is an exported constant or variable used by the flow controller.
	StepEnterEmail Step = iota
	// StepEnterPassword is an exported constant or variable used by the flow controller.
	StepEnterPassword
	// StepEnterOTP is an exported constant or variable used by the flow controller.
	StepEnterOTP
	// StepSetPassword is an exported constant or variable used by the flow controller.
	StepSetPassword
	// StepSignup is an exported constant or variable used by the flow controller.
	StepSignup
	// StepDashboard is an exported constant or variable used by the flow controller.
	StepDashboard
)

// String describes the string operation and its observable behavior.
func (s Step) String() string {
	switch s {
	case StepEnterEmail:
		return "enter_email"
	case StepEnterPassword:
		return "enter_password"
	case StepEnterOTP:
		return "enter_otp"
	case StepSetPassword:
		return "set_password"
	case StepSignup:
		return "signup"
	case StepDashboard:
		return "dashboard"
	default:
		return "unknown"
	}
}

// OTPMode distinguishes why the flow is on the OTP screen: verifying an
// existing account at login, or confirming a freshly signed-up one.
type OTPMode uint8

const (
	// OTPModeNone is an exported constant or variable used by the flow controller.
	OTPModeNone OTPMode = iota
	// OTPModeLogin is an exported constant or variable used by the flow controller.
	OTPModeLogin
	// OTPModeSignup is an exported constant or variable used by the flow controller.
	OTPModeSignup
)

// String describes the string operation and its observable behavior.
func (m OTPMode) String() string {
	switch m {
	case OTPModeLogin:
		return "login"
	case OTPModeSignup:
		return "signup"
	default:
		return "none"
	}
}

// FlowState is the public snapshot returned by every Flow operation. It is
// what a rendering layer needs to present the current screen: the step, the
// identifiers collected so far, and the derived cooldown.
type FlowState struct {
	FlowID      string
	Step        Step
	OTPMode     OTPMode
	Email       string
	SignupEmail string

	// HasPassword reflects the gateway's answer for the checked email.
	// It is meaningless before the email check resolves (HasPasswordKnown
	// is false until then).
	HasPassword      bool
	HasPasswordKnown bool

	OTPRequested bool

	// Cooldown is the remaining resend wait, derived from the stored
	// request timestamp and the clock at snapshot time. Zero means the
	// resend action is enabled.
	Cooldown time.Duration

	Authenticated bool
}

// SignupForm carries the fields submitted from the signup screen.
// Validation is field-scoped: the first failing field aborts submission
// with a [FieldError] and no gateway call.
type SignupForm struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
}
