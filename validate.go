package portalflow

import (
	"regexp"
	"strings"
)

var (
	// RFC-lite: something@something.something. The gateway does the real
	// verification by delivering mail; this only blocks obvious typos
	// before a network call is made.
	emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

	phonePattern = regexp.MustCompile(`^\+?[\d\s-]{10,}$`)
)

// maxEmailLen is the RFC 5321 ceiling for a mail path. Anything longer
// would also overflow the length-prefixed fields of the session codec.
const maxEmailLen = 254

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" || len(email) > maxEmailLen || !emailPattern.MatchString(email) {
		return fieldErr("email", ErrEmailInvalid)
	}
	return nil
}

func validatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return fieldErr("phone", ErrPhoneInvalid)
	}
	return nil
}

func (f *Flow) validatePassword(field, password string) error {
	if len(password) < f.config.Password.MinLength {
		return fieldErr(field, ErrPasswordPolicy)
	}
	return nil
}

func (f *Flow) validateOTP(code string) error {
	if len(code) != f.config.OTP.Digits || !isNumericString(code) {
		return fieldErr("otp", ErrOTPInvalid)
	}
	return nil
}

func (f *Flow) validateSignup(form SignupForm) error {
	if strings.TrimSpace(form.FirstName) == "" {
		return fieldErr("first_name", ErrNameRequired)
	}
	if strings.TrimSpace(form.LastName) == "" {
		return fieldErr("last_name", ErrNameRequired)
	}
	if err := validatePhone(form.Phone); err != nil {
		return err
	}
	return f.validatePassword("password", form.Password)
}

func isNumericString(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
