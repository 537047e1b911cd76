// Package gatewaytest provides an in-memory gateway [Fake] for tests and
// demos. It mimics the production gateway's observable behavior,
// including OTP delivery, rate limiting, and token issuance, without any
// network or mail dependency.
package gatewaytest

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/manishturtle/portalflow/gateway"
	"github.com/manishturtle/portalflow/internal"
)

const otpDigits = 6

// Account is one seeded gateway account.
type Account struct {
	Email             string
	Password          string
	FirstName         string
	LastName          string
	Phone             string
	AllowPortalAccess bool
	HasPassword       bool
	EmailVerified     bool
}

// Fake is an in-memory [gateway.Client]. Seed accounts with [Fake.Seed],
// read delivered codes with [Fake.LastOTP], and flip [Fake.RateLimitOTP]
// to simulate server-side throttling. Safe for concurrent use.
type Fake struct {
	mu       sync.Mutex
	accounts map[string]*Account
	otps     map[string]string

	otpRequests  map[string]int
	rateLimitOTP bool

	signingKey []byte
	tokenTTL   time.Duration
}

// New creates an empty [Fake] that mints HS256 tokens with a fixed test
// key and a one hour lifetime.
func New() *Fake {
	return &Fake{
		accounts:    make(map[string]*Account),
		otps:        make(map[string]string),
		otpRequests: make(map[string]int),
		signingKey:  []byte("gatewaytest-signing-key"),
		tokenTTL:    time.Hour,
	}
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Seed registers an account. Seeding the same email twice replaces it.
func (f *Fake) Seed(acct Account) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := acct
	f.accounts[normalize(acct.Email)] = &a
}

// LastOTP returns the code most recently delivered to email, or "".
func (f *Fake) LastOTP(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.otps[normalize(email)]
}

// OTPRequests returns how many delivery calls email has received,
// counting the implicit delivery a successful signup performs.
func (f *Fake) OTPRequests(email string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.otpRequests[normalize(email)]
}

// RateLimitOTP makes subsequent RequestOTP calls answer as HTTP 429 would.
func (f *Fake) RateLimitOTP(limited bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rateLimitOTP = limited
}

func (f *Fake) mintToken(acct *Account) (gateway.AuthResult, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   acct.Email,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(f.tokenTTL)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(f.signingKey)
	if err != nil {
		return gateway.AuthResult{}, err
	}

	return gateway.AuthResult{
		Token: token,
		User: &gateway.User{
			ID:        uuid.NewString(),
			Email:     acct.Email,
			FirstName: acct.FirstName,
			LastName:  acct.LastName,
		},
	}, nil
}

// CheckEmail reports account existence and capabilities.
func (f *Fake) CheckEmail(_ context.Context, email string) (gateway.EmailCheck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	acct, ok := f.accounts[normalize(email)]
	if !ok {
		return gateway.EmailCheck{}, nil
	}
	return gateway.EmailCheck{
		Exists:            true,
		AllowPortalAccess: acct.AllowPortalAccess,
		HasPassword:       acct.HasPassword,
		EmailVerified:     acct.EmailVerified,
	}, nil
}

// Login verifies a password and mints a token.
func (f *Fake) Login(_ context.Context, email, password string) (gateway.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	acct, ok := f.accounts[normalize(email)]
	if !ok || !acct.HasPassword || acct.Password != password {
		return gateway.AuthResult{}, &gateway.StatusError{
			Status:  http.StatusUnauthorized,
			Message: "invalid credentials",
		}
	}
	return f.mintToken(acct)
}

// RequestOTP delivers a fresh code, or [gateway.ErrRateLimited] when
// throttling is enabled.
func (f *Fake) RequestOTP(_ context.Context, email string, _ gateway.OTPMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.rateLimitOTP {
		return gateway.ErrRateLimited
	}

	key := normalize(email)
	if _, ok := f.accounts[key]; !ok {
		return &gateway.StatusError{Status: http.StatusNotFound, Message: "account not found"}
	}

	return f.deliverOTPLocked(key)
}

func (f *Fake) deliverOTPLocked(key string) error {
	otp, err := internal.NewOTP(otpDigits)
	if err != nil {
		return err
	}
	f.otps[key] = otp
	f.otpRequests[key]++
	return nil
}

// VerifyOTP checks a delivered code, consumes it, marks the account's
// email verified, and mints a token.
func (f *Fake) VerifyOTP(_ context.Context, email, otp string) (gateway.AuthResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := normalize(email)
	acct, ok := f.accounts[key]
	if !ok || f.otps[key] == "" || f.otps[key] != otp {
		return gateway.AuthResult{}, &gateway.StatusError{
			Status:  http.StatusUnauthorized,
			Message: "invalid otp",
		}
	}

	delete(f.otps, key)
	acct.EmailVerified = true
	return f.mintToken(acct)
}

// SetPassword stores a password on the account.
func (f *Fake) SetPassword(_ context.Context, email, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	acct, ok := f.accounts[normalize(email)]
	if !ok {
		return &gateway.StatusError{Status: http.StatusNotFound, Message: "account not found"}
	}

	acct.Password = password
	acct.HasPassword = true
	return nil
}

// Signup creates an account and delivers its first OTP, matching the
// production gateway's implicit delivery on signup.
func (f *Fake) Signup(_ context.Context, req gateway.SignupRequest) (gateway.SignupResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := normalize(req.Email)
	if _, ok := f.accounts[key]; ok {
		return gateway.SignupResult{}, &gateway.StatusError{
			Status:  http.StatusConflict,
			Message: "account already exists",
		}
	}

	f.accounts[key] = &Account{
		Email:             req.Email,
		Password:          req.Password,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Phone:             req.Phone,
		AllowPortalAccess: true,
		HasPassword:       true,
	}

	if err := f.deliverOTPLocked(key); err != nil {
		return gateway.SignupResult{}, err
	}

	return gateway.SignupResult{Message: "verification code sent"}, nil
}
