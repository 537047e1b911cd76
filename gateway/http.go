package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

// HTTPClient is the JSON-over-HTTP [Client]. One instance per gateway
// base URL; safe for concurrent use.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// HTTPOption customizes an [HTTPClient].
type HTTPOption func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client. Use it to set
// custom transports, proxies, or timeouts.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		c.http = hc
	}
}

// NewHTTPClient creates an [HTTPClient] for the gateway at baseURL.
func NewHTTPClient(baseURL string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *HTTPClient) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	// Forward end-user metadata so server-side rate limiting and audit
	// logs see the real caller, not the portal backend.
	if ip := ClientIPFromContext(ctx); ip != "" {
		req.Header.Set("X-Forwarded-For", ip)
	}
	if ua := UserAgentFromContext(ctx); ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	if tenantID := TenantIDFromContext(ctx); tenantID != "0" {
		req.Header.Set("X-Tenant-ID", tenantID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		msg := eb.Message
		if msg == "" {
			msg = eb.Error
		}
		return &StatusError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}

// CheckEmail asks the gateway whether an account exists for email and how
// it may authenticate.
func (c *HTTPClient) CheckEmail(ctx context.Context, email string) (EmailCheck, error) {
	var out EmailCheck
	err := c.post(ctx, "/auth/check-email", map[string]string{"email": email}, &out)
	return out, err
}

// Login exchanges email and password for a token.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var out AuthResult
	err := c.post(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	return out, err
}

// RequestOTP asks the gateway to deliver a one-time code to email.
func (c *HTTPClient) RequestOTP(ctx context.Context, email string, mode OTPMode) error {
	return c.post(ctx, "/auth/send-otp", map[string]string{
		"email": email,
		"mode":  string(mode),
	}, nil)
}

// VerifyOTP exchanges a delivered code for a token.
func (c *HTTPClient) VerifyOTP(ctx context.Context, email, otp string) (AuthResult, error) {
	var out AuthResult
	err := c.post(ctx, "/auth/verify-otp", map[string]string{
		"email": email,
		"otp":   otp,
	}, &out)
	return out, err
}

// SetPassword stores a password for a freshly verified account.
func (c *HTTPClient) SetPassword(ctx context.Context, email, password string) error {
	return c.post(ctx, "/auth/set-password", map[string]string{
		"email":    email,
		"password": password,
	}, nil)
}

// Signup creates an account. The gateway sends the first OTP itself on
// success; callers must not issue a second request.
func (c *HTTPClient) Signup(ctx context.Context, req SignupRequest) (SignupResult, error) {
	var out SignupResult
	err := c.post(ctx, "/auth/signup", req, &out)
	return out, err
}
