package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewHTTPClient(srv.URL)
}

func TestCheckEmailDecodesResponse(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/auth/check-email" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body["email"] != "alice@example.com" {
			t.Errorf("unexpected email %q", body["email"])
		}

		_ = json.NewEncoder(w).Encode(EmailCheck{
			Exists:            true,
			AllowPortalAccess: true,
			HasPassword:       true,
			EmailVerified:     true,
		})
	})

	check, err := client.CheckEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("CheckEmail failed: %v", err)
	}
	if !check.Exists || !check.AllowPortalAccess || !check.HasPassword || !check.EmailVerified {
		t.Fatalf("unexpected check result: %+v", check)
	}
}

func Test429MapsToErrRateLimited(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	err := client.RequestOTP(context.Background(), "alice@example.com", OTPLogin)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestErrorBodyBecomesStatusError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "invalid credentials"})
	})

	_, err := client.Login(context.Background(), "alice@example.com", "wrong")

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", se.Status)
	}
	if se.Message != "invalid credentials" {
		t.Fatalf("expected server message, got %q", se.Message)
	}
}

func TestErrorFieldFallback(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "account already exists"})
	})

	_, err := client.Signup(context.Background(), SignupRequest{Email: "a@b.co"})

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Message != "account already exists" {
		t.Fatalf("expected error field fallback, got %q", se.Message)
	}
}

func TestContextMetadataForwardedAsHeaders(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Forwarded-For"); got != "203.0.113.7" {
			t.Errorf("expected forwarded IP, got %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "portal-test/1.0" {
			t.Errorf("expected forwarded user agent, got %q", got)
		}
		if got := r.Header.Get("X-Tenant-ID"); got != "44" {
			t.Errorf("expected tenant header, got %q", got)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	ctx := WithTenantID(WithUserAgent(WithClientIP(context.Background(), "203.0.113.7"), "portal-test/1.0"), "44")
	if err := client.SetPassword(ctx, "alice@example.com", "password-123"); err != nil {
		t.Fatalf("SetPassword failed: %v", err)
	}
}

func TestDefaultTenantOmitsHeader(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["X-Tenant-Id"]; ok {
			t.Error("expected no tenant header for default tenant")
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if err := client.RequestOTP(context.Background(), "alice@example.com", OTPSignup); err != nil {
		t.Fatalf("RequestOTP failed: %v", err)
	}
}

func TestTransportFailureMapsToErrUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	client := NewHTTPClient(srv.URL)

	_, err := client.CheckEmail(context.Background(), "alice@example.com")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestUndecodableSuccessBodyMapsToErrUnavailable(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	})

	_, err := client.Login(context.Background(), "alice@example.com", "password-123")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for bad body, got %v", err)
	}
}

func TestContextValueAccessors(t *testing.T) {
	if got := TenantIDFromContext(context.Background()); got != "0" {
		t.Fatalf("expected default tenant, got %q", got)
	}
	if got := ClientIPFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty IP, got %q", got)
	}

	ctx := WithClientIP(WithTenantID(context.Background(), "9"), "10.0.0.1")
	if got := TenantIDFromContext(ctx); got != "9" {
		t.Fatalf("expected tenant 9, got %q", got)
	}
	if got := ClientIPFromContext(ctx); got != "10.0.0.1" {
		t.Fatalf("expected IP, got %q", got)
	}
}
