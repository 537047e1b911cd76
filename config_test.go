package portalflow

import (
	"testing"
	"time"

	"github.com/manishturtle/portalflow/gateway/gatewaytest"
	"github.com/manishturtle/portalflow/session"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestConfigValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"otp digits too small", func(c *Config) { c.OTP.Digits = 3 }},
		{"otp digits too large", func(c *Config) { c.OTP.Digits = 11 }},
		{"zero cooldown", func(c *Config) { c.OTP.ResendCooldown = 0 }},
		{"short min length", func(c *Config) { c.Password.MinLength = 7 }},
		{"empty redis prefix", func(c *Config) { c.Session.RedisPrefix = "" }},
		{"zero flow ttl", func(c *Config) { c.Session.FlowTTL = 0 }},
		{"negative token ttl", func(c *Config) { c.Session.TokenTTL = -time.Second }},
		{"audit enabled zero buffer", func(c *Config) {
			c.Audit.Enabled = true
			c.Audit.BufferSize = 0
		}},
	}

	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestBuildRequiresGatewayAndStore(t *testing.T) {
	if _, err := New().WithSessionStore(session.NewMemStore()).Build(); err == nil {
		t.Fatal("expected error when gateway is missing")
	}
	if _, err := New().WithGateway(gatewaytest.New()).Build(); err == nil {
		t.Fatal("expected error when store and redis are missing")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().
		WithGateway(gatewaytest.New()).
		WithSessionStore(session.NewMemStore())

	f, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer f.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}

func TestBuildConfigIsolatedFromCallerMutation(t *testing.T) {
	cfg := DefaultConfig()
	b := New().
		WithConfig(cfg).
		WithGateway(gatewaytest.New()).
		WithSessionStore(session.NewMemStore())

	cfg.OTP.ResendCooldown = time.Hour

	f, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer f.Close()

	if f.config.OTP.ResendCooldown != 60*time.Second {
		t.Fatalf("expected config cloned at WithConfig, got %v", f.config.OTP.ResendCooldown)
	}
}
