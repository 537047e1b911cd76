// Command portalflow-demo walks the portal authentication flow end to end
// against an in-memory gateway and Redis, printing every transition.
//
// It needs no external services: without REDIS_ADDR it starts miniredis,
// and the gateway is the gatewaytest fake with three seeded accounts. Set
// PORTALFLOW_GATEWAY_URL to point at a real gateway instead.
//
// Configuration is read from a .env file (when present) and from
// PORTALFLOW_* environment variables:
//
//	PORTALFLOW_REDIS_ADDR       redis address (default: embedded miniredis)
//	PORTALFLOW_GATEWAY_URL      gateway base URL (default: in-memory fake)
//	PORTALFLOW_REDIS_PREFIX     key prefix (default "pf")
//	PORTALFLOW_OTP_COOLDOWN     resend cooldown, e.g. "60s"
//	PORTALFLOW_SIGNUP_ENABLED   "false" to disable the signup route
//
// Run:
//
//	go run ./cmd/portalflow-demo
package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	portalflow "github.com/manishturtle/portalflow"
	"github.com/manishturtle/portalflow/gateway"
	"github.com/manishturtle/portalflow/gateway/gatewaytest"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	k := loadConfig(logger)

	cfg := portalflow.DefaultConfig()
	if prefix := k.String("redis.prefix"); prefix != "" {
		cfg.Session.RedisPrefix = prefix
	}
	if cd := k.String("otp.cooldown"); cd != "" {
		d, err := time.ParseDuration(cd)
		if err != nil {
			logger.Fatal("invalid PORTALFLOW_OTP_COOLDOWN", zap.String("value", cd), zap.Error(err))
		}
		cfg.OTP.ResendCooldown = d
	}
	if k.Exists("signup.enabled") {
		cfg.Signup.Enabled = k.Bool("signup.enabled")
	}
	cfg.Audit.Enabled = true
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	client, cleanup := connectRedis(logger, k.String("redis.addr"))
	defer cleanup()

	var (
		gw   gateway.Client
		fake *gatewaytest.Fake
	)
	if url := k.String("gateway.url"); url != "" {
		logger.Info("using HTTP gateway", zap.String("url", url))
		gw = gateway.NewHTTPClient(url)
	} else {
		logger.Info("using in-memory fake gateway")
		fake = seededFake()
		gw = fake
	}

	flow, err := portalflow.New().
		WithConfig(cfg).
		WithRedis(client).
		WithGateway(gw).
		WithAuditSink(portalflow.NewJSONWriterSink(os.Stdout)).
		Build()
	if err != nil {
		logger.Fatal("build flow", zap.Error(err))
	}
	defer flow.Close()

	if fake == nil {
		logger.Info("real gateway configured; skipping scripted walkthrough")
		return
	}

	ctx := portalflow.WithClientIP(context.Background(), "127.0.0.1")
	ctx = portalflow.WithUserAgent(ctx, "portalflow-demo/1.0")

	d := &demo{logger: logger, flow: flow, fake: fake}
	d.runPasswordLogin(ctx)
	d.runOTPLogin(ctx)
	d.runSignup(ctx)

	snap := flow.MetricsSnapshot()
	logger.Info("metrics",
		zap.Uint64("flows_started", snap.Counters[portalflow.MetricFlowStarted]),
		zap.Uint64("logins", snap.Counters[portalflow.MetricLoginSuccess]),
		zap.Uint64("otps_requested", snap.Counters[portalflow.MetricOTPRequested]),
		zap.Uint64("otps_verified", snap.Counters[portalflow.MetricOTPVerified]),
		zap.Uint64("signups", snap.Counters[portalflow.MetricSignupSuccess]),
		zap.Uint64("audit_dropped", flow.AuditDropped()),
	)
}

// loadConfig layers a .env file under PORTALFLOW_* environment variables.
func loadConfig(logger *zap.Logger) *koanf.Koanf {
	k := koanf.New(".")

	if _, err := os.Stat(".env"); err == nil {
		if err := k.Load(file.Provider(".env"), dotenv.Parser()); err != nil {
			logger.Fatal("load .env", zap.Error(err))
		}
		logger.Info("loaded .env")
	}

	err := k.Load(env.Provider("PORTALFLOW_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "PORTALFLOW_")), "_", ".")
	}), nil)
	if err != nil {
		logger.Fatal("load environment", zap.Error(err))
	}

	return k
}

func connectRedis(logger *zap.Logger, addr string) (redis.UniversalClient, func()) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		logger.Info("using redis", zap.String("addr", addr))
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		return client, func() { _ = client.Close() }
	}

	mr, err := miniredis.Run()
	if err != nil {
		logger.Fatal("start miniredis", zap.Error(err))
	}
	logger.Info("using embedded miniredis", zap.String("addr", mr.Addr()))

	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	return client, func() {
		_ = client.Close()
		mr.Close()
	}
}

func seededFake() *gatewaytest.Fake {
	fake := gatewaytest.New()
	fake.Seed(gatewaytest.Account{
		Email:             "alice@example.com",
		Password:          "correct-horse",
		FirstName:         "Alice",
		AllowPortalAccess: true,
		HasPassword:       true,
		EmailVerified:     true,
	})
	fake.Seed(gatewaytest.Account{
		Email:             "pat@example.com",
		FirstName:         "Pat",
		AllowPortalAccess: true,
	})
	return fake
}

type demo struct {
	logger *zap.Logger
	flow   *portalflow.Flow
	fake   *gatewaytest.Fake
}

func (d *demo) must(state portalflow.FlowState, err error) portalflow.FlowState {
	if err != nil {
		d.logger.Fatal("flow operation failed", zap.Error(err))
	}
	return state
}

func (d *demo) runPasswordLogin(ctx context.Context) {
	d.logger.Info("--- scenario: password login ---")

	state := d.must(d.flow.Start(ctx))
	d.logger.Info("started", zap.String("flow_id", state.FlowID), zap.String("step", state.Step.String()))

	state = d.must(d.flow.SubmitEmail(ctx, state.FlowID, "alice@example.com"))
	d.logger.Info("email routed", zap.String("step", state.Step.String()))

	state = d.must(d.flow.SubmitPassword(ctx, state.FlowID, "correct-horse"))
	d.logger.Info("logged in", zap.String("step", state.Step.String()), zap.Bool("authenticated", state.Authenticated))

	tok, err := d.flow.Token(ctx, state.FlowID)
	if err != nil {
		d.logger.Fatal("token", zap.Error(err))
	}
	d.logger.Info("credential stored", zap.String("email", tok.Email))

	state = d.must(d.flow.Logout(ctx, state.FlowID))
	d.logger.Info("logged out", zap.String("step", state.Step.String()))
}

func (d *demo) runOTPLogin(ctx context.Context) {
	d.logger.Info("--- scenario: passwordless OTP login ---")

	state := d.must(d.flow.Start(ctx))

	state = d.must(d.flow.SubmitEmail(ctx, state.FlowID, "pat@example.com"))
	d.logger.Info("email routed", zap.String("step", state.Step.String()), zap.Duration("cooldown", state.Cooldown))

	code := d.fake.LastOTP("pat@example.com")
	state = d.must(d.flow.SubmitOTP(ctx, state.FlowID, code))
	d.logger.Info("code accepted", zap.String("step", state.Step.String()))

	state = d.must(d.flow.SetPassword(ctx, state.FlowID, "new-password-1", "new-password-1"))
	d.logger.Info("password set", zap.String("step", state.Step.String()), zap.Bool("authenticated", state.Authenticated))
}

func (d *demo) runSignup(ctx context.Context) {
	d.logger.Info("--- scenario: signup ---")

	state := d.must(d.flow.Start(ctx))

	state = d.must(d.flow.SubmitEmail(ctx, state.FlowID, "new@example.com"))
	d.logger.Info("email routed", zap.String("step", state.Step.String()))

	state = d.must(d.flow.SubmitSignup(ctx, state.FlowID, portalflow.SignupForm{
		FirstName: "New",
		LastName:  "Customer",
		Phone:     "+1 555 000 1234",
		Password:  "first-password-1",
	}))
	d.logger.Info("account created", zap.String("step", state.Step.String()), zap.Duration("cooldown", state.Cooldown))

	code := d.fake.LastOTP("new@example.com")
	state = d.must(d.flow.SubmitOTP(ctx, state.FlowID, code))
	d.logger.Info("verified", zap.String("step", state.Step.String()), zap.Bool("authenticated", state.Authenticated))
}
