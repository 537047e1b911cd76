package portalflow

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/manishturtle/portalflow/gateway"
	"github.com/manishturtle/portalflow/session"
	"github.com/manishturtle/portalflow/token"
)

// Flow is the portal authentication flow controller. It is immutable after
// [Builder.Build]; all per-user state lives in the [session.Store].
//
// Every operation loads the flow record, validates the current step,
// performs at most one gateway call, persists the updated record, and
// returns a [FlowState] snapshot. Concurrent submissions against the same
// flow are rejected with [ErrFlowBusy] before any gateway call.
type Flow struct {
	config  Config
	store   session.Store
	gateway gateway.Client
	clock   Clock
	cd      cooldown
	audit   *auditDispatcher
	metrics *Metrics

	inflight inflightGuard
	closed   atomic.Bool
}

// inflightGuard tracks flow IDs with a submission in progress. It guards
// dispatch, not data: the record itself is only ever written by the
// holder of the guard.
type inflightGuard struct {
	mu    sync.Mutex
	flows map[string]struct{}
}

func (g *inflightGuard) acquire(flowID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.flows[flowID]; busy {
		return false
	}
	g.flows[flowID] = struct{}{}
	return true
}

func (g *inflightGuard) release(flowID string) {
	g.mu.Lock()
	delete(g.flows, flowID)
	g.mu.Unlock()
}

func (f *Flow) begin(flowID string) error {
	if f == nil || f.closed.Load() {
		return ErrFlowNotReady
	}
	if !f.inflight.acquire(flowID) {
		return ErrFlowBusy
	}
	return nil
}

func (f *Flow) load(ctx context.Context, flowID string) (*session.Record, error) {
	rec, err := f.store.Get(ctx, gateway.TenantIDFromContext(ctx), flowID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrFlowNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (f *Flow) save(ctx context.Context, rec *session.Record, now time.Time) error {
	ttl := time.Unix(rec.ExpiresAt, 0).Sub(now)
	if ttl <= 0 {
		ttl = time.Second
	}
	return f.store.Save(ctx, rec, ttl)
}

func (f *Flow) snapshot(rec *session.Record, now time.Time) FlowState {
	return FlowState{
		FlowID:           rec.FlowID,
		Step:             Step(rec.Step),
		OTPMode:          OTPMode(rec.OTPMode),
		Email:            rec.Email,
		SignupEmail:      rec.SignupEmail,
		HasPassword:      rec.HasPassword == session.HasPasswordYes,
		HasPasswordKnown: rec.HasPassword != session.HasPasswordUnknown,
		OTPRequested:     rec.OTPRequested,
		Cooldown:         f.cd.remaining(rec, now),
		Authenticated:    Step(rec.Step) == StepDashboard,
	}
}

func (f *Flow) emit(ctx context.Context, eventType string, rec *session.Record, success bool, opErr error) {
	if f.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: f.clock.Now(),
		EventType: eventType,
		FlowID:    rec.FlowID,
		TenantID:  rec.TenantID,
		Email:     rec.Email,
		Step:      Step(rec.Step).String(),
		IP:        gateway.ClientIPFromContext(ctx),
		UserAgent: gateway.UserAgentFromContext(ctx),
		Success:   success,
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}

	f.audit.Emit(ctx, event)
}

func (f *Flow) observeGateway(start time.Time) {
	f.metrics.Observe(MetricGatewayLatency, f.clock.Now().Sub(start))
}

func (f *Flow) gatewayErr(err error) error {
	if errors.Is(err, gateway.ErrUnavailable) {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	return err
}

// Start creates a new flow at [StepEnterEmail] and persists it under the
// tenant from ctx.
//
// Start may return an error when input validation, dependency calls, or security checks fail.
// Start does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (f *Flow) Start(ctx context.Context) (FlowState, error) {
	if f == nil || f.closed.Load() {
		return FlowState{}, ErrFlowNotReady
	}

	now := f.clock.Now()
	rec := &session.Record{
		FlowID:    uuid.NewString(),
		TenantID:  gateway.TenantIDFromContext(ctx),
		Step:      uint8(StepEnterEmail),
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(f.config.Session.FlowTTL).Unix(),
	}

	if err := f.store.Save(ctx, rec, f.config.Session.FlowTTL); err != nil {
		return FlowState{}, err
	}

	f.metrics.Inc(MetricFlowStarted)
	f.emit(ctx, "flow.started", rec, true, nil)

	return f.snapshot(rec, now), nil
}

// State returns the current snapshot of a flow without mutating it. It is
// not blocked by an in-flight submission.
//
// State may return an error when input validation, dependency calls, or security checks fail.
// State does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (f *Flow) State(ctx context.Context, flowID string) (FlowState, error) {
	if f == nil || f.closed.Load() {
		return FlowState{}, ErrFlowNotReady
	}

	rec, err := f.load(ctx, flowID)
	if err != nil {
		return FlowState{}, err
	}

	state := f.snapshot(rec, f.clock.Now())
	if state.Authenticated {
		// An expired or revoked token demotes the snapshot even though
		// the record still says dashboard.
		if _, err := f.store.Token(ctx, rec.TenantID, rec.FlowID); err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				return FlowState{}, err
			}
			state.Authenticated = false
		}
	}

	return state, nil
}

// SubmitEmail resolves the entry screen: it validates email locally, asks
// the gateway what the account can do, and routes to the password, OTP,
// or signup step. Entering the OTP step requests a code immediately,
// exactly once.
//
// SubmitEmail may return an error when input validation, dependency calls, or security checks fail.
// SubmitEmail does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (f *Flow) SubmitEmail(ctx context.Context, flowID, email string) (FlowState, error) {
	if err := f.begin(flowID); err != nil {
		return FlowState{}, err
	}
	defer f.inflight.release(flowID)

	rec, err := f.load(ctx, flowID)
	if err != nil {
		return FlowState{}, err
	}
	now := f.clock.Now()

	if Step(rec.Step) != StepEnterEmail {
		return f.snapshot(rec, now), ErrStepMismatch
	}
	if err := validateEmail(email); err != nil {
		return f.snapshot(rec, now), err
	}
	email = strings.ToLower(strings.TrimSpace(email))

	start := f.clock.Now()
	check, err := f.gateway.CheckEmail(ctx, email)
	f.observeGateway(start)
	if err != nil {
		f.emit(ctx, "email.check_failed", rec, false, err)
		return f.snapshot(rec, now), f.gatewayErr(err)
	}
	f.metrics.Inc(MetricEmailSubmitted)

	if !check.Exists {
		if !f.config.Signup.Enabled {
			f.emit(ctx, "email.unknown", rec, false, ErrAccountNotFound)
			return f.snapshot(rec, now), ErrAccountNotFound
		}

		rec.SignupEmail = email
		rec.Step = uint8(StepSignup)
		rec.OTPMode = uint8(OTPModeNone)
		if err := f.save(ctx, rec, now); err != nil {
			return FlowState{}, err
		}
		f.emit(ctx, "email.routed_signup", rec, true, nil)
		return f.snapshot(rec, now), nil
	}

	if !check.AllowPortalAccess {
		f.metrics.Inc(MetricPortalAccessDenied)
		f.emit(ctx, "email.portal_denied", rec, false, ErrPortalAccessDisabled)
		return f.snapshot(rec, now), ErrPortalAccessDisabled
	}

	rec.Email = email
	rec.EmailVerified = check.EmailVerified
	if check.HasPassword {
		rec.HasPassword = session.HasPasswordYes
	} else {
		rec.HasPassword = session.HasPasswordNo
	}

	if check.HasPassword && check.EmailVerified {
		rec.Step = uint8(StepEnterPassword)
		rec.OTPMode = uint8(OTPModeNone)
		if err := f.save(ctx, rec, now); err != nil {
			return FlowState{}, err
		}
		f.emit(ctx, "email.routed_password", rec, true, nil)
		return f.snapshot(rec, now), nil
	}

	// No usable password path: verify by OTP. The code is requested
	// eagerly on entry so the user never sees an empty OTP screen.
	rec.Step = uint8(StepEnterOTP)
	rec.OTPMode = uint8(OTPModeLogin)
	reqErr := f.requestOTP(ctx, rec, gateway.OTPLogin, now)

	if err := f.save(ctx, rec, now); err != nil {
		return FlowState{}, err
	}
	f.emit(ctx, "email.routed_otp", rec, true, nil)
	return f.snapshot(rec, now), reqErr
}

// requestOTP performs one gateway delivery call and records the outcome on
// rec. A 429 answer forces a full local cooldown window; the step
// transition already applied by the caller stands either way.
func (f *Flow) requestOTP(ctx context.Context, rec *session.Record, mode gateway.OTPMode, now time.Time) error {
	start := f.clock.Now()
	err := f.gateway.RequestOTP(ctx, rec.Email, mode)
	f.observeGateway(start)

	switch {
	case err == nil:
		rec.OTPRequested = true
		rec.LastOTPRequestUnix = now.Unix()
		f.metrics.Inc(MetricOTPRequested)
		f.emit(ctx, "otp.requested", rec, true, nil)
		return nil
	case errors.Is(err, gateway.ErrRateLimited):
		f.cd.force(rec, now)
		f.metrics.Inc(MetricOTPRateLimited)
		f.emit(ctx, "otp.rate_limited", rec, false, ErrOTPRateLimited)
		return ErrOTPRateLimited
	default:
		f.emit(ctx, "otp.request_failed", rec, false, err)
		return f.gatewayErr(err)
	}
}

// SubmitPassword exchanges the password for a token at
// [StepEnterPassword]. A gateway rejection surfaces as
// [ErrInvalidCredentials] and leaves the step unchanged for retry.
//
// SubmitPassword may return an error when input validation, dependency calls, or security checks fail.
// SubmitPassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (f *Flow) SubmitPassword(ctx context.Context, flowID, password string) (FlowState, error) {
	if err := f.begin(flowID); err != nil {
		return FlowState{}, err
	}
	defer f.inflight.release(flowID)

	rec, err := f.load(ctx, flowID)
	if err != nil {
		return FlowState{}, err
	}
	now := f.clock.Now()

	if Step(rec.Step) != StepEnterPassword {
		return f.snapshot(rec, now), ErrStepMismatch
	}
	if password == "" {
		return f.snapshot(rec, now), fieldErr("password", ErrInvalidCredentials)
	}

	start := f.clock.Now()
	res, err := f.gateway.Login(ctx, rec.Email, password)
	f.observeGateway(start)
	if err != nil {
		var se *gateway.StatusError
		if errors.As(err, &se) && (se.Status == http.StatusUnauthorized || se.Status == http.StatusForbidden) {
			f.metrics.Inc(MetricLoginFailure)
			f.emit(ctx, "login.failure", rec, false, ErrInvalidCredentials)
			return f.snapshot(rec, now), ErrInvalidCredentials
		}
		f.emit(ctx, "login.failure", rec, false, err)
		return f.snapshot(rec, now), f.gatewayErr(err)
	}

	f.metrics.Inc(MetricLoginSuccess)
	if err := f.persistToken(ctx, rec, res, now); err != nil {
		return FlowState{}, err
	}

	rec.Step = uint8(StepDashboard)
	rec.OTPMode = uint8(OTPModeNone)
	rec.Email = ""
	if err := f.save(ctx, rec, now); err != nil {
		return FlowState{}, err
	}

	f.emit(ctx, "login.success", rec, true, nil)
	return f.snapshot(rec, now), nil
}

// persistToken stores the gateway-issued credential for the flow. The
// storage TTL follows the token's own expiry claim when it is a JWT and
// falls back to the configured TokenTTL otherwise.
func (f *Flow) persistToken(ctx context.Context, rec *session.Record, res gateway.AuthResult, now time.Time) error {
	tok := &session.TokenRecord{
		Token:        res.Token,
		IssuedAtUnix: now.Unix(),
	}
	if res.User != nil {
		tok.UserID = res.User.ID
		tok.Email = res.User.Email
		tok.FirstName = res.User.FirstName
		tok.LastName = res.User.LastName
	}
	if info, ok := token.Inspect(res.Token); ok {
		if tok.Email == "" {
			tok.Email = info.Subject
		}
		if !info.ExpiresAt.IsZero() {
			tok.ExpiresAtUnix = info.ExpiresAt.Unix()
		}
	}

	ttl := token.TTL(res.Token, now, f.config.Session.TokenTTL)
	return f.store.SaveToken(ctx, rec.TenantID, rec.FlowID, tok, ttl)
}

// SubmitOTP verifies a delivered code at [StepEnterOTP]. Success stores
// the issued token and routes to the dashboard, or to [StepSetPassword]
// first when the account has no password yet. A rejected code surfaces as
// [ErrOTPInvalid] and leaves the step unchanged for retry.
//
// SubmitOTP may return an error when input validation, dependency calls, or security checks fail.
// SubmitOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (f *Flow) SubmitOTP(ctx context.Context, flowID, code string) (FlowState, error) {
	if err := f.begin(flowID); err != nil {
		return FlowState{}, err
	}
	defer f.inflight.release(flowID)

	rec, err := f.load(ctx, flowID)
	if err != nil {
		return FlowState{}, err
	}
	now := f.clock.Now()

	if Step(rec.Step) != StepEnterOTP {
		return f.snapshot(rec, now), ErrStepMismatch
	}
	if err := f.validateOTP(code); err != nil {
		return f.snapshot(rec, now), err
	}

	start := f.clock.Now()
	res, err := f.gateway.VerifyOTP(ctx, rec.Email, code)
	f.observeGateway(start)
	if err != nil {
		var se *gateway.StatusError
		if errors.As(err, &se) && (se.Status == http.StatusUnauthorized || se.Status == http.StatusBadRequest) {
			f.metrics.Inc(MetricOTPFailure)
			f.emit(ctx, "otp.failure", rec, false, ErrOTPInvalid)
			return f.snapshot(rec, now), ErrOTPInvalid
		}
		f.emit(ctx, "otp.failure", rec, false, err)
		return f.snapshot(rec, now), f.gatewayErr(err)
	}

	f.metrics.Inc(MetricOTPVerified)
	rec.EmailVerified = true
	if err := f.persistToken(ctx, rec, res, now); err != nil {
		return FlowState{}, err
	}

	if rec.HasPassword == session.HasPasswordNo {
		// Authenticated but passwordless: offer to set one before the
		// dashboard. Email stays on the record for the set-password call.
		rec.Step = uint8(StepSetPassword)
		rec.OTPMode = uint8(OTPModeNone)
	} else {
		rec.Step = uint8(StepDashboard)
		rec.OTPMode = uint8(OTPModeNone)
		rec.Email = ""
	}

	if err := f.save(ctx, rec, now); err != nil {
		return FlowState{}, err
	}

	f.emit(ctx, "otp.verified", rec, true, nil)
	return f.snapshot(rec, now), nil
}

// ResendOTP requests another code at [StepEnterOTP]. While the derived
// cooldown is positive it fails locally with [ErrOTPCooldown] and no
// gateway call is made.
//
// ResendOTP may return an error when input validation, dependency calls, or security checks fail.
// ResendOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (f *Flow) ResendOTP(ctx context.Context, flowID string) (FlowState, error) {
	if err := f.begin(flowID); err != nil {
		return FlowState{}, err
	}
	defer f.inflight.release(flowID)

	rec, err := f.load(ctx, flowID)
	if err != nil {
		return FlowState{}, err
	}
	now := f.clock.Now()

	if Step(rec.Step) != StepEnterOTP {
		return f.snapshot(rec, now), ErrStepMismatch
	}
	if f.cd.remaining(rec, now) > 0 {
		f.metrics.Inc(MetricOTPResendBlocked)
		return f.snapshot(rec, now), ErrOTPCooldown
	}

	mode := gateway.OTPLogin
	if OTPMode(rec.OTPMode) == OTPModeSignup {
		mode = gateway.OTPSignup
	}
	reqErr := f.requestOTP(ctx, rec, mode, now)

	if err := f.save(ctx, rec, now); err != nil {
		return FlowState{}, err
	}
	return f.snapshot(rec, now), reqErr
}

// SubmitSignup creates the account at [StepSignup]. Field validation runs
// locally first; the gateway delivers the first OTP itself on success, so
// the flow records the request and starts the cooldown without a second
// delivery call.
//
// SubmitSignup may return an error when input validation, dependency calls, or security checks fail.
// SubmitSignup does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (f *Flow) SubmitSignup(ctx context.Context, flowID string, form SignupForm) (FlowState, error) {
	if err := f.begin(flowID); err != nil {
		return FlowState{}, err
	}
	defer f.inflight.release(flowID)

	rec, err := f.load(ctx, flowID)
	if err != nil {
		return FlowState{}, err
	}
	now := f.clock.Now()

	if Step(rec.Step) != StepSignup {
		return f.snapshot(rec, now), ErrStepMismatch
	}
	if err := validateEmail(rec.SignupEmail); err != nil {
		return f.snapshot(rec, now), err
	}
	if err := f.validateSignup(form); err != nil {
		return f.snapshot(rec, now), err
	}

	start := f.clock.Now()
	_, err = f.gateway.Signup(ctx, gateway.SignupRequest{
		Email:     rec.SignupEmail,
		FirstName: strings.TrimSpace(form.FirstName),
		LastName:  strings.TrimSpace(form.LastName),
		Phone:     form.Phone,
		Password:  form.Password,
	})
	f.observeGateway(start)
	if err != nil {
		f.metrics.Inc(MetricSignupFailure)
		var se *gateway.StatusError
		if errors.As(err, &se) {
			f.emit(ctx, "signup.failure", rec, false, err)
			return f.snapshot(rec, now), fmt.Errorf("%w: %s", ErrSignupFailed, se.Message)
		}
		f.emit(ctx, "signup.failure", rec, false, err)
		return f.snapshot(rec, now), f.gatewayErr(err)
	}

	f.metrics.Inc(MetricSignupSuccess)

	// The signup response implies a delivered code. Marking the request
	// here starts the cooldown from the response time; issuing another
	// delivery call would double-send.
	rec.Email = rec.SignupEmail
	rec.HasPassword = session.HasPasswordYes
	rec.Step = uint8(StepEnterOTP)
	rec.OTPMode = uint8(OTPModeSignup)
	rec.OTPRequested = true
	rec.LastOTPRequestUnix = now.Unix()

	if err := f.save(ctx, rec, now); err != nil {
		return FlowState{}, err
	}

	f.emit(ctx, "signup.success", rec, true, nil)
	return f.snapshot(rec, now), nil
}

// SetPassword stores a password for the freshly verified account at
// [StepSetPassword] and completes the flow. The two entries must match
// and satisfy the minimum length.
//
// SetPassword may return an error when input validation, dependency calls, or security checks fail.
// SetPassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (f *Flow) SetPassword(ctx context.Context, flowID, password, confirm string) (FlowState, error) {
	if err := f.begin(flowID); err != nil {
		return FlowState{}, err
	}
	defer f.inflight.release(flowID)

	rec, err := f.load(ctx, flowID)
	if err != nil {
		return FlowState{}, err
	}
	now := f.clock.Now()

	if Step(rec.Step) != StepSetPassword {
		return f.snapshot(rec, now), ErrStepMismatch
	}
	if err := f.validatePassword("password", password); err != nil {
		return f.snapshot(rec, now), err
	}
	if password != confirm {
		return f.snapshot(rec, now), fieldErr("confirm", ErrPasswordMismatch)
	}

	start := f.clock.Now()
	err = f.gateway.SetPassword(ctx, rec.Email, password)
	f.observeGateway(start)
	if err != nil {
		f.emit(ctx, "password.set_failed", rec, false, err)
		return f.snapshot(rec, now), f.gatewayErr(err)
	}

	f.metrics.Inc(MetricPasswordSet)
	rec.HasPassword = session.HasPasswordYes
	rec.Step = uint8(StepDashboard)
	rec.Email = ""

	if err := f.save(ctx, rec, now); err != nil {
		return FlowState{}, err
	}

	f.emit(ctx, "password.set", rec, true, nil)
	return f.snapshot(rec, now), nil
}

// SkipPassword declines the optional password at [StepSetPassword] and
// completes the flow. The account stays OTP-only.
//
// SkipPassword may return an error when input validation, dependency calls, or security checks fail.
// SkipPassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (f *Flow) SkipPassword(ctx context.Context, flowID string) (FlowState, error) {
	if err := f.begin(flowID); err != nil {
		return FlowState{}, err
	}
	defer f.inflight.release(flowID)

	rec, err := f.load(ctx, flowID)
	if err != nil {
		return FlowState{}, err
	}
	now := f.clock.Now()

	if Step(rec.Step) != StepSetPassword {
		return f.snapshot(rec, now), ErrStepMismatch
	}

	f.metrics.Inc(MetricPasswordSkipped)
	rec.Step = uint8(StepDashboard)
	rec.Email = ""

	if err := f.save(ctx, rec, now); err != nil {
		return FlowState{}, err
	}

	f.emit(ctx, "password.skipped", rec, true, nil)
	return f.snapshot(rec, now), nil
}

// Token returns the stored credential for an authenticated flow, or
// [ErrNotAuthenticated] when none exists or it has expired.
//
// Token may return an error when input validation, dependency calls, or security checks fail.
// Token does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (f *Flow) Token(ctx context.Context, flowID string) (*session.TokenRecord, error) {
	if f == nil || f.closed.Load() {
		return nil, ErrFlowNotReady
	}

	tok, err := f.store.Token(ctx, gateway.TenantIDFromContext(ctx), flowID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}
	return tok, nil
}

// Logout deletes the stored credential and resets the flow record to the
// entry screen. The token is revoked even when the flow record has already
// expired; logging out an already logged-out flow is a no-op.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (f *Flow) Logout(ctx context.Context, flowID string) (FlowState, error) {
	if err := f.begin(flowID); err != nil {
		return FlowState{}, err
	}
	defer f.inflight.release(flowID)

	now := f.clock.Now()
	tenantID := gateway.TenantIDFromContext(ctx)

	// The token record is keyed independently of the flow record and may
	// outlive it. Revoke first so an expired flow record cannot strand a
	// live credential.
	if err := f.store.DeleteToken(ctx, tenantID, flowID); err != nil {
		return FlowState{}, err
	}

	rec, err := f.load(ctx, flowID)
	if err != nil {
		if !errors.Is(err, ErrFlowNotFound) {
			return FlowState{}, err
		}
		rec = &session.Record{}
	}

	*rec = session.Record{
		FlowID:    flowID,
		TenantID:  tenantID,
		Step:      uint8(StepEnterEmail),
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(f.config.Session.FlowTTL).Unix(),
	}

	if err := f.store.Save(ctx, rec, f.config.Session.FlowTTL); err != nil {
		return FlowState{}, err
	}

	f.metrics.Inc(MetricLogout)
	f.emit(ctx, "logout", rec, true, nil)
	return f.snapshot(rec, now), nil
}

// MetricsSnapshot returns a point-in-time copy of all counters and
// histograms.
func (f *Flow) MetricsSnapshot() MetricsSnapshot {
	if f == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}, Histograms: map[MetricID][]uint64{}}
	}
	return f.metrics.Snapshot()
}

// AuditDropped returns the number of audit events dropped because the
// dispatcher buffer was full.
func (f *Flow) AuditDropped() uint64 {
	if f == nil {
		return 0
	}
	return f.audit.Dropped()
}

// Close drains and stops the audit dispatcher. Operations after Close
// return [ErrFlowNotReady].
func (f *Flow) Close() {
	if f == nil {
		return
	}
	f.closed.Store(true)
	f.audit.Close()
}
