// Package portalflow implements the customer portal authentication sequence
// as an explicit state machine: email check, OTP/password branch, OTP
// verification, optional password set, authenticated.
//
// The remote auth gateway (check-email, login, OTP request/verify, set
// password, signup) is an external collaborator consumed through the
// [gateway.Client] contract. portalflow owns flow routing, per-flow session
// state, local validation, and the OTP resend cooldown; it never implements
// credential verification itself.
//
// The package is designed for concurrent server workloads: Flow methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build]. Concurrent submissions for the same flow are serialized
// by an in-flight guard; the loser receives [ErrFlowBusy] without any
// gateway call being made.
//
// # Architecture boundaries
//
//   - portalflow is the public surface. It exposes [Flow], [Builder],
//     [Config], and value types (FlowState, MetricsSnapshot, AuditEvent).
//   - Session persistence lives in the session subpackage behind
//     [session.Store]; the Redis layout and record encoding never leak into
//     this package's API.
//   - The gateway wire contract (paths, JSON bodies, status mapping) lives
//     in the gateway subpackage.
//
// # Failure contract
//
// Every gateway call is fire-and-forget from the state machine's point of
// view: no automatic retry, no backoff. A failed operation surfaces a typed
// error, leaves the flow in its current step, and the caller retries by
// resubmitting. The only stateful failure is HTTP 429 on an OTP request,
// which forces a full resend cooldown window.
package portalflow
