// Package gateway defines the contract of the remote authentication
// gateway and provides its HTTP/JSON client.
//
// The gateway is an external collaborator: portalflow consumes its six
// operations (check-email, login, OTP request, OTP verify, set-password,
// signup) and never implements credential verification itself. All
// state-changing operations use POST with JSON bodies. HTTP 429 is the
// only distinguished error status and maps to [ErrRateLimited]; every
// other non-2xx response is surfaced as a [StatusError] carrying the
// server-supplied message.
//
// There is no retry, backoff, or response de-duplication in this client:
// the flow layer treats every call as fire-and-forget and re-submits only
// on explicit user action.
package gateway
