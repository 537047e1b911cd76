package portalflow

import (
	"time"

	"github.com/manishturtle/portalflow/session"
)

// cooldown derives the remaining OTP resend wait from the flow record.
// There is no ticking state: the value is recomputed from the stored
// request timestamp (or the forced 429 deadline) on every read, so a UI
// sampling it once per second sees a strictly decreasing countdown.
type cooldown struct {
	window time.Duration
}

// remaining returns the wait left before another OTP request is allowed.
// The forced deadline (set on gateway 429) wins over the natural window
// when it is later.
func (c cooldown) remaining(rec *session.Record, now time.Time) time.Duration {
	var until int64

	if rec.OTPRequested && rec.LastOTPRequestUnix > 0 {
		until = rec.LastOTPRequestUnix + int64(c.window/time.Second)
	}
	if rec.CooldownUntilUnix > until {
		until = rec.CooldownUntilUnix
	}
	if until == 0 {
		return 0
	}

	d := time.Unix(until, 0).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// force records a full window starting at now. Used when the gateway
// answers 429: the server-side limit is authoritative and overrides any
// elapsed local time.
func (c cooldown) force(rec *session.Record, now time.Time) {
	rec.CooldownUntilUnix = now.Add(c.window).Unix()
}
