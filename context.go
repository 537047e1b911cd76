package portalflow

import (
	"context"

	"github.com/manishturtle/portalflow/gateway"
)

// WithClientIP attaches the end user's IP address to ctx. It is forwarded
// to the gateway on every call and recorded in audit events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return gateway.WithClientIP(ctx, ip)
}

// WithTenantID attaches a tenant identifier to ctx. Flow records and
// tokens are stored per tenant; when multi-tenancy is not in use, the
// default tenant "0" applies.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return gateway.WithTenantID(ctx, tenantID)
}

// WithUserAgent attaches the end user's User-Agent string to ctx. It is
// forwarded to the gateway and recorded in audit events.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return gateway.WithUserAgent(ctx, userAgent)
}
